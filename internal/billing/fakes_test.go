package billing_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/tax"
	"github.com/noah-isme/backend-pos/internal/taxconfig"
)

type fakeConfigs struct {
	records map[string]taxconfig.Record
}

func (f fakeConfigs) Get(_ context.Context, storeID string) (taxconfig.Record, error) {
	rec, ok := f.records[storeID]
	if !ok {
		return taxconfig.Record{}, taxconfig.ErrNotFound
	}
	return rec, nil
}

type fakeInvoices struct {
	mu       sync.Mutex
	byID     map[string]billing.Invoice
	counters map[string]int64
}

func newFakeInvoices() *fakeInvoices {
	return &fakeInvoices{byID: map[string]billing.Invoice{}, counters: map[string]int64{}}
}

func (f *fakeInvoices) Create(_ context.Context, inv billing.Invoice) (billing.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := inv.StoreID + "|" + inv.CreatedAt.UTC().Format("2006-01-02")
	f.counters[key]++
	inv.Number = billing.FormatNumber(inv.CreatedAt, f.counters[key])
	f.byID[inv.ID] = inv
	return inv, nil
}

func (f *fakeInvoices) Get(_ context.Context, storeID, id string) (billing.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok || inv.StoreID != storeID {
		return billing.Invoice{}, billing.ErrInvoiceNotFound
	}
	return inv, nil
}

func (f *fakeInvoices) List(_ context.Context, storeID string, limit, offset int32) ([]billing.Invoice, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []billing.Invoice
	for _, inv := range f.byID {
		if inv.StoreID == storeID {
			all = append(all, inv)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Number > all[j].Number })
	total := len(all)
	start := int(offset)
	if start > total {
		start = total
	}
	end := start + int(limit)
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dubai() taxconfig.Record {
	return taxconfig.Record{
		StoreID: "dubai-1",
		Version: 3,
		Config: tax.Configuration{
			Country:        "AE",
			Enabled:        true,
			DefaultTaxRate: dec("5"),
			ServiceCharge: tax.Some(tax.ServiceCharge{
				Enabled:                 true,
				Rate:                    dec("10"),
				ApplyTaxOnServiceCharge: tax.Some(true),
			}),
			MunicipalityFee: tax.Some(tax.MunicipalityFee{Enabled: true, Rate: dec("7")}),
		},
	}
}

func mumbai() taxconfig.Record {
	return taxconfig.Record{
		StoreID: "mumbai-1",
		Version: 1,
		Config: tax.Configuration{
			Country:        "IN",
			Enabled:        true,
			DefaultTaxRate: dec("5"),
			ServiceCharge: tax.Some(tax.ServiceCharge{
				Enabled:                 true,
				Rate:                    dec("10"),
				ApplyTaxOnServiceCharge: tax.Some(true),
			}),
			MunicipalityFee: tax.Some(tax.MunicipalityFee{Enabled: true, Rate: dec("7")}),
		},
	}
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
