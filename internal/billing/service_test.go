package billing_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/tax"
	"github.com/noah-isme/backend-pos/internal/taxconfig"
)

type fixture struct {
	svc      *billing.Service
	invoices *fakeInvoices
	clock    *fixedClock
	metrics  *obs.DomainMetrics
	configs  fakeConfigs
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	configs := fakeConfigs{records: map[string]taxconfig.Record{
		"dubai-1":  dubai(),
		"mumbai-1": mumbai(),
	}}
	invoices := newFakeInvoices()
	clock := &fixedClock{now: time.Date(2026, 3, 1, 22, 15, 0, 0, time.UTC)}
	metrics := obs.NewDomainMetrics("test", prometheus.NewRegistry())
	svc, err := billing.NewService(billing.ServiceConfig{
		Configs:  configs,
		Invoices: invoices,
		Metrics:  metrics,
		Now:      clock.Now,
	})
	require.NoError(t, err)
	return fixture{svc: svc, invoices: invoices, clock: clock, metrics: metrics, configs: configs}
}

func TestNewServiceRequiresConfigSource(t *testing.T) {
	_, err := billing.NewService(billing.ServiceConfig{})
	require.Error(t, err)
}

func TestQuoteDubaiCompoundsServiceCharge(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Quote(context.Background(), "dubai-1", billing.QuoteRequest{Subtotal: tax.Some(dec("1000"))})
	require.NoError(t, err)

	require.Equal(t, "AE", q.Jurisdiction)
	require.Equal(t, "AED", q.Currency)
	require.Equal(t, int64(3), q.ConfigVersion)
	require.True(t, q.Breakdown.ServiceChargeAmount.Equal(dec("100")))
	require.True(t, q.Breakdown.TaxableAmount.Equal(dec("1100")))
	require.True(t, q.Breakdown.TaxAmount.Equal(dec("55")))
	require.True(t, q.Breakdown.MunicipalityFeeAmount.Equal(dec("70")))
	require.True(t, q.Breakdown.Total.Equal(dec("1225")))
	require.Equal(t, "AED 1,225.00", q.Display.Total)
	require.Equal(t, "5%", q.Display.TaxRate)

	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TaxQuotes.WithLabelValues("AE", "ok")))
}

func TestQuoteIndiaIgnoresCompoundingAndMunicipality(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Quote(context.Background(), "mumbai-1", billing.QuoteRequest{
		Lines: []tax.Line{
			{Name: "Thali", UnitPrice: dec("250"), Qty: 4},
			{Name: "Void", UnitPrice: dec("99"), Qty: 0},
		},
	})
	require.NoError(t, err)

	require.True(t, q.Subtotal.Equal(dec("1000")))
	require.True(t, q.Breakdown.TaxableAmount.Equal(dec("1000")))
	require.True(t, q.Breakdown.TaxAmount.Equal(dec("50")))
	require.True(t, q.Breakdown.MunicipalityFeeAmount.IsZero())
	require.True(t, q.Breakdown.Total.Equal(dec("1150")))
	require.Equal(t, "₹1,150.00", q.Display.Total)
}

func TestQuoteOverrideAppliesOnlyToQuote(t *testing.T) {
	f := newFixture(t)
	override := tax.Override{
		Enabled:       tax.Some(false),
		ServiceCharge: tax.Some(tax.ServiceCharge{Enabled: false}),
	}
	q, err := f.svc.Quote(context.Background(), "dubai-1", billing.QuoteRequest{
		Subtotal: tax.Some(dec("1000")),
		Discount: tax.Discount{Amount: dec("10"), Type: tax.DiscountPercentage},
		Override: override,
	})
	require.NoError(t, err)
	require.True(t, q.Breakdown.DiscountAmount.Equal(dec("100")))
	require.True(t, q.Breakdown.TaxAmount.IsZero())
	require.True(t, q.Breakdown.TaxRate.IsZero())
	require.True(t, q.Breakdown.Total.Equal(dec("970")))

	stored, err := f.configs.Get(context.Background(), "dubai-1")
	require.NoError(t, err)
	require.True(t, stored.Config.Enabled)
	sc, _ := stored.Config.ServiceCharge.Get()
	require.True(t, sc.Enabled)
}

func TestQuoteExplicitJurisdiction(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Quote(context.Background(), "dubai-1", billing.QuoteRequest{Subtotal: tax.Some(dec("1000")), Jurisdiction: "in"})
	require.NoError(t, err)
	require.Equal(t, "IN", q.Jurisdiction)
	require.True(t, q.Breakdown.MunicipalityFeeAmount.IsZero())
	require.True(t, q.Breakdown.TaxAmount.Equal(dec("50")))
}

func TestQuoteMetricsCollapseUnknownJurisdictions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		_, err := f.svc.Quote(ctx, "dubai-1", billing.QuoteRequest{
			Subtotal:     tax.Some(dec("10")),
			Jurisdiction: fmt.Sprintf("X%d", i),
		})
		require.NoError(t, err)
	}
	_, err := f.svc.Quote(ctx, "ghost", billing.QuoteRequest{Subtotal: tax.Some(dec("10")), Jurisdiction: "ZZ"})
	require.Error(t, err)

	require.Equal(t, 2, testutil.CollectAndCount(f.metrics.TaxQuotes))
	require.Equal(t, 1, testutil.CollectAndCount(f.metrics.QuoteDuration))
	require.Equal(t, 50.0, testutil.ToFloat64(f.metrics.TaxQuotes.WithLabelValues("other", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TaxQuotes.WithLabelValues("other", "error")))
}

func TestQuoteValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Quote(ctx, "dubai-1", billing.QuoteRequest{})
	require.True(t, tax.IsValidationError(err))

	_, err = f.svc.Quote(ctx, "dubai-1", billing.QuoteRequest{Lines: []tax.Line{{UnitPrice: dec("-1"), Qty: 1}}})
	var verr *tax.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "lines[0].unitPrice", verr.Fields[0].Field)

	_, err = f.svc.Quote(ctx, "dubai-1", billing.QuoteRequest{
		Subtotal: tax.Some(dec("100")),
		Discount: tax.Discount{Amount: dec("150"), Type: tax.DiscountFlat},
	})
	require.True(t, tax.IsValidationError(err))
	require.Equal(t, 3.0, testutil.ToFloat64(f.metrics.TaxQuotes.WithLabelValues("AE", "invalid")))
}

func TestQuoteUnknownStore(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Quote(context.Background(), "ghost", billing.QuoteRequest{Subtotal: tax.Some(dec("10"))})
	require.ErrorIs(t, err, taxconfig.ErrNotFound)
}

func TestCreateInvoiceAllocatesNumbersPerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := billing.QuoteRequest{Subtotal: tax.Some(dec("1000"))}

	first, err := f.svc.CreateInvoice(ctx, "dubai-1", req)
	require.NoError(t, err)
	require.Equal(t, "INV-20260301-0001", first.Number)
	_, err = uuid.Parse(first.ID)
	require.NoError(t, err)
	require.True(t, first.Total.Equal(dec("1225")))
	require.Equal(t, int64(3), first.ConfigVersion)

	second, err := f.svc.CreateInvoice(ctx, "dubai-1", req)
	require.NoError(t, err)
	require.Equal(t, "INV-20260301-0002", second.Number)

	other, err := f.svc.CreateInvoice(ctx, "mumbai-1", req)
	require.NoError(t, err)
	require.Equal(t, "INV-20260301-0001", other.Number)

	f.clock.Set(time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC))
	nextDay, err := f.svc.CreateInvoice(ctx, "dubai-1", req)
	require.NoError(t, err)
	require.Equal(t, "INV-20260302-0001", nextDay.Number)

	require.Equal(t, 3.0, testutil.ToFloat64(f.metrics.InvoicesTotal.WithLabelValues("AE")))
}

func TestCreateInvoiceKeepsOverrideOnInvoice(t *testing.T) {
	f := newFixture(t)
	override := tax.Override{CustomRate: tax.Some(dec("12"))}
	inv, err := f.svc.CreateInvoice(context.Background(), "dubai-1", billing.QuoteRequest{
		Subtotal: tax.Some(dec("1000")),
		Override: override,
	})
	require.NoError(t, err)
	rate, ok := inv.Override.CustomRate.Get()
	require.True(t, ok)
	require.True(t, rate.Equal(dec("12")))
	require.True(t, inv.Breakdown.TaxRate.Equal(dec("12")))

	stored, _ := f.configs.Get(context.Background(), "dubai-1")
	require.True(t, stored.Config.DefaultTaxRate.Equal(dec("5")))
}

func TestGetInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.CreateInvoice(ctx, "dubai-1", billing.QuoteRequest{Subtotal: tax.Some(dec("50"))})
	require.NoError(t, err)

	got, err := f.svc.GetInvoice(ctx, "dubai-1", inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.Number, got.Number)

	_, err = f.svc.GetInvoice(ctx, "mumbai-1", inv.ID)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)

	_, err = f.svc.GetInvoice(ctx, "dubai-1", "not-a-uuid")
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestListInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateInvoice(ctx, "dubai-1", billing.QuoteRequest{Subtotal: tax.Some(dec(fmt.Sprint(10 * (i + 1))))})
		require.NoError(t, err)
	}
	items, total, err := f.svc.ListInvoices(ctx, "dubai-1", 1, 2)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, items, 2)
	require.Equal(t, "INV-20260301-0003", items[0].Number)

	items, _, err = f.svc.ListInvoices(ctx, "dubai-1", 2, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestFormatNumber(t *testing.T) {
	day := time.Date(2026, 12, 31, 23, 59, 0, 0, time.FixedZone("GST", 4*3600))
	require.Equal(t, "INV-20261231-0042", billing.FormatNumber(day, 42))
	require.Equal(t, "INV-20261231-12345", billing.FormatNumber(day, 12345))
}
