// Package billing turns carts into priced quotes and persisted invoices.
package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/tax"
)

// ErrInvoiceNotFound is returned when no invoice matches the store and id.
var ErrInvoiceNotFound = errors.New("billing: invoice not found")

// QuoteRequest is the cart a terminal wants priced. Subtotal wins over the
// line sum when both are given.
type QuoteRequest struct {
	Lines        []tax.Line                    `json:"lines,omitempty"`
	Subtotal     tax.Optional[decimal.Decimal] `json:"subtotal,omitzero"`
	Discount     tax.Discount                  `json:"discount"`
	Override     tax.Override                  `json:"override"`
	Jurisdiction string                        `json:"jurisdiction,omitempty"`
}

// Display holds the breakdown rendered for receipts and customer displays.
type Display struct {
	BaseAmount             string `json:"baseAmount"`
	DiscountAmount         string `json:"discountAmount"`
	ServiceChargeAmount    string `json:"serviceChargeAmount"`
	TaxAmount              string `json:"taxAmount"`
	TaxRate                string `json:"taxRate"`
	MunicipalityFeeAmount  string `json:"municipalityFeeAmount"`
	CustomComponentsAmount string `json:"customComponentsAmount"`
	Total                  string `json:"total"`
}

// Quote is a priced cart. Nothing about it is persisted.
type Quote struct {
	StoreID       string          `json:"storeId"`
	Jurisdiction  string          `json:"jurisdiction"`
	Currency      string          `json:"currency"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ConfigVersion int64           `json:"configVersion"`
	Breakdown     tax.Breakdown   `json:"breakdown"`
	Display       Display         `json:"display"`
}

// Invoice is the immutable snapshot of a quote at the time of sale.
type Invoice struct {
	ID            string          `json:"id"`
	StoreID       string          `json:"storeId"`
	Number        string          `json:"number"`
	Jurisdiction  string          `json:"jurisdiction"`
	Currency      string          `json:"currency"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Total         decimal.Decimal `json:"total"`
	ConfigVersion int64           `json:"configVersion"`
	Lines         []tax.Line      `json:"lines,omitempty"`
	Breakdown     tax.Breakdown   `json:"breakdown"`
	Override      tax.Override    `json:"override"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// FormatNumber renders the per-store invoice number for a day and sequence.
func FormatNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("INV-%s-%04d", day.UTC().Format("20060102"), seq)
}
