package tax

import "github.com/shopspring/decimal"

// DiscountType selects how a discount amount is interpreted.
type DiscountType string

const (
	// DiscountFlat subtracts the amount as-is.
	DiscountFlat DiscountType = "flat"
	// DiscountPercentage subtracts amount percent of the base amount.
	DiscountPercentage DiscountType = "percentage"
)

// ServiceCharge configures the dine-in style surcharge.
type ServiceCharge struct {
	Enabled bool            `json:"enabled" yaml:"enabled"`
	Rate    decimal.Decimal `json:"rate" yaml:"rate" validate:"gte=0,lte=100"`
	// ApplyTaxOnServiceCharge compounds tax on top of the service charge where the jurisdiction allows it.
	ApplyTaxOnServiceCharge Optional[bool] `json:"applyTaxOnServiceCharge,omitzero" yaml:"applyTaxOnServiceCharge,omitempty"`
}

// MunicipalityFee configures the percentage fee some jurisdictions levy on the base amount.
type MunicipalityFee struct {
	Enabled bool            `json:"enabled" yaml:"enabled"`
	Rate    decimal.Decimal `json:"rate" yaml:"rate" validate:"gte=0,lte=100"`
}

// Component is a store-defined named percentage charge.
type Component struct {
	Name string          `json:"name" yaml:"name" validate:"required"`
	Rate decimal.Decimal `json:"rate" yaml:"rate" validate:"gte=0,lte=100"`
}

// Configuration is the store-level tax setup. It is loaded from storage and treated as read-only.
type Configuration struct {
	Country          string                    `json:"country" yaml:"country"`
	Enabled          bool                      `json:"enabled" yaml:"enabled"`
	DefaultTaxRate   decimal.Decimal           `json:"defaultTaxRate" yaml:"defaultTaxRate"`
	ServiceCharge    Optional[ServiceCharge]   `json:"serviceCharge,omitzero" yaml:"serviceCharge,omitempty"`
	MunicipalityFee  Optional[MunicipalityFee] `json:"municipalityFee,omitzero" yaml:"municipalityFee,omitempty"`
	CustomComponents []Component               `json:"customComponents" yaml:"customComponents"`
}

// Override replaces parts of a Configuration for a single invoice.
// Each field is inherited from the store configuration unless it is set.
type Override struct {
	Enabled          Optional[bool]            `json:"enabled,omitzero" yaml:"enabled,omitempty"`
	CustomRate       Optional[decimal.Decimal] `json:"customRate,omitzero" yaml:"customRate,omitempty"`
	ServiceCharge    Optional[ServiceCharge]   `json:"serviceCharge,omitzero" yaml:"serviceCharge,omitempty"`
	MunicipalityFee  Optional[MunicipalityFee] `json:"municipalityFee,omitzero" yaml:"municipalityFee,omitempty"`
	CustomComponents Optional[[]Component]     `json:"customComponents,omitzero" yaml:"customComponents,omitempty"`
}

// Discount describes the discount applied to a cart.
type Discount struct {
	Amount decimal.Decimal `json:"amount" validate:"gte=0"`
	Type   DiscountType    `json:"type" validate:"omitempty,oneof=flat percentage"`
}

// Line is a single cart entry.
type Line struct {
	Name      string          `json:"name,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice" validate:"gte=0"`
	Qty       int             `json:"qty"`
}

// Subtotal sums unit price times quantity, ignoring lines without a positive quantity.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty))))
	}
	return total
}

// Input is everything the calculator needs for one computation.
type Input struct {
	Subtotal     decimal.Decimal
	Discount     Discount
	Config       Effective
	Jurisdiction string
	// Scale overrides the jurisdiction rounding scale when set.
	Scale Optional[int32]
}

// ComponentAmount is one itemised custom component in a breakdown.
type ComponentAmount struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Breakdown is the complete pricing result.
type Breakdown struct {
	BaseAmount                decimal.Decimal   `json:"baseAmount"`
	DiscountAmount            decimal.Decimal   `json:"discountAmount"`
	ServiceChargeAmount       decimal.Decimal   `json:"serviceChargeAmount"`
	TaxableAmount             decimal.Decimal   `json:"taxableAmount"`
	TaxAmount                 decimal.Decimal   `json:"taxAmount"`
	TaxRate                   decimal.Decimal   `json:"taxRate"`
	MunicipalityFeeAmount     decimal.Decimal   `json:"municipalityFeeAmount"`
	CustomComponentsAmount    decimal.Decimal   `json:"customComponentsAmount"`
	CustomComponentsBreakdown []ComponentAmount `json:"customComponentsBreakdown"`
	Total                     decimal.Decimal   `json:"total"`
}
