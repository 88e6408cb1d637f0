package tax

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Calculator computes price breakdowns against a jurisdiction policy table.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	policies Policies
}

// NewCalculator returns a calculator using policies, or DefaultPolicies when nil.
func NewCalculator(policies Policies) *Calculator {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Calculator{policies: policies}
}

// Policy exposes the policy applied for a jurisdiction code.
func (c *Calculator) Policy(code string) Policy {
	return c.policies.Lookup(code)
}

// Known reports whether code names a jurisdiction in the calculator's table.
func (c *Calculator) Known(code string) bool {
	_, ok := c.policies[normalizeCode(code)]
	return ok
}

// Calculate produces the breakdown for in. It never fails and never clamps:
// out-of-range inputs yield arithmetically defined results, see Validate.
//
// Every percentage charge is taken from the undiscounted base amount.
func (c *Calculator) Calculate(in Input) Breakdown {
	code := in.Jurisdiction
	if code == "" {
		code = in.Config.Country
	}
	policy := c.policies.Lookup(code)
	scale := in.Scale.OrElse(policy.RoundingScale())
	round := func(d decimal.Decimal) decimal.Decimal { return d.Round(scale) }

	cfg := in.Config
	base := in.Subtotal

	var discount decimal.Decimal
	switch in.Discount.Type {
	case DiscountPercentage:
		discount = round(percentOf(base, in.Discount.Amount))
	default:
		discount = round(in.Discount.Amount)
	}

	serviceCharge := decimal.Zero
	if cfg.ServiceCharge.Enabled {
		serviceCharge = round(percentOf(base, cfg.ServiceCharge.Rate))
	}

	taxable := base
	if cfg.ServiceCharge.Enabled && policy.SupportsServiceChargeCompounding &&
		cfg.ServiceCharge.ApplyTaxOnServiceCharge.OrElse(false) {
		taxable = taxable.Add(serviceCharge)
	}

	taxAmount := decimal.Zero
	taxRate := decimal.Zero
	if cfg.Enabled {
		taxRate = cfg.Rate
		taxAmount = round(percentOf(taxable, taxRate))
	}

	municipality := decimal.Zero
	if cfg.MunicipalityFee.Enabled && policy.SupportsMunicipalityFee {
		municipality = round(percentOf(base, cfg.MunicipalityFee.Rate))
	}

	components := make([]ComponentAmount, 0, len(cfg.CustomComponents))
	componentsTotal := decimal.Zero
	for _, comp := range cfg.CustomComponents {
		amount := round(percentOf(base, comp.Rate))
		components = append(components, ComponentAmount{Name: comp.Name, Rate: comp.Rate, Amount: amount})
		componentsTotal = componentsTotal.Add(amount)
	}

	total := base.Sub(discount).
		Add(serviceCharge).
		Add(taxAmount).
		Add(municipality).
		Add(componentsTotal)

	return Breakdown{
		BaseAmount:                base,
		DiscountAmount:            discount,
		ServiceChargeAmount:       serviceCharge,
		TaxableAmount:             taxable,
		TaxAmount:                 taxAmount,
		TaxRate:                   taxRate,
		MunicipalityFeeAmount:     municipality,
		CustomComponentsAmount:    componentsTotal,
		CustomComponentsBreakdown: components,
		Total:                     total,
	}
}

// Compute resolves the override and calculates in one step.
func (c *Calculator) Compute(subtotal decimal.Decimal, discount Discount, store Configuration, override Override, jurisdiction string) Breakdown {
	return c.Calculate(Input{
		Subtotal:     subtotal,
		Discount:     discount,
		Config:       Resolve(store, override),
		Jurisdiction: jurisdiction,
	})
}

func percentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}
