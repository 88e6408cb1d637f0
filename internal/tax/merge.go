package tax

import "github.com/shopspring/decimal"

// Effective is the configuration a single computation runs with, after any override has been applied.
type Effective struct {
	Country          string          `json:"country"`
	Enabled          bool            `json:"enabled"`
	Rate             decimal.Decimal `json:"rate" validate:"gte=0,lte=100"`
	ServiceCharge    ServiceCharge   `json:"serviceCharge"`
	MunicipalityFee  MunicipalityFee `json:"municipalityFee"`
	CustomComponents []Component     `json:"customComponents" validate:"dive"`
}

// Resolve merges an invoice override onto the store configuration.
//
// The merge is shallow: a present override field replaces the whole store value,
// including nested objects such as the service charge. Neither argument is modified.
func Resolve(store Configuration, override Override) Effective {
	eff := Effective{
		Country: store.Country,
		Enabled: override.Enabled.OrElse(store.Enabled),
		Rate:    override.CustomRate.OrElse(store.DefaultTaxRate),
	}
	eff.ServiceCharge, _ = override.ServiceCharge.Or(store.ServiceCharge).Get()
	eff.MunicipalityFee, _ = override.MunicipalityFee.Or(store.MunicipalityFee).Get()

	components := store.CustomComponents
	if v, ok := override.CustomComponents.Get(); ok {
		components = v
	}
	if len(components) > 0 {
		eff.CustomComponents = append([]Component(nil), components...)
	}
	return eff
}
