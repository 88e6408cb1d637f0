package tax_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/tax"
)

func storeConfig() tax.Configuration {
	return tax.Configuration{
		Country:         "AE",
		Enabled:         true,
		DefaultTaxRate:  dec("5"),
		ServiceCharge:   tax.Some(tax.ServiceCharge{Enabled: true, Rate: dec("10"), ApplyTaxOnServiceCharge: tax.Some(true)}),
		MunicipalityFee: tax.Some(tax.MunicipalityFee{Enabled: true, Rate: dec("7")}),
		CustomComponents: []tax.Component{
			{Name: "Eco", Rate: dec("2")},
		},
	}
}

func TestResolveRatePrecedence(t *testing.T) {
	eff := tax.Resolve(storeConfig(), tax.Override{CustomRate: tax.Some(dec("12"))})
	requireAmount(t, "12", eff.Rate, "override rate")

	eff = tax.Resolve(storeConfig(), tax.Override{})
	requireAmount(t, "5", eff.Rate, "store rate")
}

func TestResolveExplicitDisableWins(t *testing.T) {
	eff := tax.Resolve(storeConfig(), tax.Override{Enabled: tax.Some(false)})
	require.False(t, eff.Enabled)

	b := tax.NewCalculator(nil).Calculate(tax.Input{Subtotal: dec("1000"), Config: eff})
	requireAmount(t, "0", b.TaxAmount, "tax")
}

func TestResolveServiceChargeReplacedWholesale(t *testing.T) {
	override := tax.Override{ServiceCharge: tax.Some(tax.ServiceCharge{Enabled: true, Rate: dec("12")})}
	eff := tax.Resolve(storeConfig(), override)

	require.True(t, eff.ServiceCharge.Enabled)
	requireAmount(t, "12", eff.ServiceCharge.Rate, "service rate")
	// The store's compounding flag is not carried into the replacement object.
	require.False(t, eff.ServiceCharge.ApplyTaxOnServiceCharge.IsSet())

	b := tax.NewCalculator(nil).Calculate(tax.Input{Subtotal: dec("1000"), Config: eff})
	requireAmount(t, "1000", b.TaxableAmount, "taxable")
}

func TestResolveInheritsAbsentFields(t *testing.T) {
	store := storeConfig()
	eff := tax.Resolve(store, tax.Override{})

	require.True(t, eff.Enabled)
	require.Equal(t, "AE", eff.Country)
	require.True(t, eff.ServiceCharge.Enabled)
	require.True(t, eff.MunicipalityFee.Enabled)
	require.Len(t, eff.CustomComponents, 1)
}

func TestResolveOverrideClearsComponents(t *testing.T) {
	eff := tax.Resolve(storeConfig(), tax.Override{CustomComponents: tax.Some([]tax.Component(nil))})
	require.Empty(t, eff.CustomComponents)
}

func TestResolveDoesNotMutateStore(t *testing.T) {
	store := storeConfig()
	eff := tax.Resolve(store, tax.Override{})
	eff.CustomComponents[0].Name = "changed"
	require.Equal(t, "Eco", store.CustomComponents[0].Name)

	_ = tax.Resolve(store, tax.Override{
		Enabled:       tax.Some(false),
		CustomRate:    tax.Some(dec("0")),
		ServiceCharge: tax.Some(tax.ServiceCharge{}),
	})
	require.Equal(t, storeConfig(), store)
}

func TestOverrideJSONPresence(t *testing.T) {
	var inherit tax.Override
	require.NoError(t, json.Unmarshal([]byte(`{"customRate": "12"}`), &inherit))
	require.True(t, inherit.CustomRate.IsSet())
	require.False(t, inherit.ServiceCharge.IsSet())
	require.False(t, inherit.Enabled.IsSet())

	var explicitOff tax.Override
	require.NoError(t, json.Unmarshal([]byte(`{"enabled": false, "serviceCharge": {"enabled": false, "rate": 0}}`), &explicitOff))
	enabled, ok := explicitOff.Enabled.Get()
	require.True(t, ok)
	require.False(t, enabled)
	require.True(t, explicitOff.ServiceCharge.IsSet())

	var nulls tax.Override
	require.NoError(t, json.Unmarshal([]byte(`{"serviceCharge": null, "customComponents": null}`), &nulls))
	require.False(t, nulls.ServiceCharge.IsSet())
	require.False(t, nulls.CustomComponents.IsSet())

	eff := tax.Resolve(storeConfig(), explicitOff)
	require.False(t, eff.Enabled)
	require.False(t, eff.ServiceCharge.Enabled)
}

func TestOverrideJSONOmitsAbsentFields(t *testing.T) {
	data, err := json.Marshal(tax.Override{Enabled: tax.Some(false)})
	require.NoError(t, err)
	require.JSONEq(t, `{"enabled": false}`, string(data))
}
