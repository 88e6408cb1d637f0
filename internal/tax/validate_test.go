package tax_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/tax"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *tax.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestValidateAcceptsWellFormedInput(t *testing.T) {
	in := tax.Input{
		Subtotal: dec("1000"),
		Discount: tax.Discount{Amount: dec("10"), Type: tax.DiscountPercentage},
		Config:   tax.Resolve(storeConfig(), tax.Override{}),
	}
	require.NoError(t, tax.Validate(in))
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	cfg := storeConfig()
	cfg.DefaultTaxRate = dec("120")
	cfg.ServiceCharge = tax.Some(tax.ServiceCharge{Enabled: true, Rate: dec("-1")})
	cfg.CustomComponents = []tax.Component{{Name: "", Rate: dec("2")}}

	err := tax.Validate(tax.Input{
		Subtotal: dec("-5"),
		Config:   tax.Resolve(cfg, tax.Override{}),
	})
	require.Error(t, err)
	require.True(t, tax.IsValidationError(err))
	require.ElementsMatch(t, []string{
		"subtotal",
		"config.rate",
		"config.serviceCharge.rate",
		"config.customComponents[0].name",
	}, fieldNames(t, err))
}

func TestValidateDiscountRules(t *testing.T) {
	cfg := tax.Resolve(tax.Configuration{}, tax.Override{})

	err := tax.Validate(tax.Input{Subtotal: dec("100"), Discount: tax.Discount{Amount: dec("150"), Type: tax.DiscountFlat}, Config: cfg})
	require.Equal(t, []string{"discount.amount"}, fieldNames(t, err))

	err = tax.Validate(tax.Input{Subtotal: dec("100"), Discount: tax.Discount{Amount: dec("101"), Type: tax.DiscountPercentage}, Config: cfg})
	require.Equal(t, []string{"discount.amount"}, fieldNames(t, err))

	err = tax.Validate(tax.Input{Subtotal: dec("100"), Discount: tax.Discount{Amount: dec("5"), Type: "bogus"}, Config: cfg})
	require.Contains(t, fieldNames(t, err), "discount.type")

	require.NoError(t, tax.Validate(tax.Input{Subtotal: dec("100"), Discount: tax.Discount{Amount: dec("100")}, Config: cfg}))
}

func TestValidateRateBoundsAreExact(t *testing.T) {
	cases := []struct {
		name string
		rate string
		ok   bool
	}{
		{name: "upper bound", rate: "100", ok: true},
		{name: "lower bound", rate: "0", ok: true},
		{name: "just above one hundred", rate: "100.0000000000000001", ok: false},
		{name: "just below zero", rate: "-0.0000000000000000001", ok: false},
		{name: "just below one hundred", rate: "99.99999999999999999", ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := storeConfig()
			cfg.DefaultTaxRate = dec(tc.rate)
			err := tax.ValidateConfiguration(cfg)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.Equal(t, []string{"config.rate"}, fieldNames(t, err))
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := tax.Validate(tax.Input{Subtotal: dec("-1")})
	require.True(t, strings.HasPrefix(err.Error(), "tax: invalid input: subtotal"))
}

func TestValidateConfiguration(t *testing.T) {
	require.NoError(t, tax.ValidateConfiguration(storeConfig()))

	cfg := storeConfig()
	cfg.MunicipalityFee = tax.Some(tax.MunicipalityFee{Enabled: true, Rate: dec("101")})
	require.Equal(t, []string{"config.municipalityFee.rate"}, fieldNames(t, tax.ValidateConfiguration(cfg)))
}
