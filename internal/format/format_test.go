package format

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAmount(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		currency string
		lang     string
		scale    int32
		want     string
	}{
		{name: "aed code prefix", amount: "1155", currency: "AED", lang: "en-AE", scale: 2, want: "AED 1,155.00"},
		{name: "rupee symbol", amount: "1100", currency: "inr", lang: "en", scale: 2, want: "₹1,100.00"},
		{name: "rounds half away from zero", amount: "9.255", currency: "USD", lang: "en", scale: 2, want: "$9.26"},
		{name: "negative", amount: "-50", currency: "USD", lang: "en", scale: 2, want: "-$50.00"},
		{name: "no currency", amount: "12.5", currency: "", lang: "en", scale: 1, want: "12.5"},
		{name: "beyond float64 precision", amount: "90071992547409.93", currency: "AED", lang: "en-AE", scale: 2, want: "AED 90,071,992,547,409.93"},
		{name: "zero scale", amount: "1234567.4", currency: "JPY", lang: "en", scale: 0, want: "¥1,234,567"},
		{name: "bad language falls back", amount: "1000", currency: "KWD", lang: "%%", scale: 3, want: "KWD 1,000.000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Amount(decimal.RequireFromString(tc.amount), tc.currency, tc.lang, tc.scale)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSymbols(t *testing.T) {
	cases := []struct {
		ref  string
		want numberSymbols
	}{
		{ref: "1,234,567.5", want: numberSymbols{group: ",", decimal: ".", primary: 3, secondary: 3}},
		{ref: "12,34,567.5", want: numberSymbols{group: ",", decimal: ".", primary: 3, secondary: 2}},
		{ref: "1.234.567,5", want: numberSymbols{group: ".", decimal: ",", primary: 3, secondary: 3}},
		{ref: "1234567.5", want: numberSymbols{decimal: "."}},
		{ref: "١٬٢٣٤٬٥٦٧٫٥", want: fallbackSymbols},
	}
	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			assert.Equal(t, tc.want, parseSymbols(tc.ref))
		})
	}
}

func TestGroup(t *testing.T) {
	lakh := numberSymbols{group: ",", decimal: ".", primary: 3, secondary: 2}
	assert.Equal(t, "1,00,00,000", group("10000000", lakh))
	assert.Equal(t, "999", group("999", lakh))
	assert.Equal(t, "12,345", group("12345", fallbackSymbols))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "7.5%", Percent(decimal.RequireFromString("7.50")))
}
