package format

import (
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// Amount renders a decimal amount with grouping for lang at the given scale.
// Example: Amount(decimal.NewFromInt(1155), "AED", "en-AE", 2) => "AED 1,155.00"
//
// Digits come from the decimal itself; only the separators and group sizes
// are taken from the locale.
func Amount(amount decimal.Decimal, currency, lang string, scale int32) string {
	if scale < 0 {
		scale = 2
	}
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		tag = language.English
	}
	sym := symbolsFor(tag)

	rounded := amount.Round(scale)
	neg := rounded.IsNegative()
	if neg {
		rounded = rounded.Neg()
	}
	intPart, frac, _ := strings.Cut(rounded.StringFixed(scale), ".")
	digits := group(intPart, sym)
	if frac != "" {
		digits += sym.decimal + frac
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	var out string
	switch {
	case currency == "":
		out = digits
	case symbols[currency] != "":
		out = symbols[currency] + digits
	default:
		out = currency + " " + digits
	}
	if neg {
		return "-" + out
	}
	return out
}

// numberSymbols describes how a locale separates and groups integer digits.
type numberSymbols struct {
	group     string
	decimal   string
	primary   int
	secondary int
}

var (
	fallbackSymbols = numberSymbols{group: ",", decimal: ".", primary: 3, secondary: 3}
	symbolCache     sync.Map
)

// symbolsFor derives separators by printing a reference value for tag.
// Locales with non-ASCII digits fall back to the English layout.
func symbolsFor(tag language.Tag) numberSymbols {
	if v, ok := symbolCache.Load(tag.String()); ok {
		return v.(numberSymbols)
	}
	ref := message.NewPrinter(tag).Sprint(number.Decimal(1234567.5, number.Scale(1)))
	sym := parseSymbols(ref)
	symbolCache.Store(tag.String(), sym)
	return sym
}

func parseSymbols(ref string) numberSymbols {
	var runs []string
	var digitsSeen strings.Builder
	isDigit := func(r rune) bool { return r >= '0' && r <= '9' }
	start := 0
	rs := []rune(ref)
	for i := 1; i <= len(rs); i++ {
		if i == len(rs) || isDigit(rs[i]) != isDigit(rs[start]) {
			runs = append(runs, string(rs[start:i]))
			if isDigit(rs[start]) {
				digitsSeen.WriteString(string(rs[start:i]))
			}
			start = i
		}
	}
	if digitsSeen.String() != "12345675" || len(runs) < 3 || runs[len(runs)-1] != "5" {
		return fallbackSymbols
	}
	sym := numberSymbols{decimal: runs[len(runs)-2]}
	intRuns := runs[:len(runs)-2]
	if len(intRuns) == 1 {
		return sym
	}
	sym.group = intRuns[1]
	sym.primary = len(intRuns[len(intRuns)-1])
	sym.secondary = sym.primary
	if len(intRuns) >= 5 {
		sym.secondary = len(intRuns[len(intRuns)-3])
	}
	return sym
}

func group(digits string, sym numberSymbols) string {
	if sym.group == "" || sym.primary <= 0 || len(digits) <= sym.primary {
		return digits
	}
	head, parts := digits[:len(digits)-sym.primary], []string{digits[len(digits)-sym.primary:]}
	for len(head) > sym.secondary {
		parts = append(parts, head[len(head)-sym.secondary:])
		head = head[:len(head)-sym.secondary]
	}
	parts = append(parts, head)
	slices.Reverse(parts)
	return strings.Join(parts, sym.group)
}

// Percent renders a rate such as 7.5 as "7.5%".
func Percent(rate decimal.Decimal) string {
	return rate.String() + "%"
}
