package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/noah-isme/backend-pos/internal/format"
	"github.com/noah-isme/backend-pos/internal/tax"
)

var (
	accent = lipgloss.Color("#D97706")
	dim    = lipgloss.Color("#6B7280")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	dimStyle    = lipgloss.NewStyle().Foreground(dim)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	totalStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(dim)).
		Headers(headers...)
}

func renderQuote(out quoteOutput, policy tax.Policy) string {
	b := out.Breakdown
	d := out.Display
	discount := d.DiscountAmount
	if b.DiscountAmount.IsPositive() {
		discount = "-" + discount
	}

	rows := [][]string{
		{"Base", "", d.BaseAmount},
		{"Discount", "", discount},
		{"Service charge", "", d.ServiceChargeAmount},
		{"Tax", format.Percent(b.TaxRate), d.TaxAmount},
		{"Municipality fee", "", d.MunicipalityFeeAmount},
	}
	for _, c := range b.CustomComponentsBreakdown {
		rows = append(rows, []string{c.Name, format.Percent(c.Rate), format.Amount(c.Amount, policy.Currency, policy.Locale, policy.RoundingScale())})
	}
	rows = append(rows, []string{"Total", "", d.Total})
	last := len(rows)

	t := newTable("Component", "Rate", "Amount").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == last-1:
				return totalStyle
			default:
				return cellStyle
			}
		})

	var sb strings.Builder
	label := out.Jurisdiction
	if policy.Name != "" {
		label = policy.Name + " (" + out.Jurisdiction + ")"
	}
	sb.WriteString(titleStyle.Render("Quote") + "  " + dimStyle.Render(label) + "\n")
	sb.WriteString(t.String())
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("taxable amount %s", format.Amount(b.TaxableAmount, policy.Currency, policy.Locale, policy.RoundingScale()))))
	sb.WriteString("\n")
	return sb.String()
}

func renderPolicies(p tax.Policies) string {
	rows := make([][]string, 0, len(p))
	for _, code := range p.Codes() {
		pol := p.Lookup(code)
		rows = append(rows, []string{
			pol.Code,
			pol.Name,
			pol.Currency,
			fmt.Sprint(pol.RoundingScale()),
			yesNo(pol.SupportsMunicipalityFee),
			yesNo(pol.SupportsServiceChargeCompounding),
		})
	}
	t := newTable("Code", "Name", "Currency", "Scale", "Municipality fee", "Tax on service charge").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String() + "\n"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
