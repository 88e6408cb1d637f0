package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/tax"
)

type quoteOutput struct {
	Jurisdiction string          `json:"jurisdiction"`
	Currency     string          `json:"currency"`
	Breakdown    tax.Breakdown   `json:"breakdown"`
	Display      billing.Display `json:"display"`
}

func newQuoteCmd() *cobra.Command {
	var (
		configPath   string
		overridePath string
		policiesPath string
		subtotal     string
		discount     string
		discountType string
		jurisdiction string
		lines        []string
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute a price breakdown",
		Long:  "Apply a store tax configuration, and optionally an invoice override, to a subtotal or a list of cart lines.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfiguration(configPath)
			if err != nil {
				return err
			}
			override, err := loadOverride(overridePath)
			if err != nil {
				return err
			}
			policies, err := loadPolicies(policiesPath)
			if err != nil {
				return err
			}

			cartLines, err := parseLines(lines)
			if err != nil {
				return err
			}
			base, err := parseSubtotal(subtotal, cartLines)
			if err != nil {
				return err
			}
			disc := tax.Discount{Type: tax.DiscountType(strings.ToLower(strings.TrimSpace(discountType)))}
			if discount != "" {
				if disc.Amount, err = decimal.NewFromString(discount); err != nil {
					return fmt.Errorf("invalid --discount %q: %w", discount, err)
				}
			}

			code := strings.ToUpper(strings.TrimSpace(jurisdiction))
			if code == "" {
				code = strings.ToUpper(strings.TrimSpace(cfg.Country))
			}
			in := tax.Input{
				Subtotal:     base,
				Discount:     disc,
				Config:       tax.Resolve(cfg, override),
				Jurisdiction: code,
			}
			if err := tax.Validate(in); err != nil {
				return err
			}

			calc := tax.NewCalculator(policies)
			breakdown := calc.Calculate(in)
			policy := calc.Policy(code)
			out := quoteOutput{
				Jurisdiction: code,
				Currency:     policy.Currency,
				Breakdown:    breakdown,
				Display:      billing.DisplayFor(breakdown, policy),
			}

			if jsonOutput {
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling output: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderQuote(out, policy))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "store tax configuration (YAML)")
	cmd.Flags().StringVar(&overridePath, "override", "", "invoice override (YAML)")
	cmd.Flags().StringVar(&policiesPath, "policies", "", "additional jurisdiction policies (YAML)")
	cmd.Flags().StringVar(&subtotal, "subtotal", "", "cart subtotal; defaults to the sum of --line values")
	cmd.Flags().StringVar(&discount, "discount", "", "discount amount")
	cmd.Flags().StringVar(&discountType, "discount-type", string(tax.DiscountFlat), "discount type: flat or percentage")
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "jurisdiction code; defaults to the configuration country")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "cart line as name:unitPrice:qty (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func parseLines(raw []string) ([]tax.Line, error) {
	out := make([]tax.Line, 0, len(raw))
	for _, r := range raw {
		parts := strings.Split(r, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid --line %q: want name:unitPrice:qty", r)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid --line %q: %w", r, err)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("invalid --line %q: %w", r, err)
		}
		out = append(out, tax.Line{Name: strings.TrimSpace(parts[0]), UnitPrice: price, Qty: qty})
	}
	return out, nil
}

func parseSubtotal(raw string, lines []tax.Line) (decimal.Decimal, error) {
	if raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid --subtotal %q: %w", raw, err)
		}
		return v, nil
	}
	if len(lines) == 0 {
		return decimal.Zero, errors.New("either --subtotal or --line is required")
	}
	return tax.Subtotal(lines), nil
}
