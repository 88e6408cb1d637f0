package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/backend-pos/internal/tax"
)

func newJurisdictionsCmd() *cobra.Command {
	var (
		policiesPath string
		jsonOutput   bool
	)
	cmd := &cobra.Command{
		Use:   "jurisdictions",
		Short: "List known jurisdiction policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policies, err := loadPolicies(policiesPath)
			if err != nil {
				return err
			}
			if jsonOutput {
				list := make([]tax.Policy, 0, len(policies))
				for _, code := range policies.Codes() {
					list = append(list, policies.Lookup(code))
				}
				data, err := json.MarshalIndent(list, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling output: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderPolicies(policies))
			return nil
		},
	}
	cmd.Flags().StringVar(&policiesPath, "policies", "", "additional jurisdiction policies (YAML)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
