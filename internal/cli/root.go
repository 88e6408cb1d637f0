// Package cli implements taxctl, an offline front end to the tax calculator.
package cli

import "github.com/spf13/cobra"

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "taxctl",
		Short:         "Price carts with the POS tax engine",
		Long:          "taxctl runs the POS tax calculator against local configuration files, without a database or network.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newQuoteCmd())
	cmd.AddCommand(newJurisdictionsCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
