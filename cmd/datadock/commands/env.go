package commands

import (
	"github.com/spf13/cobra"

	"github.com/datadock/datadock/cmd/datadock/handlers"
)

// Env returns the command that prints the resolved contract.
func Env() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the resolved environment contract",
		Long: `Print every key the platform runs with, defaults applied, in the
same KEY="VALUE" form the contract file uses. Secret values are masked;
use 'datadock secrets' to see them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Env(envFile)
		},
	}

	cmd.Flags().StringVarP(&envFile, "env-file", "f", "", "Path to the environment contract file (default: /etc/datadock/platform.env)")

	return cmd
}
