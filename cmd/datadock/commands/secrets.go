package commands

import (
	"github.com/spf13/cobra"

	"github.com/datadock/datadock/cmd/datadock/handlers"
)

// Secrets returns the command that shows generated credentials.
func Secrets() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Show generated platform credentials",
		Long: `Show the credentials the deployment generated:
  - PostgreSQL admin and per-application role passwords
  - MinIO root credentials
  - Portal admin login
  - Application secrets (n8n encryption key, Metabase embedding key)

Values come from the contract file; nothing is read from the cluster.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Secrets(envFile)
		},
	}

	cmd.Flags().StringVarP(&envFile, "env-file", "f", "", "Path to the environment contract file (default: /etc/datadock/platform.env)")

	return cmd
}
