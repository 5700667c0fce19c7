package commands

import (
	"github.com/spf13/cobra"

	"github.com/datadock/datadock/cmd/datadock/handlers"
)

// Verify returns the command that probes deployed services without
// applying anything.
func Verify() *cobra.Command {
	var envFile string
	var kubeconfig string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Probe platform services and report their health",
		Long: `Check every deployed service with a live probe and print a health
report.

Probes require positive evidence: a service counts as healthy only when
it answers a real request (an HTTP response, a SQL query, a bucket
listing). The command exits non-zero when any service is down.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Verify(cmd.Context(), envFile, kubeconfig)
		},
	}

	cmd.Flags().StringVarP(&envFile, "env-file", "f", "", "Path to the environment contract file (default: /etc/datadock/platform.env)")
	cmd.Flags().StringVarP(&kubeconfig, "kubeconfig", "k", "", "Path to kubeconfig (default: $KUBECONFIG, then /etc/rancher/k3s/k3s.yaml)")

	return cmd
}
