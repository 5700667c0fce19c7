package commands

import (
	"github.com/spf13/cobra"

	"github.com/datadock/datadock/cmd/datadock/handlers"
	"github.com/datadock/datadock/internal/stages"
)

// Up returns the command that runs the deployment pipeline.
//
// Optional flags:
//
//	--env-file, -f:   Path to the environment contract file
//	--kubeconfig, -k: Path to the kubeconfig file
//	--stage, -s:      Run only the named stages (repeatable)
//
// Environment variables:
//
//	DATADOCK_ENV_FILE: Contract file path (flag takes precedence)
//	DATADOCK_NODE_IP:  Override the detected node address
func Up() *cobra.Command {
	var envFile string
	var kubeconfig string
	var selected []string

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Deploy or converge the platform",
		Long: `Deploy the full platform, or bring an existing deployment back to
its desired state.

Stages run in a fixed order and the run halts on the first failure.
Re-running after a failure is safe: completed stages converge to the
same state and generated credentials are never rotated.

Examples:
  # Full deployment
  datadock up

  # Re-run only the zammad stage after fixing its values
  datadock up --stage zammad

  # Converge the data services without touching applications
  datadock up -s postgres -s minio`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Up(cmd.Context(), handlers.UpOptions{
				EnvFile:    envFile,
				Kubeconfig: kubeconfig,
				Stages:     selected,
			})
		},
	}

	cmd.Flags().StringVarP(&envFile, "env-file", "f", "", "Path to the environment contract file (default: /etc/datadock/platform.env)")
	cmd.Flags().StringVarP(&kubeconfig, "kubeconfig", "k", "", "Path to kubeconfig (default: $KUBECONFIG, then /etc/rancher/k3s/k3s.yaml)")
	cmd.Flags().StringSliceVarP(&selected, "stage", "s", nil,
		"Run only the named stages, in declared order (one of: "+stageList()+")")

	return cmd
}

func stageList() string {
	names := stages.Names()
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
