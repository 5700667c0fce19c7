package handlers

import (
	"context"
	"fmt"

	"github.com/datadock/datadock/internal/pipeline"
)

// Verify probes every deployed service and prints the health report. It
// applies nothing; a down service makes the command exit non-zero.
func Verify(ctx context.Context, envFile, kubeconfigFlag string) error {
	store, err := loadContract(envFile)
	if err != nil {
		return err
	}

	kubeconfig, err := resolveKubeconfig(kubeconfigFlag)
	if err != nil {
		return err
	}
	cluster, err := newClusterClient(kubeconfig)
	if err != nil {
		return err
	}

	pctx := pipeline.NewContext(ctx, store, cluster)
	report := buildReport(pctx)
	fmt.Println(report)

	if report.Failed() {
		return fmt.Errorf("services down: %v", report.Down())
	}
	return nil
}
