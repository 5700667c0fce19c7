package stages

import (
	"log"

	"github.com/datadock/datadock/internal/converge"
	"github.com/datadock/datadock/internal/pipeline"
)

// convergeWithRestart converges a workload target and, on a readiness
// timeout, attempts exactly one scripted remediation: restart the pods and
// wait once more. Any second timeout, and every non-timeout failure, is
// final.
func convergeWithRestart(ctx *pipeline.Context, t *converge.Target) error {
	err := ctx.Exec.Converge(ctx, t)
	if err == nil || !converge.IsTimeout(err) {
		return err
	}
	log.Printf("[stages] %s timed out, attempting one restart", t.Name)
	return ctx.Exec.Remediate(ctx, t)
}
