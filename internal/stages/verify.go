package stages

import (
	"fmt"
	"log"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/pipeline"
	"github.com/datadock/datadock/internal/probes"
)

// Verify sweeps every deployed service with a positive-evidence probe and
// fails the run when any required service is down. It is also reachable
// standalone through the verify command.
type Verify struct{}

func (s *Verify) Name() string { return "verify" }

func (s *Verify) Run(ctx *pipeline.Context) error {
	report := BuildReport(ctx)
	log.Printf("[verify] service health:\n%s", report)

	if report.Failed() {
		return fmt.Errorf("services down: %v", report.Down())
	}
	return nil
}

// BuildReport probes every service and aggregates the results in
// canonical order: cluster, data services, applications, portal.
func BuildReport(ctx *pipeline.Context) *probes.Report {
	report := &probes.Report{}
	nodeIP := ctx.Contract.Get(config.KeyNodeIP)
	domain := ctx.Contract.Get(config.KeyBaseDomain)
	httpc := probes.NewHTTPChecker(ctx.Timeouts.Probe)

	// Cluster first: nothing else is meaningful if the node is not ready.
	if ctx.Cluster != nil {
		ready, err := ctx.Cluster.NodeReady(ctx)
		switch {
		case err != nil:
			report.Add(probes.Result{Service: "kubernetes", Status: probes.StatusDown, Reason: err.Error()})
		case !ready:
			report.Add(probes.Result{Service: "kubernetes", Status: probes.StatusDown, Reason: "no node Ready"})
		default:
			report.Add(probes.Result{Service: "kubernetes", Status: probes.StatusOK})
		}
	}

	report.Add(probes.PostgresProbe(ctx, postgresProbeDSN(ctx, nodeIP)))

	minioEndpoint := ""
	if nodeIP != "" {
		minioEndpoint = fmt.Sprintf("http://%s:%d", nodeIP, MinioNodePort)
	}
	report.Add(probes.MinioProbe(ctx, minioEndpoint,
		ctx.Contract.Get(config.KeyMinioRootUser),
		ctx.Contract.Get(config.KeyMinioRootPassword)))

	for _, app := range []string{"airbyte", "n8n", "zammad", "metabase", "portal"} {
		url := ""
		if domain != "" {
			url = fmt.Sprintf("https://%s.%s/", app, domain)
		}
		report.Add(httpc.Check(ctx, app, url))
	}

	return report
}

// postgresProbeDSN builds the node-port DSN the probe dials from outside
// the cluster. Empty when the admin password or node address is unknown.
func postgresProbeDSN(ctx *pipeline.Context, nodeIP string) string {
	password := ctx.Contract.Get(config.KeyPostgresPassword)
	if password == "" || nodeIP == "" {
		return ""
	}
	return fmt.Sprintf("postgres://postgres:%s@%s:%d/postgres", password, nodeIP, PostgresNodePort)
}
