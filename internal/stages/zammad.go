package stages

import (
	"context"
	"fmt"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/converge"
	"github.com/datadock/datadock/internal/k8s"
	"github.com/datadock/datadock/internal/pipeline"
)

// Zammad installs the helpdesk service against the shared postgres.
type Zammad struct{}

func (s *Zammad) Name() string { return "zammad" }

func (s *Zammad) Run(ctx *pipeline.Context) error {
	namespace, err := ctx.Contract.Require(config.KeyPlatformNamespace)
	if err != nil {
		return err
	}
	host, err := appHost(ctx, "zammad")
	if err != nil {
		return err
	}
	dbPassword, err := ctx.Contract.Require(config.KeyZammadDBPassword)
	if err != nil {
		return err
	}

	if err := ctx.Helm.AddRepo(config.ZammadRepoName, config.ZammadRepoURL); err != nil {
		return fmt.Errorf("add zammad repo: %w", err)
	}
	values := map[string]interface{}{
		"zammadConfig": map[string]interface{}{
			"postgresql": map[string]interface{}{
				"enabled": false,
				"host":    fmt.Sprintf("%s-postgresql.%s.svc.cluster.local", config.PostgresRelease, namespace),
				"db":      "zammad",
				"user":    "zammad",
				"pass":    dbPassword,
			},
		},
		"ingress": map[string]interface{}{"enabled": false},
	}
	if err := ctx.Helm.InstallOrUpgrade(ctx.Cluster.Kubeconfig(), k8s.Release{
		Namespace: namespace,
		Name:      config.ZammadRelease,
		RepoURL:   config.ZammadRepoURL,
		Chart:     config.ZammadChart,
		Version:   config.ZammadChartVersion,
		Values:    values,
		Timeout:   ctx.Timeouts.HelmInstall,
	}); err != nil {
		return err
	}

	issuer := ctx.Contract.Get(config.KeyClusterIssuer)
	tlsMode := ctx.Contract.Get(config.KeyTLSMode)
	if err := ctx.Exec.Converge(ctx, &converge.Target{
		Kind:      converge.KindIngress,
		Namespace: namespace,
		Name:      "zammad",
		Object:    ingressObject(namespace, "zammad", host, config.ZammadRelease+"-nginx", 8080, issuer, tlsMode),
	}); err != nil {
		return err
	}

	sts := config.ZammadRelease
	return convergeWithRestart(ctx, &converge.Target{
		Kind:        converge.KindWorkload,
		Namespace:   namespace,
		Name:        sts,
		PodSelector: "app.kubernetes.io/instance=" + config.ZammadRelease,
		Readiness: func(c context.Context) (bool, error) {
			return ctx.Cluster.PodsReady(c, namespace, "app.kubernetes.io/instance="+config.ZammadRelease)
		},
	})
}
