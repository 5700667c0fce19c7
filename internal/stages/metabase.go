package stages

import (
	"context"
	"fmt"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/converge"
	"github.com/datadock/datadock/internal/k8s"
	"github.com/datadock/datadock/internal/pipeline"
)

// Metabase installs the BI frontend over the shared warehouse.
type Metabase struct{}

func (s *Metabase) Name() string { return "metabase" }

func (s *Metabase) Run(ctx *pipeline.Context) error {
	namespace, err := ctx.Contract.Require(config.KeyPlatformNamespace)
	if err != nil {
		return err
	}
	host, err := appHost(ctx, "metabase")
	if err != nil {
		return err
	}
	dbPassword, err := ctx.Contract.Require(config.KeyMetabaseDBPassword)
	if err != nil {
		return err
	}
	// Signing secret for embedded dashboards in the portal.
	embedSecret, err := ctx.Secrets.EnsureToken(config.KeyMetabaseEmbedSecret, 32)
	if err != nil {
		return err
	}

	if err := ctx.Helm.AddRepo(config.MetabaseRepoName, config.MetabaseRepoURL); err != nil {
		return fmt.Errorf("add metabase repo: %w", err)
	}
	values := map[string]interface{}{
		"database": map[string]interface{}{
			"type":     "postgres",
			"host":     fmt.Sprintf("%s-postgresql.%s.svc.cluster.local", config.PostgresRelease, namespace),
			"port":     5432,
			"dbname":   "metabase",
			"username": "metabase",
			"password": dbPassword,
		},
		"extraEnv": []interface{}{
			map[string]interface{}{"name": "MB_SITE_URL", "value": "https://" + host},
			map[string]interface{}{"name": "MB_EMBEDDING_SECRET_KEY", "value": embedSecret},
		},
	}
	if err := ctx.Helm.InstallOrUpgrade(ctx.Cluster.Kubeconfig(), k8s.Release{
		Namespace: namespace,
		Name:      config.MetabaseRelease,
		RepoURL:   config.MetabaseRepoURL,
		Chart:     config.MetabaseChart,
		Version:   config.MetabaseChartVersion,
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
		Name:      "metabase",
		Object:    ingressObject(namespace, "metabase", host, config.MetabaseRelease, 80, issuer, tlsMode),
	}); err != nil {
		return err
	}

	return convergeWithRestart(ctx, &converge.Target{
		Kind:        converge.KindWorkload,
		Namespace:   namespace,
		Name:        config.MetabaseRelease,
		PodSelector: "app.kubernetes.io/instance=" + config.MetabaseRelease,
		Readiness: func(c context.Context) (bool, error) {
			return ctx.Cluster.DeploymentReady(c, namespace, config.MetabaseRelease)
		},
	})
}
