package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/converge"
	"github.com/datadock/datadock/internal/k8s"
	"github.com/datadock/datadock/internal/pipeline"
)

// appDatabases maps each application to the contract key holding its
// database role password. The postgres stage creates all of them up front
// so application stages can assume their database exists.
var appDatabases = []struct {
	Name      string
	SecretKey string
}{
	{Name: "airbyte", SecretKey: config.KeyAirbyteDBPassword},
	{Name: "n8n", SecretKey: config.KeyN8NDBPassword},
	{Name: "zammad", SecretKey: config.KeyZammadDBPassword},
	{Name: "metabase", SecretKey: config.KeyMetabaseDBPassword},
}

// PostgresNodePort exposes the database on the node for operator access
// and the verify probe. The cluster-internal service stays the default
// path for applications.
const PostgresNodePort = 30432

// Postgres installs the shared PostgreSQL instance and provisions one
// database and role per application.
type Postgres struct{}

func (s *Postgres) Name() string { return "postgres" }

func (s *Postgres) Run(ctx *pipeline.Context) error {
	namespace, err := ctx.Contract.Require(config.KeyPlatformNamespace)
	if err != nil {
		return err
	}

	adminPassword, err := ctx.Secrets.EnsureToken(config.KeyPostgresPassword, 24)
	if err != nil {
		return err
	}
	initSQL, err := s.initScript(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Cluster.UpsertSecret(ctx, namespace, "postgres-initdb", map[string][]byte{
		"00-app-databases.sql": []byte(initSQL),
	}); err != nil {
		return err
	}

	if err := ctx.Helm.AddRepo(config.BitnamiRepoName, config.BitnamiRepoURL); err != nil {
		return fmt.Errorf("add bitnami repo: %w", err)
	}
	if err := ctx.Helm.InstallOrUpgrade(ctx.Cluster.Kubeconfig(), k8s.Release{
		Namespace: namespace,
		Name:      config.PostgresRelease,
		RepoURL:   config.BitnamiRepoURL,
		Chart:     config.PostgresChart,
		Version:   config.PostgresChartVersion,
		Values:    s.chartValues(ctx, adminPassword),
		Timeout:   ctx.Timeouts.HelmInstall,
	}); err != nil {
		return err
	}

	sts := config.PostgresRelease + "-postgresql"
	return convergeWithRestart(ctx, &converge.Target{
		Kind:        converge.KindWorkload,
		Namespace:   namespace,
		Name:        sts,
		PodSelector: "app.kubernetes.io/instance=" + config.PostgresRelease,
		Readiness: func(c context.Context) (bool, error) {
			return ctx.Cluster.StatefulSetReady(c, namespace, sts)
		},
	})
}

// Verify confirms the database service has live endpoints.
func (s *Postgres) Verify(ctx *pipeline.Context) error {
	namespace, err := ctx.Contract.Require(config.KeyPlatformNamespace)
	if err != nil {
		return err
	}
	ready, err := ctx.Cluster.EndpointsReady(ctx, namespace, config.PostgresRelease+"-postgresql")
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("postgres service has no endpoints")
	}
	return nil
}

func (s *Postgres) chartValues(ctx *pipeline.Context, adminPassword string) map[string]interface{} {
	return map[string]interface{}{
		"auth": map[string]interface{}{
			"postgresPassword": adminPassword,
		},
		"primary": map[string]interface{}{
			"persistence": map[string]interface{}{
				"storageClass": ctx.Contract.Get(config.KeyStorageClass),
				"size":         "20Gi",
			},
			"service": map[string]interface{}{
				"type": "NodePort",
				"nodePorts": map[string]interface{}{
					"postgresql": fmt.Sprintf("%d", PostgresNodePort),
				},
			},
			"initdb": map[string]interface{}{
				"scriptsSecret": "postgres-initdb",
			},
		},
	}
}

// initScript renders the idempotent database/role bootstrap. Generated
// role passwords are URL-safe tokens, so no quoting issues arise here.
func (s *Postgres) initScript(ctx *pipeline.Context) (string, error) {
	var b strings.Builder
	for _, app := range appDatabases {
		password, err := ctx.Secrets.EnsureToken(app.SecretKey, 24)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, `
DO $$ BEGIN
  IF NOT EXISTS (SELECT FROM pg_roles WHERE rolname = '%[1]s') THEN
    CREATE ROLE %[1]s LOGIN PASSWORD '%[2]s';
  END IF;
END $$;
SELECT 'CREATE DATABASE %[1]s OWNER %[1]s'
WHERE NOT EXISTS (SELECT FROM pg_database WHERE datname = '%[1]s')\gexec
`, app.Name, password)
	}
	return b.String(), nil
}
