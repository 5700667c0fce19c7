package stages

import (
	"context"
	"fmt"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/converge"
	"github.com/datadock/datadock/internal/k8s"
	"github.com/datadock/datadock/internal/pipeline"
)

// N8N installs the workflow automation service. Its encryption key is
// generated once and must never rotate: rotating it would make every
// stored credential in n8n undecryptable.
type N8N struct{}

func (s *N8N) Name() string { return "n8n" }

func (s *N8N) Run(ctx *pipeline.Context) error {
	namespace, err := ctx.Contract.Require(config.KeyPlatformNamespace)
	if err != nil {
		return err
	}
	host, err := appHost(ctx, "n8n")
	if err != nil {
		return err
	}
	dbPassword, err := ctx.Contract.Require(config.KeyN8NDBPassword)
	if err != nil {
		return err
	}
	encryptionKey, err := ctx.Secrets.EnsureToken(config.KeyN8NEncryptionKey, 32)
	if err != nil {
		return err
	}

	if err := ctx.Helm.AddRepo(config.N8NRepoName, config.N8NRepoURL); err != nil {
		return fmt.Errorf("add n8n repo: %w", err)
	}
	values := map[string]interface{}{
		"main": map[string]interface{}{
			"config": map[string]interface{}{
				"n8n": map[string]interface{}{"editor_base_url": "https://" + host},
				"db": map[string]interface{}{
					"type": "postgresdb",
					"postgresdb": map[string]interface{}{
						"host":     fmt.Sprintf("%s-postgresql.%s.svc.cluster.local", config.PostgresRelease, namespace),
						"database": "n8n",
						"user":     "n8n",
					},
				},
			},
			"secret": map[string]interface{}{
				"n8n": map[string]interface{}{"encryption_key": encryptionKey},
				"db": map[string]interface{}{
					"postgresdb": map[string]interface{}{"password": dbPassword},
				},
			},
		},
	}
	if err := ctx.Helm.InstallOrUpgrade(ctx.Cluster.Kubeconfig(), k8s.Release{
		Namespace: namespace,
		Name:      config.N8NRelease,
		RepoURL:   config.N8NRepoURL,
		Chart:     config.N8NChart,
		Version:   config.N8NChartVersion,
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
		Name:      "n8n",
		Object:    ingressObject(namespace, "n8n", host, config.N8NRelease, 5678, issuer, tlsMode),
	}); err != nil {
		return err
	}

	return convergeWithRestart(ctx, &converge.Target{
		Kind:        converge.KindWorkload,
		Namespace:   namespace,
		Name:        config.N8NRelease,
		PodSelector: "app.kubernetes.io/instance=" + config.N8NRelease,
		Readiness: func(c context.Context) (bool, error) {
			return ctx.Cluster.DeploymentReady(c, namespace, config.N8NRelease)
		},
	})
}
