package stages

import (
	"context"
	"fmt"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/converge"
	"github.com/datadock/datadock/internal/k8s"
	"github.com/datadock/datadock/internal/pipeline"
)

// Airbyte installs the data-ingestion service backed by the shared
// postgres and minio instances.
type Airbyte struct{}

func (s *Airbyte) Name() string { return "airbyte" }

func (s *Airbyte) Run(ctx *pipeline.Context) error {
	namespace, err := ctx.Contract.Require(config.KeyPlatformNamespace)
	if err != nil {
		return err
	}
	host, err := appHost(ctx, "airbyte")
	if err != nil {
		return err
	}
	dbPassword, err := ctx.Contract.Require(config.KeyAirbyteDBPassword)
	if err != nil {
		return err
	}
	minioUser, err := ctx.Contract.Require(config.KeyMinioRootUser)
	if err != nil {
		return err
	}
	minioPassword, err := ctx.Contract.Require(config.KeyMinioRootPassword)
	if err != nil {
		return err
	}

	if err := ctx.Helm.AddRepo(config.AirbyteRepoName, config.AirbyteRepoURL); err != nil {
		return fmt.Errorf("add airbyte repo: %w", err)
	}
	values := map[string]interface{}{
		"global": map[string]interface{}{
			"database": map[string]interface{}{
				"type":     "external",
				"host":     fmt.Sprintf("%s-postgresql.%s.svc.cluster.local", config.PostgresRelease, namespace),
				"port":     5432,
				"database": "airbyte",
				"user":     "airbyte",
				"password": dbPassword,
			},
			"storage": map[string]interface{}{
				"type":   "minio",
				"bucket": map[string]interface{}{"log": "airbyte-logs", "state": "airbyte-state"},
				"minio": map[string]interface{}{
					"endpoint":        fmt.Sprintf("http://%s.%s.svc.cluster.local:9000", config.MinioRelease, namespace),
					"accessKeyId":     minioUser,
					"secretAccessKey": minioPassword,
				},
			},
		},
		"webapp": map[string]interface{}{
			"ingress": map[string]interface{}{"enabled": false},
		},
	}
	if err := ctx.Helm.InstallOrUpgrade(ctx.Cluster.Kubeconfig(), k8s.Release{
		Namespace: namespace,
		Name:      config.AirbyteRelease,
		RepoURL:   config.AirbyteRepoURL,
		Chart:     config.AirbyteChart,
		Version:   config.AirbyteChartVersion,
		Values:    values,
		Timeout:   ctx.Timeouts.HelmInstall,
	}); err != nil {
		return err
	}

	issuer := ctx.Contract.Get(config.KeyClusterIssuer)
	tlsMode := ctx.Contract.Get(config.KeyTLSMode)
	targets := []*converge.Target{
		{
			Kind:      converge.KindIngress,
			Namespace: namespace,
			Name:      "airbyte",
			Object:    ingressObject(namespace, "airbyte", host, config.AirbyteRelease+"-airbyte-webapp-svc", 80, issuer, tlsMode),
		},
	}
	if err := ctx.Exec.ConvergeAll(ctx, targets); err != nil {
		return err
	}

	return convergeWithRestart(ctx, &converge.Target{
		Kind:        converge.KindWorkload,
		Namespace:   namespace,
		Name:        config.AirbyteRelease + "-server",
		PodSelector: "app.kubernetes.io/instance=" + config.AirbyteRelease,
		Readiness: func(c context.Context) (bool, error) {
			return ctx.Cluster.PodsReady(c, namespace, "app.kubernetes.io/instance="+config.AirbyteRelease)
		},
	})
}
