package stages

import (
	"context"
	"fmt"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/converge"
	"github.com/datadock/datadock/internal/k8s"
	"github.com/datadock/datadock/internal/pipeline"
)

// MinioNodePort exposes the S3 API on the node for operator tooling and
// the verify probe.
const MinioNodePort = 30900

// Minio installs the object store shared by airbyte and dbt.
type Minio struct{}

func (s *Minio) Name() string { return "minio" }

func (s *Minio) Run(ctx *pipeline.Context) error {
	namespace, err := ctx.Contract.Require(config.KeyPlatformNamespace)
	if err != nil {
		return err
	}
	rootUser, err := ctx.Contract.Require(config.KeyMinioRootUser)
	if err != nil {
		return err
	}
	rootPassword, err := ctx.Secrets.EnsureToken(config.KeyMinioRootPassword, 24)
	if err != nil {
		return err
	}
	bucket, err := ctx.Contract.Require(config.KeyDbtMinioBucket)
	if err != nil {
		return err
	}

	if err := ctx.Helm.AddRepo(config.BitnamiRepoName, config.BitnamiRepoURL); err != nil {
		return fmt.Errorf("add bitnami repo: %w", err)
	}
	values := map[string]interface{}{
		"mode": "standalone",
		"auth": map[string]interface{}{
			"rootUser":     rootUser,
			"rootPassword": rootPassword,
		},
		"defaultBuckets": bucket,
		"persistence": map[string]interface{}{
			"storageClass": ctx.Contract.Get(config.KeyStorageClass),
			"size":         "50Gi",
		},
		"service": map[string]interface{}{
			"type": "NodePort",
			"nodePorts": map[string]interface{}{
				"api": fmt.Sprintf("%d", MinioNodePort),
			},
		},
	}
	if err := ctx.Helm.InstallOrUpgrade(ctx.Cluster.Kubeconfig(), k8s.Release{
		Namespace: namespace,
		Name:      config.MinioRelease,
		RepoURL:   config.BitnamiRepoURL,
		Chart:     config.MinioChart,
		Version:   config.MinioChartVersion,
		Values:    values,
		Timeout:   ctx.Timeouts.HelmInstall,
	}); err != nil {
		return err
	}

	return convergeWithRestart(ctx, &converge.Target{
		Kind:        converge.KindWorkload,
		Namespace:   namespace,
		Name:        config.MinioRelease,
		PodSelector: "app.kubernetes.io/instance=" + config.MinioRelease,
		Readiness: func(c context.Context) (bool, error) {
			return ctx.Cluster.DeploymentReady(c, namespace, config.MinioRelease)
		},
	})
}
