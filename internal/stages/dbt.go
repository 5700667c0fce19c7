package stages

import (
	"fmt"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/converge"
	"github.com/datadock/datadock/internal/pipeline"
)

// Dbt schedules the nightly transformation run as a CronJob. There is no
// chart here and no readiness to wait for; the job's artifacts land in the
// minio bucket the verify stage can see.
type Dbt struct{}

func (s *Dbt) Name() string { return "dbt" }

func (s *Dbt) Run(ctx *pipeline.Context) error {
	namespace, err := ctx.Contract.Require(config.KeyPlatformNamespace)
	if err != nil {
		return err
	}
	dbPassword, err := ctx.Contract.Require(config.KeyPostgresPassword)
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
	bucket, err := ctx.Contract.Require(config.KeyDbtMinioBucket)
	if err != nil {
		return err
	}

	if err := ctx.Cluster.UpsertSecret(ctx, namespace, "dbt-env", map[string][]byte{
		"DBT_HOST":          []byte(fmt.Sprintf("%s-postgresql.%s.svc.cluster.local", config.PostgresRelease, namespace)),
		"DBT_PASSWORD":      []byte(dbPassword),
		"AWS_ACCESS_KEY_ID": []byte(minioUser),
		"AWS_SECRET_ACCESS_KEY": []byte(minioPassword),
		"DBT_ARTIFACT_BUCKET":   []byte(bucket),
		"AWS_ENDPOINT_URL": []byte(fmt.Sprintf("http://%s.%s.svc.cluster.local:9000",
			config.MinioRelease, namespace)),
	}); err != nil {
		return err
	}

	return ctx.Exec.Converge(ctx, &converge.Target{
		Kind:      converge.KindWorkload,
		Namespace: namespace,
		Name:      "dbt-run",
		Object: cronJobObject(namespace, "dbt-run", "ghcr.io/dbt-labs/dbt-postgres:1.8.2",
			"15 2 * * *", "dbt-env", []string{"run", "--profiles-dir", "/dbt"}),
	})
}
