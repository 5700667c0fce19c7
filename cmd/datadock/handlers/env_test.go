package handlers

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/contract"
)

func TestRenderEnv_MasksSecrets(t *testing.T) {
	t.Parallel()
	store := contract.NewStore(filepath.Join(t.TempDir(), "platform.env"))
	store.Set(config.KeyPlatformNamespace, "dataplane", contract.OriginDefault)
	store.Set(config.KeyPostgresPassword, "supersecret", contract.OriginGenerated)

	out := renderEnv(store)

	assert.Contains(t, out, `PLATFORM_NS="dataplane"`)
	assert.Contains(t, out, `POSTGRES_ADMIN_PASSWORD="********"`)
	assert.NotContains(t, out, "supersecret")
}

func TestRenderEnv_EmptySecretStaysEmpty(t *testing.T) {
	t.Parallel()
	store := contract.NewStore(filepath.Join(t.TempDir(), "platform.env"))
	store.Set(config.KeyPostgresPassword, "", contract.OriginDefault)

	assert.Contains(t, renderEnv(store), `POSTGRES_ADMIN_PASSWORD=""`)
}

func TestRenderSecrets_ShowsValuesAndPlaceholders(t *testing.T) {
	t.Parallel()
	store := contract.NewStore(filepath.Join(t.TempDir(), "platform.env"))
	store.Set(config.KeyMinioRootUser, "platform-admin", contract.OriginDefault)
	store.Set(config.KeyMinioRootPassword, "tok123", contract.OriginGenerated)

	out := renderSecrets(store)

	assert.Contains(t, out, "MinIO root user:")
	assert.Contains(t, out, "platform-admin")
	assert.Contains(t, out, "tok123")
	assert.Contains(t, out, "(not generated yet)")
}

func TestEnv_MissingDirectoryCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "platform.env")
	require.NoError(t, Env(path))
}
