package handlers

import (
	"fmt"
	"strings"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/contract"
)

// credentialRows drives the secrets output. Grouped so the operator can
// scan for one service's credentials.
var credentialRows = []struct {
	Label string
	Key   string
}{
	{"PostgreSQL admin password", config.KeyPostgresPassword},
	{"Airbyte DB password", config.KeyAirbyteDBPassword},
	{"n8n DB password", config.KeyN8NDBPassword},
	{"n8n encryption key", config.KeyN8NEncryptionKey},
	{"Zammad DB password", config.KeyZammadDBPassword},
	{"Metabase DB password", config.KeyMetabaseDBPassword},
	{"Metabase embedding secret", config.KeyMetabaseEmbedSecret},
	{"MinIO root user", config.KeyMinioRootUser},
	{"MinIO root password", config.KeyMinioRootPassword},
	{"Portal admin user", config.KeyPortalAdminUser},
	{"Portal admin password", config.KeyPortalAdminPassword},
}

// Secrets prints the generated platform credentials from the contract.
func Secrets(envFile string) error {
	store, err := loadContract(envFile)
	if err != nil {
		return err
	}
	fmt.Print(renderSecrets(store))
	return nil
}

func renderSecrets(store *contract.Store) string {
	var b strings.Builder
	for _, row := range credentialRows {
		value := store.Get(row.Key)
		if value == "" {
			value = "(not generated yet)"
		}
		fmt.Fprintf(&b, "%-28s %s\n", row.Label+":", value)
	}
	return b.String()
}
