package handlers

import (
	"fmt"
	"strings"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/contract"
)

// secretKeys lists the contract keys whose values env must mask.
var secretKeys = map[string]bool{
	config.KeyPostgresPassword:    true,
	config.KeyMinioRootPassword:   true,
	config.KeyAirbyteDBPassword:   true,
	config.KeyN8NDBPassword:       true,
	config.KeyN8NEncryptionKey:    true,
	config.KeyZammadDBPassword:    true,
	config.KeyMetabaseDBPassword:  true,
	config.KeyMetabaseEmbedSecret: true,
	config.KeyPortalAdminPassword: true,
}

// Env prints the resolved contract, defaults applied, secrets masked.
func Env(envFile string) error {
	store, err := loadContract(envFile)
	if err != nil {
		return err
	}
	fmt.Print(renderEnv(store))
	return nil
}

func renderEnv(store *contract.Store) string {
	var b strings.Builder
	for _, entry := range store.PersistedEntries() {
		value := entry.Value
		if secretKeys[entry.Key] && value != "" {
			value = "********"
		}
		fmt.Fprintf(&b, "%s=%q\n", entry.Key, value)
	}
	return b.String()
}
