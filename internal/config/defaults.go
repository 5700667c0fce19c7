package config

import (
	"os"

	"github.com/datadock/datadock/internal/contract"
)

// ContractPath returns the ledger location, honoring the path override.
func ContractPath() string {
	if p := os.Getenv(EnvContractPath); p != "" {
		return p
	}
	return DefaultContractPath
}

// ApplyDefaults resolves alias pairs and applies every configuration
// default through ResolveDefault, so values loaded from the ledger or set
// by the operator always win. Secrets are not defaulted here; they are
// materialized lazily by the stage that first needs them.
func ApplyDefaults(store *contract.Store) {
	store.ResolveAlias(KeyPlatformNamespace, AliasPlatformNamespace)
	store.ResolveAlias(KeyClusterIssuer, AliasClusterIssuer)
	store.ResolveAlias(KeyBaseDomain, AliasBaseDomain)

	store.ResolveDefault(KeyPlatformNamespace, NamespacePlatform)
	store.ResolveDefault(KeyTLSMode, TLSModePerHostHTTP01)
	store.ResolveDefault(KeyClusterIssuer, "letsencrypt-prod")
	store.ResolveDefault(KeyStorageClass, "local-path")
	store.ResolveDefault(KeyMinioRootUser, "platform-admin")
	store.ResolveDefault(KeyPortalAdminUser, "admin")
	store.ResolveDefault(KeyDbtMinioBucket, "dbt-artifacts")
}
