// Package config holds the contract key names, chart coordinates, and
// timeout knobs shared by every deployment stage.
package config

// Process environment variables consumed by the core. Everything else the
// platform needs lives in the contract file.
const (
	// EnvContractPath overrides the contract file location.
	EnvContractPath = "DATADOCK_ENV_FILE"
	// EnvNodeIPOverride is the operator-supplied address override. It
	// outranks the cluster-observed address and any local fallback.
	EnvNodeIPOverride = "DATADOCK_NODE_IP"
)

// DefaultContractPath is where the ledger lives unless overridden.
const DefaultContractPath = "/etc/datadock/platform.env"

// Canonical contract keys. Each concept has exactly one persisted name;
// deprecated names are wired up as read-only aliases in ApplyDefaults.
const (
	KeyPlatformNamespace = "PLATFORM_NS"
	KeyNodeIP            = "NODE_IP"
	KeyBaseDomain        = "BASE_DOMAIN"
	KeyTLSMode           = "TLS_MODE"
	KeyClusterIssuer     = "CLUSTER_ISSUER"
	KeyStorageClass      = "STORAGE_CLASS"

	KeyPostgresPassword    = "POSTGRES_ADMIN_PASSWORD"
	KeyMinioRootUser       = "MINIO_ROOT_USER"
	KeyMinioRootPassword   = "MINIO_ROOT_PASSWORD"
	KeyAirbyteDBPassword   = "AIRBYTE_DB_PASSWORD"
	KeyN8NDBPassword       = "N8N_DB_PASSWORD"
	KeyN8NEncryptionKey    = "N8N_ENCRYPTION_KEY"
	KeyZammadDBPassword    = "ZAMMAD_DB_PASSWORD"
	KeyMetabaseDBPassword  = "METABASE_DB_PASSWORD"
	KeyMetabaseEmbedSecret = "METABASE_EMBED_SECRET"
	KeyPortalAdminUser     = "PORTAL_ADMIN_USER"
	KeyPortalAdminPassword = "PORTAL_ADMIN_PASSWORD"
	KeyDbtMinioBucket      = "DBT_MINIO_BUCKET"
)

// Deprecated alias keys still accepted on read. The source scripts never
// agreed on which of these names was authoritative; the canonical set above
// is the product decision, the aliases keep old ledgers working.
const (
	AliasPlatformNamespace = "DATA_PLATFORM_NAMESPACE"
	AliasClusterIssuer     = "CERT_ISSUER"
	AliasBaseDomain        = "PLATFORM_DOMAIN"
)

// Wildcard-DNS suffix used when no base domain is configured. The dashed
// node address is prepended, e.g. 10-0-0-5.sslip.io, so the platform
// resolves without any operator DNS setup.
const WildcardDNSSuffix = "sslip.io"

// Namespaces.
const (
	NamespacePlatform = "dataplane"
	NamespaceIngress  = "kube-system"
)

// Helm chart coordinates, pinned. Upgrades are deliberate edits here, not
// floating latest.
const (
	BitnamiRepoURL  = "https://charts.bitnami.com/bitnami"
	BitnamiRepoName = "bitnami"

	PostgresChart        = "postgresql"
	PostgresChartVersion = "15.5.38"
	PostgresRelease      = "platform-postgres"

	MinioChart        = "minio"
	MinioChartVersion = "14.8.5"
	MinioRelease      = "platform-minio"

	AirbyteRepoURL      = "https://airbytehq.github.io/helm-charts"
	AirbyteRepoName     = "airbyte"
	AirbyteChart        = "airbyte"
	AirbyteChartVersion = "1.2.0"
	AirbyteRelease      = "airbyte"

	N8NRepoURL      = "https://8gears.container-registry.com/chartrepo/library"
	N8NRepoName     = "open-8gears"
	N8NChart        = "n8n"
	N8NChartVersion = "0.25.2"
	N8NRelease      = "n8n"

	ZammadRepoURL      = "https://zammad.github.io/zammad-helm"
	ZammadRepoName     = "zammad"
	ZammadChart        = "zammad"
	ZammadChartVersion = "11.4.1"
	ZammadRelease      = "zammad"

	MetabaseRepoURL      = "https://pmint93.github.io/helm-charts"
	MetabaseRepoName     = "pmint93"
	MetabaseChart        = "metabase"
	MetabaseChartVersion = "2.16.8"
	MetabaseRelease      = "metabase"
)

// TLS modes accepted in KeyTLSMode.
const (
	TLSModePerHostHTTP01 = "per-host-http01"
	TLSModeWildcardDNS01 = "wildcard-dns01"
	TLSModeDisabled      = "disabled"
)
