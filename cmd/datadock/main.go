// Package main is the entry point for the datadock CLI.
//
// datadock deploys and converges a self-hosted data platform (Airbyte,
// n8n, Zammad, Metabase, dbt, MinIO, PostgreSQL) on a single-node
// Kubernetes cluster. Every run is idempotent: configuration and
// generated credentials live in one environment contract file, and each
// deployment stage re-applies its desired state before waiting for it to
// become ready.
//
// Commands: up, verify, env, secrets.
//
// For detailed usage information, run:
//
//	datadock --help
package main

import (
	"fmt"
	"os"

	"github.com/datadock/datadock/cmd/datadock/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
