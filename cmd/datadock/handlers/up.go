// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic
// and can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/contract"
	"github.com/datadock/datadock/internal/k8s"
	"github.com/datadock/datadock/internal/pipeline"
	"github.com/datadock/datadock/internal/stages"
)

// defaultKubeconfigPaths are tried in order when neither the flag nor
// KUBECONFIG names a file. The k3s path comes first because that is the
// supported single-node distribution.
var defaultKubeconfigPaths = []string{
	"/etc/rancher/k3s/k3s.yaml",
	os.ExpandEnv("$HOME/.kube/config"),
}

// UpOptions carries the flag values for the up command.
type UpOptions struct {
	EnvFile    string
	Kubeconfig string
	Stages     []string
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newClusterClient connects to the cluster from a kubeconfig file.
	newClusterClient = func(kubeconfigPath string) (*k8s.Client, error) {
		data, err := os.ReadFile(kubeconfigPath)
		if err != nil {
			return nil, fmt.Errorf("read kubeconfig %s: %w", kubeconfigPath, err)
		}
		return k8s.NewClientFromBytes(data)
	}

	// runPipeline executes the stage sequence.
	runPipeline = pipeline.Run

	// buildReport probes the deployed services.
	buildReport = stages.BuildReport

	// getenv reads process environment (for testing injection).
	getenv = os.Getenv

	// statFile checks kubeconfig candidates (for testing injection).
	statFile = os.Stat
)

// Up runs the deployment pipeline against the cluster.
//
// The run is idempotent end to end: the contract file is created if
// missing, loaded, and defaults applied; generated credentials survive in
// the contract across runs; and every stage re-applies its desired state
// before waiting for readiness. A failure halts the run at the failing
// stage and leaves everything already converged in place.
func Up(ctx context.Context, opts UpOptions) error {
	contractPath := opts.EnvFile
	if contractPath == "" {
		contractPath = config.ContractPath()
	}

	// A stage selector targets an existing deployment: its stages read
	// identity and credentials earlier stages persisted. Without a contract
	// there is nothing to converge against, so fail before any stage runs
	// instead of mid-stage on the first missing key.
	if len(opts.Stages) > 0 {
		if _, err := statFile(contractPath); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("contract file %s does not exist; run a full 'datadock up' before selecting stages", contractPath)
			}
			return fmt.Errorf("stat contract file: %w", err)
		}
	}

	store, err := loadContract(contractPath)
	if err != nil {
		return err
	}

	kubeconfig, err := resolveKubeconfig(opts.Kubeconfig)
	if err != nil {
		return err
	}
	cluster, err := newClusterClient(kubeconfig)
	if err != nil {
		return err
	}

	pctx := pipeline.NewContext(ctx, store, cluster)
	pctx.NodeIPOverride = getenv(config.EnvNodeIPOverride)

	if err := runPipeline(pctx, stages.All(), opts.Stages); err != nil {
		return err
	}

	printAccessSummary(store)
	return nil
}

// loadContract opens the environment contract, creating it when missing,
// and resolves aliases and defaults.
func loadContract(path string) (*contract.Store, error) {
	if path == "" {
		path = config.ContractPath()
	}
	if err := contract.EnsureFile(path); err != nil {
		return nil, err
	}
	store := contract.NewStore(path)
	if err := store.Load(); err != nil {
		return nil, err
	}
	config.ApplyDefaults(store)
	log.Printf("Using contract file: %s", path)
	return store, nil
}

// resolveKubeconfig picks the kubeconfig path: explicit flag, then
// KUBECONFIG, then the first default candidate that exists.
func resolveKubeconfig(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if p := getenv("KUBECONFIG"); p != "" {
		return p, nil
	}
	for _, p := range defaultKubeconfigPaths {
		if p == "" {
			continue
		}
		if _, err := statFile(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no kubeconfig found: set --kubeconfig or KUBECONFIG")
}

// printAccessSummary tells the operator where everything is.
func printAccessSummary(store *contract.Store) {
	domain := store.Get(config.KeyBaseDomain)
	if domain == "" {
		return
	}
	fmt.Println("\nPlatform deployed. Service URLs:")
	for _, app := range []string{"airbyte", "n8n", "zammad", "metabase", "portal"} {
		fmt.Printf("  %-9s https://%s.%s\n", app, app, domain)
	}
	fmt.Printf("\nCredentials: datadock secrets -f %s\n", store.Path())
}
