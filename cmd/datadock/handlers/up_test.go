package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/k8s"
	"github.com/datadock/datadock/internal/pipeline"
	"github.com/datadock/datadock/internal/stages"
)

// saveAndRestoreFactories snapshots the injectable factory variables and
// restores them when the test finishes.
func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origNewClusterClient := newClusterClient
	origRunPipeline := runPipeline
	origBuildReport := buildReport
	origGetenv := getenv
	origStatFile := statFile
	t.Cleanup(func() {
		newClusterClient = origNewClusterClient
		runPipeline = origRunPipeline
		buildReport = origBuildReport
		getenv = origGetenv
		statFile = origStatFile
	})
}

func TestLoadContract_CreatesMissingFileAndAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platform.env")

	store, err := loadContract(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.Equal(t, "dataplane", store.Get(config.KeyPlatformNamespace))
}

func TestLoadContract_KeepsOperatorValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platform.env")
	require.NoError(t, os.WriteFile(path, []byte("PLATFORM_NS=\"custom\"\n"), 0o600))

	store, err := loadContract(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", store.Get(config.KeyPlatformNamespace))
}

func TestResolveKubeconfig_FlagWins(t *testing.T) {
	saveAndRestoreFactories(t)
	getenv = func(string) string { return "/from/env" }

	path, err := resolveKubeconfig("/from/flag")
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", path)
}

func TestResolveKubeconfig_EnvBeforeDefaults(t *testing.T) {
	saveAndRestoreFactories(t)
	getenv = func(key string) string {
		if key == "KUBECONFIG" {
			return "/from/env"
		}
		return ""
	}

	path, err := resolveKubeconfig("")
	require.NoError(t, err)
	assert.Equal(t, "/from/env", path)
}

func TestResolveKubeconfig_FallsBackToK3sPath(t *testing.T) {
	saveAndRestoreFactories(t)
	getenv = func(string) string { return "" }
	statFile = func(name string) (os.FileInfo, error) {
		if name == "/etc/rancher/k3s/k3s.yaml" {
			return nil, nil
		}
		return nil, os.ErrNotExist
	}

	path, err := resolveKubeconfig("")
	require.NoError(t, err)
	assert.Equal(t, "/etc/rancher/k3s/k3s.yaml", path)
}

func TestResolveKubeconfig_NothingFound(t *testing.T) {
	saveAndRestoreFactories(t)
	getenv = func(string) string { return "" }
	statFile = func(string) (os.FileInfo, error) { return nil, os.ErrNotExist }

	_, err := resolveKubeconfig("")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no kubeconfig found")
}

func TestUp_ThreadsSelectorsAndOverride(t *testing.T) {
	saveAndRestoreFactories(t)

	var gotSelected []string
	var gotOverride string
	newClusterClient = func(string) (*k8s.Client, error) {
		return k8s.NewWithInterfaces(fake.NewSimpleClientset(), nil), nil
	}
	runPipeline = func(ctx *pipeline.Context, _ []pipeline.Stage, selected []string) error {
		gotSelected = selected
		gotOverride = ctx.NodeIPOverride
		return nil
	}
	getenv = func(key string) string {
		if key == config.EnvNodeIPOverride {
			return "203.0.113.10"
		}
		return ""
	}

	// Selecting stages requires a contract from an earlier full run.
	envFile := filepath.Join(t.TempDir(), "platform.env")
	require.NoError(t, os.WriteFile(envFile, []byte("NODE_IP=\"10.0.0.5\"\n"), 0o600))

	err := Up(context.Background(), UpOptions{
		EnvFile:    envFile,
		Kubeconfig: "/ignored",
		Stages:     []string{"zammad"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"zammad"}, gotSelected)
	assert.Equal(t, "203.0.113.10", gotOverride)
}

func TestUp_StageSelectorRequiresExistingContract(t *testing.T) {
	saveAndRestoreFactories(t)

	pipelineRan := false
	newClusterClient = func(string) (*k8s.Client, error) {
		return k8s.NewWithInterfaces(fake.NewSimpleClientset(), nil), nil
	}
	runPipeline = func(*pipeline.Context, []pipeline.Stage, []string) error {
		pipelineRan = true
		return nil
	}
	getenv = func(string) string { return "" }

	envFile := filepath.Join(t.TempDir(), "platform.env")
	err := Up(context.Background(), UpOptions{
		EnvFile:    envFile,
		Kubeconfig: "/ignored",
		Stages:     []string{"zammad"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
	assert.False(t, pipelineRan, "no stage may run without a contract")
	_, statErr := os.Stat(envFile)
	assert.True(t, os.IsNotExist(statErr), "the missing contract must not be created")
}

func TestUp_FullRunCreatesMissingContract(t *testing.T) {
	saveAndRestoreFactories(t)

	newClusterClient = func(string) (*k8s.Client, error) {
		return k8s.NewWithInterfaces(fake.NewSimpleClientset(), nil), nil
	}
	runPipeline = func(*pipeline.Context, []pipeline.Stage, []string) error { return nil }
	getenv = func(string) string { return "" }

	envFile := filepath.Join(t.TempDir(), "platform.env")
	require.NoError(t, Up(context.Background(), UpOptions{
		EnvFile:    envFile,
		Kubeconfig: "/ignored",
	}))

	_, statErr := os.Stat(envFile)
	assert.NoError(t, statErr, "a full run bootstraps the contract")
}

func TestUp_PipelineFailurePropagates(t *testing.T) {
	saveAndRestoreFactories(t)

	newClusterClient = func(string) (*k8s.Client, error) {
		return k8s.NewWithInterfaces(fake.NewSimpleClientset(), nil), nil
	}
	runPipeline = func(*pipeline.Context, []pipeline.Stage, []string) error {
		return errors.New("stage zammad failed")
	}
	getenv = func(string) string { return "" }

	err := Up(context.Background(), UpOptions{
		EnvFile:    filepath.Join(t.TempDir(), "platform.env"),
		Kubeconfig: "/ignored",
	})
	assert.ErrorContains(t, err, "stage zammad failed")
}

func TestUp_ClusterConnectionFailure(t *testing.T) {
	saveAndRestoreFactories(t)

	newClusterClient = func(string) (*k8s.Client, error) {
		return nil, errors.New("connection refused")
	}
	getenv = func(string) string { return "" }

	err := Up(context.Background(), UpOptions{
		EnvFile:    filepath.Join(t.TempDir(), "platform.env"),
		Kubeconfig: "/ignored",
	})
	assert.ErrorContains(t, err, "connection refused")
}

func TestUp_RunsAllStagesByDefault(t *testing.T) {
	saveAndRestoreFactories(t)

	var gotStages []string
	newClusterClient = func(string) (*k8s.Client, error) {
		return k8s.NewWithInterfaces(fake.NewSimpleClientset(), nil), nil
	}
	runPipeline = func(_ *pipeline.Context, all []pipeline.Stage, selected []string) error {
		for _, s := range all {
			gotStages = append(gotStages, s.Name())
		}
		assert.Empty(t, selected)
		return nil
	}
	getenv = func(string) string { return "" }

	err := Up(context.Background(), UpOptions{
		EnvFile:    filepath.Join(t.TempDir(), "platform.env"),
		Kubeconfig: "/ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, stages.Names(), gotStages)
}
