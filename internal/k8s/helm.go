package k8s

import (
	"fmt"
	"log"
	"os"
	"time"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/repo"
)

// HelmClient handles chart installation for the application stages.
type HelmClient struct {
	settings *cli.EnvSettings
}

// NewHelmClient creates a new HelmClient.
func NewHelmClient() *HelmClient {
	return &HelmClient{
		settings: cli.New(),
	}
}

// Release describes one chart installation.
type Release struct {
	Namespace string
	Name      string
	RepoURL   string
	Chart     string
	Version   string
	Values    map[string]interface{}
	Timeout   time.Duration
}

// InstallOrUpgrade installs the release if absent, upgrades it in place
// otherwise. Waiting for the release's own resources is delegated to Helm;
// platform-level readiness gating stays with the convergence executor.
func (h *HelmClient) InstallOrUpgrade(kubeconfig []byte, rel Release) error {
	restConfig, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to create rest config: %w", err)
	}

	actionConfig := new(action.Configuration)
	clientGetter := &restClientGetter{
		config:    restConfig,
		namespace: rel.Namespace,
	}
	if err := actionConfig.Init(clientGetter, rel.Namespace, os.Getenv("HELM_DRIVER"), log.Printf); err != nil {
		return fmt.Errorf("failed to init helm action config: %w", err)
	}

	cp := &action.ChartPathOptions{}
	cp.RepoURL = rel.RepoURL
	cp.Version = rel.Version

	chartPath, err := cp.LocateChart(rel.Chart, h.settings)
	if err != nil {
		return fmt.Errorf("failed to locate chart %s: %w", rel.Chart, err)
	}
	chart, err := loader.Load(chartPath)
	if err != nil {
		return fmt.Errorf("failed to load chart %s: %w", rel.Chart, err)
	}

	timeout := rel.Timeout
	if timeout == 0 {
		timeout = 10 * time.Minute
	}

	histClient := action.NewHistory(actionConfig)
	histClient.Max = 1
	if _, err := histClient.Run(rel.Name); err == nil {
		upgrade := action.NewUpgrade(actionConfig)
		upgrade.Namespace = rel.Namespace
		upgrade.Wait = true
		upgrade.Timeout = timeout
		if _, err := upgrade.Run(rel.Name, chart, rel.Values); err != nil {
			return fmt.Errorf("helm upgrade %s failed: %w", rel.Name, err)
		}
		return nil
	}

	install := action.NewInstall(actionConfig)
	install.Namespace = rel.Namespace
	install.ReleaseName = rel.Name
	install.CreateNamespace = true
	install.Wait = true
	install.Timeout = timeout
	if _, err := install.Run(chart, rel.Values); err != nil {
		return fmt.Errorf("helm install %s failed: %w", rel.Name, err)
	}
	return nil
}

// AddRepo registers a chart repository and refreshes its index.
func (h *HelmClient) AddRepo(name, url string) error {
	f, err := repo.LoadFile(h.settings.RepositoryConfig)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if os.IsNotExist(err) {
		f = repo.NewFile()
	}

	entry := repo.Entry{
		Name: name,
		URL:  url,
	}
	r, err := repo.NewChartRepository(&entry, getter.All(h.settings))
	if err != nil {
		return err
	}
	if _, err := r.DownloadIndexFile(); err != nil {
		return err
	}

	f.Update(&entry)
	return f.WriteFile(h.settings.RepositoryConfig, 0o644)
}

// restClientGetter implements the minimal RESTClientGetter Helm needs.
type restClientGetter struct {
	config    *rest.Config
	namespace string
}

func (g *restClientGetter) ToRESTConfig() (*rest.Config, error) {
	return g.config, nil
}

func (g *restClientGetter) ToDiscoveryClient() (discovery.CachedDiscoveryInterface, error) {
	discoveryClient, err := discovery.NewDiscoveryClientForConfig(g.config)
	if err != nil {
		return nil, err
	}
	return memory.NewMemCacheClient(discoveryClient), nil
}

func (g *restClientGetter) ToRESTMapper() (meta.RESTMapper, error) {
	discoveryClient, err := g.ToDiscoveryClient()
	if err != nil {
		return nil, err
	}
	return restmapper.NewDeferredDiscoveryRESTMapper(discoveryClient), nil
}

func (g *restClientGetter) ToRawKubeConfigLoader() clientcmd.ClientConfig {
	return clientcmd.NewDefaultClientConfig(*clientcmdapi.NewConfig(), &clientcmd.ConfigOverrides{})
}
