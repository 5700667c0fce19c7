// Package pipeline sequences the named deployment stages. Stage order is a
// manually linearized dependency graph: cluster foundation, then shared
// data services, then applications, then the presentation layer, then
// validation. The sequencer enforces the declared order and halts on the
// first fatal error; it never rolls back resources already applied.
package pipeline

import (
	"context"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/contract"
	"github.com/datadock/datadock/internal/converge"
	"github.com/datadock/datadock/internal/k8s"
	"github.com/datadock/datadock/internal/secrets"
)

// Context carries the shared collaborators every stage works with. The
// resolved contract travels here explicitly; stages never read ambient
// process environment.
type Context struct {
	context.Context

	Contract *contract.Store
	Secrets  *secrets.Materializer
	Cluster  *k8s.Client
	Helm     *k8s.HelmClient
	Exec     *converge.Executor
	Timeouts *config.Timeouts

	// NodeIPOverride is the operator-supplied address override, already
	// read from the process environment by the CLI layer. Empty means no
	// override.
	NodeIPOverride string
}

// NewContext assembles a run context around a resolved contract store and
// a connected cluster client.
func NewContext(ctx context.Context, store *contract.Store, cluster *k8s.Client) *Context {
	timeouts := config.LoadTimeouts()
	return &Context{
		Context:  ctx,
		Contract: store,
		Secrets:  secrets.NewMaterializer(store),
		Cluster:  cluster,
		Helm:     k8s.NewHelmClient(),
		Exec:     converge.NewExecutor(cluster, timeouts),
		Timeouts: timeouts,
	}
}
