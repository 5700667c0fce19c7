package stages

import (
	"context"
	"fmt"
	"log"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/contract"
	"github.com/datadock/datadock/internal/converge"
	"github.com/datadock/datadock/internal/nodeident"
	"github.com/datadock/datadock/internal/pipeline"
)

// Foundation resolves the node identity, derives the base domain, and
// converges the namespace and TLS issuer everything else builds on.
type Foundation struct{}

func (s *Foundation) Name() string { return "foundation" }

func (s *Foundation) Run(ctx *pipeline.Context) error {
	s.resolveIdentity(ctx)

	namespace, err := ctx.Contract.Require(config.KeyPlatformNamespace)
	if err != nil {
		return err
	}

	targets := []*converge.Target{
		{
			Kind:   converge.KindNamespace,
			Name:   namespace,
			Object: namespaceObject(namespace),
			Readiness: func(c context.Context) (bool, error) {
				return ctx.Cluster.NamespaceExists(c, namespace)
			},
		},
	}

	if ctx.Contract.Get(config.KeyTLSMode) != config.TLSModeDisabled {
		issuer, err := ctx.Contract.Require(config.KeyClusterIssuer)
		if err != nil {
			return err
		}
		targets = append(targets, &converge.Target{
			Kind:   converge.KindCertificate,
			Name:   issuer,
			Object: clusterIssuerObject(issuer),
		})
	}

	return ctx.Exec.ConvergeAll(ctx, targets)
}

// resolveIdentity fills NODE_IP and BASE_DOMAIN. An existing valid NODE_IP
// in the contract is honored unchanged; re-detection would make the
// platform's hostnames unstable across runs.
func (s *Foundation) resolveIdentity(ctx *pipeline.Context) {
	nodeIP := ctx.Contract.Get(config.KeyNodeIP)
	if !nodeident.ValidIPv4(nodeIP) {
		resolver := nodeident.NewResolver(ctx.NodeIPOverride, ctx.Cluster)
		nodeIP = resolver.DetectAddress(ctx)
		if nodeIP != "" {
			origin := contract.OriginDefault
			if nodeIP == ctx.NodeIPOverride {
				origin = contract.OriginOverride
			}
			ctx.Contract.Set(config.KeyNodeIP, nodeIP, origin)
		} else {
			log.Printf("[foundation] no usable node address found; stages needing a public hostname will fail")
		}
	}

	if ctx.Contract.Get(config.KeyBaseDomain) == "" && nodeIP != "" {
		domain := nodeident.DeriveDomain(nodeIP, config.WildcardDNSSuffix)
		ctx.Contract.Set(config.KeyBaseDomain, domain, contract.OriginDefault)
		log.Printf("[foundation] derived base domain %s", domain)
	}
}

// Verify checks that the namespace actually exists.
func (s *Foundation) Verify(ctx *pipeline.Context) error {
	namespace, err := ctx.Contract.Require(config.KeyPlatformNamespace)
	if err != nil {
		return err
	}
	exists, err := ctx.Cluster.NamespaceExists(ctx, namespace)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("namespace %s missing after convergence", namespace)
	}
	return nil
}
