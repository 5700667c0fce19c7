package stages

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/converge"
	"github.com/datadock/datadock/internal/pipeline"
)

const (
	portalImage = "ghcr.io/datadock/portal:1.4.0"
	portalPort  = 8080
)

// Portal deploys the operator status page: a small web app that surfaces
// per-service health and links into each application.
type Portal struct{}

func (s *Portal) Name() string { return "portal" }

func (s *Portal) Run(ctx *pipeline.Context) error {
	namespace, err := ctx.Contract.Require(config.KeyPlatformNamespace)
	if err != nil {
		return err
	}
	host, err := appHost(ctx, "portal")
	if err != nil {
		return err
	}
	adminUser, err := ctx.Contract.Require(config.KeyPortalAdminUser)
	if err != nil {
		return err
	}
	adminPassword, err := ctx.Secrets.EnsureToken(config.KeyPortalAdminPassword, 18)
	if err != nil {
		return err
	}

	// The portal stores only the hash; the cleartext stays in the
	// contract file for the operator.
	hash, err := s.ensurePasswordHash(ctx, namespace, adminPassword)
	if err != nil {
		return err
	}
	if err := ctx.Cluster.UpsertSecret(ctx, namespace, "portal-auth", map[string][]byte{
		"PORTAL_ADMIN_USER":          []byte(adminUser),
		"PORTAL_ADMIN_PASSWORD_HASH": hash,
	}); err != nil {
		return err
	}

	domain := ctx.Contract.Get(config.KeyBaseDomain)
	issuer := ctx.Contract.Get(config.KeyClusterIssuer)
	tlsMode := ctx.Contract.Get(config.KeyTLSMode)

	targets := []*converge.Target{
		{
			Kind:      converge.KindWorkload,
			Namespace: namespace,
			Name:      "portal",
			Object: deploymentObject(namespace, "portal", portalImage, portalPort, map[string]string{
				"PORTAL_BASE_DOMAIN": domain,
				"PORTAL_NAMESPACE":   namespace,
				"PORTAL_AUTH_SECRET": "portal-auth",
			}),
			PodSelector: "app=portal",
			Readiness: func(c context.Context) (bool, error) {
				return ctx.Cluster.DeploymentReady(c, namespace, "portal")
			},
		},
		{
			Kind:      converge.KindConfig,
			Namespace: namespace,
			Name:      "portal",
			Object:    serviceObject(namespace, "portal", 80, portalPort),
		},
		{
			Kind:      converge.KindIngress,
			Namespace: namespace,
			Name:      "portal",
			Object:    ingressObject(namespace, "portal", host, "portal", 80, issuer, tlsMode),
		},
	}

	// Service and ingress first so the deployment wait is the only gate.
	if err := ctx.Exec.ConvergeAll(ctx, targets[1:]); err != nil {
		return err
	}
	return convergeWithRestart(ctx, targets[0])
}

// ensurePasswordHash reuses the hash already stored in the auth secret
// when it still matches the contract password. bcrypt output is salted,
// so re-hashing on every run would rewrite the secret and restart the
// portal even though nothing changed.
func (s *Portal) ensurePasswordHash(ctx *pipeline.Context, namespace, password string) ([]byte, error) {
	exists, err := ctx.Cluster.SecretExists(ctx, namespace, "portal-auth")
	if err == nil && exists {
		existing, err := ctx.Cluster.GetSecretData(ctx, namespace, "portal-auth", "PORTAL_ADMIN_PASSWORD_HASH")
		if err == nil && bcrypt.CompareHashAndPassword(existing, []byte(password)) == nil {
			return existing, nil
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash portal admin password: %w", err)
	}
	return hash, nil
}

// Verify confirms the portal service has endpoints behind the ingress.
func (s *Portal) Verify(ctx *pipeline.Context) error {
	namespace, err := ctx.Contract.Require(config.KeyPlatformNamespace)
	if err != nil {
		return err
	}
	ready, err := ctx.Cluster.EndpointsReady(ctx, namespace, "portal")
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("portal service has no endpoints")
	}
	return nil
}
