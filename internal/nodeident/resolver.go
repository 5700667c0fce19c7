// Package nodeident resolves the externally reachable address of the node
// the platform runs on, and derives a base domain from it when the operator
// has not configured one.
package nodeident

import (
	"context"
	"net"
	"strings"
)

// ClusterAddressReader is the read-only cluster query the resolver needs.
// Implemented by k8s.Client.
type ClusterAddressReader interface {
	FirstNodeInternalIP(ctx context.Context) (string, error)
}

// Resolver detects the node address through a fixed trust hierarchy:
// explicit operator override, then the cluster-reported node address, then
// best-effort local interface enumeration. The first candidate that passes
// IPv4 validation wins; later steps are not consulted.
type Resolver struct {
	override string
	cluster  ClusterAddressReader

	// localAddrs is swappable in tests.
	localAddrs func() ([]net.Addr, error)
}

// NewResolver creates a resolver. override may be empty; cluster may be nil
// when no cluster access is available yet.
func NewResolver(override string, cluster ClusterAddressReader) *Resolver {
	return &Resolver{
		override:   override,
		cluster:    cluster,
		localAddrs: net.InterfaceAddrs,
	}
}

// DetectAddress returns the first valid IPv4 candidate, or an empty string
// when nothing usable was found. An empty result is not an error here:
// stages that need a reachable hostname fail when they find the derived
// domain empty, which names the actual problem.
func (r *Resolver) DetectAddress(ctx context.Context) string {
	if ValidIPv4(r.override) {
		return r.override
	}

	if r.cluster != nil {
		if ip, err := r.cluster.FirstNodeInternalIP(ctx); err == nil && ValidIPv4(ip) {
			return ip
		}
	}

	return r.localAddress()
}

// localAddress picks the first global unicast IPv4 bound to a local
// interface. Loopback and link-local addresses never identify the node to
// the outside.
func (r *Resolver) localAddress() string {
	addrs, err := r.localAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP
		if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.To4() == nil {
			continue
		}
		return ip.String()
	}
	return ""
}

// ValidIPv4 reports whether s is a syntactically valid dotted-quad IPv4
// address. Anything else, including "999.1.1.1" and IPv6, is rejected.
func ValidIPv4(s string) bool {
	if s == "" || strings.Count(s, ".") != 3 {
		return false
	}
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}

// DeriveDomain synthesizes a wildcard-DNS domain from the node address by
// dash-encoding it under the given suffix, e.g. 10.0.0.5 becomes
// 10-0-0-5.sslip.io. Such a domain resolves back to the node without any
// operator DNS registration. An empty address yields an empty domain.
func DeriveDomain(address, suffix string) string {
	if address == "" {
		return ""
	}
	return strings.ReplaceAll(address, ".", "-") + "." + suffix
}
