package nodeident

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCluster struct {
	ip  string
	err error
}

func (f *fakeCluster) FirstNodeInternalIP(_ context.Context) (string, error) {
	return f.ip, f.err
}

func staticAddrs(ips ...string) func() ([]net.Addr, error) {
	return func() ([]net.Addr, error) {
		var addrs []net.Addr
		for _, s := range ips {
			ip, ipNet, _ := net.ParseCIDR(s)
			ipNet.IP = ip
			addrs = append(addrs, ipNet)
		}
		return addrs, nil
	}
}

func TestValidIPv4(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  bool
	}{
		{"10.0.0.5", true},
		{"192.168.1.254", true},
		{"0.0.0.0", true},
		{"999.1.1.1", false},
		{"not-an-ip", false},
		{"", false},
		{"10.0.0", false},
		{"10.0.0.5.6", false},
		{"fe80::1", false},
		{"::ffff:10.0.0.5", false},
		{"10.0.0.5 ", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ValidIPv4(tt.input), "input %q", tt.input)
		})
	}
}

func TestDetectAddress_OverrideWins(t *testing.T) {
	t.Parallel()
	r := NewResolver("203.0.113.7", &fakeCluster{ip: "10.0.0.5"})
	r.localAddrs = staticAddrs("192.168.1.10/24")

	assert.Equal(t, "203.0.113.7", r.DetectAddress(context.Background()))
}

func TestDetectAddress_InvalidOverrideFallsThrough(t *testing.T) {
	t.Parallel()
	for _, override := range []string{"999.1.1.1", "not-an-ip"} {
		r := NewResolver(override, &fakeCluster{ip: "10.0.0.5"})
		assert.Equal(t, "10.0.0.5", r.DetectAddress(context.Background()),
			"override %q must be skipped", override)
	}
}

func TestDetectAddress_ClusterErrorFallsThroughToLocal(t *testing.T) {
	t.Parallel()
	r := NewResolver("", &fakeCluster{err: errors.New("api server unreachable")})
	r.localAddrs = staticAddrs("127.0.0.1/8", "169.254.1.2/16", "192.168.1.10/24")

	assert.Equal(t, "192.168.1.10", r.DetectAddress(context.Background()))
}

func TestDetectAddress_NilClusterUsesLocal(t *testing.T) {
	t.Parallel()
	r := NewResolver("", nil)
	r.localAddrs = staticAddrs("10.20.30.40/16")

	assert.Equal(t, "10.20.30.40", r.DetectAddress(context.Background()))
}

func TestDetectAddress_NothingUsableYieldsEmpty(t *testing.T) {
	t.Parallel()
	r := NewResolver("", &fakeCluster{ip: ""})
	r.localAddrs = staticAddrs("127.0.0.1/8")

	assert.Empty(t, r.DetectAddress(context.Background()))
}

func TestDeriveDomain(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "10-0-0-5.sslip.io", DeriveDomain("10.0.0.5", "sslip.io"))
	assert.Equal(t, "192-168-1-9.sslip.io", DeriveDomain("192.168.1.9", "sslip.io"))
	assert.Empty(t, DeriveDomain("", "sslip.io"))
}
