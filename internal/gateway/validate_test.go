package gateway

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPublicEndpoint(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"8.8.8.8", true},
		{"1.1.1.1", true},
		{"1.0.0.0", true},
		{"52.1.2.3", true},
		{"128.0.0.1", true},
		{"223.255.255.255", true},
		{"9.255.255.255", true},
		{"11.0.0.0", true},
		{"172.15.255.255", true},
		{"172.32.0.0", true},
		{"192.167.255.255", true},
		{"192.169.0.0", true},
		{"169.253.255.255", true},
		{"169.255.0.0", true},

		{"0.0.0.0", false},
		{"0.255.255.255", false},
		{"128.0.0.0", false},
		{"255.255.255.255", false},
		{"10.0.0.0", false},
		{"10.255.255.255", false},
		{"172.16.0.0", false},
		{"172.31.255.255", false},
		{"192.168.0.0", false},
		{"192.168.255.255", false},
		{"127.0.0.1", false},
		{"169.254.0.0", false},
		{"169.254.255.255", false},
		{"224.0.0.0", false},
		{"239.255.255.250", false},
		{"240.0.0.1", false},

		{"::1", false},
		{"2001:db8::1", false},
		{"::ffff:8.8.8.8", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPublicEndpoint(netip.MustParseAddr(tt.addr)))
		})
	}
	assert.False(t, IsPublicEndpoint(netip.Addr{}), "zero value")
}

func TestParseEndpoint(t *testing.T) {
	addr, err := ParseEndpoint("52.1.2.3")
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("52.1.2.3"), addr)

	tests := []struct {
		input string
		msg   string
	}{
		{"2001:db8::1", "IPv6 addresses are not supported: 2001:db8::1"},
		{"192.168.1.1", "192.168.1.1 is a private/reserved IP address. VPN peer must be a public IP"},
		{"128.0.0.0", "128.0.0.0 is a private/reserved IP address. VPN peer must be a public IP"},
		{"vpn.example.com", "invalid IP address: vpn.example.com"},
		{"", "invalid IP address: "},
	}
	for _, tt := range tests {
		_, err := ParseEndpoint(tt.input)
		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr), tt.input)
		assert.Equal(t, tt.input, vErr.Input)
		assert.EqualError(t, err, tt.msg)
	}
}
