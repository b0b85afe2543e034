// Package gateway locates the public endpoint of the active VPN tunnel.
package gateway

import (
	"fmt"
	"net/netip"
)

var (
	private = []netip.Prefix{
		netip.MustParsePrefix("0.0.0.0/8"),
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("127.0.0.0/8"),
		netip.MustParsePrefix("169.254.0.0/16"),
		netip.MustParsePrefix("172.16.0.0/12"),
		netip.MustParsePrefix("192.168.0.0/16"),
		netip.MustParsePrefix("224.0.0.0/3"),
	}
	// 128.0.0.0 shows up as the destination of the 128.0.0.0/1 half of a
	// redirected default route.
	halfDefault = netip.MustParseAddr("128.0.0.0")
)

// IsPublicEndpoint reports whether addr can be a VPN server endpoint: an
// IPv4 address outside private, loopback, link-local, multicast and
// reserved space. Every IPv6 address, IPv4-mapped ones included, is rejected.
func IsPublicEndpoint(addr netip.Addr) bool {
	if !addr.Is4() || addr == halfDefault {
		return false
	}
	for _, p := range private {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// ValidationError describes an unusable, explicitly supplied endpoint.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ParseEndpoint parses and checks an endpoint given by the user.
func ParseEndpoint(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, &ValidationError{Input: s, Reason: fmt.Sprintf("invalid IP address: %s", s)}
	}
	if !addr.Is4() {
		return netip.Addr{}, &ValidationError{Input: s, Reason: fmt.Sprintf("IPv6 addresses are not supported: %s", s)}
	}
	if !IsPublicEndpoint(addr) {
		return netip.Addr{}, &ValidationError{
			Input:  s,
			Reason: fmt.Sprintf("%s is a private/reserved IP address. VPN peer must be a public IP", s),
		}
	}
	return addr, nil
}
