// Package routing reads the host IPv4 routing table.
//
// Two sources are supported: the raw kernel route dump (see RecordReader)
// and the text output of netstat. Both are used only to find host routes
// that a VPN client installs towards its server.
package routing

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/jackpal/gateway"
)

// ErrUnsupported is returned by FetchRIB on platforms without a BSD route dump.
var ErrUnsupported = errors.New("routing table dump not supported on this platform")

// Route flag bits as defined by the BSD routing socket.
const (
	FlagUp        uint32 = 0x1
	FlagGateway   uint32 = 0x2
	FlagHost      uint32 = 0x4
	FlagStatic    uint32 = 0x800
	FlagPRCloning uint32 = 0x10000
)

// Flag combinations of the host route VPN clients add for their server:
// UGSH (up, gateway, static, host) and UGSc (up, gateway, static, cloning).
const (
	FlagsUGSH = FlagUp | FlagGateway | FlagStatic | FlagHost
	FlagsUGSc = FlagUp | FlagGateway | FlagStatic | FlagPRCloning
)

// IsVPNHostRoute reports whether flags include all bits of UGSH or of UGSc.
func IsVPNHostRoute(flags uint32) bool {
	return flags&FlagsUGSH == FlagsUGSH || flags&FlagsUGSc == FlagsUGSc
}

// DefaultGateway returns the default IPv4 gateway.
func DefaultGateway() (netip.Addr, error) {
	return defaultGateway(gateway.DiscoverGateway)
}

func defaultGateway(discover func() (net.IP, error)) (netip.Addr, error) {
	ip, err := discover()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to get default gateway: %w", err)
	}
	return fromNetIP(ip)
}

func fromNetIP(ip net.IP) (netip.Addr, error) {
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Addr{}, fmt.Errorf("invalid address: %v", ip)
	}
	return addr.Unmap(), nil
}
