package gateway

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/user/killswitch/internal/config"
	"github.com/user/killswitch/internal/netif"
	"github.com/user/killswitch/internal/procutil"
	"github.com/user/killswitch/internal/routing"
)

// RoutingTable reads UGSH/UGSc host routes from the kernel route dump.
type RoutingTable struct {
	Fetch func() ([]byte, error)
}

func (RoutingTable) Name() string { return config.StrategyRoutingTable }

func (s RoutingTable) Candidates(yield func(netip.Addr) bool) error {
	fetch := s.Fetch
	if fetch == nil {
		fetch = routing.FetchRIB
	}
	buf, err := fetch()
	if err != nil {
		return err
	}
	for _, dst := range routing.HostRouteDestinations(buf) {
		if !yield(dst) {
			return nil
		}
	}
	return nil
}

// Netstat reads the same host routes from `netstat -rn -f inet`.
type Netstat struct {
	Runner procutil.Runner
}

func (Netstat) Name() string { return config.StrategyNetstat }

func (s Netstat) Candidates(yield func(netip.Addr) bool) error {
	out, err := s.Runner.Output("netstat", "-rn", "-f", "inet")
	if err != nil {
		return err
	}
	for _, dst := range routing.VPNHostDestinations(string(out)) {
		if !yield(dst) {
			return nil
		}
	}
	return nil
}

// Scutil asks the Network Extension framework for the remote address of
// each connected VPN service.
type Scutil struct {
	Runner procutil.Runner
}

func (Scutil) Name() string { return config.StrategyScutil }

func (s Scutil) Candidates(yield func(netip.Addr) bool) error {
	out, err := s.Runner.Output("scutil", "--nc", "list")
	if err != nil {
		return err
	}
	for _, id := range ConnectedServices(string(out)) {
		detail, err := s.Runner.Output("scutil", "--nc", "show", id)
		if err != nil {
			continue
		}
		addr, ok := RemoteAddress(string(detail))
		if !ok {
			continue
		}
		if !yield(addr) {
			return nil
		}
	}
	return nil
}

// ConnectedServices returns the service IDs of the "(Connected)" rows of
// `scutil --nc list`.
func ConnectedServices(out string) []string {
	var ids []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		for i, f := range fields {
			if f == "(Connected)" && i+1 < len(fields) {
				ids = append(ids, fields[i+1])
				break
			}
		}
	}
	return ids
}

// RemoteAddress reads the "RemoteAddress : x" line of `scutil --nc show`.
// A trailing port is ignored.
func RemoteAddress(out string) (netip.Addr, bool) {
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), " : ")
		if !ok || strings.TrimSpace(key) != "RemoteAddress" {
			continue
		}
		value = strings.TrimSpace(value)
		if addr, err := netip.ParseAddr(value); err == nil {
			return addr, true
		}
		if ap, err := netip.ParseAddrPort(value); err == nil {
			return ap.Addr(), true
		}
		return netip.Addr{}, false
	}
	return netip.Addr{}, false
}

// TunnelPeer reads the remote address of point-to-point tunnel interfaces.
// This is the local tunnel peer, not the server, so rules built from it may
// not keep the tunnel up. It is the last resort.
type TunnelPeer struct {
	Runner   procutil.Runner
	Prefixes []string
}

func (TunnelPeer) Name() string { return config.StrategyIfconfig }

func (TunnelPeer) tunnelPeer() bool { return true }

func (s TunnelPeer) Candidates(yield func(netip.Addr) bool) error {
	out, err := s.Runner.Output("ifconfig")
	if err != nil {
		return fmt.Errorf("%w: %w", netif.ErrEnumeration, err)
	}
	for _, b := range netif.ParseBlocks(string(out)) {
		if !s.isTunnel(b.Name) {
			continue
		}
		for _, peer := range b.Peers() {
			addr, err := netip.ParseAddr(peer)
			if err != nil {
				continue
			}
			if !yield(addr) {
				return nil
			}
		}
	}
	return nil
}

func (s TunnelPeer) isTunnel(name string) bool {
	for _, p := range s.Prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
