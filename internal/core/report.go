package core

import (
	"context"
	"errors"
	"net/netip"

	"github.com/user/killswitch/internal/logger"
	"github.com/user/killswitch/internal/netif"
)

// ErrNoInterfaces is returned by Report when no interface is active.
var ErrNoInterfaces = errors.New("no active interfaces found, verify you are connected to the network")

// Report is the information shown when no action is requested.
type Report struct {
	Interfaces []netif.Interface
	HasTunnel  bool

	// Zero values mean the lookup failed.
	PublicIP       netip.Addr
	DefaultGateway netip.Addr
	Peer           netip.Addr
	PeerStrategy   string
}

// Report gathers the interface list, public address and detected peer.
// Only the interface enumeration is required to succeed.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	ifaces, err := s.enumerator.Enumerate()
	if err != nil {
		return nil, err
	}
	if len(ifaces) == 0 {
		return nil, ErrNoInterfaces
	}

	r := &Report{
		Interfaces: ifaces,
		HasTunnel:  len(netif.Tunnels(ifaces)) > 0,
	}

	if ip, err := s.opts.publicIP(ctx); err == nil {
		r.PublicIP = ip
	} else {
		logger.Debug("public IP lookup: %v", err)
	}

	if gw, err := s.opts.defaultGateway(); err == nil {
		r.DefaultGateway = gw
	} else {
		logger.Debug("default gateway lookup: %v", err)
	}

	if c, err := s.detector.Detect(); err == nil {
		r.Peer = c.Addr
		r.PeerStrategy = c.Strategy
	}

	return r, nil
}
