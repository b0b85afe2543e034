package gateway

import (
	"net/netip"

	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"github.com/user/killswitch/internal/config"
)

// DeviceLister is the part of *wgctrl.Client used by WireGuard.
type DeviceLister interface {
	Devices() ([]*wgtypes.Device, error)
	Close() error
}

// WireGuard yields the endpoints of the peers of local WireGuard devices.
type WireGuard struct {
	Open func() (DeviceLister, error)
}

func (WireGuard) Name() string { return config.StrategyWireGuard }

func (s WireGuard) Candidates(yield func(netip.Addr) bool) error {
	open := s.Open
	if open == nil {
		open = openWGCtrl
	}
	client, err := open()
	if err != nil {
		return err
	}
	defer client.Close()

	devices, err := client.Devices()
	if err != nil {
		return err
	}
	for _, dev := range devices {
		for _, peer := range dev.Peers {
			if peer.Endpoint == nil {
				continue
			}
			addr, ok := netip.AddrFromSlice(peer.Endpoint.IP)
			if !ok {
				continue
			}
			if !yield(addr.Unmap()) {
				return nil
			}
		}
	}
	return nil
}

func openWGCtrl() (DeviceLister, error) {
	return wgctrl.New()
}
