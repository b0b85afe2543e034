package gateway

import (
	"errors"
	"net/netip"
	"strings"

	"github.com/user/killswitch/internal/logger"
)

// ErrDetection is returned when no strategy produced an acceptable endpoint.
var ErrDetection = errors.New("could not detect VPN gateway. Please specify it manually with --ipv4")

// Strategy is one source of candidate endpoints.
//
// Candidates calls yield for each address it finds, in its own order of
// preference, and must stop as soon as yield returns false. Strategies do
// not filter their candidates; the Detector does.
type Strategy interface {
	Name() string
	Candidates(yield func(netip.Addr) bool) error
}

// Candidate is an accepted endpoint and where it came from.
type Candidate struct {
	Addr     netip.Addr
	Strategy string
	// TunnelPeer is set when the address is the peer of a tunnel interface
	// rather than a route to the server.
	TunnelPeer bool
}

// tunnelPeerStrategy is implemented by strategies whose candidates are
// tunnel peer addresses.
type tunnelPeerStrategy interface {
	tunnelPeer() bool
}

// Detector runs strategies in order until one yields a public endpoint.
type Detector struct {
	strategies []Strategy
}

// NewDetector creates a Detector trying strategies in the given order.
func NewDetector(strategies ...Strategy) *Detector {
	return &Detector{strategies: strategies}
}

// Strategies returns the names of the configured strategies, in order.
func (d *Detector) Strategies() []string {
	names := make([]string, len(d.strategies))
	for i, s := range d.strategies {
		names[i] = s.Name()
	}
	return names
}

// Detect returns the first candidate accepted by IsPublicEndpoint. Strategy
// failures are logged and the next strategy is tried.
func (d *Detector) Detect() (Candidate, error) {
	for _, s := range d.strategies {
		var found netip.Addr
		err := s.Candidates(func(addr netip.Addr) bool {
			if !IsPublicEndpoint(addr) {
				logger.Debug("%s: skipping %s", s.Name(), addr)
				return true
			}
			found = addr
			return false
		})
		if found.IsValid() {
			c := Candidate{Addr: found, Strategy: s.Name()}
			if tp, ok := s.(tunnelPeerStrategy); ok {
				c.TunnelPeer = tp.tunnelPeer()
			}
			logger.Info("VPN gateway %s found by %s", found, s.Name())
			return c, nil
		}
		if err != nil {
			logger.Debug("%s: %v", s.Name(), err)
			continue
		}
		logger.Debug("%s: no candidate", s.Name())
	}
	logger.Debug("tried %s", strings.Join(d.Strategies(), ", "))
	return Candidate{}, ErrDetection
}
