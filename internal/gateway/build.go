package gateway

import (
	"fmt"

	"github.com/user/killswitch/internal/config"
	"github.com/user/killswitch/internal/procutil"
)

// Env is the host access shared by the strategies. Nil fields fall back to
// the real system.
type Env struct {
	Runner         procutil.Runner
	FetchRIB       func() ([]byte, error)
	OpenWireGuard  func() (DeviceLister, error)
	TunnelPrefixes []string
}

// Build creates the named strategies in order.
func Build(names []string, env Env) ([]Strategy, error) {
	runner := env.Runner
	if runner == nil {
		runner = procutil.DefaultRunner
	}

	strategies := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch name {
		case config.StrategyRoutingTable:
			strategies = append(strategies, RoutingTable{Fetch: env.FetchRIB})
		case config.StrategyNetstat:
			strategies = append(strategies, Netstat{Runner: runner})
		case config.StrategyScutil:
			strategies = append(strategies, Scutil{Runner: runner})
		case config.StrategyWireGuard:
			strategies = append(strategies, WireGuard{Open: env.OpenWireGuard})
		case config.StrategyIfconfig:
			strategies = append(strategies, TunnelPeer{Runner: runner, Prefixes: env.TunnelPrefixes})
		default:
			return nil, fmt.Errorf("unknown detection strategy: %s", name)
		}
	}
	return strategies, nil
}
