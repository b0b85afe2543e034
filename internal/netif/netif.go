// Package netif enumerates the host's active network interfaces.
package netif

import (
	"errors"
	"fmt"

	"github.com/user/killswitch/internal/procutil"
)

// ErrEnumeration is returned when the interface list cannot be obtained.
var ErrEnumeration = errors.New("interface enumeration failed")

// Interface is an active, non-loopback interface with an IPv4 address.
type Interface struct {
	Name string
	MAC  string
	// IP is "a.b.c.d/prefix" for broadcast interfaces and the bare
	// address for point-to-point ones or when the netmask is unreadable.
	IP           string
	PointToPoint bool
}

// Enumerator lists interfaces by querying ifconfig.
type Enumerator struct {
	runner procutil.Runner
}

// NewEnumerator creates an Enumerator. A nil runner uses procutil.DefaultRunner.
func NewEnumerator(runner procutil.Runner) *Enumerator {
	if runner == nil {
		runner = procutil.DefaultRunner
	}
	return &Enumerator{runner: runner}
}

// Enumerate returns the active interfaces in the order ifconfig lists them.
func (e *Enumerator) Enumerate() ([]Interface, error) {
	out, err := e.runner.Output("ifconfig")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumeration, err)
	}
	return ParseIfconfig(string(out)), nil
}

// Physical returns the interfaces that are not point-to-point.
func Physical(ifaces []Interface) []Interface {
	var out []Interface
	for _, i := range ifaces {
		if !i.PointToPoint {
			out = append(out, i)
		}
	}
	return out
}

// Tunnels returns the point-to-point interfaces.
func Tunnels(ifaces []Interface) []Interface {
	var out []Interface
	for _, i := range ifaces {
		if i.PointToPoint {
			out = append(out, i)
		}
	}
	return out
}
