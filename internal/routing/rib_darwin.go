//go:build darwin

package routing

import (
	"fmt"

	"golang.org/x/net/route"
	"golang.org/x/sys/unix"
)

// FetchRIB dumps the IPv4 routes that are up, via a gateway and static.
func FetchRIB() ([]byte, error) {
	buf, err := route.FetchRIB(unix.AF_INET, route.RIBType(unix.NET_RT_FLAGS), unix.RTF_UP|unix.RTF_GATEWAY|unix.RTF_STATIC)
	if err != nil {
		return nil, fmt.Errorf("route dump failed: %w", err)
	}
	return buf, nil
}
