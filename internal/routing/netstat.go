package routing

import (
	"net/netip"
	"strings"
)

// Route is one row of `netstat -rn` output.
type Route struct {
	Destination string
	Gateway     string
	Flags       string
	Netif       string
}

// IsVPNHostRoute reports whether the flag letters include U, G and S
// together with H (host) or c (cloning).
func (r Route) IsVPNHostRoute() bool {
	has := func(c rune) bool { return strings.ContainsRune(r.Flags, c) }
	return has('U') && has('G') && has('S') && (has('H') || has('c'))
}

// DestinationAddr parses the destination column as an IP address.
func (r Route) DestinationAddr() (netip.Addr, bool) {
	addr, err := netip.ParseAddr(r.Destination)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr, true
}

// ParseNetstat reads the route rows of `netstat -rn -f inet`. Titles and the
// column header are skipped.
func ParseNetstat(out string) []Route {
	var routes []Route
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] == "Destination" {
			continue
		}
		r := Route{
			Destination: fields[0],
			Gateway:     fields[1],
			Flags:       fields[2],
		}
		if len(fields) > 3 {
			r.Netif = fields[3]
		}
		routes = append(routes, r)
	}
	return routes
}

// VPNHostDestinations returns the parseable destinations of the UGSH and
// UGSc rows in netstat output, in order.
func VPNHostDestinations(out string) []netip.Addr {
	var dsts []netip.Addr
	for _, r := range ParseNetstat(out) {
		if !r.IsVPNHostRoute() {
			continue
		}
		if addr, ok := r.DestinationAddr(); ok {
			dsts = append(dsts, addr)
		}
	}
	return dsts
}
