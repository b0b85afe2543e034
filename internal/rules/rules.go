// Package rules renders the pf ruleset that confines traffic to the VPN.
package rules

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/user/killswitch/internal/netif"
)

// DefaultPath is where the generated rules are written.
const DefaultPath = "/tmp/killswitch.pf.conf"

const rule = "# --------------------------------------------------------------\n"

// Options control the optional parts of the ruleset.
type Options struct {
	// Leak allows DNS to any host and ICMP echo on physical interfaces.
	Leak bool
	// AllowLocal allows traffic within each physical interface's subnet.
	AllowLocal bool
	// RulesPath is quoted in the header's load command. Defaults to DefaultPath.
	RulesPath string
	// Now stamps the header. Defaults to time.Now.
	Now func() time.Time
}

// Generate returns the pf ruleset for ifaces with endpoint as the only
// destination reachable through physical interfaces. The output depends
// only on its inputs apart from the header timestamp.
func Generate(ifaces []netif.Interface, endpoint string, opts Options) (string, error) {
	if _, err := netip.ParseAddr(endpoint); err != nil {
		return "", fmt.Errorf("invalid VPN endpoint %q: %w", endpoint, err)
	}
	path := opts.RulesPath
	if path == "" {
		path = DefaultPath
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	var b strings.Builder

	b.WriteString(rule)
	b.WriteString(fmt.Sprintf("# %s\n", now().Format(time.RFC1123Z)))
	b.WriteString(fmt.Sprintf("# sudo pfctl -Fa -f %s -e\n", path))
	b.WriteString(rule)

	// Interface macros
	for _, i := range ifaces {
		b.WriteString(fmt.Sprintf("%s = \"%s\"\n", macro(i), i.Name))
	}
	b.WriteString(fmt.Sprintf("vpn_ip = \"%s\"\n", endpoint))
	b.WriteString("\n")

	// Options
	b.WriteString("set block-policy drop\n")
	b.WriteString("set ruleset-optimization basic\n")
	b.WriteString("set skip on lo0\n")
	b.WriteString("\n")

	// Default deny
	b.WriteString("block all\n")
	b.WriteString("block out inet6\n")
	b.WriteString("\n")

	if opts.Leak {
		b.WriteString("# dns\n")
		b.WriteString("pass quick proto {tcp, udp} from any to any port 53 keep state\n")
		b.WriteString("\n")
	}

	b.WriteString("# Allow broadcasts on internal interface\n")
	b.WriteString("pass from any to 255.255.255.255 keep state\n")
	b.WriteString("pass from 255.255.255.255 to any keep state\n")
	b.WriteString("\n")

	b.WriteString("# Allow multicast\n")
	b.WriteString("pass proto udp from any to 224.0.0.0/4 keep state\n")
	b.WriteString("pass proto udp from 224.0.0.0/4 to any keep state\n")
	b.WriteString("\n")

	for _, i := range netif.Physical(ifaces) {
		m := "$" + macro(i)
		if opts.Leak {
			b.WriteString("# Allow ping\n")
			b.WriteString(fmt.Sprintf("pass on %s inet proto icmp all icmp-type 8 code 0 keep state\n", m))
			b.WriteString("\n")
		}
		b.WriteString("# Allow dhcp\n")
		b.WriteString(fmt.Sprintf("pass on %s proto {tcp,udp} from any port 67:68 to any port 67:68 keep state\n", m))
		b.WriteString("\n")
		if opts.AllowLocal {
			b.WriteString(fmt.Sprintf("pass from %s:network to %s:network\n", m, m))
		}
		b.WriteString("# use only the vpn\n")
		b.WriteString(fmt.Sprintf("pass on %s proto {tcp, udp} from any to $vpn_ip\n", m))
	}

	for _, i := range netif.Tunnels(ifaces) {
		b.WriteString(fmt.Sprintf("pass on $%s all\n", macro(i)))
	}

	return b.String(), nil
}

// macro names the pf macro for an interface: vpn_ for point-to-point links,
// int_ otherwise.
func macro(i netif.Interface) string {
	prefix := "int_"
	if i.PointToPoint {
		prefix = "vpn_"
	}
	return prefix + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, i.Name)
}

// StripHeader drops the comment header so two rulesets can be compared
// without the timestamp getting in the way.
func StripHeader(ruleset string) string {
	lines := strings.SplitAfter(ruleset, "\n")
	n := 0
	for n < len(lines) && strings.HasPrefix(lines[n], "#") && n < 4 {
		n++
	}
	return strings.Join(lines[n:], "")
}
