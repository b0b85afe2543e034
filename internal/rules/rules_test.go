package rules

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/killswitch/internal/netif"
)

var fixedNow = func() time.Time {
	return time.Date(2024, 3, 5, 14, 7, 9, 0, time.FixedZone("", -5*3600))
}

var testIfaces = []netif.Interface{
	{Name: "en0", MAC: "a4:83:e7:11:22:33", IP: "192.168.1.10/24"},
	{Name: "utun3", IP: "10.8.0.6", PointToPoint: true},
}

const wantLeakLocal = `# --------------------------------------------------------------
# Tue, 05 Mar 2024 14:07:09 -0500
# sudo pfctl -Fa -f /tmp/killswitch.pf.conf -e
# --------------------------------------------------------------
int_en0 = "en0"
vpn_utun3 = "utun3"
vpn_ip = "52.1.2.3"

set block-policy drop
set ruleset-optimization basic
set skip on lo0

block all
block out inet6

# dns
pass quick proto {tcp, udp} from any to any port 53 keep state

# Allow broadcasts on internal interface
pass from any to 255.255.255.255 keep state
pass from 255.255.255.255 to any keep state

# Allow multicast
pass proto udp from any to 224.0.0.0/4 keep state
pass proto udp from 224.0.0.0/4 to any keep state

# Allow ping
pass on $int_en0 inet proto icmp all icmp-type 8 code 0 keep state

# Allow dhcp
pass on $int_en0 proto {tcp,udp} from any port 67:68 to any port 67:68 keep state

pass from $int_en0:network to $int_en0:network
# use only the vpn
pass on $int_en0 proto {tcp, udp} from any to $vpn_ip
pass on $vpn_utun3 all
`

func TestGenerateGolden(t *testing.T) {
	got, err := Generate(testIfaces, "52.1.2.3", Options{Leak: true, AllowLocal: true, Now: fixedNow})
	require.NoError(t, err)
	if diff := cmp.Diff(wantLeakLocal, got); diff != "" {
		t.Errorf("unexpected ruleset (-want +got):\n%s", diff)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	opts := Options{Now: fixedNow}
	a, err := Generate(testIfaces, "52.1.2.3", opts)
	require.NoError(t, err)
	b, err := Generate(testIfaces, "52.1.2.3", opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Generate(testIfaces, "52.1.2.3", Options{})
	require.NoError(t, err)
	assert.Equal(t, StripHeader(a), StripHeader(c), "only the header depends on the clock")
}

func TestGenerateLeakOff(t *testing.T) {
	got, err := Generate(testIfaces, "52.1.2.3", Options{Now: fixedNow})
	require.NoError(t, err)

	assert.NotContains(t, got, "port 53")
	assert.NotContains(t, got, "icmp")
	assert.NotContains(t, got, ":network")
	assert.Contains(t, got, "block all\n")
	assert.Contains(t, got, "pass on $int_en0 proto {tcp, udp} from any to $vpn_ip\n")
}

func TestGenerateLeakOn(t *testing.T) {
	got, err := Generate(testIfaces, "52.1.2.3", Options{Leak: true, Now: fixedNow})
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(got, "pass quick proto {tcp, udp} from any to any port 53 keep state\n"))
	assert.Equal(t, 1, strings.Count(got, "icmp-type 8 code 0"), "one echo rule per physical interface")
	assert.NotContains(t, got, "pass on $vpn_utun3 inet proto icmp")
}

func TestGenerateOrdering(t *testing.T) {
	ifaces := []netif.Interface{
		{Name: "utun1", IP: "10.0.0.2", PointToPoint: true},
		{Name: "en0", IP: "192.168.1.2/24"},
		{Name: "en1", IP: "10.1.1.2/24"},
	}
	got, err := Generate(ifaces, "203.0.113.1", Options{Now: fixedNow})
	require.NoError(t, err)

	idx := func(s string) int {
		i := strings.Index(got, s)
		require.GreaterOrEqual(t, i, 0, s)
		return i
	}
	assert.Less(t, idx(`vpn_utun1 = "utun1"`), idx(`int_en0 = "en0"`))
	assert.Less(t, idx(`int_en0 = "en0"`), idx(`int_en1 = "en1"`))
	assert.Less(t, idx(`int_en1 = "en1"`), idx(`vpn_ip = "203.0.113.1"`))
	assert.Less(t, idx("block all"), idx("# Allow broadcasts"))
	assert.Less(t, idx("# Allow multicast"), idx("pass on $int_en0 proto {tcp,udp}"))
	assert.Less(t, idx("pass on $int_en1 proto {tcp, udp} from any to $vpn_ip"), idx("pass on $vpn_utun1 all"))
	assert.True(t, strings.HasSuffix(got, "pass on $vpn_utun1 all\n"))
}

func TestGenerateCustomPathAndOddNames(t *testing.T) {
	ifaces := []netif.Interface{{Name: "vlan0.12", IP: "192.0.2.4/24"}}
	got, err := Generate(ifaces, "52.1.2.3", Options{RulesPath: "/var/run/ks.conf", Now: fixedNow})
	require.NoError(t, err)
	assert.Contains(t, got, "# sudo pfctl -Fa -f /var/run/ks.conf -e\n")
	assert.Contains(t, got, "int_vlan0_12 = \"vlan0.12\"\n")
	assert.Contains(t, got, "pass on $int_vlan0_12 proto")
}

func TestGenerateNoInterfaces(t *testing.T) {
	got, err := Generate(nil, "52.1.2.3", Options{Now: fixedNow})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "pass proto udp from 224.0.0.0/4 to any keep state\n\n"))
}

func TestGenerateRejectsBadEndpoint(t *testing.T) {
	for _, ep := range []string{"", "vpn.example.com", "300.1.1.1"} {
		_, err := Generate(testIfaces, ep, Options{})
		assert.Error(t, err, ep)
	}
	_, err := Generate(testIfaces, "2001:db8::1", Options{})
	assert.NoError(t, err, "any IP literal is accepted")
}

func TestStripHeader(t *testing.T) {
	got, err := Generate(testIfaces, "52.1.2.3", Options{Now: fixedNow})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(StripHeader(got), "int_en0 = \"en0\"\n"))
	assert.Equal(t, "block all\n", StripHeader("block all\n"))
}
