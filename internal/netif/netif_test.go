package netif

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/killswitch/internal/procutil"
)

const darwinIfconfig = `lo0: flags=8049<UP,LOOPBACK,RUNNING,MULTICAST> mtu 16384
	options=1203<RXCSUM,TXCSUM,TXSTATUS,SW_TIMESTAMP>
	inet 127.0.0.1 netmask 0xff000000
	inet6 ::1 prefixlen 128
gif0: flags=8010<POINTOPOINT,MULTICAST> mtu 1280
en0: flags=8863<UP,BROADCAST,SMART,RUNNING,SIMPLEX,MULTICAST> mtu 1500
	options=400<CHANNEL_IO>
	ether a4:83:e7:11:22:33
	inet6 fe80::1c2b:3c4d:5e6f:7a8b%en0 prefixlen 64 secured scopeid 0x4
	inet 192.168.1.10 netmask 0xffffff00 broadcast 192.168.1.255
	inet 192.168.1.11 netmask 0xffffff00 broadcast 192.168.1.255
	media: autoselect
	status: active
en1: flags=8822<BROADCAST,SMART,SIMPLEX,MULTICAST> mtu 1500
	ether a4:83:e7:44:55:66
	inet 10.1.1.1 netmask 0xffffff00 broadcast 10.1.1.255
bridge0: flags=8863<UP,BROADCAST,SMART,RUNNING,SIMPLEX,MULTICAST> mtu 1500
	ether 36:a1:b2:c3:d4:e5
	inet6 fe80::1%bridge0 prefixlen 64 scopeid 0x9
utun3: flags=8051<UP,POINTOPOINT,RUNNING,MULTICAST> mtu 1380
	inet 10.8.0.6 --> 10.8.0.5 netmask 0xffffffff
en5: flags=8863<UP,BROADCAST,SMART,RUNNING,SIMPLEX,MULTICAST> mtu 1500
	ether ac:de:48:00:11:22
	inet 172.20.10.4 netmask 0xzz broadcast 172.20.10.15
`

func TestParseIfconfig(t *testing.T) {
	got := ParseIfconfig(darwinIfconfig)
	want := []Interface{
		{Name: "en0", MAC: "a4:83:e7:11:22:33", IP: "192.168.1.10/24"},
		{Name: "utun3", IP: "10.8.0.6", PointToPoint: true},
		{Name: "en5", MAC: "ac:de:48:00:11:22", IP: "172.20.10.4"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected interfaces (-want +got):\n%s", diff)
	}
}

func TestParseIfconfigPeerFormWithoutFlag(t *testing.T) {
	out := "ppp0: flags=8051<UP,RUNNING,MULTICAST> mtu 1280\n\tinet 10.0.0.2 peer 10.0.0.1 netmask 0xff000000\n"
	got := ParseIfconfig(out)
	require.Len(t, got, 1)
	assert.True(t, got[0].PointToPoint)
	assert.Equal(t, "10.0.0.2", got[0].IP)
}

func TestParseIfconfigEmpty(t *testing.T) {
	assert.Empty(t, ParseIfconfig(""))
	assert.Empty(t, ParseIfconfig("garbage\n\tinet 1.2.3.4 netmask 0xffffff00\n"))
}

func TestMaskToPrefix(t *testing.T) {
	tests := []struct {
		mask string
		want int
		ok   bool
	}{
		{"0xffffff00", 24, true},
		{"0xffff0000", 16, true},
		{"0xff000000", 8, true},
		{"0xffffffff", 32, true},
		{"0x00000000", 0, true},
		{"0xfffffff0", 28, true},
		{"ffffff00", 0, false},
		{"0x", 0, false},
		{"0xzz", 0, false},
		{"0x1ffffffff", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := MaskToPrefix(tt.mask)
		assert.Equal(t, tt.ok, ok, tt.mask)
		assert.Equal(t, tt.want, got, tt.mask)
	}
}

func TestBlockPeers(t *testing.T) {
	blocks := ParseBlocks(darwinIfconfig)
	var utun Block
	for _, b := range blocks {
		if b.Name == "utun3" {
			utun = b
		}
	}
	assert.Equal(t, []string{"10.8.0.5"}, utun.Peers())
	assert.True(t, utun.HasFlag("POINTOPOINT"))
	assert.False(t, utun.HasFlag("POINT"))
}

func TestEnumerate(t *testing.T) {
	m := new(procutil.MockRunner)
	m.On("ifconfig").Return([]byte(darwinIfconfig), nil)

	ifaces, err := NewEnumerator(m).Enumerate()
	require.NoError(t, err)
	assert.Len(t, ifaces, 3)
	assert.Len(t, Physical(ifaces), 2)
	assert.Len(t, Tunnels(ifaces), 1)
	m.AssertExpectations(t)
}

func TestEnumerateFailure(t *testing.T) {
	m := new(procutil.MockRunner)
	m.On("ifconfig").Return(nil, procutil.Fail("ifconfig", "ifconfig: not permitted\n"))

	ifaces, err := NewEnumerator(m).Enumerate()
	assert.Nil(t, ifaces)
	assert.True(t, errors.Is(err, ErrEnumeration))
	assert.Contains(t, err.Error(), "not permitted")
}
