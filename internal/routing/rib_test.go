package routing

import (
	"encoding/binary"
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	version uint8
	flags   uint32
	addrs   uint32
	family  uint8
	saLen   uint8
	dst     string
}

func (tr testRecord) bytes() []byte {
	rec := make([]byte, rtmHdrLen+16)
	binary.NativeEndian.PutUint16(rec, uint16(len(rec)))
	rec[offVersion] = tr.version
	binary.NativeEndian.PutUint32(rec[offFlags:], tr.flags)
	binary.NativeEndian.PutUint32(rec[offAddrs:], tr.addrs)
	sa := rec[rtmHdrLen:]
	sa[0] = tr.saLen
	sa[1] = tr.family
	ip := netip.MustParseAddr(tr.dst).As4()
	copy(sa[saAddrOff:], ip[:])
	return rec
}

func hostRoute(dst string, flags uint32) testRecord {
	return testRecord{version: rtmVersion, flags: flags, addrs: rtaDst | 0x2, family: afInet, saLen: 16, dst: dst}
}

func dump(recs ...testRecord) []byte {
	var buf []byte
	for _, r := range recs {
		buf = append(buf, r.bytes()...)
	}
	return buf
}

func addrs(ss ...string) []netip.Addr {
	var out []netip.Addr
	for _, s := range ss {
		out = append(out, netip.MustParseAddr(s))
	}
	return out
}

func TestIsVPNHostRoute(t *testing.T) {
	tests := []struct {
		name  string
		flags uint32
		want  bool
	}{
		{"UGSH", FlagsUGSH, true},
		{"UGSc", FlagsUGSc, true},
		{"UGSH plus extra bits", FlagsUGSH | 0x40000, true},
		{"UGS only", FlagUp | FlagGateway | FlagStatic, false},
		{"UGH without static", FlagUp | FlagGateway | FlagHost, false},
		{"down UGSH", FlagsUGSH &^ FlagUp, false},
		{"zero", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsVPNHostRoute(tt.flags))
		})
	}
}

func TestHostRouteDestinations(t *testing.T) {
	buf := dump(
		hostRoute("52.1.2.3", FlagsUGSH),
		hostRoute("8.8.8.8", FlagUp|FlagGateway|FlagStatic),
		hostRoute("198.51.100.7", FlagsUGSc),
	)
	got := HostRouteDestinations(buf)
	if diff := cmp.Diff(addrs("52.1.2.3", "198.51.100.7"), got, cmp.Comparer(func(a, b netip.Addr) bool { return a == b })); diff != "" {
		t.Errorf("unexpected destinations (-want +got):\n%s", diff)
	}
}

func TestHostRouteDestinationsSkipsForeignRecords(t *testing.T) {
	wrongVersion := hostRoute("52.1.2.3", FlagsUGSH)
	wrongVersion.version = 4

	inet6 := hostRoute("52.1.2.4", FlagsUGSH)
	inet6.family = 30

	noDst := hostRoute("52.1.2.5", FlagsUGSH)
	noDst.addrs = 0x2

	shortSockaddr := hostRoute("52.1.2.6", FlagsUGSH)
	shortSockaddr.saLen = 4

	buf := dump(wrongVersion, inet6, noDst, shortSockaddr, hostRoute("52.1.2.7", FlagsUGSH))
	assert.Equal(t, addrs("52.1.2.7"), HostRouteDestinations(buf))
}

func TestRecordReaderStopsOnBadLength(t *testing.T) {
	good := hostRoute("52.1.2.3", FlagsUGSH).bytes()

	zero := make([]byte, 8)
	buf := append(append([]byte{}, good...), zero...)
	buf = append(buf, hostRoute("52.1.2.4", FlagsUGSH).bytes()...)
	assert.Equal(t, addrs("52.1.2.3"), HostRouteDestinations(buf), "zero length ends parsing")

	overrun := hostRoute("52.1.2.4", FlagsUGSH).bytes()
	binary.NativeEndian.PutUint16(overrun, uint16(len(overrun)+50))
	buf = append(append([]byte{}, good...), overrun...)
	assert.Equal(t, addrs("52.1.2.3"), HostRouteDestinations(buf), "length past buffer ends parsing")
}

func TestRecordReaderStopsOnShortRecord(t *testing.T) {
	short := make([]byte, minRecordLen-1)
	binary.NativeEndian.PutUint16(short, uint16(len(short)))
	short[offVersion] = rtmVersion

	buf := dump(hostRoute("52.1.2.3", FlagsUGSH))
	buf = append(buf, short...)
	buf = append(buf, hostRoute("52.1.2.4", FlagsUGSH).bytes()...)
	assert.Equal(t, addrs("52.1.2.3"), HostRouteDestinations(buf), "a record without room for flags and addrs ends parsing")

	r := NewRecordReader(short)
	_, ok := r.Next()
	assert.False(t, ok)

	header := make([]byte, minRecordLen)
	binary.NativeEndian.PutUint16(header, uint16(len(header)))
	header[offVersion] = rtmVersion
	binary.NativeEndian.PutUint32(header[offFlags:], FlagsUGSH)
	r = NewRecordReader(header)
	rec, ok := r.Next()
	require.True(t, ok, "a record holding exactly the header fields is read")
	_, ok = rec.Destination()
	assert.False(t, ok)
}

func TestRecordAccessorsOnShortRecord(t *testing.T) {
	rec := Record{6, 0, rtmVersion, 1, 0, 0}
	v, ok := rec.Version()
	assert.True(t, ok)
	assert.Equal(t, uint8(rtmVersion), v)

	_, ok = rec.Flags()
	assert.False(t, ok)
	_, ok = rec.Addrs()
	assert.False(t, ok)
	_, ok = rec.Destination()
	assert.False(t, ok)
}

func TestHostRouteDestinationsTruncatedInput(t *testing.T) {
	buf := dump(hostRoute("52.1.2.3", FlagsUGSH), hostRoute("52.1.2.4", FlagsUGSc))
	for i := 0; i <= len(buf); i++ {
		assert.NotPanics(t, func() { HostRouteDestinations(buf[:i]) })
	}
	assert.Empty(t, HostRouteDestinations(nil))
	assert.Empty(t, HostRouteDestinations([]byte{0xff}))
}
