package routing

import (
	"encoding/binary"
	"net/netip"
)

// Layout of a Darwin routing message (struct rt_msghdr) as returned by the
// NET_RT_FLAGS sysctl. Records use host byte order.
const (
	rtmVersion = 5
	rtmHdrLen  = 92

	offVersion = 2
	offFlags   = 8
	offAddrs   = 12

	// minRecordLen covers every header field the reader decodes.
	minRecordLen = offAddrs + 4

	rtaDst = 0x1
	afInet = 2

	// sockaddr_in: len, family, port, then the address.
	saAddrOff = 4
	saMinLen  = 8
)

// Record is one routing message from a route dump.
type Record []byte

// RecordReader walks a buffer of length-prefixed routing messages.
type RecordReader struct {
	buf []byte
	off int
}

// NewRecordReader creates a reader over buf.
func NewRecordReader(buf []byte) *RecordReader {
	return &RecordReader{buf: buf}
}

// Next returns the next record. It stops at the end of the buffer, at a
// length too short for the header fields, or at a length running past the
// buffer.
func (r *RecordReader) Next() (Record, bool) {
	if len(r.buf)-r.off < 2 {
		return nil, false
	}
	n := int(binary.NativeEndian.Uint16(r.buf[r.off:]))
	if n < minRecordLen || r.off+n > len(r.buf) {
		r.off = len(r.buf)
		return nil, false
	}
	rec := Record(r.buf[r.off : r.off+n])
	r.off += n
	return rec, true
}

// Version returns the message format version.
func (rec Record) Version() (uint8, bool) {
	if len(rec) <= offVersion {
		return 0, false
	}
	return rec[offVersion], true
}

// Flags returns the route flags.
func (rec Record) Flags() (uint32, bool) {
	return rec.uint32At(offFlags)
}

// Addrs returns the bitmask of socket addresses that follow the header.
func (rec Record) Addrs() (uint32, bool) {
	return rec.uint32At(offAddrs)
}

func (rec Record) uint32At(off int) (uint32, bool) {
	if len(rec) < off+4 {
		return 0, false
	}
	return binary.NativeEndian.Uint32(rec[off:]), true
}

// Destination decodes the IPv4 destination that follows the header.
func (rec Record) Destination() (netip.Addr, bool) {
	addrs, ok := rec.Addrs()
	if !ok || addrs&rtaDst == 0 {
		return netip.Addr{}, false
	}
	if len(rec) < rtmHdrLen+saMinLen {
		return netip.Addr{}, false
	}
	sa := rec[rtmHdrLen:]
	if sa[1] != afInet || sa[0] < saMinLen {
		return netip.Addr{}, false
	}
	return netip.AddrFrom4([4]byte(sa[saAddrOff : saAddrOff+4])), true
}

// HostRouteDestinations returns, in dump order, the destinations of the
// UGSH and UGSc routes in buf. Records of an unknown version are skipped.
func HostRouteDestinations(buf []byte) []netip.Addr {
	var dsts []netip.Addr
	r := NewRecordReader(buf)
	for {
		rec, ok := r.Next()
		if !ok {
			return dsts
		}
		if v, ok := rec.Version(); !ok || v != rtmVersion {
			continue
		}
		flags, ok := rec.Flags()
		if !ok || !IsVPNHostRoute(flags) {
			continue
		}
		if dst, ok := rec.Destination(); ok {
			dsts = append(dsts, dst)
		}
	}
}
