package netif

import (
	"math/bits"
	"net/netip"
	"strconv"
	"strings"
)

// Block is one interface section of ifconfig output: the header line and
// the indented lines that follow it.
type Block struct {
	Name  string
	Flags []string
	Lines []string
}

// HasFlag reports whether the header flag list contains flag.
func (b Block) HasFlag(flag string) bool {
	for _, f := range b.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Peers returns the remote addresses of point-to-point inet lines, in the
// order they appear. Both "inet A --> B" and "inet A peer B" forms are read.
func (b Block) Peers() []string {
	var peers []string
	for _, line := range b.Lines {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[0] != "inet" {
			continue
		}
		if fields[2] == "-->" || fields[2] == "peer" {
			peers = append(peers, fields[3])
		}
	}
	return peers
}

// ParseBlocks splits ifconfig output into per-interface blocks. A header is
// an unindented line containing ": flags=".
func ParseBlocks(out string) []Block {
	var blocks []Block
	var cur *Block

	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		if line[0] != ' ' && line[0] != '\t' {
			cur = nil
			idx := strings.Index(line, ": flags=")
			if idx <= 0 {
				continue
			}
			blocks = append(blocks, Block{
				Name:  line[:idx],
				Flags: parseFlags(line[idx+len(": flags="):]),
			})
			cur = &blocks[len(blocks)-1]
			continue
		}
		if cur != nil {
			cur.Lines = append(cur.Lines, strings.TrimSpace(line))
		}
	}
	return blocks
}

// parseFlags reads the names inside "8863<UP,BROADCAST,...>".
func parseFlags(s string) []string {
	start := strings.IndexByte(s, '<')
	end := strings.IndexByte(s, '>')
	if start < 0 || end <= start {
		return nil
	}
	if start+1 == end {
		return nil
	}
	return strings.Split(s[start+1:end], ",")
}

// ParseIfconfig extracts the active, non-loopback interfaces that carry an
// IPv4 address. Each interface is reported once, with its first usable
// address.
func ParseIfconfig(out string) []Interface {
	var ifaces []Interface
	for _, b := range ParseBlocks(out) {
		if !b.HasFlag("UP") || b.HasFlag("LOOPBACK") {
			continue
		}
		iface, ok := interfaceFromBlock(b)
		if ok {
			ifaces = append(ifaces, iface)
		}
	}
	return ifaces
}

func interfaceFromBlock(b Block) (Interface, bool) {
	iface := Interface{
		Name:         b.Name,
		PointToPoint: b.HasFlag("POINTOPOINT"),
	}

	for _, line := range b.Lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "ether":
			if iface.MAC == "" {
				iface.MAC = fields[1]
			}
		case "inet":
			if iface.IP != "" {
				continue
			}
			addr, err := netip.ParseAddr(fields[1])
			if err != nil || !addr.Is4() || addr.IsLoopback() {
				continue
			}
			if len(fields) >= 4 && (fields[2] == "-->" || fields[2] == "peer") {
				iface.PointToPoint = true
			}
			iface.IP = formatAddr(addr, netmaskField(fields), iface.PointToPoint)
		}
	}

	return iface, iface.IP != ""
}

func netmaskField(fields []string) string {
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "netmask" {
			return fields[i+1]
		}
	}
	return ""
}

func formatAddr(addr netip.Addr, mask string, pointToPoint bool) string {
	if pointToPoint {
		return addr.String()
	}
	prefix, ok := MaskToPrefix(mask)
	if !ok {
		return addr.String()
	}
	return addr.String() + "/" + strconv.Itoa(prefix)
}

// MaskToPrefix converts a hexadecimal netmask such as "0xffffff00" to its
// prefix length (the number of set bits).
func MaskToPrefix(mask string) (int, bool) {
	hex, ok := strings.CutPrefix(mask, "0x")
	if !ok || hex == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, false
	}
	return bits.OnesCount32(uint32(v)), true
}
