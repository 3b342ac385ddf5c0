package ifaces

import "net"

// netmaskToPrefix is the fixed 33-row dotted-quad -> CIDR prefix table
// (§4.1: "a trailing netmask ... converted via a fixed 33-row table
// (all /0...32)"), adapted from the IPv4Network mask arithmetic the
// teacher keeps in pkg/ipam/ipam.go (there indexed by host count; here
// indexed by the dotted-quad string ifupdown2 actually writes to disk).
var netmaskToPrefix = map[string]int{
	"0.0.0.0":         0,
	"128.0.0.0":       1,
	"192.0.0.0":       2,
	"224.0.0.0":       3,
	"240.0.0.0":       4,
	"248.0.0.0":       5,
	"252.0.0.0":       6,
	"254.0.0.0":       7,
	"255.0.0.0":       8,
	"255.128.0.0":     9,
	"255.192.0.0":     10,
	"255.224.0.0":     11,
	"255.240.0.0":     12,
	"255.248.0.0":     13,
	"255.252.0.0":     14,
	"255.254.0.0":     15,
	"255.255.0.0":     16,
	"255.255.128.0":   17,
	"255.255.192.0":   18,
	"255.255.224.0":   19,
	"255.255.240.0":   20,
	"255.255.248.0":   21,
	"255.255.252.0":   22,
	"255.255.254.0":   23,
	"255.255.255.0":   24,
	"255.255.255.128": 25,
	"255.255.255.192": 26,
	"255.255.255.224": 27,
	"255.255.255.240": 28,
	"255.255.255.248": 29,
	"255.255.255.252": 30,
	"255.255.255.254": 31,
	"255.255.255.255": 32,
}

// prefixToNetmask is the inverse table, filled in by init. The
// generator writes addresses in CIDR form and does not read it.
var prefixToNetmask [33]string

func init() {
	for dotted, prefix := range netmaskToPrefix {
		prefixToNetmask[prefix] = dotted
	}
}

// parseNetmask converts a dotted-quad netmask string to a CIDR prefix
// length, failing for anything not in the fixed table (malformed
// netmask, per §4.1's ParseError surface).
func parseNetmask(s string) (int, bool) {
	prefix, ok := netmaskToPrefix[s]
	return prefix, ok
}

// maskToPrefixLen converts a net.IPMask to a prefix length, IPv4-only.
func maskToPrefixLen(mask net.IPMask) int {
	ones, _ := mask.Size()
	return ones
}
