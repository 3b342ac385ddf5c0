// Package ipam implements the pluggable IP address management core
// (§4.4): the Allocator capability interface and the built-in
// file-backed allocator. The CIDR arithmetic below is adapted from the
// teacher's pkg/ipam/ipam.go (itself adapted from giantswarm/ipam),
// generalized from "free subnet within a supernet" to "free single
// address within a subnet" since SDN subnets hand out host addresses,
// not child networks.
package ipam

import (
	"encoding/binary"
	"fmt"
	"net"
	"sort"
)

// addToIP increments ip by n (negative n decrements). Grounded on the
// teacher's Add().
func addToIP(ip net.IP, n int64) net.IP {
	return decimalToIP(ipToDecimal(ip) + n)
}

func ipToDecimal(ip net.IP) int64 {
	t := ip.To4()
	if t == nil {
		t = ip.To16()
	}
	return int64(binary.BigEndian.Uint32(t[len(t)-4:]))
}

func decimalToIP(n int64) net.IP {
	t := make(net.IP, 4)
	binary.BigEndian.PutUint32(t, uint32(n))
	return t
}

// networkSize returns the number of addresses a mask covers. Grounded
// on the teacher's size().
func networkSize(mask net.IPMask) int64 {
	ones, bits := mask.Size()
	return int64(1) << uint(bits-ones)
}

// broadcastAddr returns the last address of network. Grounded on the
// teacher's Broadcast().
func broadcastAddr(network *net.IPNet) net.IP {
	return addToIP(network.IP, networkSize(network.Mask)-1)
}

// networkAddr returns the first (network) address.
func networkAddr(network *net.IPNet) net.IP {
	return network.IP.Mask(network.Mask)
}

// usableRange returns [first, last] usable host addresses: network and
// broadcast are reserved for subnets wider than a /31.
func usableRange(network *net.IPNet) (net.IP, net.IP) {
	ones, bits := network.Mask.Size()
	first := networkAddr(network)
	last := broadcastAddr(network)
	if bits-ones >= 2 {
		first = addToIP(first, 1)
		last = addToIP(last, -1)
	}
	return first, last
}

// freeAddress scans [first, last] in order and returns the first
// address not present in taken. Grounded on the teacher's
// freeIPRanges/space pair, collapsed to single-address granularity and
// a reserved-gateway exclusion.
func freeAddress(network *net.IPNet, taken map[string]bool, reserved map[string]bool) (net.IP, error) {
	first, last := usableRange(network)
	start := ipToDecimal(first)
	end := ipToDecimal(last)

	for cur := start; cur <= end; cur++ {
		ip := decimalToIP(cur)
		key := ip.String()
		if taken[key] || reserved[key] {
			continue
		}
		return ip, nil
	}
	return nil, fmt.Errorf("no free address in %s", network.String())
}

// ipLessThan orders two addresses left-to-right, most significant byte
// first. Grounded on the teacher's IPLessThan().
func ipLessThan(a, b net.IP) bool {
	a4, b4 := a.To4(), b.To4()
	for i := range a4 {
		if a4[i] != b4[i] {
			return a4[i] < b4[i]
		}
	}
	return false
}

func sortIPs(ips []net.IP) {
	sort.Slice(
		ips,
		func(i, j int) bool {
			return ipLessThan(ips[i], ips[j])
		},
	)
}
