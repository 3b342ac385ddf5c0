// Package contracttest is a reusable conformance suite every Allocator
// implementation (built-in, phpIPAM, NetBox) must pass. Adapted from
// original_source/pve-network-rs/crates/net-test/src/contract_tests.rs:
// that suite diffed live Perl vs Rust HTTP responses endpoint-by-
// endpoint; this module has no Perl reference server to diff against,
// so the contract is re-expressed the idiomatic Go way — a shared
// table of behavioral assertions (testing.T) run against any
// constructor, the same role Go's testing/fstest.TestFS plays for
// fs.FS implementations.
package contracttest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pve-project/pve-network-go/internal/ipam"
)

// Run exercises every Allocator invariant against a freshly
// constructed instance. newAllocator must return an allocator backed
// by empty, isolated storage (e.g. a t.TempDir()-scoped built-in
// allocator, or a mock remote client) — Run mutates it.
func Run(t *testing.T, newAllocator func() ipam.Allocator) {
	t.Run("AllocateReturnsAddressWithinCIDR", func(t *testing.T) {
		a := newAllocator()
		alloc, err := a.Allocate(ipam.AllocateRequest{
			Subnet: "sub1",
			CIDR:   "10.10.0.0/24",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, alloc.IP)
		assert.Equal(t, "sub1", alloc.Subnet)
	})

	t.Run("AllocateExcludesGateway", func(t *testing.T) {
		a := newAllocator()
		for i := 0; i < 5; i++ {
			alloc, err := a.Allocate(ipam.AllocateRequest{
				Subnet:  "sub2",
				CIDR:    "10.10.1.0/29",
				Gateway: "10.10.1.1",
			})
			require.NoError(t, err)
			assert.NotEqual(t, "10.10.1.1", alloc.IP)
		}
	})

	t.Run("AllocateWantIPHonored", func(t *testing.T) {
		a := newAllocator()
		alloc, err := a.Allocate(ipam.AllocateRequest{
			Subnet: "sub3",
			CIDR:   "10.10.2.0/24",
			WantIP: "10.10.2.42",
		})
		require.NoError(t, err)
		assert.Equal(t, "10.10.2.42", alloc.IP)
	})

	t.Run("AllocateWantIPConflictIsConflictError", func(t *testing.T) {
		a := newAllocator()
		_, err := a.Allocate(ipam.AllocateRequest{
			Subnet: "sub4",
			CIDR:   "10.10.3.0/24",
			WantIP: "10.10.3.5",
		})
		require.NoError(t, err)
		_, err = a.Allocate(ipam.AllocateRequest{
			Subnet: "sub4",
			CIDR:   "10.10.3.0/24",
			WantIP: "10.10.3.5",
		})
		require.Error(t, err)
	})

	t.Run("AllocateWantIPRejectsNetworkAndBroadcastAddress", func(t *testing.T) {
		a := newAllocator()
		_, err := a.Allocate(ipam.AllocateRequest{
			Subnet: "sub4a",
			CIDR:   "10.10.9.0/24",
			WantIP: "10.10.9.0",
		})
		require.Error(t, err, "network address must not be allocatable")

		_, err = a.Allocate(ipam.AllocateRequest{
			Subnet: "sub4a",
			CIDR:   "10.10.9.0/24",
			WantIP: "10.10.9.255",
		})
		require.Error(t, err, "broadcast address must not be allocatable")
	})

	t.Run("ExhaustedSubnetIsConflictError", func(t *testing.T) {
		a := newAllocator()
		// /30 has exactly two usable host addresses.
		for i := 0; i < 2; i++ {
			_, err := a.Allocate(ipam.AllocateRequest{
				Subnet: "sub5",
				CIDR:   "10.10.4.0/30",
			})
			require.NoError(t, err, "allocation %d should succeed", i)
		}
		_, err := a.Allocate(ipam.AllocateRequest{
			Subnet: "sub5",
			CIDR:   "10.10.4.0/30",
		})
		require.Error(t, err, "third allocation in a /30 must fail")
	})

	t.Run("ReleaseFreesAddressForReuse", func(t *testing.T) {
		a := newAllocator()
		alloc, err := a.Allocate(ipam.AllocateRequest{
			Subnet: "sub6",
			CIDR:   "10.10.5.0/24",
			WantIP: "10.10.5.10",
		})
		require.NoError(t, err)
		require.NoError(t, a.Release(ipam.ReleaseRequest{
			Subnet: "sub6",
			CIDR:   "10.10.5.0/24",
			IP:     alloc.IP,
		}))
		again, err := a.Allocate(ipam.AllocateRequest{
			Subnet: "sub6",
			CIDR:   "10.10.5.0/24",
			WantIP: "10.10.5.10",
		})
		require.NoError(t, err)
		assert.Equal(t, "10.10.5.10", again.IP)
	})

	t.Run("ReleaseOfUnallocatedAddressIsNoop", func(t *testing.T) {
		a := newAllocator()
		err := a.Release(ipam.ReleaseRequest{
			Subnet: "sub7",
			CIDR:   "10.10.6.0/24",
			IP:     "10.10.6.200",
		})
		assert.NoError(t, err)
	})

	t.Run("ListReflectsAllocations", func(t *testing.T) {
		a := newAllocator()
		for i := 0; i < 3; i++ {
			_, err := a.Allocate(ipam.AllocateRequest{
				Subnet: "sub8",
				CIDR:   "10.10.7.0/24",
			})
			require.NoError(t, err, fmt.Sprintf("allocation %d", i))
		}
		list, err := a.List("sub8")
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})
}
