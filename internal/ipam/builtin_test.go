package ipam_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pve-project/pve-network-go/internal/ipam"
	"github.com/pve-project/pve-network-go/internal/ipam/contracttest"
	"github.com/pve-project/pve-network-go/internal/model"
)

func newTempAllocator(t *testing.T) ipam.Allocator {
	t.Helper()
	t.Setenv("PVE_IPAM_STORAGE_PATH", t.TempDir())
	return ipam.NewBuiltinAllocator()
}

// P-5/P-6 plus the shared conformance suite (§4.10).
func TestBuiltinAllocatorContract(t *testing.T) {
	contracttest.Run(t, func() ipam.Allocator {
		return newTempAllocator(t)
	})
}

func TestManagerCachesAllocatorPerName(t *testing.T) {
	t.Setenv("PVE_IPAM_STORAGE_PATH", t.TempDir())
	m := ipam.NewManager(nil)
	cfg := &model.IpamConfig{Name: "pve-ipam", Kind: model.IpamKindPve}

	a1, err := m.For(cfg)
	require.NoError(t, err)
	a2, err := m.For(cfg)
	require.NoError(t, err)
	assert.Same(t, a1, a2)
}
