package sdnstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pve-project/pve-network-go/internal/clusterstore"
	"github.com/pve-project/pve-network-go/internal/model"
	"github.com/pve-project/pve-network-go/internal/sdnstore"
)

func newStore(t *testing.T) (*sdnstore.Store, string) {
	t.Helper()
	base := t.TempDir()
	cluster, err := clusterstore.New(base, "node1", 64, zap.NewNop().Sugar())
	require.NoError(t, err)
	return sdnstore.New(cluster, base), base
}

func validConfig() *model.SDNConfiguration {
	cfg := model.NewSDNConfiguration()
	cfg.Zones["zone1"] = &model.Zone{Name: "zone1", Kind: model.ZoneSimple}
	cfg.VNets["vnet1"] = &model.VNet{Name: "vnet1", Zone: "zone1"}
	cfg.Subnets["subnet1"] = &model.Subnet{
		Name: "subnet1",
		VNet: "vnet1",
		CIDR: "10.0.0.0/24",
	}
	return cfg
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	store, _ := newStore(t)
	cfg := validConfig()

	require.NoError(t, store.WriteSDNConfig(cfg))

	got, err := store.ReadSDNConfig()
	require.NoError(t, err)
	assert.Contains(t, got.Zones, "zone1")
	assert.Contains(t, got.VNets, "vnet1")
	assert.Contains(t, got.Subnets, "subnet1")
}

// S-1: a vnet referencing an unknown zone is rejected before any file
// is written.
func TestWriteRejectsDanglingZoneReference(t *testing.T) {
	store, base := newStore(t)
	cfg := model.NewSDNConfiguration()
	cfg.VNets["orphan"] = &model.VNet{Name: "orphan", Zone: "does-not-exist"}

	err := store.WriteSDNConfig(cfg)
	require.Error(t, err)

	_, statErr := store.ReadSDNConfig()
	require.NoError(t, statErr)
	_ = base
}

// S-1: deleting a zone with an attached vnet is refused.
func TestDeleteZoneWithAttachedVNetIsConflict(t *testing.T) {
	store, _ := newStore(t)
	cfg := validConfig()
	require.NoError(t, store.WriteSDNConfig(cfg))

	err := store.DeleteZone(cfg, "zone1")
	require.Error(t, err)
	var conflict *model.ConflictError
	require.ErrorAs(t, err, &conflict)
}

// S-2: overlapping sibling subnets on the same vnet are rejected.
func TestOverlappingSiblingSubnetsRejected(t *testing.T) {
	store, _ := newStore(t)
	cfg := validConfig()
	cfg.Subnets["subnet2"] = &model.Subnet{
		Name: "subnet2",
		VNet: "vnet1",
		CIDR: "10.0.0.128/25",
	}

	err := store.WriteSDNConfig(cfg)
	require.Error(t, err)
}
