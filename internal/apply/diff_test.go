package apply_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pve-project/pve-network-go/internal/apply"
	"github.com/pve-project/pve-network-go/internal/model"
)

func iface(name string, mtu int) *model.Interface {
	return &model.Interface{
		Name:          name,
		Kind:          model.KindPhysical,
		AddressMethod: model.MethodManual,
		MTU:           mtu,
	}
}

// P-3: diff entries are ordered Delete, then Update, then Create.
func TestComputeDiffOrdering(t *testing.T) {
	old := &model.NetworkConfiguration{
		Interfaces: []*model.Interface{
			iface("eth0", 1500),
			iface("eth1", 1500),
		},
	}
	newCfg := &model.NetworkConfiguration{
		Interfaces: []*model.Interface{
			iface("eth0", 9000), // update
			iface("eth2", 1500), // create
		},
	}

	diff, err := apply.ComputeDiff(old, newCfg)
	require.NoError(t, err)
	require.Len(t, diff, 3)

	assert.Equal(t, model.ChangeDelete, diff[0].ChangeType)
	assert.Equal(t, "eth1", diff[0].Target)
	assert.Equal(t, model.ChangeUpdate, diff[1].ChangeType)
	assert.Equal(t, "eth0", diff[1].Target)
	assert.Equal(t, model.ChangeCreate, diff[2].ChangeType)
	assert.Equal(t, "eth2", diff[2].Target)
}

func TestComputeDiffNoChangesWhenIdentical(t *testing.T) {
	cfg := &model.NetworkConfiguration{
		Interfaces: []*model.Interface{iface("eth0", 1500)},
	}
	diff, err := apply.ComputeDiff(cfg, cfg)
	require.NoError(t, err)
	assert.Empty(t, diff)
}
