package storagenet_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pve-project/pve-network-go/internal/storagenet"
)

// TestCompleteStorageIntegrationWorkflow mirrors
// examples/storage_integration_example.rs's complete_workflow_example:
// an iSCSI backend validated and mapped to mount options, a dedicated
// storage VLAN brought up for it, and a path resolver configured
// against that VLAN's interface.
func TestCompleteStorageIntegrationWorkflow(t *testing.T) {
	registry := storagenet.NewRegistry()

	iscsiCfg := &storagenet.NetworkConfig{
		Backend: storagenet.Backend{
			Kind: storagenet.BackendISCSI,
			ISCSI: &storagenet.ISCSIBackend{
				Portal: "192.168.1.150:3260",
				Target: "iqn.2024-01.com.example:storage.target1",
				LUN:    intPtr(0),
			},
		},
		Interface: "eth0",
		VlanTag:   intPtr(400),
		NetworkOptions: map[string]string{
			"timeout":     "60",
			"retry_count": "5",
		},
		QoS: &storagenet.QoS{BandwidthLimitMbps: 8000, Priority: 6, DSCP: 34},
	}

	plugin, err := registry.For(storagenet.BackendISCSI)
	require.NoError(t, err)
	require.NoError(t, plugin.Validate(iscsiCfg))

	mountOpts, err := plugin.MountOptions(iscsiCfg)
	require.NoError(t, err)
	assert.Equal(t, "60", mountOpts["node.conn[0].timeo.login_timeout"])
	assert.Equal(t, "5", mountOpts["node.session.initial_login_retry_max"])

	runner := &fakeRunner{}
	vlans := storagenet.NewVlanManager(runner, nil)
	vlan, err := vlans.CreateStorageVlan(context.Background(), "iscsi-workflow", &storagenet.VlanConfig{
		BaseInterface: "eth0",
		Tag:           400,
		Subnet:        "192.168.40.0/24",
		Gateway:       "192.168.40.1",
		MTU:           9000,
		QoS:           iscsiCfg.QoS,
	})
	require.NoError(t, err)
	assert.Equal(t, "eth0.400", vlan.Interface)

	paths := storagenet.NewPathResolver()
	require.NoError(t, paths.Register(&storagenet.PathConfig{
		StorageID:        "iscsi-workflow",
		BackendType:      storagenet.BackendISCSI,
		MountPoint:       "/mnt/iscsi-workflow",
		PathPrefix:       "volumes",
		NetworkInterface: vlan.Interface,
	}))

	resolved, err := paths.ResolvePath("iscsi-workflow", "vm-200-disk-0.raw")
	require.NoError(t, err)
	assert.Equal(t, "/mnt/iscsi-workflow/volumes/vm-200-disk-0.raw", resolved)
}

func intPtr(i int) *int { return &i }
