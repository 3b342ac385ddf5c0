package storagenet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pve-project/pve-network-go/internal/storagenet"
)

func TestNFSPluginValidatesRequiredFields(t *testing.T) {
	p := storagenet.NFSPlugin{}

	cfg := &storagenet.NetworkConfig{
		Backend: storagenet.Backend{
			Kind: storagenet.BackendNFS,
			NFS:  &storagenet.NFSBackend{Server: "10.0.0.1", Export: "/export/vms"},
		},
		NetworkOptions: map[string]string{"nfs_version": "4.2"},
	}
	require.NoError(t, p.Validate(cfg))

	missing := &storagenet.NetworkConfig{
		Backend: storagenet.Backend{Kind: storagenet.BackendNFS, NFS: &storagenet.NFSBackend{}},
	}
	assert.Error(t, p.Validate(missing))
}

func TestNFSPluginRejectsUnsupportedVersion(t *testing.T) {
	p := storagenet.NFSPlugin{}
	cfg := &storagenet.NetworkConfig{
		Backend:        storagenet.Backend{Kind: storagenet.BackendNFS, NFS: &storagenet.NFSBackend{Server: "s", Export: "/e"}},
		NetworkOptions: map[string]string{"nfs_version": "9"},
	}
	assert.Error(t, p.Validate(cfg))
}

func TestNFSPluginMountOptionsMapsTCPWindowAndProto(t *testing.T) {
	p := storagenet.NFSPlugin{}
	cfg := &storagenet.NetworkConfig{
		NetworkOptions: map[string]string{"tcp_window_size": "65536", "timeout": "30"},
	}
	opts, err := p.MountOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, "65536", opts["rsize"])
	assert.Equal(t, "65536", opts["wsize"])
	assert.Equal(t, "30", opts["timeo"])
	assert.Equal(t, "tcp", opts["proto"])
}

func TestCIFSPluginValidatesServerAndShare(t *testing.T) {
	p := storagenet.CIFSPlugin{}
	ok := &storagenet.NetworkConfig{
		Backend: storagenet.Backend{Kind: storagenet.BackendCIFS, CIFS: &storagenet.CIFSBackend{Server: "s", Share: "share"}},
	}
	require.NoError(t, p.Validate(ok))

	bad := &storagenet.NetworkConfig{
		Backend: storagenet.Backend{Kind: storagenet.BackendCIFS, CIFS: &storagenet.CIFSBackend{Server: "s"}},
	}
	assert.Error(t, p.Validate(bad))
}

func TestISCSIPluginRequiresPortalWithPort(t *testing.T) {
	p := storagenet.ISCSIPlugin{}
	noPort := &storagenet.NetworkConfig{
		Backend: storagenet.Backend{Kind: storagenet.BackendISCSI, ISCSI: &storagenet.ISCSIBackend{Portal: "192.168.1.1", Target: "iqn.foo"}},
	}
	assert.Error(t, p.Validate(noPort))

	withPort := &storagenet.NetworkConfig{
		Backend: storagenet.Backend{Kind: storagenet.BackendISCSI, ISCSI: &storagenet.ISCSIBackend{Portal: "192.168.1.1:3260", Target: "iqn.foo"}},
	}
	require.NoError(t, p.Validate(withPort))
}

func TestRegistryDispatchesByKind(t *testing.T) {
	r := storagenet.NewRegistry()

	p, err := r.For(storagenet.BackendNFS)
	require.NoError(t, err)
	assert.Equal(t, "nfs", p.Name())

	_, err = r.For(storagenet.BackendKind("unknown"))
	assert.Error(t, err)

	assert.ElementsMatch(t, []string{"nfs", "cifs", "iscsi"}, r.List())
}
