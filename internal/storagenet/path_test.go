package storagenet_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pve-project/pve-network-go/internal/storagenet"
)

func TestResolvePathJoinsMountPointPrefixAndRelative(t *testing.T) {
	r := storagenet.NewPathResolver()
	require.NoError(t, r.Register(&storagenet.PathConfig{
		StorageID:  "nfs-storage",
		MountPoint: "/mnt/pve/nfs-storage",
		PathPrefix: "images",
	}))

	got, err := r.ResolvePath("nfs-storage", "vm-100-disk-0.qcow2")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/mnt/pve/nfs-storage", "images", "vm-100-disk-0.qcow2"), got)
}

func TestResolvePathRejectsTraversalOutsideMountPoint(t *testing.T) {
	r := storagenet.NewPathResolver()
	require.NoError(t, r.Register(&storagenet.PathConfig{
		StorageID:  "nfs-storage",
		MountPoint: "/mnt/pve/nfs-storage",
	}))

	_, err := r.ResolvePath("nfs-storage", "../../etc/passwd")
	assert.Error(t, err)
}

func TestResolvePathRejectsUnknownStorageID(t *testing.T) {
	r := storagenet.NewPathResolver()
	_, err := r.ResolvePath("missing", "foo")
	assert.Error(t, err)
}

func TestResolvePathAllowsMountPointItself(t *testing.T) {
	r := storagenet.NewPathResolver()
	require.NoError(t, r.Register(&storagenet.PathConfig{
		StorageID:  "nfs-storage",
		MountPoint: "/mnt/pve/nfs-storage",
	}))

	got, err := r.ResolvePath("nfs-storage", ".")
	require.NoError(t, err)
	assert.Equal(t, "/mnt/pve/nfs-storage", got)
}

func TestMountPointReturnsConfiguredValue(t *testing.T) {
	r := storagenet.NewPathResolver()
	require.NoError(t, r.Register(&storagenet.PathConfig{StorageID: "s", MountPoint: "/mnt/pve/s"}))

	got, err := r.MountPoint("s")
	require.NoError(t, err)
	assert.Equal(t, "/mnt/pve/s", got)
}
