// Package storagenet wires storage backends (NFS/CIFS/iSCSI) to
// network configuration: per-backend mount-option validation, VLAN
// isolation for storage traffic, and storage-relative path resolution.
// Grounded on
// original_source/pve-network-rs/crates/storage-integration/src/
// storage_plugins.rs and examples/storage_integration_example.rs.
package storagenet

import "github.com/pve-project/pve-network-go/internal/model"

// BackendKind distinguishes the three storage transports §4.9 names.
type BackendKind string

const (
	BackendNFS   BackendKind = "nfs"
	BackendCIFS  BackendKind = "cifs"
	BackendISCSI BackendKind = "iscsi"
)

// Backend is a discriminated union over the three storage backend
// shapes; exactly one of the NFS/CIFS/ISCSI fields is set, selected by
// Kind.
type Backend struct {
	Kind BackendKind

	NFS   *NFSBackend
	CIFS  *CIFSBackend
	ISCSI *ISCSIBackend
}

// NFSBackend is an NFS export.
type NFSBackend struct {
	Server  string
	Export  string
	Version string // optional: "3", "4", "4.0", "4.1", "4.2"
}

// CIFSBackend is an SMB/CIFS share.
type CIFSBackend struct {
	Server string
	Share  string
	User   string
	Domain string
}

// ISCSIBackend is an iSCSI target.
type ISCSIBackend struct {
	Portal string // must contain a ":port" suffix
	Target string
	LUN    *int
}

// QoS bounds bandwidth/priority/DSCP marking for one storage network.
type QoS struct {
	BandwidthLimitMbps int
	Priority           int // 0-7
	DSCP               int // 0-63
}

// NetworkConfig binds a storage backend to a network interface, with
// an optional VLAN tag and free-form network options (interpreted by
// the backend-specific plugin into its mount-option namespace).
type NetworkConfig struct {
	Backend        Backend
	Interface      string
	VlanTag        *int
	NetworkOptions map[string]string
	QoS            *QoS
}

func requireNonEmpty(field, value string) error {
	if value == "" {
		return model.NewError(model.KindValidation, field+" must be specified", nil)
	}
	return nil
}
