package storagenet

import "github.com/pve-project/pve-network-go/internal/model"

// Plugin validates a NetworkConfig for one backend kind and maps its
// NetworkOptions into that backend's mount-option namespace.
type Plugin interface {
	Name() string
	SupportedKind() BackendKind
	Validate(cfg *NetworkConfig) error
	MountOptions(cfg *NetworkConfig) (map[string]string, error)
}

var nfsVersions = map[string]bool{"3": true, "4": true, "4.0": true, "4.1": true, "4.2": true}
var smbVersions = map[string]bool{"1.0": true, "2.0": true, "2.1": true, "3.0": true, "3.1.1": true}

// NFSPlugin validates NFS backends and maps network options into NFS
// mount options (rsize/wsize/proto=tcp).
type NFSPlugin struct{}

func (NFSPlugin) Name() string               { return "nfs" }
func (NFSPlugin) SupportedKind() BackendKind { return BackendNFS }

func (NFSPlugin) Validate(cfg *NetworkConfig) error {
	if cfg.Backend.Kind != BackendNFS || cfg.Backend.NFS == nil {
		return model.NewError(model.KindValidation, "expected nfs backend", nil)
	}
	b := cfg.Backend.NFS
	if err := requireNonEmpty("nfs server", b.Server); err != nil {
		return err
	}
	if err := requireNonEmpty("nfs export", b.Export); err != nil {
		return err
	}
	if v, ok := cfg.NetworkOptions["nfs_version"]; ok && !nfsVersions[v] {
		return model.NewError(model.KindValidation, "unsupported nfs version "+v, nil)
	}
	if iface, ok := cfg.NetworkOptions["interface"]; ok && iface == "" {
		return model.NewError(model.KindValidation, "network interface cannot be empty", nil)
	}
	return nil
}

func (NFSPlugin) MountOptions(cfg *NetworkConfig) (map[string]string, error) {
	opts := map[string]string{}
	if v, ok := cfg.NetworkOptions["tcp_window_size"]; ok {
		opts["rsize"] = v
		opts["wsize"] = v
	}
	if v, ok := cfg.NetworkOptions["timeout"]; ok {
		opts["timeo"] = v
	}
	if v, ok := cfg.NetworkOptions["use_tcp"]; !ok || v == "true" {
		opts["proto"] = "tcp"
	}
	return opts, nil
}

// CIFSPlugin validates CIFS backends and maps network options into
// SMB mount options.
type CIFSPlugin struct{}

func (CIFSPlugin) Name() string               { return "cifs" }
func (CIFSPlugin) SupportedKind() BackendKind { return BackendCIFS }

func (CIFSPlugin) Validate(cfg *NetworkConfig) error {
	if cfg.Backend.Kind != BackendCIFS || cfg.Backend.CIFS == nil {
		return model.NewError(model.KindValidation, "expected cifs backend", nil)
	}
	b := cfg.Backend.CIFS
	if b.Server == "" || b.Share == "" {
		return model.NewError(model.KindValidation, "cifs server and share must be specified", nil)
	}
	if v, ok := cfg.NetworkOptions["smb_version"]; ok && !smbVersions[v] {
		return model.NewError(model.KindValidation, "unsupported smb version "+v, nil)
	}
	return nil
}

func (CIFSPlugin) MountOptions(cfg *NetworkConfig) (map[string]string, error) {
	opts := map[string]string{}
	if v, ok := cfg.NetworkOptions["smb_version"]; ok {
		opts["vers"] = v
	}
	return opts, nil
}

// ISCSIPlugin validates iSCSI backends and maps network options into
// initiator timeout/retry settings.
type ISCSIPlugin struct{}

func (ISCSIPlugin) Name() string               { return "iscsi" }
func (ISCSIPlugin) SupportedKind() BackendKind { return BackendISCSI }

func (ISCSIPlugin) Validate(cfg *NetworkConfig) error {
	if cfg.Backend.Kind != BackendISCSI || cfg.Backend.ISCSI == nil {
		return model.NewError(model.KindValidation, "expected iscsi backend", nil)
	}
	b := cfg.Backend.ISCSI
	if b.Portal == "" || b.Target == "" {
		return model.NewError(model.KindValidation, "iscsi portal and target must be specified", nil)
	}
	if !containsColon(b.Portal) {
		return model.NewError(model.KindValidation, "iscsi portal must include port (e.g. 192.168.1.1:3260)", nil)
	}
	return nil
}

func (ISCSIPlugin) MountOptions(cfg *NetworkConfig) (map[string]string, error) {
	opts := map[string]string{}
	if v, ok := cfg.NetworkOptions["timeout"]; ok {
		opts["node.conn[0].timeo.login_timeout"] = v
	}
	if v, ok := cfg.NetworkOptions["retry_count"]; ok {
		opts["node.session.initial_login_retry_max"] = v
	}
	return opts, nil
}

func containsColon(s string) bool {
	for _, r := range s {
		if r == ':' {
			return true
		}
	}
	return false
}

// Registry dispatches to the plugin responsible for a backend kind.
type Registry struct {
	plugins map[BackendKind]Plugin
}

// NewRegistry returns a registry pre-populated with the NFS/CIFS/iSCSI
// plugins.
func NewRegistry() *Registry {
	r := &Registry{plugins: map[BackendKind]Plugin{}}
	r.Register(NFSPlugin{})
	r.Register(CIFSPlugin{})
	r.Register(ISCSIPlugin{})
	return r
}

// Register adds or replaces the plugin for its supported kind.
func (r *Registry) Register(p Plugin) {
	r.plugins[p.SupportedKind()] = p
}

// For returns the plugin for kind, or a KindValidation error if none
// is registered.
func (r *Registry) For(kind BackendKind) (Plugin, error) {
	p, ok := r.plugins[kind]
	if !ok {
		return nil, model.NewError(model.KindValidation, "no storage plugin for backend kind "+string(kind), nil)
	}
	return p, nil
}

// List returns every registered plugin's name.
func (r *Registry) List() []string {
	out := make([]string, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p.Name())
	}
	return out
}
