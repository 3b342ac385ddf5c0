package storagenet

import (
	"net"
	"path/filepath"
	"strings"

	"github.com/pve-project/pve-network-go/internal/model"
)

func parseCIDR(s string) (net.IP, *net.IPNet, error) {
	ip, network, err := net.ParseCIDR(s)
	if err != nil {
		return nil, nil, err
	}
	return ip, network, nil
}

// PathConfig describes where one storage's files live on disk: a
// mount point plus an optional prefix beneath it.
type PathConfig struct {
	StorageID       string
	BackendType     BackendKind
	MountPoint      string
	PathPrefix      string
	NetworkInterface string
	Options         map[string]string
}

// PathResolver joins a storage's mount point and prefix with a
// caller-supplied relative path, rejecting anything that would
// traverse outside the mount point.
type PathResolver struct {
	configs map[string]*PathConfig
}

// NewPathResolver returns an empty resolver.
func NewPathResolver() *PathResolver {
	return &PathResolver{configs: map[string]*PathConfig{}}
}

// Register adds or replaces the path configuration for a storage ID.
func (r *PathResolver) Register(cfg *PathConfig) error {
	if cfg.StorageID == "" {
		return model.NewError(model.KindValidation, "storage id must be specified", nil)
	}
	if cfg.MountPoint == "" {
		return model.NewError(model.KindValidation, "mount point must be specified", nil)
	}
	r.configs[cfg.StorageID] = cfg
	return nil
}

// ResolvePath joins storageID's mount point and prefix with
// relativePath, returning the absolute result. It rejects any
// relativePath that, once cleaned, would escape the storage's mount
// point (".." traversal, resolved lexically). An absolute relativePath
// is joined beneath the base like any other; symlinks are not
// followed.
func (r *PathResolver) ResolvePath(storageID, relativePath string) (string, error) {
	cfg, ok := r.configs[storageID]
	if !ok {
		return "", model.NewError(model.KindReference, "no path configuration for storage "+storageID, nil)
	}

	base := cfg.MountPoint
	if cfg.PathPrefix != "" {
		base = filepath.Join(base, cfg.PathPrefix)
	}

	joined := filepath.Join(base, relativePath)
	cleanBase := filepath.Clean(base)

	if joined != cleanBase && !strings.HasPrefix(joined, cleanBase+string(filepath.Separator)) {
		return "", model.NewError(model.KindValidation, "path escapes storage mount point: "+relativePath, nil)
	}

	return joined, nil
}

// MountPoint returns the configured mount point (without prefix) for
// storageID.
func (r *PathResolver) MountPoint(storageID string) (string, error) {
	cfg, ok := r.configs[storageID]
	if !ok {
		return "", model.NewError(model.KindReference, "no path configuration for storage "+storageID, nil)
	}
	return cfg.MountPoint, nil
}
