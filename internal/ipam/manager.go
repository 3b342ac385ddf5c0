package ipam

import (
	"fmt"
	"sync"

	"github.com/pve-project/pve-network-go/internal/model"
)

// Manager resolves a named model.IpamConfig to its backing Allocator
// and caches constructed allocators across calls, so the built-in
// allocator's per-subnet lock table stays a single instance per
// process rather than being rebuilt on every request.
type Manager struct {
	mu         sync.Mutex
	allocators map[string]Allocator
	remote     func(cfg *model.IpamConfig) Allocator
}

// NewManager constructs a Manager. remoteFactory builds the Allocator
// for phpipam/netbox-kind configs; passing nil disables remote
// backends (For returns a KindNetwork error for them), which is
// sufficient for installations that only use the built-in file-backed
// IPAM.
func NewManager(remoteFactory func(cfg *model.IpamConfig) Allocator) *Manager {
	return &Manager{
		allocators: map[string]Allocator{},
		remote:     remoteFactory,
	}
}

func (m *Manager) For(cfg *model.IpamConfig) (Allocator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.allocators[cfg.Name]; ok {
		return a, nil
	}

	var a Allocator
	switch cfg.Kind {
	case model.IpamKindPve:
		a = NewBuiltinAllocator()
	case model.IpamKindPhpIpam, model.IpamKindNetBox:
		if m.remote == nil {
			return nil, model.NewError(
				model.KindNetwork,
				fmt.Sprintf("no remote ipam backend configured for %q (%s)", cfg.Name, cfg.Kind),
				nil,
			)
		}
		a = m.remote(cfg)
	default:
		return nil, model.NewError(model.KindValidation, "unknown ipam kind "+string(cfg.Kind), nil)
	}

	m.allocators[cfg.Name] = a
	return a, nil
}
