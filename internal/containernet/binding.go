// Package containernet binds SDN vnets to container network interfaces,
// drives the hotplug add/remove state machine, and runs the lifecycle
// hook registry (§4.8). Grounded on
// original_source/pve-network-rs/crates/container-integration/src/
// {vnet_binding,hotplug,hooks}.rs, re-expressed as synchronous
// mutex-guarded maps in place of tokio::sync::RwLock — this module has
// no async runtime anywhere else, so the Rust crate's actor-style
// locking collapses to plain sync.RWMutex.
package containernet

import (
	"sync"

	"github.com/pve-project/pve-network-go/internal/model"
)

// Binding records one (vnet, container, interface) association.
type Binding struct {
	VNet      string
	Container string
	Interface string
}

// VNetBinder records which container interfaces are attached to which
// SDN vnets, and keeps the bound interface's model.Interface.VNet field
// in sync.
type VNetBinder struct {
	mu       sync.RWMutex
	byKey    map[string]*Binding // container+"/"+interface -> binding
	byVNet   map[string]map[string]*Binding
}

func bindingKey(container, iface string) string { return container + "/" + iface }

// NewVNetBinder returns an empty binder.
func NewVNetBinder() *VNetBinder {
	return &VNetBinder{
		byKey:  map[string]*Binding{},
		byVNet: map[string]map[string]*Binding{},
	}
}

// BindVNet records (vnet, container, interface) and flips ifc.VNet.
// Rebinding an already-bound interface replaces the prior binding.
func (b *VNetBinder) BindVNet(vnet, container string, ifc *model.Interface) error {
	if vnet == "" || container == "" || ifc == nil || ifc.Name == "" {
		return model.NewError(model.KindValidation, "bind_vnet requires a vnet, container id and named interface", nil)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := bindingKey(container, ifc.Name)
	if existing, ok := b.byKey[key]; ok {
		b.removeFromVNetIndexLocked(existing)
	}

	binding := &Binding{VNet: vnet, Container: container, Interface: ifc.Name}
	b.byKey[key] = binding
	if b.byVNet[vnet] == nil {
		b.byVNet[vnet] = map[string]*Binding{}
	}
	b.byVNet[vnet][key] = binding
	ifc.VNet = vnet
	return nil
}

// UnbindVNet reverses BindVNet and clears ifc.VNet.
func (b *VNetBinder) UnbindVNet(container string, ifc *model.Interface) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := bindingKey(container, ifc.Name)
	existing, ok := b.byKey[key]
	if !ok {
		return model.NewError(model.KindReference, "interface "+ifc.Name+" on container "+container+" is not bound to a vnet", nil)
	}
	delete(b.byKey, key)
	b.removeFromVNetIndexLocked(existing)
	ifc.VNet = ""
	return nil
}

func (b *VNetBinder) removeFromVNetIndexLocked(binding *Binding) {
	set := b.byVNet[binding.VNet]
	delete(set, bindingKey(binding.Container, binding.Interface))
	if len(set) == 0 {
		delete(b.byVNet, binding.VNet)
	}
}

// IsBound reports whether container/interface currently has a binding.
func (b *VNetBinder) IsBound(container, iface string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.byKey[bindingKey(container, iface)]
	return ok
}

// BindingsForContainer returns every binding belonging to container.
func (b *VNetBinder) BindingsForContainer(container string) []*Binding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []*Binding
	for _, binding := range b.byKey {
		if binding.Container == container {
			out = append(out, binding)
		}
	}
	return out
}

// ContainersForVNet returns every binding attached to vnet.
func (b *VNetBinder) ContainersForVNet(vnet string) []*Binding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	set := b.byVNet[vnet]
	out := make([]*Binding, 0, len(set))
	for _, binding := range set {
		out = append(out, binding)
	}
	return out
}
