package storagenet

import (
	"context"
	"fmt"

	"github.com/pve-project/pve-network-go/internal/eventbus"
	"github.com/pve-project/pve-network-go/internal/executil"
	"github.com/pve-project/pve-network-go/internal/model"
)

// VlanConfig describes one storage VLAN to create: a `<base>.<tag>`
// device, carrying jumbo-frame-capable MTU and optional QoS shaping.
type VlanConfig struct {
	BaseInterface string
	Tag           int
	Subnet        string // CIDR form
	Gateway       string
	MTU           int
	QoS           *QoS
}

// Vlan is one created storage VLAN.
type Vlan struct {
	StorageID string
	Tag       int
	Interface string // "<base>.<tag>"

	shaped bool // tc htb shaping was installed
}

func (c *VlanConfig) validate() error {
	if c.Tag < 1 || c.Tag > 4094 {
		return model.NewError(model.KindValidation, "storage vlan tag must be in 1..4094", nil)
	}
	if c.MTU != 0 && (c.MTU < 68 || c.MTU > 9000) {
		return model.NewError(model.KindValidation, "storage vlan mtu must be in 68..9000", nil)
	}
	if c.Subnet != "" {
		if _, _, err := parseCIDR(c.Subnet); err != nil {
			return model.NewError(model.KindValidation, "storage vlan subnet must be in CIDR form", err)
		}
	}
	if c.BaseInterface == "" {
		return model.NewError(model.KindValidation, "storage vlan requires a base interface", nil)
	}
	return nil
}

// VlanManager creates and tears down storage-traffic VLANs: the
// `<base>.<tag>` device, a per-tag `STORAGE_<tag>` iptables chain that
// permits intra-subnet traffic and drops everything else, and `tc htb`
// shaping when a bandwidth limit is set.
type VlanManager struct {
	runner executil.Runner
	bus    *eventbus.Bus
	vlans  map[string]*Vlan
}

// NewVlanManager constructs a VlanManager that shells out via runner
// and publishes StorageVlanCreated on bus.
func NewVlanManager(runner executil.Runner, bus *eventbus.Bus) *VlanManager {
	return &VlanManager{runner: runner, bus: bus, vlans: map[string]*Vlan{}}
}

// CreateStorageVlan brings up storageID's VLAN device, installs its
// iptables chain and (if configured) its tc shaping, and publishes
// StorageVlanCreated.
func (m *VlanManager) CreateStorageVlan(ctx context.Context, storageID string, cfg *VlanConfig) (*Vlan, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	iface := fmt.Sprintf("%s.%d", cfg.BaseInterface, cfg.Tag)
	chain := storageChainName(cfg.Tag)

	if _, err := m.runner.Run(ctx, "ip", "link", "add", "link", cfg.BaseInterface, "name", iface, "type", "vlan", "id", fmt.Sprint(cfg.Tag)); err != nil {
		return nil, err
	}
	if cfg.MTU != 0 {
		if _, err := m.runner.Run(ctx, "ip", "link", "set", iface, "mtu", fmt.Sprint(cfg.MTU)); err != nil {
			return nil, err
		}
	}
	if _, err := m.runner.Run(ctx, "ip", "link", "set", iface, "up"); err != nil {
		return nil, err
	}

	if _, err := m.runner.Run(ctx, "iptables", "-N", chain); err != nil {
		return nil, err
	}
	if cfg.Subnet != "" {
		if _, err := m.runner.Run(ctx, "iptables", "-A", chain, "-s", cfg.Subnet, "-d", cfg.Subnet, "-j", "ACCEPT"); err != nil {
			return nil, err
		}
	}
	if _, err := m.runner.Run(ctx, "iptables", "-A", chain, "-j", "DROP"); err != nil {
		return nil, err
	}
	if _, err := m.runner.Run(ctx, "iptables", "-I", "FORWARD", "-i", iface, "-j", chain); err != nil {
		return nil, err
	}

	if cfg.QoS != nil && cfg.QoS.BandwidthLimitMbps > 0 {
		if err := m.applyShaping(ctx, iface, cfg.QoS); err != nil {
			return nil, err
		}
	}

	v := &Vlan{StorageID: storageID, Tag: cfg.Tag, Interface: iface, shaped: cfg.QoS != nil && cfg.QoS.BandwidthLimitMbps > 0}
	m.vlans[storageID] = v

	if m.bus != nil {
		m.bus.Publish(eventbus.StorageVlanCreated{ID: storageID})
	}
	return v, nil
}

func (m *VlanManager) applyShaping(ctx context.Context, iface string, qos *QoS) error {
	rate := fmt.Sprintf("%dmbit", qos.BandwidthLimitMbps)
	if _, err := m.runner.Run(ctx, "tc", "qdisc", "add", "dev", iface, "root", "handle", "1:", "htb", "default", "10"); err != nil {
		return err
	}
	if _, err := m.runner.Run(ctx, "tc", "class", "add", "dev", iface, "parent", "1:", "classid", "1:10", "htb", "rate", rate); err != nil {
		return err
	}
	return nil
}

// RemoveStorageVlan is the exact inverse of CreateStorageVlan, applied
// in reverse order.
func (m *VlanManager) RemoveStorageVlan(ctx context.Context, storageID string) error {
	v, ok := m.vlans[storageID]
	if !ok {
		return model.NewError(model.KindReference, "no storage vlan for "+storageID, nil)
	}
	chain := storageChainName(v.Tag)

	if v.shaped {
		if _, err := m.runner.Run(ctx, "tc", "qdisc", "del", "dev", v.Interface, "root"); err != nil {
			return err
		}
	}
	if _, err := m.runner.Run(ctx, "iptables", "-D", "FORWARD", "-i", v.Interface, "-j", chain); err != nil {
		return err
	}
	if _, err := m.runner.Run(ctx, "iptables", "-F", chain); err != nil {
		return err
	}
	if _, err := m.runner.Run(ctx, "iptables", "-X", chain); err != nil {
		return err
	}
	if _, err := m.runner.Run(ctx, "ip", "link", "del", v.Interface); err != nil {
		return err
	}

	delete(m.vlans, storageID)
	return nil
}

// List returns every currently created storage VLAN.
func (m *VlanManager) List() []*Vlan {
	out := make([]*Vlan, 0, len(m.vlans))
	for _, v := range m.vlans {
		out = append(out, v)
	}
	return out
}

func storageChainName(tag int) string {
	return fmt.Sprintf("STORAGE_%d", tag)
}
