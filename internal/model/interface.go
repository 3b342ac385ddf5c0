// Package model holds the shared domain types for the network control
// plane: interfaces(5) entities, SDN entities, and the error taxonomy
// they're validated against. It has no knowledge of the filesystem, the
// codec grammar, or the apply pipeline — those live in sibling packages
// and depend on model, never the other way around.
package model

import (
	"net"
	"regexp"
)

// nameRE is the interface/entity name regex from I-1: a leading letter,
// then up to 14 more letters/digits/underscore/dot/hyphen.
var nameRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.\-]{0,14}$`)

// ValidName reports whether name satisfies the interface naming
// invariant I-1.
func ValidName(name string) bool {
	return nameRE.MatchString(name)
}

// Kind distinguishes the six interface shapes the codec understands.
type Kind string

const (
	KindPhysical Kind = "physical"
	KindLoopback Kind = "loopback"
	KindBridge   Kind = "bridge"
	KindBond     Kind = "bond"
	KindVlan     Kind = "vlan"
	KindVxlan    Kind = "vxlan"
)

// AddressMethod is the `iface ... inet <method>` token.
type AddressMethod string

const (
	MethodStatic AddressMethod = "static"
	MethodDHCP   AddressMethod = "dhcp"
	MethodManual AddressMethod = "manual"
	MethodNone   AddressMethod = "none"
)

// BondMode enumerates the seven kernel bonding modes, keyed by both
// their numeric and symbolic on-disk spellings (§3, §4.1).
type BondMode string

const (
	BondBalanceRR   BondMode = "balance-rr"
	BondActiveBackup BondMode = "active-backup"
	BondBalanceXOR  BondMode = "balance-xor"
	BondBroadcast   BondMode = "broadcast"
	Bond8023ad      BondMode = "802.3ad"
	BondBalanceTLB  BondMode = "balance-tlb"
	BondBalanceALB  BondMode = "balance-alb"
)

// bondModeByNumber is the kernel's numeric encoding, accepted by
// bond-mode alongside the symbolic spelling (§4.1).
var bondModeByNumber = map[string]BondMode{
	"0": BondBalanceRR,
	"1": BondActiveBackup,
	"2": BondBalanceXOR,
	"3": BondBroadcast,
	"4": Bond8023ad,
	"5": BondBalanceTLB,
	"6": BondBalanceALB,
}

// ParseBondMode accepts both the kernel numeric (0-6) and symbolic form.
func ParseBondMode(s string) (BondMode, bool) {
	if mode, ok := bondModeByNumber[s]; ok {
		return mode, true
	}
	switch BondMode(s) {
	case BondBalanceRR, BondActiveBackup, BondBalanceXOR, BondBroadcast,
		Bond8023ad, BondBalanceTLB, BondBalanceALB:
		return BondMode(s), true
	}
	return "", false
}

// VlanProtocol is the 802.1Q/802.1ad tag protocol, used both on
// vlan-aware bridges and individual vlan interfaces.
type VlanProtocol string

const (
	VlanProtocol8021Q  VlanProtocol = "802.1Q"
	VlanProtocol8021ad VlanProtocol = "802.1ad"
)

// Address is a single CIDR-annotated address on an interface.
type Address struct {
	IP  net.IP
	Net *net.IPNet
}

func (a Address) String() string {
	if a.Net == nil {
		return a.IP.String()
	}
	ones, _ := a.Net.Mask.Size()
	return a.IP.String() + "/" + itoa(ones)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [8]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// BridgePort is a per-port VLAN configuration entry on a VLAN-aware
// bridge (I-6).
type BridgePort struct {
	Name      string
	VIDs      []int
	VIDRanges []VIDRange
	PVID      int
	Untagged  bool
}

// VIDRange is an inclusive VLAN id range, start <= end.
type VIDRange struct {
	Start int
	End   int
}

// Bridge is the kind-specific payload for KindBridge.
type Bridge struct {
	Ports             []string
	VlanAware         bool
	STP               *bool
	ForwardDelay      *int
	HelloTime         *int
	MaxAge            *int
	Priority          *int
	VlanFiltering     *bool
	VlanDefaultPVID   *int
	VlanProtocol      VlanProtocol
	MulticastSnooping *bool
	MulticastQuerier  *bool
	PortConfig        map[string]*BridgePort
}

// Bond is the kind-specific payload for KindBond.
type Bond struct {
	Slaves           []string
	Mode             BondMode
	Miimon           *int
	ArpInterval      *int
	ArpIPTarget      []string
	UpDelay          *int
	DownDelay        *int
	Primary          string
	PrimaryReselect  string
	FailOverMac      string
	XmitHashPolicy   string
	LACPRate         string
	AdSelect         string
	MinLinks         *int
	AllSlavesActive  *bool
	ResendIGMP       *int
}

// Vlan is the kind-specific payload for KindVlan. QinQ is represented
// by a Vlan whose Parent is itself another Vlan's interface name
// (I-4: "parent.outerTag.innerTag").
type Vlan struct {
	Parent       string
	Tag          int
	Protocol     VlanProtocol
	QoSIngress   map[int]int
	QoSEgress    map[int]int
	GVRP         bool
	MVRP         bool
	LooseBinding bool
	ReorderHdr   *bool
}

// Vxlan is the kind-specific payload for KindVxlan.
type Vxlan struct {
	ID             int
	LocalIP        net.IP
	RemoteIP       net.IP
	DstPort        *int
	MulticastGroup net.IP
	PhysicalDev    string
	Learning       *bool
	ArpProxy       *bool
}

// Comment is a single trailing or leading comment line, stored without
// its leading "# " so the codec can re-emit a consistent prefix.
type Comment string

// Interface is the full model of one `iface` stanza plus its
// auto/allow-hotplug/comment bookkeeping.
type Interface struct {
	Name          string
	Kind          Kind
	AddressMethod AddressMethod
	Addresses     []Address
	Gateway       net.IP
	MTU           int
	Options       []Option
	Enabled       bool
	Auto          bool
	Hotplug       bool
	Comments      []Comment

	BridgeConfig *Bridge
	BondConfig   *Bond
	VlanConfig   *Vlan
	VxlanConfig  *Vxlan

	// VNet is the name of the SDN vnet this interface is bound to, set
	// and cleared by internal/containernet's bind/unbind operations.
	// Empty when unbound.
	VNet string

	// SourceLine is the 1-based line the `iface` stanza started at;
	// zero for interfaces constructed in memory rather than parsed.
	SourceLine int
}

// Option is a raw key/value pair retained verbatim for option keys the
// codec doesn't have a typed slot for.
type Option struct {
	Key   string
	Value string
}

// NetworkConfiguration is the full parsed/constructed
// /etc/network/interfaces document.
type NetworkConfiguration struct {
	Interfaces []*Interface
	// Order is the parse-order list of interface names, used by
	// generate() when preserve_order is set (P-2).
	Order []string
}

// ByName returns the interface with the given name, or nil.
func (c *NetworkConfiguration) ByName(name string) *Interface {
	for _, ifc := range c.Interfaces {
		if ifc.Name == name {
			return ifc
		}
	}
	return nil
}

// DependsOn returns the names this interface's kind-specific
// configuration directly references (bridge ports, bond slaves, vlan
// parent) — the edges of the I-3 dependency DAG.
func (ifc *Interface) DependsOn() []string {
	switch ifc.Kind {
	case KindBridge:
		if ifc.BridgeConfig != nil {
			return append([]string(nil), ifc.BridgeConfig.Ports...)
		}
	case KindBond:
		if ifc.BondConfig != nil {
			return append([]string(nil), ifc.BondConfig.Slaves...)
		}
	case KindVlan:
		if ifc.VlanConfig != nil && ifc.VlanConfig.Parent != "" {
			return []string{ifc.VlanConfig.Parent}
		}
	}
	return nil
}
