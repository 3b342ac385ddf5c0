package model

import "time"

// ZoneKind is the SDN zone driver selector (§4.3).
type ZoneKind string

const (
	ZoneSimple ZoneKind = "simple"
	ZoneVlan   ZoneKind = "vlan"
	ZoneQinq   ZoneKind = "qinq"
	ZoneVxlan  ZoneKind = "vxlan"
	ZoneEvpn   ZoneKind = "evpn"
)

// Zone is an SDN zone: an isolation domain realized on top of one
// bridge, optionally with a VXLAN/EVPN overlay.
type Zone struct {
	Name       string
	Kind       ZoneKind
	Bridge     string
	MTU        *int
	IPAM       string
	DNS        string
	ReverseDNS string
	DNSZone    string
	Nodes      []string
	Options    map[string]string

	// VXLAN/EVPN-only fields.
	VNI      *int
	VTEPIP   string
	Peers    []string
	McastGrp string
	RD       string
	RTImport []string
	RTExport []string
}

// VNet is a virtual network bound to a zone.
type VNet struct {
	Name      string
	Zone      string
	Tag       *int
	VlanAware bool
	MAC       string
	Alias     string
}

// SubnetKind mirrors the source's subnet kind enum; this module only
// implements the one variant ("Subnet") spec.md names, keeping the
// field for forward compatibility with entity documents that carry it.
type SubnetKind string

const (
	SubnetKindSubnet SubnetKind = "subnet"
)

// Subnet is an IP range attached to a VNet.
type Subnet struct {
	Name        string
	VNet        string
	Kind        SubnetKind
	CIDR        string
	Gateway     string
	SNAT        bool
	DHCPRanges  []DHCPRange
	IPAM        string
	Options     map[string]string
}

// DHCPRange is a [Start, End] pair offered to DHCP clients within a subnet.
type DHCPRange struct {
	Start string
	End   string
}

// IpamKind selects which IPAM backend a named IpamConfig talks to.
type IpamKind string

const (
	IpamKindPve     IpamKind = "pve"
	IpamKindPhpIpam IpamKind = "phpipam"
	IpamKindNetBox  IpamKind = "netbox"
)

// IpamConfig names and parameterizes an IPAM backend.
type IpamConfig struct {
	Name    string
	Kind    IpamKind
	URL     string
	Token   string
	Section string
}

// ControllerKind selects a routing controller driver (§4.3).
type ControllerKind string

const (
	ControllerBgp    ControllerKind = "bgp"
	ControllerEvpn   ControllerKind = "evpn"
	ControllerFaucet ControllerKind = "faucet"
)

// Controller is a named routing-protocol controller instance.
type Controller struct {
	Name               string
	Kind               ControllerKind
	ASN                *int
	Peers              []BgpPeer
	VTEPIP             string
	RouterID           string
	BGPMultipathRelax  bool
	EBGPRequiresPolicy bool
	Options            map[string]string

	// Evpn-specific advertise toggles.
	AdvertiseAllVNI    bool
	AdvertiseDefaultGw bool
	AdvertiseSviIP     bool

	// Faucet-specific.
	DatapathID     string
	OFListenAddr   string
	Ports          []FaucetPort
	VlanDefinitions []FaucetVlan
}

// BgpPeer is one `neighbor` stanza of a Bgp/Evpn controller.
type BgpPeer struct {
	Name            string
	Address         string
	RemoteASN       int
	IPv6            bool
	RouteReflector  bool
	Description     string
}

// FaucetPort is one port entry in a Faucet `dps` stanza.
type FaucetPort struct {
	Number      int
	NativeVlan  string
	TaggedVlans []string
}

// FaucetVlan is one entry of a Faucet `vlans` stanza.
type FaucetVlan struct {
	Name string
	VID  int
}

// IpAllocation records one address handed out from a subnet.
type IpAllocation struct {
	IP          string
	Subnet      string
	VMID        string
	Hostname    string
	MAC         string
	Description string
	AllocatedAt time.Time
}

// SDNConfiguration is the full in-memory SDN entity graph, as read
// from the cluster-file store.
type SDNConfiguration struct {
	Zones       map[string]*Zone
	VNets       map[string]*VNet
	Subnets     map[string]*Subnet
	Controllers map[string]*Controller
	Ipams       map[string]*IpamConfig
}

// NewSDNConfiguration returns an empty, initialized SDNConfiguration.
func NewSDNConfiguration() *SDNConfiguration {
	return &SDNConfiguration{
		Zones:       map[string]*Zone{},
		VNets:       map[string]*VNet{},
		Subnets:     map[string]*Subnet{},
		Controllers: map[string]*Controller{},
		Ipams:       map[string]*IpamConfig{},
	}
}
