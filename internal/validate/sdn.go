package validate

import (
	"fmt"
	"net"
	"regexp"

	"github.com/pve-project/pve-network-go/internal/model"
)

var macAddrRE = regexp.MustCompile(`^([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}$`)

// SDNConfiguration validates the full SDN entity graph: referential
// integrity (S-1), subnet CIDR parsing, gateway-within-CIDR and
// sibling-overlap checks (S-2), and per-kind required fields for zones,
// controllers and IPAM configs. Network and broadcast addresses are not
// checked here.
func SDNConfiguration(sdn *model.SDNConfiguration) *Result {
	r := &Result{}

	for _, zone := range sdn.Zones {
		validateZone(r, zone)
	}
	for _, vnet := range sdn.VNets {
		validateVNet(r, sdn, vnet)
	}
	for _, subnet := range sdn.Subnets {
		validateSubnet(r, sdn, subnet)
	}
	for _, ctrl := range sdn.Controllers {
		validateController(r, ctrl)
	}
	for _, ipam := range sdn.Ipams {
		validateIpamConfig(r, ipam)
	}

	return r
}

func validateZone(r *Result, z *model.Zone) {
	switch z.Kind {
	case model.ZoneVxlan, model.ZoneEvpn:
		if z.VNI == nil {
			r.addf(
				"zone.vni",
				z.Name,
				"vxlan/evpn zones require a vni",
			)
		}
		if z.VTEPIP == "" || net.ParseIP(z.VTEPIP) == nil {
			r.addf(
				"zone.vtep_ip",
				z.Name,
				"vxlan/evpn zones require a valid vtep ip",
			)
		}
		if len(z.Peers) == 0 && z.McastGrp == "" {
			r.addf(
				"zone.peers",
				z.Name,
				"vxlan/evpn zones require peers or a multicast group",
			)
		}
	case model.ZoneSimple, model.ZoneVlan, model.ZoneQinq:
		// No VNI/VTEP requirement.
	default:
		r.addf(
			"zone.kind",
			string(z.Kind),
			"unknown zone kind",
		)
	}
}

func validateVNet(r *Result, sdn *model.SDNConfiguration, v *model.VNet) {
	if _, ok := sdn.Zones[v.Zone]; !ok {
		r.addf(
			"vnet.zone",
			v.Name,
			fmt.Sprintf("vnet %q references unknown zone %q", v.Name, v.Zone),
		)
	}
	if v.MAC != "" && !macAddrRE.MatchString(v.MAC) {
		r.addf(
			"vnet.mac",
			v.MAC,
			"not a valid MAC address",
		)
	}
}

func validateSubnet(r *Result, sdn *model.SDNConfiguration, s *model.Subnet) {
	if _, ok := sdn.VNets[s.VNet]; !ok {
		r.addf(
			"subnet.vnet",
			s.Name,
			fmt.Sprintf("subnet %q references unknown vnet %q", s.Name, s.VNet),
		)
		return
	}

	_, cidr, err := net.ParseCIDR(s.CIDR)
	if err != nil {
		r.addf(
			"subnet.cidr",
			s.CIDR,
			"does not parse as CIDR (S-2)",
		)
		return
	}

	if s.Gateway != "" {
		gw := net.ParseIP(s.Gateway)
		if gw == nil {
			r.addf(
				"subnet.gateway",
				s.Gateway,
				"not a valid IP",
			)
		} else if !cidr.Contains(gw) {
			r.addf(
				"subnet.gateway",
				s.Gateway,
				"gateway must be within cidr (S-2)",
			)
		}
	}

	for other, sibling := range sdn.Subnets {
		if other == s.Name || sibling.VNet != s.VNet {
			continue
		}
		_, siblingCIDR, err := net.ParseCIDR(sibling.CIDR)
		if err != nil {
			continue
		}
		if cidrsOverlap(cidr, siblingCIDR) {
			r.addf(
				"subnet.cidr",
				s.CIDR,
				fmt.Sprintf("overlaps sibling subnet %q on the same vnet (S-2)", other),
			)
		}
	}
}

func cidrsOverlap(a, b *net.IPNet) bool {
	return a.Contains(b.IP) || b.Contains(a.IP)
}

func validateController(r *Result, c *model.Controller) {
	switch c.Kind {
	case model.ControllerBgp:
		if c.ASN == nil {
			r.addf(
				"controller.asn",
				c.Name,
				"bgp controller requires an asn",
			)
		}
	case model.ControllerEvpn:
		if c.ASN == nil {
			r.addf(
				"controller.asn",
				c.Name,
				"evpn controller requires an asn",
			)
		}
		if c.VTEPIP == "" || net.ParseIP(c.VTEPIP) == nil {
			r.addf(
				"controller.vtep_ip",
				c.Name,
				"evpn controller requires a valid vtep ip",
			)
		}
	case model.ControllerFaucet:
		if c.DatapathID == "" {
			r.addf(
				"controller.datapath_id",
				c.Name,
				"faucet controller requires a datapath id",
			)
		}
	default:
		r.addf(
			"controller.kind",
			string(c.Kind),
			"unknown controller kind",
		)
	}
}

func validateIpamConfig(r *Result, i *model.IpamConfig) {
	switch i.Kind {
	case model.IpamKindPve:
		// File-backed: no external fields required.
	case model.IpamKindPhpIpam, model.IpamKindNetBox:
		if i.URL == "" {
			r.addf(
				"ipam.url",
				i.Name,
				fmt.Sprintf("%s ipam requires a url", i.Kind),
			)
		}
		if i.Token == "" {
			r.addf(
				"ipam.token",
				i.Name,
				fmt.Sprintf("%s ipam requires a token", i.Kind),
			)
		}
	default:
		r.addf(
			"ipam.kind",
			string(i.Kind),
			"unknown ipam kind",
		)
	}
}

// DeletionAllowed checks S-1: deletion of a zone/vnet/subnet fails
// while referents exist.
func DeletionAllowed(sdn *model.SDNConfiguration, entityKind, name string) error {
	switch entityKind {
	case "zone":
		for _, v := range sdn.VNets {
			if v.Zone == name {
				return &model.ConflictError{Message: fmt.Sprintf("zone %q has vnet %q attached", name, v.Name)}
			}
		}
	case "vnet":
		for _, s := range sdn.Subnets {
			if s.VNet == name {
				return &model.ConflictError{Message: fmt.Sprintf("vnet %q has subnet %q attached", name, s.Name)}
			}
		}
	}
	return nil
}
