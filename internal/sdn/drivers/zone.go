package drivers

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/pve-project/pve-network-go/internal/model"
)

var bridgeStanzaTmpl = template.Must(template.New("bridge").Parse(
	`auto {{.Name}}
iface {{.Name}} inet manual
	bridge-ports {{.Ports}}
	bridge-vlan-aware {{.VlanAware}}
	bridge-stp off
`))

var vxlanStanzaTmpl = template.Must(template.New("vxlan").Parse(
	`auto vxlan{{.VNI}}
iface vxlan{{.VNI}} inet manual
	vxlan-id {{.VNI}}
	{{- if .LocalIP}}
	vxlan-local-tunnelip {{.LocalIP}}
	{{- end}}
	{{- if .RemoteIPs}}
	vxlan-remoteip {{.RemoteIPs}}
	{{- end}}
	{{- if .McastGrp}}
	vxlan-svcnodeip {{.McastGrp}}
	{{- end}}
	vxlan-learning {{.Learning}}
	{{- if .Proxy}}
	vxlan-proxy {{.Proxy}}
	{{- end}}
	{{- if .Ageing}}
	vxlan-ageing {{.Ageing}}
	{{- end}}
`))

type bridgeStanzaData struct {
	Name      string
	Ports     string
	VlanAware string
}

type vxlanStanzaData struct {
	VNI       int
	LocalIP   string
	RemoteIPs string
	McastGrp  string
	Learning  string
	Proxy     string
	Ageing    string
}

func renderTemplate(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", model.NewError(model.KindIO, "render template", err)
	}
	return buf.String(), nil
}

// simpleZoneDriver: a Linux bridge, optionally VLAN-aware.
type simpleZoneDriver struct{}

func (simpleZoneDriver) Validate(zone *model.Zone, vnets []*model.VNet) error {
	if zone.Bridge == "" {
		return model.NewError(model.KindValidation, "simple zone requires a bridge name", nil)
	}
	return nil
}

func (simpleZoneDriver) Render(zone *model.Zone, vnets []*model.VNet) (Artifacts, error) {
	out, err := renderTemplate(bridgeStanzaTmpl, bridgeStanzaData{
		Name:      zone.Bridge,
		Ports:     "",
		VlanAware: yesNo(anyVlanAware(vnets)),
	})
	if err != nil {
		return nil, err
	}
	return Artifacts{"interfaces": out}, nil
}

// vlanZoneDriver: trunk bridge + one tagged sub-interface per vnet.
type vlanZoneDriver struct{}

func (vlanZoneDriver) Validate(zone *model.Zone, vnets []*model.VNet) error {
	if zone.Bridge == "" {
		return model.NewError(model.KindValidation, "vlan zone requires a bridge name", nil)
	}
	for _, v := range vnets {
		if v.Tag == nil {
			return model.NewError(model.KindValidation, "vnet "+v.Name+" on a vlan zone requires a tag", nil)
		}
	}
	return nil
}

func (vlanZoneDriver) Render(zone *model.Zone, vnets []*model.VNet) (Artifacts, error) {
	trunk, err := renderTemplate(bridgeStanzaTmpl, bridgeStanzaData{
		Name:      zone.Bridge,
		Ports:     "",
		VlanAware: "yes",
	})
	if err != nil {
		return nil, err
	}

	var subs bytes.Buffer
	for _, v := range vnets {
		fmt.Fprintf(&subs, "auto %s.%d\niface %s.%d inet manual\n\tvlan-raw-device %s\n\tvlan-id %d\n\n",
			zone.Bridge, *v.Tag, zone.Bridge, *v.Tag, zone.Bridge, *v.Tag)
	}

	return Artifacts{"interfaces": trunk + "\n" + subs.String()}, nil
}

// qinqZoneDriver: S-tag outer (service) + C-tag inner (customer) on trunk.
type qinqZoneDriver struct{}

func (qinqZoneDriver) Validate(zone *model.Zone, vnets []*model.VNet) error {
	if zone.Bridge == "" {
		return model.NewError(model.KindValidation, "qinq zone requires a bridge name", nil)
	}
	return nil
}

func (qinqZoneDriver) Render(zone *model.Zone, vnets []*model.VNet) (Artifacts, error) {
	trunk, err := renderTemplate(bridgeStanzaTmpl, bridgeStanzaData{
		Name:      zone.Bridge,
		Ports:     "",
		VlanAware: "yes",
	})
	if err != nil {
		return nil, err
	}

	var subs bytes.Buffer
	for _, v := range vnets {
		if v.Tag == nil {
			continue
		}
		sTag := *v.Tag
		fmt.Fprintf(&subs, "auto %s.%d\niface %s.%d inet manual\n\tvlan-raw-device %s\n\tvlan-id %d\n\tvlan-protocol 802.1ad\n\n",
			zone.Bridge, sTag, zone.Bridge, sTag, zone.Bridge, sTag)
		for _, cTag := range cTagsFor(v) {
			fmt.Fprintf(&subs, "auto %s.%d.%d\niface %s.%d.%d inet manual\n\tvlan-raw-device %s.%d\n\tvlan-id %d\n\n",
				zone.Bridge, sTag, cTag, zone.Bridge, sTag, cTag, zone.Bridge, sTag, cTag)
		}
	}

	return Artifacts{"interfaces": trunk + "\n" + subs.String()}, nil
}

// cTagsFor is a seam for a future per-vnet customer-tag list; the
// domain model carries one tag per vnet today, so qinq's inner tag
// list is empty until that field is added.
func cTagsFor(v *model.VNet) []int { return nil }

// vxlanZoneDriver: one vxlan<VNI> device for the zone's VNI as the
// port of a VLAN-aware bridge. The vnets are not rendered; no vnet
// gets a vxlan device of its own.
type vxlanZoneDriver struct{}

func (vxlanZoneDriver) Validate(zone *model.Zone, vnets []*model.VNet) error {
	if zone.VNI == nil {
		return model.NewError(model.KindValidation, "vxlan zone requires a vni", nil)
	}
	if zone.VTEPIP == "" {
		return model.NewError(model.KindValidation, "vxlan zone requires a vtep ip", nil)
	}
	return nil
}

func (vxlanZoneDriver) Render(zone *model.Zone, vnets []*model.VNet) (Artifacts, error) {
	out, err := renderTemplate(vxlanStanzaTmpl, vxlanStanzaData{
		VNI:       *zone.VNI,
		LocalIP:   zone.VTEPIP,
		RemoteIPs: joinStrings(zone.Peers),
		McastGrp:  zone.McastGrp,
		Learning:  "on",
	})
	if err != nil {
		return nil, err
	}
	bridge, err := renderTemplate(bridgeStanzaTmpl, bridgeStanzaData{
		Name:      zone.Bridge,
		Ports:     fmt.Sprintf("vxlan%d", *zone.VNI),
		VlanAware: "yes",
	})
	if err != nil {
		return nil, err
	}
	return Artifacts{"interfaces": out + "\n" + bridge}, nil
}

// evpnZoneDriver: the zone's vxlan<VNI> device with learning off,
// proxy on and ageing 0, FRR EVPN stanzas, and a /32 VTEP on lo.
// Unlike vxlanZoneDriver it renders no bridge stanza and no
// vxlan-remoteip peer list.
type evpnZoneDriver struct{}

func (evpnZoneDriver) Validate(zone *model.Zone, vnets []*model.VNet) error {
	if zone.VNI == nil {
		return model.NewError(model.KindValidation, "evpn zone requires a vni", nil)
	}
	if zone.VTEPIP == "" {
		return model.NewError(model.KindValidation, "evpn zone requires a vtep ip", nil)
	}
	return nil
}

func (evpnZoneDriver) Render(zone *model.Zone, vnets []*model.VNet) (Artifacts, error) {
	out, err := renderTemplate(vxlanStanzaTmpl, vxlanStanzaData{
		VNI:      *zone.VNI,
		LocalIP:  zone.VTEPIP,
		McastGrp: zone.McastGrp,
		Learning: "off",
		Proxy:    "on",
		Ageing:   "0",
	})
	if err != nil {
		return nil, err
	}

	var frr bytes.Buffer
	fmt.Fprintf(&frr, "router bgp\n  address-family l2vpn evpn\n   vni %d\n", *zone.VNI)
	if zone.RD != "" {
		fmt.Fprintf(&frr, "    rd %s\n", zone.RD)
	}
	for _, rt := range zone.RTImport {
		fmt.Fprintf(&frr, "    route-target import %s\n", rt)
	}
	for _, rt := range zone.RTExport {
		fmt.Fprintf(&frr, "    route-target export %s\n", rt)
	}
	frr.WriteString("    advertise-all-vni\n")
	frr.WriteString("   exit-vni\n")

	loVTEP := fmt.Sprintf("iface lo inet static\n\taddress %s/32\n", zone.VTEPIP)

	return Artifacts{
		"interfaces": out + "\n" + loVTEP,
		"frr":        frr.String(),
	}, nil
}

func anyVlanAware(vnets []*model.VNet) bool {
	for _, v := range vnets {
		if v.VlanAware {
			return true
		}
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
