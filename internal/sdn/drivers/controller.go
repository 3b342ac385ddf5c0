package drivers

import (
	"bytes"
	"fmt"
	"regexp"
	"text/template"

	"github.com/coreos/go-systemd/v22/unit"
	"gopkg.in/yaml.v3"

	"github.com/pve-project/pve-network-go/internal/model"
)

var datapathIDRE = regexp.MustCompile(`^0x[0-9a-fA-F]{16}$`)

var bgpStanzaTmpl = template.Must(template.New("bgp").Parse(
	`router bgp {{.ASN}}
{{- if .RouterID}}
 bgp router-id {{.RouterID}}
{{- end}}
{{- if .MultipathRelax}}
 bgp bestpath as-path multipath-relax
{{- end}}
{{- range .Peers}}
 neighbor {{.Address}} remote-as {{.RemoteASN}}
{{- if .Description}}
 neighbor {{.Address}} description {{.Description}}
{{- end}}
{{- if .RouteReflector}}
 neighbor {{.Address}} route-reflector-client
{{- end}}
{{- end}}
{{- if .EBGPRequiresPolicy}}
 neighbor * enforce-first-as
{{- end}}
`))

var evpnStanzaTmpl = template.Must(template.New("evpn").Parse(
	`router bgp {{.ASN}}
{{- if .RouterID}}
 bgp router-id {{.RouterID}}
{{- end}}
{{- range .Peers}}
 neighbor {{.Address}} remote-as {{.RemoteASN}}
{{- end}}
 address-family l2vpn evpn
{{- range .Peers}}
  neighbor {{.Address}} activate
{{- end}}
{{- if .AdvertiseAllVNI}}
  advertise-all-vni
{{- end}}
{{- if .AdvertiseDefaultGw}}
  advertise-default-gw
{{- end}}
{{- if .AdvertiseSviIP}}
  advertise-svi-ip
{{- end}}
 exit-address-family
`))

type bgpStanzaData struct {
	ASN                int
	RouterID           string
	MultipathRelax     bool
	EBGPRequiresPolicy bool
	Peers              []model.BgpPeer
}

type evpnStanzaData struct {
	ASN                int
	RouterID           string
	Peers              []model.BgpPeer
	AdvertiseAllVNI    bool
	AdvertiseDefaultGw bool
	AdvertiseSviIP     bool
}

// bgpControllerDriver renders plain unicast BGP FRR stanzas and the
// frr.service systemd unit.
type bgpControllerDriver struct{}

func (bgpControllerDriver) Validate(ctrl *model.Controller) error {
	if ctrl.ASN == nil {
		return model.NewError(model.KindValidation, "bgp controller requires an asn", nil)
	}
	return nil
}

func (bgpControllerDriver) Render(ctrl *model.Controller) (Artifacts, error) {
	out, err := renderTemplate(bgpStanzaTmpl, bgpStanzaData{
		ASN:                *ctrl.ASN,
		RouterID:           ctrl.RouterID,
		MultipathRelax:     ctrl.BGPMultipathRelax,
		EBGPRequiresPolicy: ctrl.EBGPRequiresPolicy,
		Peers:              ctrl.Peers,
	})
	if err != nil {
		return nil, err
	}
	svc, err := frrServiceUnit(ctrl.Name)
	if err != nil {
		return nil, err
	}
	return Artifacts{"frr": out, "systemd": svc}, nil
}

// evpnControllerDriver renders the l2vpn evpn address-family stanza
// plus advertise-* toggles.
type evpnControllerDriver struct{}

func (evpnControllerDriver) Validate(ctrl *model.Controller) error {
	if ctrl.ASN == nil {
		return model.NewError(model.KindValidation, "evpn controller requires an asn", nil)
	}
	return nil
}

func (evpnControllerDriver) Render(ctrl *model.Controller) (Artifacts, error) {
	out, err := renderTemplate(evpnStanzaTmpl, evpnStanzaData{
		ASN:                *ctrl.ASN,
		RouterID:           ctrl.RouterID,
		Peers:              ctrl.Peers,
		AdvertiseAllVNI:    ctrl.AdvertiseAllVNI,
		AdvertiseDefaultGw: ctrl.AdvertiseDefaultGw,
		AdvertiseSviIP:     ctrl.AdvertiseSviIP,
	})
	if err != nil {
		return nil, err
	}
	svc, err := frrServiceUnit(ctrl.Name)
	if err != nil {
		return nil, err
	}
	return Artifacts{"frr": out, "systemd": svc}, nil
}

// faucetControllerDriver renders the Faucet YAML datapath config plus
// the faucet.service systemd unit. The datapath id must be
// "0x" + 16 hex digits (§4.3).
type faucetControllerDriver struct{}

type faucetYAML struct {
	Version int                       `yaml:"version"`
	DPs     map[string]faucetYAMLDP   `yaml:"dps"`
	VLANs   map[string]faucetYAMLVLAN `yaml:"vlans"`
}

type faucetYAMLDP struct {
	DPID       yaml.Node               `yaml:"dp_id"`
	Interfaces map[int]faucetYAMLIface `yaml:"interfaces"`
}

type faucetYAMLIface struct {
	NativeVLAN  string   `yaml:"native_vlan,omitempty"`
	TaggedVLANs []string `yaml:"tagged_vlans,omitempty"`
}

type faucetYAMLVLAN struct {
	VID int `yaml:"vid"`
}

func (faucetControllerDriver) Validate(ctrl *model.Controller) error {
	if ctrl.DatapathID == "" {
		return model.NewError(model.KindValidation, "faucet controller requires a datapath id", nil)
	}
	if !datapathIDRE.MatchString(ctrl.DatapathID) {
		return model.NewError(model.KindValidation, "faucet datapath id must be 0x followed by 16 hex digits", nil)
	}
	if ctrl.OFListenAddr == "" {
		return model.NewError(model.KindValidation, "faucet controller requires an openflow listen address", nil)
	}
	return nil
}

func (faucetControllerDriver) Render(ctrl *model.Controller) (Artifacts, error) {
	ifaceCfg := map[int]faucetYAMLIface{}
	for _, p := range ctrl.Ports {
		ifaceCfg[p.Number] = faucetYAMLIface{
			NativeVLAN:  p.NativeVlan,
			TaggedVLANs: p.TaggedVlans,
		}
	}
	vlans := map[string]faucetYAMLVLAN{}
	for _, v := range ctrl.VlanDefinitions {
		vlans[v.Name] = faucetYAMLVLAN{VID: v.VID}
	}

	doc := faucetYAML{
		Version: 2,
		DPs: map[string]faucetYAMLDP{
			ctrl.Name: {
				DPID:       yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: ctrl.DatapathID},
				Interfaces: ifaceCfg,
			},
		},
		VLANs: vlans,
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, model.NewError(model.KindIO, "encode faucet yaml", err)
	}
	if err := enc.Close(); err != nil {
		return nil, model.NewError(model.KindIO, "close faucet yaml encoder", err)
	}

	svc, err := faucetServiceUnit(ctrl.Name, ctrl.OFListenAddr)
	if err != nil {
		return nil, err
	}

	return Artifacts{"yaml": buf.String(), "systemd": svc}, nil
}

func frrServiceUnit(name string) (string, error) {
	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", fmt.Sprintf("FRR routing controller %s", name)),
		unit.NewUnitOption("Unit", "After", "network.target"),
		unit.NewUnitOption("Service", "Type", "forking"),
		unit.NewUnitOption("Service", "ExecStart", "/usr/lib/frr/frrinit.sh start"),
		unit.NewUnitOption("Service", "ExecStop", "/usr/lib/frr/frrinit.sh stop"),
		unit.NewUnitOption("Install", "WantedBy", "multi-user.target"),
	}
	return serializeUnit(opts)
}

func faucetServiceUnit(name, listenAddr string) (string, error) {
	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", fmt.Sprintf("Faucet OpenFlow controller %s", name)),
		unit.NewUnitOption("Unit", "After", "network.target"),
		unit.NewUnitOption("Service", "Type", "simple"),
		unit.NewUnitOption("Service", "ExecStart", fmt.Sprintf("/usr/bin/faucet --listen %s", listenAddr)),
		unit.NewUnitOption("Service", "Restart", "on-failure"),
		unit.NewUnitOption("Install", "WantedBy", "multi-user.target"),
	}
	return serializeUnit(opts)
}

func serializeUnit(opts []*unit.UnitOption) (string, error) {
	r := unit.Serialize(opts)
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", model.NewError(model.KindIO, "serialize systemd unit", err)
	}
	return buf.String(), nil
}
