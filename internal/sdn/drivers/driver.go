// Package drivers implements the SDN zone and controller drivers
// (§4.3): pure, deterministic render(config) -> artifacts functions,
// plus per-kind validate(config) checks. Grounded on spec.md §4.3
// directly; FRR/interfaces stanzas use text/template (stdlib —
// justified in SPEC_FULL.md §4.3: nothing in the pack ships a
// templating engine for fixed, internally-authored config text, and
// the teacher's own pkg/cli/config/template package reaches for
// text/template for the same reason), Faucet's artifact uses yaml.v3,
// and every driver's systemd unit uses
// github.com/coreos/go-systemd/v22/unit.
package drivers

import "github.com/pve-project/pve-network-go/internal/model"

// Artifacts maps an artifact name ("interfaces", "frr", "systemd",
// "yaml") to its rendered text.
type Artifacts map[string]string

// ZoneDriver renders the interfaces(5)/FRR/systemd artifacts one zone
// needs to realize its vnets on the wire.
type ZoneDriver interface {
	Validate(zone *model.Zone, vnets []*model.VNet) error
	Render(zone *model.Zone, vnets []*model.VNet) (Artifacts, error)
}

// ControllerDriver renders the FRR/systemd (and, for Faucet, YAML)
// artifacts one routing controller needs.
type ControllerDriver interface {
	Validate(ctrl *model.Controller) error
	Render(ctrl *model.Controller) (Artifacts, error)
}

// ZoneDriverFor resolves the zone driver for kind.
func ZoneDriverFor(kind model.ZoneKind) (ZoneDriver, error) {
	switch kind {
	case model.ZoneSimple:
		return simpleZoneDriver{}, nil
	case model.ZoneVlan:
		return vlanZoneDriver{}, nil
	case model.ZoneQinq:
		return qinqZoneDriver{}, nil
	case model.ZoneVxlan:
		return vxlanZoneDriver{}, nil
	case model.ZoneEvpn:
		return evpnZoneDriver{}, nil
	default:
		return nil, model.NewError(model.KindValidation, "unknown zone kind "+string(kind), nil)
	}
}

// ControllerDriverFor resolves the controller driver for kind.
func ControllerDriverFor(kind model.ControllerKind) (ControllerDriver, error) {
	switch kind {
	case model.ControllerBgp:
		return bgpControllerDriver{}, nil
	case model.ControllerEvpn:
		return evpnControllerDriver{}, nil
	case model.ControllerFaucet:
		return faucetControllerDriver{}, nil
	default:
		return nil, model.NewError(model.KindValidation, "unknown controller kind "+string(kind), nil)
	}
}
