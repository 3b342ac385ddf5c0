// Package validate implements the syntax & semantic validator (§4.2):
// per-interface syntax, option-value validation, reference resolution,
// cycle detection, naming conventions and auto/hotplug residency, all
// accumulated rather than short-circuited. Grounded on
// original_source/pve-network-rs/crates/net-validate/src/syntax.rs for
// pass ordering and on the teacher's govalidator-tagged struct style
// (pkg/cli/config/config.go) for primitive field checks.
package validate

import (
	"fmt"
	"net"
	"regexp"

	"github.com/asaskevich/govalidator"

	"github.com/pve-project/pve-network-go/internal/model"
)

var (
	bridgeNamingRE = regexp.MustCompile(`^(vmbr|br)`)
	bondNamingRE   = regexp.MustCompile(`^bond`)
	vxlanNamingRE  = regexp.MustCompile(`^vxlan`)
	portNameRE     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.\-]{0,14}$`)
)

// Result accumulates every violation found by Configuration; the zero
// Result (no errors) means the configuration is valid.
type Result struct {
	Errors model.ValidationErrors
}

func (r *Result) add(field, value, message string) {
	r.Errors = append(
		r.Errors,
		&model.ValidationError{
			Field:   field,
			Value:   value,
			Message: message,
		},
	)
}

func (r *Result) addf(field, value, format string, args ...interface{}) {
	r.add(
		field,
		value,
		fmt.Sprintf(format, args...),
	)
}

// OK reports whether no violations were accumulated.
func (r *Result) OK() bool {
	return !r.Errors.HasErrors()
}

// Configuration runs all six validator passes against cfg and returns
// the accumulated result; it never stops early (§4.2).
func Configuration(cfg *model.NetworkConfiguration) *Result {
	r := &Result{}

	names := map[string]*model.Interface{}
	for _, ifc := range cfg.Interfaces {
		if _, dup := names[ifc.Name]; dup {
			r.addf(
				"name",
				ifc.Name,
				"duplicate interface name",
			)
			continue
		}
		names[ifc.Name] = ifc
	}

	for _, ifc := range cfg.Interfaces {
		validateSyntax(r, ifc)
		validateOptionValues(r, ifc)
		validateNamingConvention(r, ifc)
	}

	validateReferences(r, cfg, names)
	validateCycles(r, cfg)

	return r
}

// validateSyntax is pass 1: per-interface name/IP/MTU/VLAN/VXLAN
// range checks plus method compatibility (I-2). No MAC address is
// checked.
func validateSyntax(r *Result, ifc *model.Interface) {
	if !model.ValidName(ifc.Name) {
		r.addf(
			"name",
			ifc.Name,
			"does not match ^[A-Za-z][A-Za-z0-9_.\\-]{0,14}$",
		)
	}

	if ifc.MTU != 0 && (ifc.MTU < 68 || ifc.MTU > 65535) {
		r.addf(
			"mtu",
			fmt.Sprintf("%d", ifc.MTU),
			"must be in 68..=65535",
		)
	}

	for _, addr := range ifc.Addresses {
		if !govalidator.IsIP(addr.IP.String()) {
			r.addf(
				"address",
				addr.IP.String(),
				"not a valid IP address",
			)
		}
	}
	if ifc.Gateway != nil && !govalidator.IsIP(ifc.Gateway.String()) {
		r.addf(
			"gateway",
			ifc.Gateway.String(),
			"not a valid IP address",
		)
	}

	switch ifc.AddressMethod {
	case model.MethodStatic:
		if len(ifc.Addresses) == 0 {
			r.addf(
				"address_method",
				string(ifc.AddressMethod),
				"static requires at least one address (I-2)",
			)
		}
	case model.MethodDHCP, model.MethodNone:
		if len(ifc.Addresses) > 0 {
			r.addf(
				"address_method",
				string(ifc.AddressMethod),
				"dhcp/none must not carry a static address (I-2)",
			)
		}
		if ifc.Gateway != nil {
			r.addf(
				"address_method",
				string(ifc.AddressMethod),
				"dhcp/none must not carry a gateway (I-2)",
			)
		}
	case model.MethodManual:
		// No constraints.
	default:
		r.addf(
			"address_method",
			string(ifc.AddressMethod),
			"unknown address method",
		)
	}

	if ifc.VxlanConfig != nil {
		if ifc.VxlanConfig.ID < 1 || ifc.VxlanConfig.ID > 16777215 {
			r.addf(
				"vxlan.id",
				fmt.Sprintf("%d", ifc.VxlanConfig.ID),
				"must be in 1..=16777215",
			)
		}
		if ifc.MTU != 0 && ifc.MTU > 65535-50 {
			// I-7: VXLAN subtracts 50 bytes of overhead — warn, not error.
			r.addf(
				"mtu",
				fmt.Sprintf("%d", ifc.MTU),
				"warning: vxlan overhead (50 bytes) may exceed path MTU",
			)
		}
	}

	if ifc.VlanConfig != nil {
		if ifc.VlanConfig.Tag < 1 || ifc.VlanConfig.Tag > 4094 {
			r.addf(
				"vlan.tag",
				fmt.Sprintf("%d", ifc.VlanConfig.Tag),
				"must be in 1..=4094 (I-4)",
			)
		}
	}

	if ifc.BridgeConfig != nil && ifc.BridgeConfig.VlanAware {
		validateBridgePorts(r, ifc.BridgeConfig)
	}
}

func validateBridgePorts(r *Result, b *model.Bridge) {
	for name, pc := range b.PortConfig {
		for _, vid := range pc.VIDs {
			if vid < 1 || vid > 4094 {
				r.addf(
					"bridge.port.vid",
					fmt.Sprintf("%s:%d", name, vid),
					"vid must be in 1..=4094 (I-6)",
				)
			}
		}
		for _, rng := range pc.VIDRanges {
			if rng.Start > rng.End {
				r.addf(
					"bridge.port.vid_range",
					fmt.Sprintf("%s:%d-%d", name, rng.Start, rng.End),
					"range start must be <= end (I-6)",
				)
			}
		}
		if pc.PVID != 0 && (pc.PVID < 1 || pc.PVID > 4094) {
			r.addf(
				"bridge.port.pvid",
				fmt.Sprintf("%s:%d", name, pc.PVID),
				"pvid must be in 1..=4094 (I-6)",
			)
		}
	}
}

// validateOptionValues is pass 2, over bond interfaces only: at least
// one slave, slave port-name regex, miimon/arp_interval exclusion,
// positive miimon, primary among the slaves, arp_ip_target IPs, and the
// bond knob-compatibility rules as hard errors (§9 open question). It
// does not check bond-mode against the enum, MAC format,
// or bridge port names.
func validateOptionValues(r *Result, ifc *model.Interface) {
	if ifc.BondConfig == nil {
		return
	}
	b := ifc.BondConfig

	if len(b.Slaves) == 0 {
		r.addf(
			"bond.slaves",
			"",
			"bond requires at least one slave (I-5)",
		)
	}
	for _, s := range b.Slaves {
		if !portNameRE.MatchString(s) {
			r.addf(
				"bond.slaves",
				s,
				"slave name does not match port naming regex",
			)
		}
	}

	if b.Miimon != nil && b.ArpInterval != nil {
		r.addf(
			"bond",
			ifc.Name,
			"miimon and arp_interval are mutually exclusive (I-5)",
		)
	}
	if b.Miimon != nil && *b.Miimon <= 0 {
		r.addf(
			"bond.miimon",
			fmt.Sprintf("%d", *b.Miimon),
			"must be positive",
		)
	}

	if b.Primary != "" && !stringInSlice(b.Primary, b.Slaves) {
		r.addf(
			"bond.primary",
			b.Primary,
			"primary must be one of the slaves (I-5)",
		)
	}

	if b.LACPRate != "" && b.Mode != model.Bond8023ad {
		r.addf(
			"bond.lacp_rate",
			b.LACPRate,
			"lacp_rate is only valid for 802.3ad (I-5)",
		)
	}
	if b.AdSelect != "" && b.Mode != model.Bond8023ad {
		r.addf(
			"bond.ad_select",
			b.AdSelect,
			"ad_select is only valid for 802.3ad (I-5)",
		)
	}

	for _, t := range b.ArpIPTarget {
		if net.ParseIP(t) == nil {
			r.addf(
				"bond.arp_ip_target",
				t,
				"not a valid IP",
			)
		}
	}
}

// validateNamingConvention is pass 5.
func validateNamingConvention(r *Result, ifc *model.Interface) {
	switch ifc.Kind {
	case model.KindBridge:
		if !bridgeNamingRE.MatchString(ifc.Name) {
			r.addf(
				"name",
				ifc.Name,
				"bridge interfaces must start with br or vmbr",
			)
		}
	case model.KindBond:
		if !bondNamingRE.MatchString(ifc.Name) {
			r.addf(
				"name",
				ifc.Name,
				"bond interfaces must start with bond",
			)
		}
	case model.KindVxlan:
		if !vxlanNamingRE.MatchString(ifc.Name) {
			r.addf(
				"name",
				ifc.Name,
				"vxlan interfaces must start with vxlan",
			)
		}
	case model.KindVlan:
		if ifc.VlanConfig == nil {
			r.addf(
				"name",
				ifc.Name,
				"vlan interface has no parent/tag",
			)
			return
		}
		expected := fmt.Sprintf(
			"%s.%d",
			ifc.VlanConfig.Parent,
			ifc.VlanConfig.Tag,
		)
		if ifc.Name != expected {
			r.addf(
				"name",
				ifc.Name,
				fmt.Sprintf("vlan interfaces must be named parent.tag (expected %q)", expected),
			)
		}
	}
}

// validateReferences is pass 3 + pass 6: every bridge.port/bond.slave/
// vlan.parent resolves, and every auto/hotplug name exists.
func validateReferences(r *Result, cfg *model.NetworkConfiguration, names map[string]*model.Interface) {
	for _, ifc := range cfg.Interfaces {
		for _, dep := range ifc.DependsOn() {
			if _, ok := names[dep]; !ok {
				r.addf(
					"reference",
					dep,
					fmt.Sprintf("%s references undefined interface %q", ifc.Name, dep),
				)
			}
		}
	}
	for _, ifc := range cfg.Interfaces {
		if ifc.Auto {
			if _, ok := names[ifc.Name]; !ok {
				r.addf(
					"auto",
					ifc.Name,
					"auto references undefined interface",
				)
			}
		}
		if ifc.Hotplug {
			if _, ok := names[ifc.Name]; !ok {
				r.addf(
					"allow-hotplug",
					ifc.Name,
					"allow-hotplug references undefined interface",
				)
			}
		}
	}
}

// validateCycles is pass 4: DFS over the I-3 dependency relation.
func validateCycles(r *Result, cfg *model.NetworkConfiguration) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	byName := map[string]*model.Interface{}
	for _, ifc := range cfg.Interfaces {
		byName[ifc.Name] = ifc
		color[ifc.Name] = white
	}

	var path []string
	var visit func(name string) []string
	visit = func(name string) []string {
		color[name] = gray
		path = append(
			path,
			name,
		)
		ifc := byName[name]
		if ifc != nil {
			for _, dep := range ifc.DependsOn() {
				if _, ok := byName[dep]; !ok {
					continue // reported by validateReferences
				}
				switch color[dep] {
				case gray:
					return append(
						append([]string(nil), path...),
						dep,
					)
				case white:
					if cyc := visit(dep); cyc != nil {
						return cyc
					}
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return nil
	}

	for _, ifc := range cfg.Interfaces {
		if color[ifc.Name] == white {
			path = nil
			if cyc := visit(ifc.Name); cyc != nil {
				r.Errors = append(
					r.Errors,
					&model.ValidationError{
						Message: (&model.CycleError{Path: cyc}).Error(),
					},
				)
			}
		}
	}
}

// stringInSlice reports whether a is present in list. Adapted from
// the teacher's pkg/cli.StringInSlice for membership checks like
// bond.primary against bond.slaves.
func stringInSlice(a string, list []string) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}
	return false
}
