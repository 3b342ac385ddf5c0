package ifaces

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pve-project/pve-network-go/internal/model"
)

// Generate serializes cfg back to interfaces(5) text. When
// preserveOrder is true, stanzas are emitted in cfg.Order (the order
// Parse saw them in); otherwise they're sorted alphabetically by name.
// generate(parse(x)) must be structurally equivalent to x (P-1), and
// with preserveOrder the byte output must be stable run to run (P-2).
func Generate(cfg *model.NetworkConfiguration, preserveOrder bool) (string, error) {
	var sb strings.Builder

	ordered := orderedInterfaces(cfg, preserveOrder)

	var autoNames, hotplugNames []string
	for _, ifc := range ordered {
		if ifc.Auto {
			autoNames = append(
				autoNames,
				ifc.Name,
			)
		}
		if ifc.Hotplug {
			hotplugNames = append(
				hotplugNames,
				ifc.Name,
			)
		}
	}
	if len(autoNames) > 0 {
		fmt.Fprintf(
			&sb,
			"auto %s\n",
			strings.Join(autoNames, " "),
		)
	}
	if len(hotplugNames) > 0 {
		fmt.Fprintf(
			&sb,
			"allow-hotplug %s\n",
			strings.Join(hotplugNames, " "),
		)
	}
	if len(autoNames) > 0 || len(hotplugNames) > 0 {
		sb.WriteString("\n")
	}

	for i, ifc := range ordered {
		for _, c := range ifc.Comments {
			fmt.Fprintf(
				&sb,
				"# %s\n",
				c,
			)
		}
		if err := writeStanza(&sb, ifc); err != nil {
			return "", err
		}
		if i != len(ordered)-1 {
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

func orderedInterfaces(cfg *model.NetworkConfiguration, preserveOrder bool) []*model.Interface {
	if preserveOrder && len(cfg.Order) > 0 {
		out := make([]*model.Interface, 0, len(cfg.Order))
		for _, name := range cfg.Order {
			if ifc := cfg.ByName(name); ifc != nil {
				out = append(
					out,
					ifc,
				)
			}
		}
		return out
	}
	out := append([]*model.Interface(nil), cfg.Interfaces...)
	sort.Slice(
		out,
		func(i, j int) bool {
			return out[i].Name < out[j].Name
		},
	)
	return out
}

func writeStanza(sb *strings.Builder, ifc *model.Interface) error {
	fmt.Fprintf(
		sb,
		"iface %s inet %s\n",
		ifc.Name,
		string(ifc.AddressMethod),
	)

	for _, addr := range ifc.Addresses {
		fmt.Fprintf(
			sb,
			"\taddress %s\n",
			addr.String(),
		)
	}
	if ifc.Gateway != nil {
		fmt.Fprintf(
			sb,
			"\tgateway %s\n",
			ifc.Gateway.String(),
		)
	}
	if ifc.MTU > 0 {
		fmt.Fprintf(
			sb,
			"\tmtu %d\n",
			ifc.MTU,
		)
	}

	switch ifc.Kind {
	case model.KindBridge:
		writeBridgeOptions(
			sb,
			ifc.BridgeConfig,
		)
	case model.KindBond:
		writeBondOptions(
			sb,
			ifc.BondConfig,
		)
	case model.KindVlan:
		writeVlanOptions(
			sb,
			ifc.VlanConfig,
		)
	case model.KindVxlan:
		writeVxlanOptions(
			sb,
			ifc.VxlanConfig,
		)
	}

	for _, opt := range ifc.Options {
		fmt.Fprintf(
			sb,
			"\t%s %s\n",
			opt.Key,
			opt.Value,
		)
	}

	return nil
}

func writeBridgeOptions(sb *strings.Builder, b *model.Bridge) {
	if b == nil {
		return
	}
	if len(b.Ports) > 0 {
		fmt.Fprintf(
			sb,
			"\tbridge-ports %s\n",
			strings.Join(b.Ports, " "),
		)
	}
	if b.VlanAware {
		sb.WriteString("\tbridge-vlan-aware yes\n")
	}
	if b.STP != nil {
		fmt.Fprintf(
			sb,
			"\tbridge-stp %s\n",
			yesNo(*b.STP),
		)
	}
	if b.ForwardDelay != nil {
		fmt.Fprintf(
			sb,
			"\tbridge-fd %d\n",
			*b.ForwardDelay,
		)
	}
	if b.HelloTime != nil {
		fmt.Fprintf(
			sb,
			"\tbridge-hello %d\n",
			*b.HelloTime,
		)
	}
	if b.MaxAge != nil {
		fmt.Fprintf(
			sb,
			"\tbridge-maxage %d\n",
			*b.MaxAge,
		)
	}
	if b.VlanProtocol != "" {
		fmt.Fprintf(
			sb,
			"\tbridge-vlan-protocol %s\n",
			b.VlanProtocol,
		)
	}
}

func writeBondOptions(sb *strings.Builder, b *model.Bond) {
	if b == nil {
		return
	}
	if len(b.Slaves) > 0 {
		fmt.Fprintf(
			sb,
			"\tbond-slaves %s\n",
			strings.Join(b.Slaves, " "),
		)
	}
	if b.Mode != "" {
		fmt.Fprintf(
			sb,
			"\tbond-mode %s\n",
			b.Mode,
		)
	}
	if b.Miimon != nil {
		fmt.Fprintf(
			sb,
			"\tbond-miimon %d\n",
			*b.Miimon,
		)
	}
	if b.ArpInterval != nil {
		fmt.Fprintf(
			sb,
			"\tbond-arp-interval %d\n",
			*b.ArpInterval,
		)
	}
	if len(b.ArpIPTarget) > 0 {
		fmt.Fprintf(
			sb,
			"\tbond-arp-ip-target %s\n",
			strings.Join(b.ArpIPTarget, ","),
		)
	}
	if b.Primary != "" {
		fmt.Fprintf(
			sb,
			"\tbond-primary %s\n",
			b.Primary,
		)
	}
	if b.LACPRate != "" {
		fmt.Fprintf(
			sb,
			"\tbond-lacp-rate %s\n",
			b.LACPRate,
		)
	}
}

func writeVlanOptions(sb *strings.Builder, v *model.Vlan) {
	if v == nil {
		return
	}
	if v.Parent != "" {
		fmt.Fprintf(
			sb,
			"\tvlan-raw-device %s\n",
			v.Parent,
		)
	}
	fmt.Fprintf(
		sb,
		"\tvlan-id %s\n",
		strconv.Itoa(v.Tag),
	)
	if v.Protocol != "" {
		fmt.Fprintf(
			sb,
			"\tvlan-protocol %s\n",
			v.Protocol,
		)
	}
}

func writeVxlanOptions(sb *strings.Builder, v *model.Vxlan) {
	if v == nil {
		return
	}
	fmt.Fprintf(
		sb,
		"\tvxlan-id %d\n",
		v.ID,
	)
	if v.LocalIP != nil {
		fmt.Fprintf(
			sb,
			"\tvxlan-local-tunnelip %s\n",
			v.LocalIP.String(),
		)
	}
	if v.RemoteIP != nil {
		fmt.Fprintf(
			sb,
			"\tvxlan-remote %s\n",
			v.RemoteIP.String(),
		)
	}
	if v.DstPort != nil {
		fmt.Fprintf(
			sb,
			"\tvxlan-dstport %d\n",
			*v.DstPort,
		)
	}
	if v.MulticastGroup != nil {
		fmt.Fprintf(
			sb,
			"\tvxlan-svcnodeip %s\n",
			v.MulticastGroup.String(),
		)
	}
	if v.PhysicalDev != "" {
		fmt.Fprintf(
			sb,
			"\tvxlan-physdev %s\n",
			v.PhysicalDev,
		)
	}
	if v.Learning != nil {
		fmt.Fprintf(
			sb,
			"\tvxlan-learning %s\n",
			onOff(*v.Learning),
		)
	}
	if v.ArpProxy != nil {
		fmt.Fprintf(
			sb,
			"\tvxlan-proxy %s\n",
			onOff(*v.ArpProxy),
		)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
