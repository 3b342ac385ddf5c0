// Package ifaces implements the bit-preserving codec for the Debian
// interfaces(5) grammar: Parse decodes /etc/network/interfaces into a
// model.NetworkConfiguration, and Generate is its inverse. Grounded on
// original_source/pve-network-rs/crates/net-config/src/interfaces.rs
// for exact option-key and netmask semantics, and on the teacher's
// hand-rolled line-oriented parsing style (no parser-combinator
// library in the retrieval pack fits an order-preserving, comment-
// retaining grammar better than a direct scanner).
package ifaces

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/pve-project/pve-network-go/internal/model"
)

// stanza is the parser's working accumulator for one `iface` block
// before it's promoted to a model.Interface.
type stanza struct {
	name       string
	family     string
	method     string
	options    []model.Option
	comments   []model.Comment
	sourceLine int
}

// Parse decodes the interfaces(5) grammar from r, tracking line numbers
// for ParseError (§4.1).
func Parse(r io.Reader) (*model.NetworkConfiguration, error) {
	cfg := &model.NetworkConfiguration{}
	autoNames := map[string]bool{}
	hotplugNames := map[string]bool{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(
		make([]byte, 0, 64*1024),
		1024*1024,
	)

	var pending []model.Comment
	var current *stanza
	lineNo := 0

	flush := func() error {
		if current == nil {
			return nil
		}
		ifc, err := buildInterface(current)
		if err != nil {
			return err
		}
		cfg.Interfaces = append(
			cfg.Interfaces,
			ifc,
		)
		cfg.Order = append(
			cfg.Order,
			ifc.Name,
		)
		current = nil
		return nil
	}

	for scanner.Scan() {
		lineNo++
		rawLine := scanner.Text()
		trimmed := strings.TrimSpace(rawLine)

		switch {
		case trimmed == "":
			// A blank line inside a stanza ends it; comments that
			// follow attach to the *next* stanza via `pending`,
			// except we first let any already-accumulated trailing
			// comments ride with the stanza that just closed.
			if err := flush(); err != nil {
				return nil, err
			}
			continue

		case strings.HasPrefix(trimmed, "#"):
			comment := model.Comment(strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
			if current != nil && !strings.HasPrefix(rawLine, " ") && !strings.HasPrefix(rawLine, "\t") {
				current.comments = append(
					current.comments,
					comment,
				)
			} else {
				pending = append(
					pending,
					comment,
				)
			}
			continue

		case strings.HasPrefix(rawLine, " ") || strings.HasPrefix(rawLine, "\t"):
			if current == nil {
				return nil, &model.ParseError{
					Line:   lineNo,
					Reason: "option line outside of any iface stanza",
				}
			}
			key, value, err := splitOption(trimmed, lineNo)
			if err != nil {
				return nil, err
			}
			current.options = append(
				current.options,
				model.Option{
					Key:   key,
					Value: value,
				},
			)
			continue
		}

		fields := strings.Fields(trimmed)
		switch fields[0] {
		case "auto":
			for _, n := range fields[1:] {
				autoNames[n] = true
			}
			continue
		case "allow-hotplug":
			for _, n := range fields[1:] {
				hotplugNames[n] = true
			}
			continue
		case "iface":
			if err := flush(); err != nil {
				return nil, err
			}
			if len(fields) < 4 {
				return nil, &model.ParseError{
					Line:   lineNo,
					Reason: "malformed iface line: expected `iface NAME FAMILY METHOD`",
				}
			}
			name := fields[1]
			if !model.ValidName(name) {
				return nil, &model.ParseError{
					Line:   lineNo,
					Reason: fmt.Sprintf("invalid interface name %q", name),
				}
			}
			current = &stanza{
				name:       name,
				family:     fields[2],
				method:     fields[3],
				comments:   pending,
				sourceLine: lineNo,
			}
			pending = nil
			continue
		default:
			return nil, &model.ParseError{
				Line:   lineNo,
				Reason: fmt.Sprintf("unrecognized directive %q", fields[0]),
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}

	for _, ifc := range cfg.Interfaces {
		ifc.Auto = autoNames[ifc.Name]
		ifc.Hotplug = hotplugNames[ifc.Name]
		ifc.Enabled = true
	}

	return cfg, nil
}

// splitOption splits an indented option line into its key and
// (possibly multi-word) value.
func splitOption(line string, lineNo int) (string, string, error) {
	fields := strings.SplitN(line, " ", 2)
	if len(fields) == 0 || fields[0] == "" {
		return "", "", &model.ParseError{
			Line:   lineNo,
			Reason: "empty option line",
		}
	}
	key := fields[0]
	value := ""
	if len(fields) == 2 {
		value = strings.TrimSpace(fields[1])
	}
	return key, value, nil
}

// buildInterface promotes a parsed stanza into a typed model.Interface,
// applying known-key mutation and leaving unrecognized keys in Options
// verbatim (§4.1).
func buildInterface(s *stanza) (*model.Interface, error) {
	method, err := parseMethod(s.method, s.sourceLine)
	if err != nil {
		return nil, err
	}

	ifc := &model.Interface{
		Name:          s.name,
		Kind:          inferKind(s.name),
		AddressMethod: method,
		Comments:      s.comments,
		SourceLine:    s.sourceLine,
		MTU:           0,
	}

	if parent, tag, ok := splitTrailingVlanTag(s.name); ok {
		ifc.VlanConfig = &model.Vlan{
			Parent: parent,
			Tag:    tag,
		}
	}

	var pendingNetmask string
	var addrNoPrefix []int // indices into ifc.Addresses lacking a prefix

	for _, opt := range s.options {
		key := normalizeOptionKey(opt.Key)
		switch key {
		case "address":
			addr, err := parseAddressField(opt.Value, s.sourceLine)
			if err != nil {
				return nil, err
			}
			ifc.Addresses = append(
				ifc.Addresses,
				addr,
			)
			if addr.Net == nil {
				addrNoPrefix = append(
					addrNoPrefix,
					len(ifc.Addresses)-1,
				)
			}
		case "netmask":
			pendingNetmask = opt.Value
		case "gateway":
			ip := net.ParseIP(opt.Value)
			if ip == nil {
				return nil, &model.ParseError{
					Line:   s.sourceLine,
					Reason: fmt.Sprintf("invalid gateway IP %q", opt.Value),
				}
			}
			ifc.Gateway = ip
		case "mtu":
			mtu, err := strconv.Atoi(opt.Value)
			if err != nil {
				return nil, &model.ParseError{
					Line:   s.sourceLine,
					Reason: fmt.Sprintf("invalid mtu %q", opt.Value),
				}
			}
			ifc.MTU = mtu
		case "bridge-ports":
			ifc.Kind = model.KindBridge
			ensureBridge(ifc).Ports = strings.Fields(opt.Value)
		case "bridge-vlan-aware":
			ensureBridge(ifc).VlanAware = isYes(opt.Value)
		case "bridge-stp":
			b := isYes(opt.Value)
			ensureBridge(ifc).STP = &b
		case "bridge-fd":
			v, _ := strconv.Atoi(opt.Value)
			ensureBridge(ifc).ForwardDelay = &v
		case "bridge-hello":
			v, _ := strconv.Atoi(opt.Value)
			ensureBridge(ifc).HelloTime = &v
		case "bridge-maxage":
			v, _ := strconv.Atoi(opt.Value)
			ensureBridge(ifc).MaxAge = &v
		case "bridge-vlan-protocol":
			ensureBridge(ifc).VlanProtocol = model.VlanProtocol(opt.Value)
		case "bond-slaves":
			ifc.Kind = model.KindBond
			ensureBond(ifc).Slaves = strings.Fields(opt.Value)
		case "bond-mode":
			mode, ok := model.ParseBondMode(opt.Value)
			if !ok {
				return nil, &model.ParseError{
					Line:   s.sourceLine,
					Reason: fmt.Sprintf("invalid bond-mode %q", opt.Value),
				}
			}
			ensureBond(ifc).Mode = mode
		case "bond-miimon":
			v, err := strconv.Atoi(opt.Value)
			if err != nil {
				return nil, &model.ParseError{
					Line:   s.sourceLine,
					Reason: fmt.Sprintf("invalid bond-miimon %q", opt.Value),
				}
			}
			ensureBond(ifc).Miimon = &v
		case "bond-arp-interval":
			v, _ := strconv.Atoi(opt.Value)
			ensureBond(ifc).ArpInterval = &v
		case "bond-arp-ip-target":
			ensureBond(ifc).ArpIPTarget = strings.Split(opt.Value, ",")
		case "bond-lacp-rate":
			ensureBond(ifc).LACPRate = opt.Value
		case "bond-primary":
			ensureBond(ifc).Primary = opt.Value
		case "vxlan-id":
			ifc.Kind = model.KindVxlan
			v, err := strconv.Atoi(opt.Value)
			if err != nil {
				return nil, &model.ParseError{
					Line:   s.sourceLine,
					Reason: fmt.Sprintf("invalid vxlan-id %q", opt.Value),
				}
			}
			ensureVxlan(ifc).ID = v
		case "vxlan-local", "vxlan-local-tunnelip":
			ip := net.ParseIP(opt.Value)
			if ip == nil {
				return nil, &model.ParseError{
					Line:   s.sourceLine,
					Reason: fmt.Sprintf("invalid vxlan-local %q", opt.Value),
				}
			}
			ensureVxlan(ifc).LocalIP = ip
		case "vxlan-remote":
			ensureVxlan(ifc).RemoteIP = net.ParseIP(opt.Value)
		case "vxlan-dstport":
			v, _ := strconv.Atoi(opt.Value)
			ensureVxlan(ifc).DstPort = &v
		case "vxlan-svcnodeip", "vxlan-group":
			ensureVxlan(ifc).MulticastGroup = net.ParseIP(opt.Value)
		case "vxlan-physdev":
			ensureVxlan(ifc).PhysicalDev = opt.Value
		case "vxlan-learning":
			v := isYes(opt.Value) || opt.Value == "on"
			ensureVxlan(ifc).Learning = &v
		case "vxlan-proxy":
			v := isYes(opt.Value) || opt.Value == "on"
			ensureVxlan(ifc).ArpProxy = &v
		case "vlan-id":
			ensureVlan(ifc)
			v, err := strconv.Atoi(opt.Value)
			if err == nil {
				ifc.VlanConfig.Tag = v
			}
		case "vlan-raw-device":
			ensureVlan(ifc).Parent = opt.Value
		case "vlan-protocol":
			ensureVlan(ifc).Protocol = model.VlanProtocol(opt.Value)
		default:
			ifc.Options = append(
				ifc.Options,
				model.Option{
					Key:   opt.Key,
					Value: opt.Value,
				},
			)
		}
	}

	if pendingNetmask != "" {
		prefix, ok := parseNetmask(pendingNetmask)
		if !ok {
			return nil, &model.ParseError{
				Line:   s.sourceLine,
				Reason: fmt.Sprintf("invalid netmask %q", pendingNetmask),
			}
		}
		if len(addrNoPrefix) == 0 {
			return nil, &model.ParseError{
				Line:   s.sourceLine,
				Reason: "netmask given with no preceding address lacking a prefix",
			}
		}
		last := addrNoPrefix[len(addrNoPrefix)-1]
		bits := 32
		if ifc.Addresses[last].IP.To4() == nil {
			bits = 128
		}
		ifc.Addresses[last].Net = &net.IPNet{
			IP:   ifc.Addresses[last].IP,
			Mask: net.CIDRMask(prefix, bits),
		}
	}

	return ifc, nil
}

func parseMethod(m string, line int) (model.AddressMethod, error) {
	switch strings.ToLower(m) {
	case "static":
		return model.MethodStatic, nil
	case "dhcp":
		return model.MethodDHCP, nil
	case "manual":
		return model.MethodManual, nil
	case "none", "loopback":
		return model.MethodNone, nil
	default:
		return "", &model.ParseError{
			Line:   line,
			Reason: fmt.Sprintf("unknown address method %q", m),
		}
	}
}

func parseAddressField(value string, line int) (model.Address, error) {
	if strings.Contains(value, "/") {
		ip, ipnet, err := net.ParseCIDR(value)
		if err != nil {
			return model.Address{}, &model.ParseError{
				Line:   line,
				Reason: fmt.Sprintf("invalid CIDR address %q", value),
			}
		}
		return model.Address{
			IP:  ip,
			Net: ipnet,
		}, nil
	}
	ip := net.ParseIP(value)
	if ip == nil {
		return model.Address{}, &model.ParseError{
			Line:   line,
			Reason: fmt.Sprintf("invalid IP address %q", value),
		}
	}
	return model.Address{IP: ip}, nil
}

func isYes(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "true", "1", "on":
		return true
	}
	return false
}

func ensureBridge(ifc *model.Interface) *model.Bridge {
	if ifc.BridgeConfig == nil {
		ifc.BridgeConfig = &model.Bridge{}
	}
	return ifc.BridgeConfig
}

func ensureBond(ifc *model.Interface) *model.Bond {
	if ifc.BondConfig == nil {
		ifc.BondConfig = &model.Bond{}
	}
	return ifc.BondConfig
}

func ensureVlan(ifc *model.Interface) *model.Vlan {
	if ifc.VlanConfig == nil {
		ifc.VlanConfig = &model.Vlan{}
	}
	return ifc.VlanConfig
}

func ensureVxlan(ifc *model.Interface) *model.Vxlan {
	if ifc.VxlanConfig == nil {
		ifc.VxlanConfig = &model.Vxlan{}
	}
	return ifc.VxlanConfig
}
