package ifaces

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pve-project/pve-network-go/internal/model"
)

var (
	bridgeNameRE = regexp.MustCompile(`^(vmbr|br-)|bridge`)
	bondNameRE   = regexp.MustCompile(`^bond`)
	vxlanNameRE  = regexp.MustCompile(`^vxlan`)
)

// inferKind determines an interface's Kind from its name alone,
// following the name-anchored rules in §4.1. The result may later be
// upgraded by an explicit bridge-ports/bond-slaves/etc. option line.
func inferKind(name string) model.Kind {
	if name == "lo" {
		return model.KindLoopback
	}
	if parent, tag, ok := splitTrailingVlanTag(name); ok {
		_ = parent
		_ = tag
		return model.KindVlan
	}
	if bridgeNameRE.MatchString(name) {
		return model.KindBridge
	}
	if bondNameRE.MatchString(name) {
		return model.KindBond
	}
	if vxlanNameRE.MatchString(name) {
		return model.KindVxlan
	}
	return model.KindPhysical
}

// splitTrailingVlanTag splits "NAME.TAG" where TAG is a valid VLAN id
// (1..4094), as required to recognize both plain VLANs
// (eth0.100) and the outer step of a QinQ chain (eth0.100.200 is
// parsed as parent "eth0.100", tag "200" — I-4).
func splitTrailingVlanTag(name string) (parent string, tag int, ok bool) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return "", 0, false
	}
	tagStr := name[idx+1:]
	n, err := strconv.Atoi(tagStr)
	if err != nil || n < 1 || n > 4094 {
		return "", 0, false
	}
	return name[:idx], n, true
}

// normalizeOptionKey normalizes option keys so that bridge-ports, bridge_ports
// etc. are recognized interchangeably (§4.1: "bridge[-_]ports").
func normalizeOptionKey(key string) string {
	return strings.ReplaceAll(
		strings.ToLower(key),
		"_",
		"-",
	)
}
