package drivers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pve-project/pve-network-go/internal/model"
	"github.com/pve-project/pve-network-go/internal/sdn/drivers"
)

func intPtr(i int) *int { return &i }

func TestSimpleZoneDriverRendersBridge(t *testing.T) {
	d, err := drivers.ZoneDriverFor(model.ZoneSimple)
	require.NoError(t, err)

	zone := &model.Zone{Name: "zone1", Kind: model.ZoneSimple, Bridge: "vmbr1"}
	require.NoError(t, d.Validate(zone, nil))

	artifacts, err := d.Render(zone, nil)
	require.NoError(t, err)
	assert.Contains(t, artifacts["interfaces"], "iface vmbr1 inet manual")
	assert.Contains(t, artifacts["interfaces"], "bridge-vlan-aware no")
}

func TestSimpleZoneDriverRejectsMissingBridge(t *testing.T) {
	d, err := drivers.ZoneDriverFor(model.ZoneSimple)
	require.NoError(t, err)
	assert.Error(t, d.Validate(&model.Zone{Name: "zone1"}, nil))
}

func TestVlanZoneDriverRendersSubInterfacePerVNet(t *testing.T) {
	d, err := drivers.ZoneDriverFor(model.ZoneVlan)
	require.NoError(t, err)

	zone := &model.Zone{Name: "zone1", Kind: model.ZoneVlan, Bridge: "vmbr1"}
	vnets := []*model.VNet{{Name: "vnet1", Zone: "zone1", Tag: intPtr(100)}}
	require.NoError(t, d.Validate(zone, vnets))

	artifacts, err := d.Render(zone, vnets)
	require.NoError(t, err)
	assert.Contains(t, artifacts["interfaces"], "vmbr1.100")
	assert.Contains(t, artifacts["interfaces"], "vlan-id 100")
}

func TestVlanZoneDriverRequiresTagPerVNet(t *testing.T) {
	d, err := drivers.ZoneDriverFor(model.ZoneVlan)
	require.NoError(t, err)

	zone := &model.Zone{Name: "zone1", Bridge: "vmbr1"}
	vnets := []*model.VNet{{Name: "vnet1", Zone: "zone1"}}
	assert.Error(t, d.Validate(zone, vnets))
}

func TestVxlanZoneDriverRendersVxlanDevice(t *testing.T) {
	d, err := drivers.ZoneDriverFor(model.ZoneVxlan)
	require.NoError(t, err)

	zone := &model.Zone{
		Name:   "zone1",
		Kind:   model.ZoneVxlan,
		Bridge: "vmbr1",
		VNI:    intPtr(10000),
		VTEPIP: "10.0.0.1",
		Peers:  []string{"10.0.0.2", "10.0.0.3"},
	}
	require.NoError(t, d.Validate(zone, nil))

	artifacts, err := d.Render(zone, nil)
	require.NoError(t, err)
	assert.Contains(t, artifacts["interfaces"], "auto vxlan10000")
	assert.Contains(t, artifacts["interfaces"], "vxlan-id 10000")
	assert.Contains(t, artifacts["interfaces"], "vxlan-local-tunnelip 10.0.0.1")
	assert.Contains(t, artifacts["interfaces"], "vxlan-remoteip 10.0.0.2,10.0.0.3")
	assert.Contains(t, artifacts["interfaces"], "vxlan-learning on")
}

func TestVxlanZoneDriverRequiresVNIAndVTEP(t *testing.T) {
	d, err := drivers.ZoneDriverFor(model.ZoneVxlan)
	require.NoError(t, err)
	assert.Error(t, d.Validate(&model.Zone{Name: "zone1"}, nil))
	assert.Error(t, d.Validate(&model.Zone{Name: "zone1", VNI: intPtr(10000)}, nil))
}

// Scenario 6: an EVPN zone renders vxlan interfaces, a /32 loopback
// VTEP address, and the FRR l2vpn evpn vni stanza with route targets.
func TestEvpnZoneDriverRendersFRRAndInterfaces(t *testing.T) {
	d, err := drivers.ZoneDriverFor(model.ZoneEvpn)
	require.NoError(t, err)

	zone := &model.Zone{
		Name:     "zone1",
		Kind:     model.ZoneEvpn,
		Bridge:   "vmbr1",
		VNI:      intPtr(20000),
		VTEPIP:   "10.0.0.1",
		RD:       "65000:20000",
		RTImport: []string{"65000:20000"},
		RTExport: []string{"65000:20000"},
	}
	require.NoError(t, d.Validate(zone, nil))

	artifacts, err := d.Render(zone, nil)
	require.NoError(t, err)

	assert.Contains(t, artifacts["interfaces"], "auto vxlan20000")
	assert.Contains(t, artifacts["interfaces"], "vxlan-learning off")
	assert.Contains(t, artifacts["interfaces"], "vxlan-proxy on")
	assert.Contains(t, artifacts["interfaces"], "address 10.0.0.1/32")

	assert.Contains(t, artifacts["frr"], "vni 20000")
	assert.Contains(t, artifacts["frr"], "rd 65000:20000")
	assert.Contains(t, artifacts["frr"], "route-target import 65000:20000")
	assert.Contains(t, artifacts["frr"], "route-target export 65000:20000")
	assert.Contains(t, artifacts["frr"], "advertise-all-vni")
}

func TestQinqZoneDriverRendersServiceTag(t *testing.T) {
	d, err := drivers.ZoneDriverFor(model.ZoneQinq)
	require.NoError(t, err)

	zone := &model.Zone{Name: "zone1", Kind: model.ZoneQinq, Bridge: "vmbr1"}
	vnets := []*model.VNet{{Name: "vnet1", Zone: "zone1", Tag: intPtr(200)}}
	require.NoError(t, d.Validate(zone, vnets))

	artifacts, err := d.Render(zone, vnets)
	require.NoError(t, err)
	assert.Contains(t, artifacts["interfaces"], "vmbr1.200")
	assert.Contains(t, artifacts["interfaces"], "vlan-protocol 802.1ad")
}

func TestZoneDriverForUnknownKindIsValidationError(t *testing.T) {
	_, err := drivers.ZoneDriverFor(model.ZoneKind("bogus"))
	assert.Error(t, err)
}
