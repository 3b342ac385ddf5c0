package drivers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pve-project/pve-network-go/internal/model"
	"github.com/pve-project/pve-network-go/internal/sdn/drivers"
)

func TestBgpControllerDriverRendersNeighbors(t *testing.T) {
	d, err := drivers.ControllerDriverFor(model.ControllerBgp)
	require.NoError(t, err)

	ctrl := &model.Controller{
		Name: "bgp1",
		Kind: model.ControllerBgp,
		ASN:  intPtr(65000),
		Peers: []model.BgpPeer{
			{Name: "peer1", Address: "10.0.0.2", RemoteASN: 65001, Description: "spine1"},
		},
	}
	require.NoError(t, d.Validate(ctrl))

	artifacts, err := d.Render(ctrl)
	require.NoError(t, err)
	assert.Contains(t, artifacts["frr"], "router bgp 65000")
	assert.Contains(t, artifacts["frr"], "neighbor 10.0.0.2 remote-as 65001")
	assert.Contains(t, artifacts["frr"], "description spine1")
	assert.Contains(t, artifacts["systemd"], "Description=FRR routing controller bgp1")
}

func TestBgpControllerDriverRequiresASN(t *testing.T) {
	d, err := drivers.ControllerDriverFor(model.ControllerBgp)
	require.NoError(t, err)
	assert.Error(t, d.Validate(&model.Controller{Name: "bgp1"}))
}

func TestEvpnControllerDriverRendersAdvertiseToggles(t *testing.T) {
	d, err := drivers.ControllerDriverFor(model.ControllerEvpn)
	require.NoError(t, err)

	ctrl := &model.Controller{
		Name:               "evpn1",
		Kind:               model.ControllerEvpn,
		ASN:                intPtr(65000),
		Peers:              []model.BgpPeer{{Address: "10.0.0.2", RemoteASN: 65001}},
		AdvertiseAllVNI:    true,
		AdvertiseDefaultGw: true,
	}
	require.NoError(t, d.Validate(ctrl))

	artifacts, err := d.Render(ctrl)
	require.NoError(t, err)
	assert.Contains(t, artifacts["frr"], "address-family l2vpn evpn")
	assert.Contains(t, artifacts["frr"], "advertise-all-vni")
	assert.Contains(t, artifacts["frr"], "advertise-default-gw")
	assert.NotContains(t, artifacts["frr"], "advertise-svi-ip")
}

func TestFaucetControllerDriverRendersYAMLAndSystemd(t *testing.T) {
	d, err := drivers.ControllerDriverFor(model.ControllerFaucet)
	require.NoError(t, err)

	ctrl := &model.Controller{
		Name:         "faucet1",
		Kind:         model.ControllerFaucet,
		DatapathID:   "0x0000000000000001",
		OFListenAddr: "127.0.0.1:6653",
		Ports: []model.FaucetPort{
			{Number: 1, NativeVlan: "office", TaggedVlans: []string{"guest"}},
		},
		VlanDefinitions: []model.FaucetVlan{
			{Name: "office", VID: 100},
			{Name: "guest", VID: 200},
		},
	}
	require.NoError(t, d.Validate(ctrl))

	artifacts, err := d.Render(ctrl)
	require.NoError(t, err)
	assert.Contains(t, artifacts["yaml"], "version: 2")
	assert.Contains(t, artifacts["yaml"], "dp_id: 0x0000000000000001")
	assert.Contains(t, artifacts["yaml"], "native_vlan: office")
	assert.Contains(t, artifacts["yaml"], "vid: 100")
	assert.Contains(t, artifacts["systemd"], "127.0.0.1:6653")
}

func TestFaucetControllerDriverRejectsMalformedDatapathID(t *testing.T) {
	d, err := drivers.ControllerDriverFor(model.ControllerFaucet)
	require.NoError(t, err)

	ctrl := &model.Controller{Name: "faucet1", DatapathID: "not-hex", OFListenAddr: "127.0.0.1:6653"}
	assert.Error(t, d.Validate(ctrl))
}

func TestControllerDriverForUnknownKindIsValidationError(t *testing.T) {
	_, err := drivers.ControllerDriverFor(model.ControllerKind("bogus"))
	assert.Error(t, err)
}
