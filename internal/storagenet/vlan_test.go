package storagenet_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pve-project/pve-network-go/internal/eventbus"
	"github.com/pve-project/pve-network-go/internal/storagenet"
)

type fakeRunner struct {
	calls [][]string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return "", nil
}

func (r *fakeRunner) ran(prefix ...string) bool {
	for _, call := range r.calls {
		if len(call) < len(prefix) {
			continue
		}
		match := true
		for i, p := range prefix {
			if call[i] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestCreateStorageVlanBringsUpDeviceAndChain(t *testing.T) {
	runner := &fakeRunner{}
	bus := eventbus.New(2, 8, zap.NewNop().Sugar())
	defer bus.StopAndWait()

	var published []string
	bus.Subscribe("watcher", func(ev eventbus.Event) {
		published = append(published, ev.Kind())
	})

	m := storagenet.NewVlanManager(runner, bus)
	cfg := &storagenet.VlanConfig{
		BaseInterface: "eth1",
		Tag:           100,
		Subnet:        "10.10.0.0/24",
		MTU:           9000,
	}

	v, err := m.CreateStorageVlan(context.Background(), "nfs-isolated", cfg)
	require.NoError(t, err)
	assert.Equal(t, "eth1.100", v.Interface)

	assert.True(t, runner.ran("ip", "link", "add", "link", "eth1", "name", "eth1.100"))
	assert.True(t, runner.ran("ip", "link", "set", "eth1.100", "mtu", "9000"))
	assert.True(t, runner.ran("iptables", "-N", "STORAGE_100"))
	assert.True(t, runner.ran("iptables", "-I", "FORWARD", "-i", "eth1.100"))
}

func TestCreateStorageVlanAppliesShapingWhenBandwidthLimitSet(t *testing.T) {
	runner := &fakeRunner{}
	m := storagenet.NewVlanManager(runner, nil)
	cfg := &storagenet.VlanConfig{
		BaseInterface: "eth1",
		Tag:           200,
		QoS:           &storagenet.QoS{BandwidthLimitMbps: 100},
	}

	_, err := m.CreateStorageVlan(context.Background(), "cifs-shaped", cfg)
	require.NoError(t, err)
	assert.True(t, runner.ran("tc", "qdisc", "add", "dev", "eth1.200"))
	assert.True(t, runner.ran("tc", "class", "add", "dev", "eth1.200"))
}

func TestCreateStorageVlanRejectsOutOfRangeTag(t *testing.T) {
	m := storagenet.NewVlanManager(&fakeRunner{}, nil)
	_, err := m.CreateStorageVlan(context.Background(), "x", &storagenet.VlanConfig{BaseInterface: "eth1", Tag: 5000})
	assert.Error(t, err)
}

func TestCreateStorageVlanRejectsMalformedSubnet(t *testing.T) {
	m := storagenet.NewVlanManager(&fakeRunner{}, nil)
	_, err := m.CreateStorageVlan(context.Background(), "x", &storagenet.VlanConfig{BaseInterface: "eth1", Tag: 10, Subnet: "not-a-cidr"})
	assert.Error(t, err)
}

func TestRemoveStorageVlanTearsDownInReverseOrder(t *testing.T) {
	runner := &fakeRunner{}
	m := storagenet.NewVlanManager(runner, nil)
	_, err := m.CreateStorageVlan(context.Background(), "nfs-isolated", &storagenet.VlanConfig{BaseInterface: "eth1", Tag: 100})
	require.NoError(t, err)

	require.NoError(t, m.RemoveStorageVlan(context.Background(), "nfs-isolated"))
	assert.True(t, runner.ran("ip", "link", "del", "eth1.100"))
	assert.True(t, runner.ran("iptables", "-X", "STORAGE_100"))

	_, err = m.RemoveStorageVlan(context.Background(), "nfs-isolated")
	assert.Error(t, err)
}

func TestListReturnsAllCreatedVlans(t *testing.T) {
	m := storagenet.NewVlanManager(&fakeRunner{}, nil)
	_, err := m.CreateStorageVlan(context.Background(), "a", &storagenet.VlanConfig{BaseInterface: "eth1", Tag: 10})
	require.NoError(t, err)
	_, err = m.CreateStorageVlan(context.Background(), "b", &storagenet.VlanConfig{BaseInterface: "eth1", Tag: 20})
	require.NoError(t, err)

	assert.Len(t, m.List(), 2)
}
