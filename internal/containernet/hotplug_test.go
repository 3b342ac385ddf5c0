package containernet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pve-project/pve-network-go/internal/containernet"
	"github.com/pve-project/pve-network-go/internal/eventbus"
	"github.com/pve-project/pve-network-go/internal/model"
)

type fakeRuntime struct{ running map[string]bool }

func (f *fakeRuntime) IsRunning(container string) (bool, error) {
	return f.running[container], nil
}

func TestHotplugAddBindsVNetAndCompletes(t *testing.T) {
	binder := containernet.NewVNetBinder()
	runtime := &fakeRuntime{running: map[string]bool{"100": true}}
	bus := eventbus.New(2, 8, zap.NewNop().Sugar())
	defer bus.StopAndWait()

	h := containernet.NewHotplug(binder, runtime, bus)
	ifc := &model.Interface{Name: "eth0", Kind: model.KindPhysical, AddressMethod: model.MethodManual}

	op, err := h.Add("100", ifc, "vnet1")
	require.NoError(t, err)
	assert.Equal(t, containernet.StatusCompleted, op.Status)
	assert.Equal(t, "vnet1", ifc.VNet)
	assert.Contains(t, op.ID, "add-100-eth0-")
}

func TestHotplugAddFailsWhenContainerNotRunning(t *testing.T) {
	binder := containernet.NewVNetBinder()
	runtime := &fakeRuntime{running: map[string]bool{}}
	bus := eventbus.New(2, 8, zap.NewNop().Sugar())
	defer bus.StopAndWait()

	h := containernet.NewHotplug(binder, runtime, bus)
	ifc := &model.Interface{Name: "eth0", Kind: model.KindPhysical, AddressMethod: model.MethodManual}

	op, err := h.Add("100", ifc, "")
	require.Error(t, err)
	assert.Equal(t, containernet.StatusFailed, op.Status)
	assert.NotEmpty(t, op.Error)
}

func TestHotplugRemoveUnbindsVNet(t *testing.T) {
	binder := containernet.NewVNetBinder()
	runtime := &fakeRuntime{running: map[string]bool{"100": true}}
	bus := eventbus.New(2, 8, zap.NewNop().Sugar())
	defer bus.StopAndWait()

	ifc := &model.Interface{Name: "eth0"}
	require.NoError(t, binder.BindVNet("vnet1", "100", ifc))

	h := containernet.NewHotplug(binder, runtime, bus)
	op, err := h.Remove("100", ifc)
	require.NoError(t, err)
	assert.Equal(t, containernet.StatusCompleted, op.Status)
	assert.Empty(t, ifc.VNet)
}

func TestGetOperationStatusAndListContainerOperations(t *testing.T) {
	binder := containernet.NewVNetBinder()
	runtime := &fakeRuntime{running: map[string]bool{"100": true}}
	bus := eventbus.New(2, 8, zap.NewNop().Sugar())
	defer bus.StopAndWait()

	h := containernet.NewHotplug(binder, runtime, bus)
	ifc := &model.Interface{Name: "eth0", Kind: model.KindPhysical, AddressMethod: model.MethodManual}
	op, err := h.Add("100", ifc, "")
	require.NoError(t, err)

	got := h.GetOperationStatus(op.ID)
	require.NotNil(t, got)
	assert.Equal(t, op.ID, got.ID)

	ops := h.ListContainerOperations("100")
	require.Len(t, ops, 1)
}

func TestCancelOperationOnlyAffectsInProgress(t *testing.T) {
	binder := containernet.NewVNetBinder()
	runtime := &fakeRuntime{running: map[string]bool{"100": true}}
	bus := eventbus.New(2, 8, zap.NewNop().Sugar())
	defer bus.StopAndWait()

	h := containernet.NewHotplug(binder, runtime, bus)
	ifc := &model.Interface{Name: "eth0", Kind: model.KindPhysical, AddressMethod: model.MethodManual}
	op, err := h.Add("100", ifc, "")
	require.NoError(t, err)

	// op is already Completed; cancelling it must fail.
	err = h.CancelOperation(op.ID)
	assert.Error(t, err)

	err = h.CancelOperation("does-not-exist")
	assert.Error(t, err)
	var modelErr *model.Error
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, model.KindReference, modelErr.Kind)
}
