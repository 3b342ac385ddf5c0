package containernet

import (
	"fmt"
	"sync"
	"time"

	"github.com/pve-project/pve-network-go/internal/eventbus"
	"github.com/pve-project/pve-network-go/internal/model"
	"github.com/pve-project/pve-network-go/internal/validate"
)

// OperationType distinguishes a hotplug add from a remove.
type OperationType string

const (
	OperationAdd    OperationType = "add"
	OperationRemove OperationType = "remove"
)

// OperationStatus is a hotplug operation's terminal or in-flight state.
type OperationStatus string

const (
	StatusInProgress OperationStatus = "InProgress"
	StatusCompleted  OperationStatus = "Completed"
	StatusFailed     OperationStatus = "Failed"
)

// Operation is one hotplug add/remove attempt, keyed by an id of the
// form "{add|remove}-<vmid>-<iface>-<ts>" (§4.8).
type Operation struct {
	ID          string
	Container   string
	Interface   string
	Type        OperationType
	Status      OperationStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Error       string
}

// ContainerRuntime is the seam onto the actual container manager; this
// module only needs to know whether a container is running.
type ContainerRuntime interface {
	IsRunning(container string) (bool, error)
}

// Hotplug drives the add/remove state machine: validate, check the
// container is running, bind/unbind the vnet, and publish
// InterfaceAdded/InterfaceRemoved on success.
type Hotplug struct {
	binder  *VNetBinder
	runtime ContainerRuntime
	bus     *eventbus.Bus
	now     func() time.Time

	mu         sync.RWMutex
	operations map[string]*Operation
}

// NewHotplug constructs a Hotplug manager sharing binder's binding
// state, using runtime to check container liveness and bus to publish
// success events.
func NewHotplug(binder *VNetBinder, runtime ContainerRuntime, bus *eventbus.Bus) *Hotplug {
	return &Hotplug{
		binder:     binder,
		runtime:    runtime,
		bus:        bus,
		now:        time.Now,
		operations: map[string]*Operation{},
	}
}

func operationID(kind OperationType, container, iface string, ts time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%d", kind, container, iface, ts.Unix())
}

// Add runs hotplug-add for ifc on container, binding vnet if set.
func (h *Hotplug) Add(container string, ifc *model.Interface, vnet string) (*Operation, error) {
	start := h.now()
	op := &Operation{
		ID:        operationID(OperationAdd, container, ifc.Name, start),
		Container: container,
		Interface: ifc.Name,
		Type:      OperationAdd,
		Status:    StatusInProgress,
		StartedAt: start,
	}
	h.register(op)

	if err := h.guard(container, ifc); err != nil {
		h.fail(op, err)
		return op, err
	}

	if vnet != "" {
		if err := h.binder.BindVNet(vnet, container, ifc); err != nil {
			h.fail(op, err)
			return op, err
		}
	}

	h.complete(op)
	if h.bus != nil {
		h.bus.Publish(eventbus.InterfaceAdded{VMID: container, Interface: ifc.Name})
	}
	return op, nil
}

// Remove runs hotplug-remove for ifc on container, unbinding its
// vnet first if one is bound.
func (h *Hotplug) Remove(container string, ifc *model.Interface) (*Operation, error) {
	start := h.now()
	op := &Operation{
		ID:        operationID(OperationRemove, container, ifc.Name, start),
		Container: container,
		Interface: ifc.Name,
		Type:      OperationRemove,
		Status:    StatusInProgress,
		StartedAt: start,
	}
	h.register(op)

	running, err := h.runtime.IsRunning(container)
	if err != nil {
		h.fail(op, err)
		return op, err
	}
	if !running {
		err := model.NewError(model.KindConflict, "container "+container+" is not running", nil)
		h.fail(op, err)
		return op, err
	}

	if h.binder.IsBound(container, ifc.Name) {
		if err := h.binder.UnbindVNet(container, ifc); err != nil {
			h.fail(op, err)
			return op, err
		}
	}

	h.complete(op)
	if h.bus != nil {
		h.bus.Publish(eventbus.InterfaceRemoved{VMID: container, Interface: ifc.Name})
	}
	return op, nil
}

// guard implements hotplug-add's two pre-conditions: the container
// must be running, and the interface's own config must validate (§4.2).
func (h *Hotplug) guard(container string, ifc *model.Interface) error {
	running, err := h.runtime.IsRunning(container)
	if err != nil {
		return err
	}
	if !running {
		return model.NewError(model.KindConflict, "container "+container+" is not running", nil)
	}

	cfg := &model.NetworkConfiguration{Interfaces: []*model.Interface{ifc}, Order: []string{ifc.Name}}
	if result := validate.Configuration(cfg); !result.OK() {
		return result.Errors
	}
	return nil
}

func (h *Hotplug) register(op *Operation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.operations[op.ID] = op
}

func (h *Hotplug) complete(op *Operation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	op.Status = StatusCompleted
	op.CompletedAt = h.now()
}

func (h *Hotplug) fail(op *Operation, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	op.Status = StatusFailed
	op.CompletedAt = h.now()
	op.Error = err.Error()
}

// GetOperationStatus returns the operation by id, or nil if unknown.
func (h *Hotplug) GetOperationStatus(id string) *Operation {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.operations[id]
}

// ListContainerOperations returns every operation recorded for container.
func (h *Hotplug) ListContainerOperations(container string) []*Operation {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Operation
	for _, op := range h.operations {
		if op.Container == container {
			out = append(out, op)
		}
	}
	return out
}

// CancelOperation marks an in-progress operation Failed with a
// cancellation error; it is a no-op error to cancel anything else.
func (h *Hotplug) CancelOperation(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	op, ok := h.operations[id]
	if !ok {
		return model.NewError(model.KindReference, "hotplug operation "+id+" not found", nil)
	}
	if op.Status != StatusInProgress {
		return model.NewError(model.KindConflict, "hotplug operation "+id+" is not in progress", nil)
	}
	op.Status = StatusFailed
	op.CompletedAt = h.now()
	op.Error = "operation cancelled"
	return nil
}
