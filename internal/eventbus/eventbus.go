// Package eventbus implements the typed pub/sub broadcast (§4.7):
// listeners register by name and receive every published event,
// fan-out-best-effort with per-listener error isolation. Grounded on
// spec.md §4.7 directly; the worker pool is alitto/pond (pulled from
// orbstack-swift-nio's go.mod), sized at construction so a blocking
// listener cannot stall the publisher or other listeners.
package eventbus

import (
	"fmt"

	"github.com/alitto/pond"
	"go.uber.org/zap"

	"github.com/pve-project/pve-network-go/internal/model"
)

// Event is the common envelope every published value satisfies; kind
// selects the dispatch name logged on listener failure.
type Event interface {
	Kind() string
}

// NetworkApplied is published by the applier on successful commit.
type NetworkApplied struct {
	Changes []model.NetworkChange
}

func (NetworkApplied) Kind() string { return "NetworkApplied" }

// ContainerStarted/ContainerStopped are published by the container
// integration layer around lifecycle transitions.
type ContainerStarted struct{ ID string }
type ContainerStopped struct{ ID string }

func (ContainerStarted) Kind() string { return "ContainerStarted" }
func (ContainerStopped) Kind() string { return "ContainerStopped" }

// InterfaceAdded/InterfaceRemoved are published by the hotplug FSM.
type InterfaceAdded struct {
	VMID      string
	Interface string
}
type InterfaceRemoved struct {
	VMID      string
	Interface string
}

func (InterfaceAdded) Kind() string   { return "InterfaceAdded" }
func (InterfaceRemoved) Kind() string { return "InterfaceRemoved" }

// StorageVlanCreated is published once a storage-network VLAN's
// iptables chain and shaping are installed.
type StorageVlanCreated struct{ ID string }

func (StorageVlanCreated) Kind() string { return "StorageVlanCreated" }

// ContainerMigrated is a supplemented event (§4.10) naming a container
// and the source and destination nodes of its migration, so listeners
// don't have to infer migration from a Stopped+Started pair on two
// nodes. It does not carry the container's vnet bindings.
type ContainerMigrated struct {
	ID         string
	FromNode   string
	ToNode     string
}

func (ContainerMigrated) Kind() string { return "ContainerMigrated" }

// Listener receives every event published after it registers.
type Listener func(Event)

// Bus is the process-wide event broadcaster.
type Bus struct {
	pool      *pond.WorkerPool
	log       *zap.SugaredLogger
	listeners map[string]Listener
}

// New constructs a Bus whose fan-out runs on a pool of maxWorkers
// goroutines with up to queueSize pending tasks.
func New(maxWorkers, queueSize int, log *zap.SugaredLogger) *Bus {
	return &Bus{
		pool:      pond.New(maxWorkers, queueSize),
		log:       log,
		listeners: map[string]Listener{},
	}
}

// Subscribe registers l under name, replacing any prior listener with
// the same name.
func (b *Bus) Subscribe(name string, l Listener) {
	b.listeners[name] = l
}

// Unsubscribe removes a listener by name.
func (b *Bus) Unsubscribe(name string) {
	delete(b.listeners, name)
}

// Publish dispatches ev to every registered listener as one pool task
// each; a listener panic or the bus shutting down never blocks the
// caller or other listeners (fan-out-best-effort, §4.7). Publish does
// not wait for delivery to complete.
func (b *Bus) Publish(ev Event) {
	for name, l := range b.listeners {
		name, l := name, l
		b.pool.Submit(func() {
			defer func() {
				if r := recover(); r != nil {
					b.log.Errorw("listener panicked", "listener", name, "event", ev.Kind(), "panic", fmt.Sprint(r))
				}
			}()
			l(ev)
		})
	}
}

// StopAndWait drains the pool, waiting for in-flight dispatches to finish.
func (b *Bus) StopAndWait() {
	b.pool.StopAndWait()
}
