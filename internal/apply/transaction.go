// Package apply implements the transactional applier (§4.5): the
// Created→Committed state machine, Delete→Update→Create diff
// ordering, and the seven-step apply sequence with rollback on
// failure. Grounded on spec.md §4.5 directly; external binaries run
// through internal/executil, persistence through internal/clusterstore,
// and NetworkApplied is published through internal/eventbus — the same
// three collaborators the teacher's own higher-level CSI install flows
// thread through a single orchestrating type.
package apply

import (
	"time"

	"github.com/pve-project/pve-network-go/internal/model"
)

// State is one node of the transaction FSM.
type State string

const (
	StateCreated     State = "created"
	StateValidating  State = "validating"
	StateValidated   State = "validated"
	StateApplying    State = "applying"
	StateApplied     State = "applied"
	StateCommitting  State = "committing"
	StateCommitted   State = "committed"
	StateRollingBack State = "rolling_back"
	StateRolledBack  State = "rolled_back"
	StateFailed      State = "failed"
)

// Transaction is the unit of work the applier advances through the
// FSM above.
type Transaction struct {
	ID        string
	Timestamp time.Time
	Original  *model.NetworkConfiguration
	New       *model.NetworkConfiguration
	Diff      []model.NetworkChange
	State     State
	Metadata  map[string]string
}

// Result is apply_configuration's return value (§4.5): success or a
// recorded error, never a silent swallow.
type Result struct {
	TransactionID  string
	Success        bool
	AppliedChanges []model.NetworkChange
	Warnings       []string
	Error          string
	DurationMS     int64
}

// newTransactionID derives a "txn-" id from now at millisecond
// resolution (see formatMillis). The hotplug FSM's "<ts>" suffix uses
// Unix seconds instead.
func newTransactionID(now time.Time) string {
	return "txn-" + formatMillis(now)
}

func formatMillis(t time.Time) string {
	return t.Format("20060102T150405.000")
}

func newTransaction(id string, now time.Time, original, newCfg *model.NetworkConfiguration) *Transaction {
	return &Transaction{
		ID:        id,
		Timestamp: now,
		Original:  original,
		New:       newCfg,
		State:     StateCreated,
		Metadata:  map[string]string{},
	}
}
