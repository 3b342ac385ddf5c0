package apply

import (
	"bytes"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pve-project/pve-network-go/internal/clusterstore"
	"github.com/pve-project/pve-network-go/internal/eventbus"
	"github.com/pve-project/pve-network-go/internal/executil"
	"github.com/pve-project/pve-network-go/internal/ifaces"
	"github.com/pve-project/pve-network-go/internal/model"
	"github.com/pve-project/pve-network-go/internal/validate"
)

const interfacesPath = "interfaces"

// Applier drives the transaction FSM end to end. One Applier is
// shared process-wide; active transactions are serialized through a
// mutex-guarded map (§5: "the applier serializes through one in-memory
// mutable map of active transactions").
type Applier struct {
	cluster  *clusterstore.Store
	runner   executil.Runner
	bus      *eventbus.Bus
	log      *zap.SugaredLogger
	txnLog   *transactionLog
	snapshot *snapshotManager
	node     string

	mu     sync.Mutex
	active map[string]*Transaction

	now func() time.Time
}

// New constructs an Applier. logDir is the transaction log/snapshot
// root, normally /var/log/pve-network/transactions.
func New(cluster *clusterstore.Store, runner executil.Runner, bus *eventbus.Bus, node, logDir string, log *zap.SugaredLogger) *Applier {
	now := time.Now
	return &Applier{
		cluster:  cluster,
		runner:   runner,
		bus:      bus,
		log:      log,
		txnLog:   newTransactionLog(logDir, now),
		snapshot: newSnapshotManager(logDir),
		node:     node,
		active:   map[string]*Transaction{},
		now:      now,
	}
}

func (a *Applier) transition(txn *Transaction, state State, message string) {
	txn.State = state
	if err := a.txnLog.append(txn.ID, state, message); err != nil {
		a.log.Errorw("failed to append transaction log", "txn", txn.ID, "err", err)
	}
}

// Apply runs the full seven-step sequence (§4.5) against newCfg,
// diffed against the node's current configuration, and returns a
// Result that never silently swallows failure.
func (a *Applier) Apply(ctx context.Context, newCfg *model.NetworkConfiguration) *Result {
	start := a.now()

	oldRaw, err := a.cluster.ReadNodeNetworkConfig(a.node)
	var oldCfg *model.NetworkConfiguration
	if err != nil {
		oldCfg = &model.NetworkConfiguration{}
	} else {
		oldCfg, err = ifaces.Parse(bytes.NewReader(oldRaw))
		if err != nil {
			return &Result{Success: false, Error: err.Error(), DurationMS: a.elapsedMS(start)}
		}
	}

	txn := newTransaction(newTransactionID(a.now()), a.now(), oldCfg, newCfg)
	a.registerActive(txn)
	defer a.unregisterActive(txn)

	diff, err := ComputeDiff(oldCfg, newCfg)
	if err != nil {
		a.transition(txn, StateFailed, err.Error())
		return &Result{TransactionID: txn.ID, Success: false, Error: err.Error(), DurationMS: a.elapsedMS(start)}
	}
	txn.Diff = diff

	if res := a.runSequence(ctx, txn); res != nil {
		res.DurationMS = a.elapsedMS(start)
		return res
	}

	return &Result{
		TransactionID:  txn.ID,
		Success:        true,
		AppliedChanges: txn.Diff,
		DurationMS:     a.elapsedMS(start),
	}
}

// runSequence executes steps 1-7, falling to rollback on any failure.
// Returns nil on success.
func (a *Applier) runSequence(ctx context.Context, txn *Transaction) *Result {
	// Step 1: Validating.
	a.transition(txn, StateValidating, "running validator")
	if result := validate.Configuration(txn.New); !result.OK() {
		a.transition(txn, StateFailed, result.Errors.Error())
		return &Result{TransactionID: txn.ID, Success: false, Error: result.Errors.Error()}
	}
	a.transition(txn, StateValidated, "validation passed")

	// Step 2: Dry-run.
	rendered, err := ifaces.Generate(txn.New, true)
	if err != nil {
		a.transition(txn, StateFailed, err.Error())
		return &Result{TransactionID: txn.ID, Success: false, Error: err.Error()}
	}
	if _, err := a.runner.Run(ctx, "ifupdown2", "--dry-run"); err != nil {
		a.transition(txn, StateFailed, err.Error())
		return &Result{TransactionID: txn.ID, Success: false, Error: err.Error()}
	}

	// Step 3: Snapshot.
	if err := a.snapshot.save(txn.ID, txn.Original); err != nil {
		a.transition(txn, StateFailed, err.Error())
		return &Result{TransactionID: txn.ID, Success: false, Error: err.Error()}
	}

	// Step 4: Applying — bring deleted interfaces down first.
	a.transition(txn, StateApplying, "applying diff")
	for _, change := range txn.Diff {
		if change.ChangeType != model.ChangeDelete {
			continue
		}
		if _, err := a.runner.Run(ctx, "ip", "link", "set", change.Target, "down"); err != nil {
			a.log.Warnw("failed to bring interface down before removal", "interface", change.Target, "err", err)
		}
	}
	a.transition(txn, StateApplied, "diff applied")

	// Step 5: Write.
	if err := a.cluster.WriteNodeNetworkConfig(a.node, []byte(rendered)); err != nil {
		return a.rollback(ctx, txn, err)
	}

	// Step 6: Reload.
	if _, err := a.runner.Run(ctx, "ifupdown2", "--reload"); err != nil {
		return a.rollback(ctx, txn, err)
	}

	// Step 7: Committing.
	a.transition(txn, StateCommitting, "triggering cluster sync")
	if err := a.cluster.VerifyClusterSync("nodes/" + a.node); err != nil {
		a.log.Warnw("cluster sync verification failed", "err", err)
	}
	if err := a.snapshot.delete(txn.ID); err != nil {
		a.log.Warnw("failed to delete rollback snapshot", "txn", txn.ID, "err", err)
	}
	if a.bus != nil {
		a.bus.Publish(eventbus.NetworkApplied{Changes: txn.Diff})
	}
	a.transition(txn, StateCommitted, "committed")

	return nil
}

// rollback implements step 8: write back the original configuration,
// reload, and report both the triggering error and any rollback
// failure rather than swallowing either.
func (a *Applier) rollback(ctx context.Context, txn *Transaction, cause error) *Result {
	a.transition(txn, StateRollingBack, cause.Error())

	original, loadErr := a.snapshot.load(txn.ID)
	if loadErr != nil {
		a.transition(txn, StateFailed, loadErr.Error())
		return &Result{
			TransactionID: txn.ID,
			Success:       false,
			Error:         cause.Error() + "; rollback failed: " + loadErr.Error(),
		}
	}

	if err := a.cluster.WriteNodeNetworkConfig(a.node, []byte(original)); err != nil {
		a.transition(txn, StateFailed, err.Error())
		return &Result{
			TransactionID: txn.ID,
			Success:       false,
			Error:         cause.Error() + "; rollback failed: " + err.Error(),
		}
	}
	if _, err := a.runner.Run(ctx, "ifupdown2", "--reload"); err != nil {
		a.transition(txn, StateFailed, err.Error())
		return &Result{
			TransactionID: txn.ID,
			Success:       false,
			Error:         cause.Error() + "; rollback reload failed: " + err.Error(),
		}
	}

	a.transition(txn, StateRolledBack, "rolled back")
	return &Result{TransactionID: txn.ID, Success: false, Error: cause.Error()}
}

func (a *Applier) registerActive(txn *Transaction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active[txn.ID] = txn
}

func (a *Applier) unregisterActive(txn *Transaction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.active, txn.ID)
}

func (a *Applier) elapsedMS(start time.Time) int64 {
	return a.now().Sub(start).Milliseconds()
}
