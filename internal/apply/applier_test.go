package apply_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pve-project/pve-network-go/internal/apply"
	"github.com/pve-project/pve-network-go/internal/clusterstore"
	"github.com/pve-project/pve-network-go/internal/eventbus"
	"github.com/pve-project/pve-network-go/internal/model"
)

func buildSimpleConfig() *model.NetworkConfiguration {
	return &model.NetworkConfiguration{
		Interfaces: []*model.Interface{
			{Name: "lo", Kind: model.KindLoopback, AddressMethod: model.MethodNone, Auto: true},
			{Name: "eth0", Kind: model.KindPhysical, AddressMethod: model.MethodManual},
		},
		Order: []string{"lo", "eth0"},
	}
}

func joinCalls(calls []string) string {
	return strings.Join(calls, "; ")
}

// fakeRunner lets tests inject a failure at a named step without
// invoking a real ifupdown2/ip binary.
type fakeRunner struct {
	failOn map[string]bool
	calls  []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	key := name
	if len(args) > 0 {
		key = name + " " + args[0]
	}
	f.calls = append(f.calls, key)
	if f.failOn[key] {
		return "", assertErr{key}
	}
	return "", nil
}

type assertErr struct{ step string }

func (e assertErr) Error() string { return e.step + " failed" }

func newTestApplier(t *testing.T, runner *fakeRunner) (*apply.Applier, string) {
	t.Helper()
	base := t.TempDir()
	logDir := t.TempDir()
	cluster, err := clusterstore.New(base, "node1", 64, zap.NewNop().Sugar())
	require.NoError(t, err)

	bus := eventbus.New(2, 8, zap.NewNop().Sugar())
	t.Cleanup(bus.StopAndWait)

	a := apply.New(cluster, runner, bus, "node1", logDir, zap.NewNop().Sugar())
	return a, base
}

// Scenario 3: a reload failure after a successful write triggers
// rollback, and the result reports failure without panicking.
func TestApplyRollsBackOnReloadFailure(t *testing.T) {
	runner := &fakeRunner{failOn: map[string]bool{"ifupdown2 --reload": true}}
	a, _ := newTestApplier(t, runner)

	cfg := buildSimpleConfig()
	result := a.Apply(context.Background(), cfg)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Contains(t, joinCalls(runner.calls), "ifupdown2 --reload")
}

// P-4: a dry-run failure fails the transaction before any write happens.
func TestApplyFailsOnDryRunFailure(t *testing.T) {
	runner := &fakeRunner{failOn: map[string]bool{"ifupdown2 --dry-run": true}}
	a, base := newTestApplier(t, runner)

	cfg := buildSimpleConfig()
	result := a.Apply(context.Background(), cfg)

	assert.False(t, result.Success)
	_, statErr := os.Stat(base + "/nodes/node1/interfaces")
	assert.Error(t, statErr, "no write should happen when dry-run fails")
}

func TestApplySucceeds(t *testing.T) {
	runner := &fakeRunner{failOn: map[string]bool{}}
	a, _ := newTestApplier(t, runner)

	cfg := buildSimpleConfig()
	result := a.Apply(context.Background(), cfg)

	require.True(t, result.Success)
	assert.NotEmpty(t, result.TransactionID)
}
