package clusterstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pve-project/pve-network-go/internal/clusterstore"
)

func newStore(t *testing.T) *clusterstore.Store {
	t.Helper()
	s, err := clusterstore.New(t.TempDir(), "node1", 64, zap.NewNop().Sugar())
	require.NoError(t, err)
	return s
}

func TestNodeNetworkConfigRoundTrip(t *testing.T) {
	s := newStore(t)
	content := []byte("auto lo\niface lo inet loopback\n")
	require.NoError(t, s.WriteNodeNetworkConfig("node1", content))

	got, err := s.ReadNodeNetworkConfig("node1")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

// P-7: concurrent acquisition of the same lock name is serialized —
// the second acquirer only succeeds after the first releases.
func TestLockMutualExclusion(t *testing.T) {
	s := newStore(t)

	l1, err := s.AcquireLock("network", "apply")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		l2, err := s.AcquireLock("network", "apply")
		require.NoError(t, err)
		close(done)
		l2.Release()
	}()

	select {
	case <-done:
		t.Fatal("second acquisition should block while first lock is held")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, l1.Release())
	<-done
}

// P-8: a lock sentinel older than the TTL is broken and reacquired
// without waiting out the full retry budget.
func TestStaleLockIsBroken(t *testing.T) {
	base := t.TempDir()
	var current time.Time
	now := func() time.Time { return current }
	sleep := func(time.Duration) { current = current.Add(200 * time.Millisecond) }

	s, err := clusterstore.New(base, "node1", 16, zap.NewNop().Sugar(), clusterstore.WithClock(now, sleep))
	require.NoError(t, err)

	current = time.Now()
	l1, err := s.AcquireLock("network", "apply")
	require.NoError(t, err)
	_ = l1 // simulate a crash: never released

	current = current.Add(31 * time.Second)
	l2, err := s.AcquireLock("network", "apply")
	require.NoError(t, err, "stale sentinel (age >= 30s) must be broken")
	require.NoError(t, l2.Release())
}
