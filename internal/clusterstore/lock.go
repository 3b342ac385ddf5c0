// Package clusterstore implements the path-scoped cluster-file store
// (§4.6): a filesystem wrapper rooted at a well-known base (normally
// /etc/pve), on-disk JSON lock sentinels with staleness detection, and
// a short-TTL read cache. Grounded on the teacher's pkg/csm (the
// closest analogue to a shared-cluster-state client in the pack) for
// its "read-through cache, write-invalidates" shape, and on
// internal/files for JSON encode/decode conventions.
package clusterstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/pve-project/pve-network-go/internal/model"
)

const (
	lockTTL       = 30 * time.Second
	lockRetryWait = 100 * time.Millisecond
)

// LockSentinel is the on-disk shape of <base>/.locks/<name>.lock.
type LockSentinel struct {
	Node      string `json:"node"`
	PID       int    `json:"pid"`
	Timestamp int64  `json:"timestamp"`
	Operation string `json:"operation"`
}

// Lock represents a held cluster lock; Release must be called exactly
// once to remove the sentinel file.
type Lock struct {
	store *Store
	name  string
	path  string
}

// Release removes the lock sentinel, making the resource available to
// the next acquirer.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return model.NewError(model.KindIO, "release lock "+l.name, err)
	}
	return nil
}

func (s *Store) lockPath(name string) string {
	return filepath.Join(s.base, ".locks", name+".lock")
}

// AcquireLock implements §4.6's three-step acquisition protocol: break
// a stale sentinel (age >= 30s or its pid no longer exists), otherwise
// busy-wait 100ms and retry until the 30s budget expires, then fail
// with a KindLock error.
func (s *Store) AcquireLock(name, operation string) (*Lock, error) {
	path := s.lockPath(name)
	deadline := s.now().Add(lockTTL)

	for {
		if err := s.tryBreakStale(path); err != nil {
			return nil, err
		}

		sentinel := LockSentinel{
			Node:      s.node,
			PID:       os.Getpid(),
			Timestamp: s.now().Unix(),
			Operation: operation,
		}
		data, err := json.MarshalIndent(sentinel, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "marshal lock sentinel")
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, model.NewError(model.KindIO, "create locks dir", err)
		}

		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			if _, werr := f.Write(data); werr != nil {
				f.Close()
				os.Remove(path)
				return nil, model.NewError(model.KindIO, "write lock sentinel", werr)
			}
			f.Close()
			return &Lock{store: s, name: name, path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, model.NewError(model.KindIO, "create lock sentinel", err)
		}

		if s.now().After(deadline) {
			return nil, model.NewError(
				model.KindLock,
				fmt.Sprintf("could not acquire lock %q within %s", name, lockTTL),
				nil,
			)
		}
		s.sleep(lockRetryWait)
	}
}

// tryBreakStale removes the sentinel at path if it is stale, per §4.6
// step 1. It is a no-op (not an error) when no sentinel exists yet.
func (s *Store) tryBreakStale(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return model.NewError(model.KindIO, "read lock sentinel", err)
	}

	var sentinel LockSentinel
	if err := json.Unmarshal(data, &sentinel); err != nil {
		// Unreadable sentinel: treat as stale rather than wedging forever.
		return os.Remove(path)
	}

	age := s.now().Sub(time.Unix(sentinel.Timestamp, 0))
	if age >= lockTTL || !pidAlive(sentinel.PID) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return model.NewError(model.KindIO, "remove stale lock sentinel", err)
		}
	}
	return nil
}

func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	_, err := os.Stat("/proc/" + strconv.Itoa(pid))
	return err == nil
}

// WithLock acquires name, runs f, and releases the lock unconditionally.
func (s *Store) WithLock(name, operation string, f func() error) error {
	lock, err := s.AcquireLock(name, operation)
	if err != nil {
		return err
	}
	defer lock.Release()
	return f()
}
