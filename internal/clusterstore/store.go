package clusterstore

import (
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/pve-project/pve-network-go/internal/files"
	"github.com/pve-project/pve-network-go/internal/model"
)

const readCacheTTL = 1 * time.Second

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// Store is the path-scoped cluster-file wrapper rooted at base
// (normally /etc/pve). Reads are served from a short-TTL cache;
// writes invalidate the matching key and, for the "sdn" prefix,
// trigger a cluster sync.
type Store struct {
	base   string
	node   string
	log    *zap.SugaredLogger
	cache  *lru.Cache[string, cacheEntry]
	now    func() time.Time
	sleep  func(time.Duration)
}

// Option configures a Store at construction.
type Option func(*Store)

// WithClock overrides the time source, for deterministic lock/cache tests.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(s *Store) {
		s.now = now
		s.sleep = sleep
	}
}

// New constructs a Store rooted at base for the given cluster node
// name. cacheSize bounds the read cache's entry count (the TTL bounds
// its staleness, golang-lru bounds its size).
func New(base, node string, cacheSize int, log *zap.SugaredLogger, opts ...Option) (*Store, error) {
	cache, err := lru.New[string, cacheEntry](cacheSize)
	if err != nil {
		return nil, model.NewError(model.KindIO, "construct read cache", err)
	}
	s := &Store{
		base:  base,
		node:  node,
		log:   log,
		cache: cache,
		now:   time.Now,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) abs(rel string) string {
	return filepath.Join(s.base, rel)
}

// readCached serves rel from the cache when a fresh entry exists,
// otherwise reads through to disk and populates the cache.
func (s *Store) readCached(rel string) ([]byte, error) {
	if entry, ok := s.cache.Get(rel); ok && s.now().Before(entry.expiresAt) {
		return entry.data, nil
	}

	data, err := os.ReadFile(s.abs(rel))
	if err != nil {
		return nil, model.NewError(model.KindIO, "read "+rel, err)
	}
	s.cache.Add(rel, cacheEntry{data: data, expiresAt: s.now().Add(readCacheTTL)})
	return data, nil
}

// writeAtomic invalidates rel's cache entry and writes it via
// internal/files' temp-file + rename helper so readers never see a
// partial write.
func (s *Store) writeAtomic(rel string, data []byte) error {
	s.cache.Remove(rel)

	if err := files.WriteAtomic(s.abs(rel), data, 0o644); err != nil {
		return model.NewError(model.KindIO, "write "+rel, err)
	}
	return nil
}

// ReadNodeNetworkConfig reads /etc/network/interfaces-equivalent
// content for node: <base>/nodes/<node>/interfaces.
func (s *Store) ReadNodeNetworkConfig(node string) ([]byte, error) {
	return s.readCached(filepath.Join("nodes", node, "interfaces"))
}

// WriteNodeNetworkConfig writes a node's interfaces(5) content.
func (s *Store) WriteNodeNetworkConfig(node string, content []byte) error {
	if err := s.writeAtomic(filepath.Join("nodes", node, "interfaces"), content); err != nil {
		return err
	}
	return s.SyncConfiguration("nodes/" + node)
}

// GetClusterNodes lists node directories under <base>/nodes.
func (s *Store) GetClusterNodes() ([]string, error) {
	entries, err := os.ReadDir(s.abs("nodes"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, model.NewError(model.KindIO, "list cluster nodes", err)
	}
	var nodes []string
	for _, e := range entries {
		if e.IsDir() {
			nodes = append(nodes, e.Name())
		}
	}
	return nodes, nil
}

// VerifyClusterSync reports whether path exists and is readable — a
// stand-in for the real cluster filesystem's propagation guarantee,
// which this process observes rather than drives.
func (s *Store) VerifyClusterSync(path string) error {
	if _, err := os.Stat(s.abs(path)); err != nil {
		return model.NewError(model.KindIO, "verify cluster sync for "+path, err)
	}
	return nil
}

// SyncConfiguration triggers propagation of everything under prefix.
// On the real cluster filesystem this is implicit; here it only emits
// a debug log line and does not touch the read cache.
func (s *Store) SyncConfiguration(prefix string) error {
	s.log.Debugw("cluster sync triggered", "prefix", prefix)
	return nil
}
