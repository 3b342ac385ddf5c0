package apply

import (
	"os"
	"path/filepath"

	"github.com/pve-project/pve-network-go/internal/ifaces"
	"github.com/pve-project/pve-network-go/internal/model"
)

// snapshotManager persists the original configuration under the
// transaction id before any destructive step runs (§4.5 step 3), and
// restores it on rollback (step 8).
type snapshotManager struct {
	dir string
}

func newSnapshotManager(dir string) *snapshotManager {
	return &snapshotManager{dir: dir}
}

func (s *snapshotManager) path(id string) string {
	return filepath.Join(s.dir, id+".snapshot")
}

func (s *snapshotManager) save(id string, cfg *model.NetworkConfiguration) error {
	rendered, err := ifaces.Generate(cfg, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return model.NewError(model.KindIO, "create snapshot dir", err)
	}
	return os.WriteFile(s.path(id), []byte(rendered), 0o644)
}

func (s *snapshotManager) load(id string) (string, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return "", model.NewError(model.KindIO, "read snapshot for "+id, err)
	}
	return string(data), nil
}

func (s *snapshotManager) delete(id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return model.NewError(model.KindIO, "delete snapshot for "+id, err)
	}
	return nil
}
