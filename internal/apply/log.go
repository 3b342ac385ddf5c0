package apply

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// logEntry is one line of <logDir>/<id>.log: the transaction's state
// transitions in monotonic timestamp order (§5).
type logEntry struct {
	Timestamp time.Time `json:"timestamp"`
	State     State     `json:"state"`
	Message   string    `json:"message,omitempty"`
}

// transactionLog appends JSON lines to a per-transaction file, the
// operator-visible signal spec.md §4.5 calls out when both apply and
// rollback fail.
type transactionLog struct {
	dir string
	now func() time.Time
}

func newTransactionLog(dir string, now func() time.Time) *transactionLog {
	return &transactionLog{dir: dir, now: now}
}

func (l *transactionLog) path(id string) string {
	return filepath.Join(l.dir, id+".log")
}

func (l *transactionLog) append(id string, state State, message string) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return errors.Wrap(err, "create transaction log dir")
	}
	f, err := os.OpenFile(l.path(id), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "open transaction log")
	}
	defer f.Close()

	line, err := json.Marshal(logEntry{
		Timestamp: l.now(),
		State:     state,
		Message:   message,
	})
	if err != nil {
		return errors.Wrap(err, "marshal transaction log entry")
	}
	line = append(line, '\n')
	_, err = f.Write(line)
	return errors.Wrap(err, "append transaction log entry")
}
