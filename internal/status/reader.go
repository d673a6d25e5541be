package status

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the name of the file the server writes its live state to.
const FileName = "Status.json"

var (
	// ErrNotFound means the status file does not exist yet. This is the
	// normal state of a server that has never been started.
	ErrNotFound = errors.New("status file not found")
	// ErrMalformed means the file exists but is not a valid status object,
	// typically because the server is in the middle of rewriting it.
	ErrMalformed = errors.New("malformed status file")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FilePath returns the location of Status.json under a server install.
func FilePath(serverDir string) string {
	return filepath.Join(serverDir, "Moria", "Saved", "Config", FileName)
}

// Source produces snapshots for a server directory.
type Source interface {
	Read(serverDir string) Snapshot
}

// Reader reads Status.json from disk. Every call goes to disk.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a Reader. A nil logger uses slog.Default().
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Load parses the status file at path. It returns ErrNotFound when the file
// does not exist and an error wrapping ErrMalformed when it cannot be parsed.
func (r *Reader) Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("reading %s: %w", path, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w %s: %v", ErrMalformed, path, err)
	}
	return snap, nil
}

// ReadFile is Load without the error: a missing, unreadable or malformed
// file yields the zero Snapshot.
func (r *Reader) ReadFile(path string) Snapshot {
	snap, err := r.Load(path)
	switch {
	case err == nil:
		return snap
	case errors.Is(err, ErrNotFound):
		r.logger.Debug("status file not found", "path", path)
	case errors.Is(err, ErrMalformed):
		r.logger.Warn("ignoring unparseable status file", "path", path, "err", err)
	default:
		r.logger.Error("reading status file", "path", path, "err", err)
	}
	return Snapshot{}
}

// Read returns the current snapshot for a server install.
func (r *Reader) Read(serverDir string) Snapshot {
	return r.ReadFile(FilePath(serverDir))
}
