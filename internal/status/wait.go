package status

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// fallbackPoll is used when the parent directory cannot be watched, which is
// the case until the server has run once and created Moria/Saved/Config.
const fallbackPoll = 500 * time.Millisecond

// ErrWaitTimeout is returned by WaitForFile when the file does not appear in
// time.
var ErrWaitTimeout = errors.New("timed out waiting for file")

// Stamp identifies one version of a file on disk. The zero Stamp stands for
// a missing file.
type Stamp struct {
	ModTime time.Time
	Size    int64
}

// StampOf returns the current Stamp of path.
func StampOf(path string) Stamp {
	info, err := os.Stat(path)
	if err != nil {
		return Stamp{}
	}
	return Stamp{ModTime: info.ModTime(), Size: info.Size()}
}

// WaitForFile blocks until path exists with a non-zero size, the timeout
// elapses, or ctx is cancelled.
func WaitForFile(ctx context.Context, path string, timeout time.Duration) error {
	return WaitForUpdate(ctx, path, Stamp{}, timeout)
}

// WaitForUpdate is WaitForFile for a file that may already exist: it only
// returns once path holds content whose Stamp differs from since.
func WaitForUpdate(ctx context.Context, path string, since Stamp, timeout time.Duration) error {
	ready := func() bool { return updated(path, since) }
	if ready() {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return pollForFile(ctx, path, ready, timer.C)
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return pollForFile(ctx, path, ready, timer.C)
	}

	// The file may have appeared between the first check and Add.
	if ready() {
		return nil
	}

	target := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("%w: %s", ErrWaitTimeout, path)
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed while waiting for %s", path)
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				// Create can fire before any data is flushed.
				if ready() {
					return nil
				}
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed while waiting for %s", path)
			}
		}
	}
}

func pollForFile(ctx context.Context, path string, ready func() bool, deadline <-chan time.Time) error {
	ticker := time.NewTicker(fallbackPoll)
	defer ticker.Stop()
	for {
		if ready() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("%w: %s", ErrWaitTimeout, path)
		case <-ticker.C:
		}
	}
}

func updated(path string, since Stamp) bool {
	now := StampOf(path)
	return now.Size > 0 && (now.Size != since.Size || !now.ModTime.Equal(since.ModTime))
}
