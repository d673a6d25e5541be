//go:build !windows

package platform

import (
	"fmt"
	"os"

	"github.com/google/renameio/v2"
)

// WriteFileAtomic replaces path with data so that readers see either the
// old or the new content, never a partial write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := renameio.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("atomically writing %s: %w", path, err)
	}
	return nil
}
