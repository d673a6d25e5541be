package management

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KevinTCoughlin/moria-server-manager/internal/ui"
)

// DefaultKeepBackups is the number of archives kept when none is configured.
const DefaultKeepBackups = 5

// SaveDir returns the directory holding the dedicated server's world saves.
func SaveDir(serverDir string) string {
	return filepath.Join(serverDir, "Moria", "Saved", "SaveGamesDedicated")
}

// Backup creates a compressed backup of the world saves with rotation.
func Backup(ctx context.Context, serverDir string, maxBackups int, mgr ServerManager, output *ui.UI) error {
	saves := SaveDir(serverDir)
	if info, err := os.Stat(saves); err != nil || !info.IsDir() {
		output.Warn("No world saves found in %s", saves)
		return nil
	}

	// The server has no save command, so a live backup may catch a world
	// mid-write.
	if mgr != nil && mgr.CheckStatus(ctx) == StatusRunning {
		output.Warn("Server is running; stop it first for a consistent backup")
	}

	backupDir := filepath.Join(serverDir, "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("creating backup dir: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	backupFile := filepath.Join(backupDir, fmt.Sprintf("world_%s.tar.gz", timestamp))

	output.Info("Creating backup: %s", backupFile)
	if err := createTarGz(ctx, backupFile, serverDir, saves); err != nil {
		_ = os.Remove(backupFile)
		return fmt.Errorf("creating backup archive: %w", err)
	}

	if maxBackups <= 0 {
		maxBackups = DefaultKeepBackups
	}
	rotateBackups(backupDir, maxBackups, output)

	info, err := os.Stat(backupFile)
	if err == nil {
		output.Success("Backup complete: %s (%s)", backupFile, formatSize(info.Size()))
	}
	return nil
}

// createTarGz archives root into dest with names relative to baseDir.
func createTarGz(ctx context.Context, dest, baseDir, root string) (err error) {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(baseDir, path)
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(tw, file)
		return err
	})

	return errors.Join(walkErr, tw.Close(), gz.Close())
}

func rotateBackups(backupDir string, maxBackups int, output *ui.UI) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return
	}

	var backups []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "world_") && strings.HasSuffix(e.Name(), ".tar.gz") {
			backups = append(backups, filepath.Join(backupDir, e.Name()))
		}
	}

	if len(backups) <= maxBackups {
		return
	}

	sort.Strings(backups) // Sorted by timestamp in name
	toRemove := backups[:len(backups)-maxBackups]
	for _, f := range toRemove {
		if err := os.Remove(f); err != nil {
			output.Warn("Could not remove old backup %s: %v", f, err)
		}
	}
	output.Info("Rotated old backups (keeping %d)", maxBackups)
}

func formatSize(bytes int64) string {
	const mb = 1024 * 1024
	if bytes >= mb {
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	}
	return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
}
