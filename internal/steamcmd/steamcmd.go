// Package steamcmd installs SteamCMD and uses it to install or update the
// Return to Moria dedicated server.
package steamcmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
	"github.com/KevinTCoughlin/moria-server-manager/internal/ui"
)

// AppID is the Steam app ID of the Return to Moria dedicated server.
const AppID = "3349480"

const (
	windowsArchiveURL = "https://steamcdn-a.akamaihd.net/client/installer/steamcmd.zip"
	linuxArchiveURL   = "https://steamcdn-a.akamaihd.net/client/installer/steamcmd_linux.tar.gz"
)

// ArchiveURL returns the SteamCMD download for an operating system.
func ArchiveURL(goos string) string {
	if goos == "windows" {
		return windowsArchiveURL
	}
	return linuxArchiveURL
}

func executableName(goos string) string {
	if goos == "windows" {
		return "steamcmd.exe"
	}
	return "steamcmd.sh"
}

// Executable returns the SteamCMD entry point inside dir.
func Executable(dir string) string {
	return filepath.Join(dir, executableName(runtime.GOOS))
}

// IsInstalled reports whether SteamCMD is present in dir.
func IsInstalled(dir string) bool {
	info, err := os.Stat(Executable(dir))
	return err == nil && !info.IsDir()
}

// UpdateArgs returns the SteamCMD arguments that install or update the
// server. The server only ships Windows binaries, so other platforms have
// to ask for them explicitly.
func UpdateArgs(goos string) []string {
	var args []string
	if goos != "windows" {
		args = append(args, "+@sSteamCmdForcePlatformType", "windows")
	}
	return append(args, "+login", "anonymous", "+app_update", AppID, "validate", "+quit")
}

// Install downloads SteamCMD into dir, unpacks it and runs it once so it
// can update itself. A nil logger uses slog.Default().
func Install(ctx context.Context, client *http.Client, dir string, runner platform.CommandRunner, output *ui.UI, logger *slog.Logger) error {
	return install(ctx, client, ArchiveURL(runtime.GOOS), dir, runner, output, logger)
}

func install(ctx context.Context, client *http.Client, url, dir string, runner platform.CommandRunner, output *ui.UI, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp("", "steamcmd-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	output.Info("Downloading SteamCMD from: %s", url)
	if err := downloadFile(ctx, client, url, tmpPath); err != nil {
		return err
	}

	output.Info("Extracting SteamCMD to %s", dir)
	if strings.HasSuffix(url, ".zip") {
		err = extractZip(tmpPath, dir)
	} else {
		err = extractTarGz(tmpPath, dir)
	}
	if err != nil {
		return fmt.Errorf("extracting SteamCMD: %w", err)
	}

	exe := Executable(dir)
	if _, err := os.Stat(exe); err != nil {
		return fmt.Errorf("archive did not contain %s", filepath.Base(exe))
	}

	// The first run downloads SteamCMD's own updates and usually exits
	// non-zero, which is harmless.
	output.Info("Bootstrapping SteamCMD (first run updates itself)...")
	out, err := runner.RunWithOutput(ctx, exe, "+quit")
	logger.Debug("steamcmd bootstrap", "output", string(out))
	if err != nil {
		output.Warn("SteamCMD first run reported: %v", err)
	}

	output.Success("SteamCMD installed")
	return nil
}

// UpdateServer installs or updates the dedicated server through SteamCMD.
func UpdateServer(ctx context.Context, dir string, runner platform.CommandRunner, output *ui.UI) error {
	if !IsInstalled(dir) {
		return fmt.Errorf("SteamCMD not found in %s (run 'install-steamcmd' first)", dir)
	}
	output.Info("Installing/updating Return to Moria dedicated server (app %s)...", AppID)
	if err := runner.RunInDir(ctx, dir, Executable(dir), UpdateArgs(runtime.GOOS)...); err != nil {
		return fmt.Errorf("updating server: %w", err)
	}
	output.Success("Server files up to date")
	return nil
}
