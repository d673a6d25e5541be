package management

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
	"github.com/KevinTCoughlin/moria-server-manager/internal/status"
	"github.com/KevinTCoughlin/moria-server-manager/internal/ui"
)

// StartServer starts the dedicated server if not already running.
// It prints status messages to output. It returns true if the server was
// already running (no action taken), false if it was freshly started.
// Returns an error if the start attempt fails.
func StartServer(ctx context.Context, mgr ServerManager, onExit func(ExitInfo), output *ui.UI) (bool, error) {
	if mgr.CheckStatus(ctx) == StatusRunning {
		output.Warn("Server is already running!")
		return true, nil
	}
	// The server writes Status.json only once the world is up, so a
	// starting instance is visible in the process table alone.
	procs, err := mgr.Processes(ctx)
	if err != nil {
		return false, fmt.Errorf("checking for a running server: %w", err)
	}
	if len(procs) > 0 {
		output.Warn("Server is already starting (pid %d)", procs[0].PID)
		return true, nil
	}
	if !mgr.IsInstalled() {
		return false, fmt.Errorf("no server executable in %s (run 'install' first)", mgr.ServerDir())
	}

	output.Info("Starting Return to Moria dedicated server...")
	if !mgr.Start(ctx, mgr.ServerDir(), onExit) {
		return false, errors.New("starting server failed (see log for details)")
	}
	output.Success("Server started!")
	return false, nil
}

// StopServer terminates the dedicated server.
// It prints status messages to output and returns any error encountered.
func StopServer(ctx context.Context, mgr ServerManager, output *ui.UI) error {
	output.Info("Stopping server...")
	if !mgr.Stop(ctx, mgr.ServerDir()) {
		return errors.New("stopping server failed (see log for details)")
	}
	output.Success("Server stopped.")
	return nil
}

// PrintStatus prints the server state, resource usage and the latest status
// snapshot to output.
func PrintStatus(ctx context.Context, mgr ServerManager, procs platform.ProcessTable, snap status.Snapshot, output *ui.UI) {
	output.Step("Return to Moria Server Status")

	state := mgr.CheckStatus(ctx)
	stats, err := GetProcessStats(ctx, procs)

	switch {
	case !mgr.IsInstalled():
		output.Info("  Status:  NOT INSTALLED")
	case state == StatusRunning:
		output.Info("  Status:  RUNNING")
	case err == nil:
		// Process alive but Status.json not written yet.
		output.Info("  Status:  STARTING (pid %d)", stats.PID)
	default:
		output.Info("  Status:  %s", strings.ToUpper(state.String()))
	}
	output.Info("  Dir:     %s", mgr.ServerDir())
	output.Info("")

	if err == nil {
		output.Info("  PID:     %d", stats.PID)
		output.Info("  Memory:  %s", stats.Memory)
		output.Info("  CPU:     %s", stats.CPU)
		if stats.Uptime > 0 {
			output.Info("  Uptime:  %s", stats.Uptime)
		}
		if stats.Count > 1 {
			output.Warn("%d server processes are running", stats.Count)
		}
		output.Info("")
	} else if !errors.Is(err, ErrNotRunning) {
		output.Warn("Could not read process table: %v", err)
	}

	output.PrintSnapshot(snap)
}
