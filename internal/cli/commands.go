package cli

import (
	"context"
	"errors"
	"time"

	"github.com/KevinTCoughlin/moria-server-manager/internal/console"
	"github.com/KevinTCoughlin/moria-server-manager/internal/management"
	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
	"github.com/KevinTCoughlin/moria-server-manager/internal/status"
	"github.com/KevinTCoughlin/moria-server-manager/internal/ui"
)

// StartCmd starts the dedicated server.
type StartCmd struct {
	Wait time.Duration `help:"Wait up to this long for the server to report its status (e.g. 2m)" default:"0s"`
}

// Run starts the server.
func (cmd *StartCmd) Run(ctx context.Context, app *App, output *ui.UI) error {
	onExit := func(info management.ExitInfo) {
		app.Logger.Info("server exited", "pid", info.PID, "code", info.Code, "err", info.Err)
	}
	path := status.FilePath(app.ServerDir())
	// Status.json outlives the server, so only a write after launch counts.
	before := status.StampOf(path)

	alreadyRunning, err := management.StartServer(ctx, app.Server, onExit, output)
	if err != nil {
		return err
	}
	if alreadyRunning {
		return nil
	}

	if cmd.Wait > 0 {
		output.Info("Waiting up to %s for the server to report its status...", cmd.Wait)
		err := status.WaitForUpdate(ctx, path, before, cmd.Wait)
		switch {
		case errors.Is(err, status.ErrWaitTimeout):
			output.Warn("No status after %s; the world may still be loading", cmd.Wait)
		case err != nil:
			return err
		default:
			output.PrintSnapshot(app.Reader.Read(app.ServerDir()))
		}
	}

	output.Info("")
	output.Info("  Follow status:   moria-server-manager watch")
	output.Info("  Console:         moria-server-manager console")
	output.Info("  Stop server:     moria-server-manager stop")
	output.Info("")
	return nil
}

// StopCmd stops the dedicated server.
type StopCmd struct{}

// Run stops the server.
func (cmd *StopCmd) Run(ctx context.Context, app *App, output *ui.UI) error {
	return management.StopServer(ctx, app.Server, output)
}

// StatusCmd shows server status and resource usage.
type StatusCmd struct{}

// Run shows server status.
func (cmd *StatusCmd) Run(ctx context.Context, app *App, procs platform.ProcessTable, output *ui.UI) error {
	management.PrintStatus(ctx, app.Server, procs, app.Reader.Read(app.ServerDir()), output)
	return nil
}

// WatchCmd prints every status change until interrupted.
type WatchCmd struct{}

// Run polls Status.json and prints each change.
func (cmd *WatchCmd) Run(ctx context.Context, app *App, output *ui.UI) error {
	updates, unsubscribe := app.Monitor.Subscribe()
	defer unsubscribe()
	app.Monitor.Start(app.ServerDir())
	defer app.Monitor.Stop()

	output.Info("Watching %s (Ctrl+C to stop)", status.FilePath(app.ServerDir()))
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			output.Step("%s", time.Now().Format(time.TimeOnly))
			output.PrintSnapshot(snap)
		}
	}
}

// ConsoleCmd opens the interactive console.
type ConsoleCmd struct {
	Keep int `help:"Backups to keep when running 'backup' from the console" default:"5"`
}

// Run starts the console TUI.
func (cmd *ConsoleCmd) Run(ctx context.Context, app *App, procs platform.ProcessTable) error {
	return console.Run(ctx, &console.Options{
		Manager:     app.Server,
		Procs:       procs,
		Monitor:     app.Monitor,
		KeepBackups: cmd.Keep,
	})
}

// BackupCmd backs up the world saves with rotation.
type BackupCmd struct {
	Keep int `help:"Number of backups to keep" default:"5"`
}

// Run performs a backup.
func (cmd *BackupCmd) Run(ctx context.Context, app *App, output *ui.UI) error {
	return management.Backup(ctx, app.ServerDir(), cmd.Keep, app.Server, output)
}
