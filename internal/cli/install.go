package cli

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/KevinTCoughlin/moria-server-manager/internal/configs"
	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
	"github.com/KevinTCoughlin/moria-server-manager/internal/steamcmd"
	"github.com/KevinTCoughlin/moria-server-manager/internal/ui"
)

// InstallSteamcmdCmd downloads SteamCMD and records its location.
type InstallSteamcmdCmd struct {
	Path  string `arg:"" optional:"" type:"path" help:"Install directory (default: the configured SteamCMD path)"`
	Force bool   `help:"Download again even if SteamCMD is present"`
}

// Run installs SteamCMD.
func (cmd *InstallSteamcmdCmd) Run(ctx context.Context, app *App, runner platform.CommandRunner, output *ui.UI) error {
	if cmd.Path != "" {
		app.Config.SteamCmdPath = cmd.Path
	}
	dir := app.Config.SteamCmdPath

	output.Step("Installing SteamCMD")
	if steamcmd.IsInstalled(dir) && !cmd.Force {
		output.Success("SteamCMD already installed in %s", dir)
	} else if err := steamcmd.Install(ctx, app.HTTP, dir, runner, output, app.Logger); err != nil {
		return err
	}
	return saveConfig(app, output)
}

// InstallCmd installs or updates the dedicated server.
type InstallCmd struct{}

// Run installs the server, writing a default INI when none exists.
func (cmd *InstallCmd) Run(ctx context.Context, app *App, runner platform.CommandRunner, output *ui.UI) error {
	steamDir := app.Config.SteamCmdPath
	if !steamcmd.IsInstalled(steamDir) {
		output.Step("Installing SteamCMD")
		if err := steamcmd.Install(ctx, app.HTTP, steamDir, runner, output, app.Logger); err != nil {
			return err
		}
		if err := saveConfig(app, output); err != nil {
			return err
		}
	}

	output.Step("Installing Return to Moria Dedicated Server")
	if err := steamcmd.UpdateServer(ctx, steamDir, runner, output); err != nil {
		return err
	}

	serverDir := app.ServerDir()
	if !app.Server.IsInstalled() {
		output.Warn("No server executable found in %s", serverDir)
	}
	if runtime.GOOS != "windows" && !runner.CommandExists("wine") {
		output.Warn("The server only ships Windows binaries; install Wine to run it on %s", runtime.GOOS)
	}

	ini, err := app.Ini.Load(serverDir)
	if errors.Is(err, configs.ErrNotFound) {
		ini = app.Ini.Defaults()
		if err := app.Ini.Save(serverDir, ini); err != nil {
			return err
		}
		output.Success("Wrote default %s", configs.IniFileName)
	} else if err != nil {
		return err
	}

	output.PrintInstallSummary(&ui.InstallSummary{
		SteamCmdDir: steamDir,
		ServerDir:   serverDir,
		WorldName:   ini.WorldName,
		ListenPort:  ini.ListenPort,
		ConfigPath:  configs.IniPath(serverDir),
	})
	return nil
}

func saveConfig(app *App, output *ui.UI) error {
	if err := app.Config.Validate(); err != nil {
		return err
	}
	if err := app.Store.Save(app.Config); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	if app.Globals.ServerDir == "" {
		app.Server.Bind(app.Config.ServerPath)
	}
	output.Info("Settings saved to %s", app.Store.Path())
	return nil
}
