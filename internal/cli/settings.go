package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/KevinTCoughlin/moria-server-manager/internal/configs"
	"github.com/KevinTCoughlin/moria-server-manager/internal/management"
	"github.com/KevinTCoughlin/moria-server-manager/internal/ui"
)

// ConfigCmd groups the manager settings commands.
type ConfigCmd struct {
	Show        ConfigShowCmd        `cmd:"" default:"1" help:"Print the manager settings"`
	SetSteamcmd ConfigSetSteamcmdCmd `cmd:"set-steamcmd" help:"Change the SteamCMD directory (the server path follows it)"`
}

// ConfigShowCmd prints the manager settings.
type ConfigShowCmd struct{}

// Run prints the settings.
func (cmd *ConfigShowCmd) Run(app *App, output *ui.UI) error {
	output.Step("Manager Settings")
	output.Info("  File:        %s", app.Store.Path())
	output.Info("  SteamCMD:    %s", app.Config.SteamCmdPath)
	output.Info("  Server:      %s", app.Config.ServerPath)
	if app.Globals.ServerDir != "" {
		output.Info("  Override:    %s", app.Globals.ServerDir)
	}
	output.Info("  Logs:        %s", app.Globals.LogDir())
	return nil
}

// ConfigSetSteamcmdCmd changes the SteamCMD directory.
type ConfigSetSteamcmdCmd struct {
	Path string `arg:"" type:"path" help:"SteamCMD directory"`
}

// Run saves the new SteamCMD path.
func (cmd *ConfigSetSteamcmdCmd) Run(app *App, output *ui.UI) error {
	app.Config.SteamCmdPath = cmd.Path
	if err := saveConfig(app, output); err != nil {
		return err
	}
	output.Success("Server path is now %s", app.Config.ServerPath)
	return nil
}

// IniCmd groups the server INI commands.
type IniCmd struct {
	Show IniShowCmd `cmd:"" default:"1" help:"Print the server settings"`
	Set  IniSetCmd  `cmd:"" help:"Change one server setting"`
}

// IniShowCmd prints MoriaServerConfig.ini.
type IniShowCmd struct{}

// Run prints every setting grouped by section.
func (cmd *IniShowCmd) Run(app *App, output *ui.UI) error {
	ini, err := loadIni(app)
	if err != nil {
		return err
	}
	output.Step("%s", configs.IniPath(app.ServerDir()))
	section := ""
	for _, f := range ini.Fields() {
		if f.Section != section {
			section = f.Section
			output.Info("[%s]", section)
		}
		output.Info("  %-28s %s", f.Name, f.Value)
	}
	return nil
}

// IniSetCmd changes one setting and rewrites the file.
type IniSetCmd struct {
	Key   string `arg:"" help:"Setting name, e.g. ListenPort or World.Create.DifficultyPreset"`
	Value string `arg:"" help:"New value"`
}

// Run applies the change.
func (cmd *IniSetCmd) Run(ctx context.Context, app *App, output *ui.UI) error {
	ini, err := loadIni(app)
	if err != nil {
		return err
	}
	if err := ini.Set(cmd.Key, cmd.Value); err != nil {
		return err
	}
	if err := app.Ini.Save(app.ServerDir(), ini); err != nil {
		return err
	}
	value, _ := ini.Get(cmd.Key)
	output.Success("%s = %s", cmd.Key, value)
	if app.Server.CheckStatus(ctx) == management.StatusRunning {
		output.Warn("Restart the server for the change to take effect")
	}
	return nil
}

// loadIni reads the server INI, falling back to defaults before the server
// has written one.
func loadIni(app *App) (*configs.ServerIni, error) {
	ini, err := app.Ini.Load(app.ServerDir())
	if errors.Is(err, configs.ErrNotFound) {
		app.Logger.Debug("no server ini yet, using defaults", "dir", app.ServerDir())
		return app.Ini.Defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading server settings: %w", err)
	}
	return ini, nil
}
