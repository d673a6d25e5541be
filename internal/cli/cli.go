package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"

	"github.com/KevinTCoughlin/moria-server-manager/internal/config"
	"github.com/KevinTCoughlin/moria-server-manager/internal/configs"
	"github.com/KevinTCoughlin/moria-server-manager/internal/logging"
	"github.com/KevinTCoughlin/moria-server-manager/internal/management"
	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
	"github.com/KevinTCoughlin/moria-server-manager/internal/status"
	"github.com/KevinTCoughlin/moria-server-manager/internal/ui"
)

// Globals holds flags shared by all subcommands.
type Globals struct {
	Config    string           `help:"Manager config file (default: config.json beside the executable)" type:"path" default:""`
	ServerDir string           `help:"Dedicated server directory (overrides the config file)" type:"path" name:"server-dir"`
	Lang      string           `help:"Vocabulary for world type and difficulty values (${enum})" enum:"fr,en" default:"fr"`
	Verbose   bool             `help:"Debug logging, mirrored to stderr" short:"V"`
	Version   kong.VersionFlag `help:"Print version" short:"v"`
}

// AfterApply sets Config to the default location when the user hasn't
// provided one.
func (g *Globals) AfterApply() error {
	if g.Config == "" {
		g.Config = config.DefaultPath()
	}
	return nil
}

// LogDir is where the manager writes its own log files.
func (g *Globals) LogDir() string {
	return filepath.Join(filepath.Dir(g.Config), "logs")
}

// CLI is the top-level command tree parsed by Kong.
type CLI struct {
	Globals

	InstallSteamcmd InstallSteamcmdCmd `cmd:"install-steamcmd" help:"Download and bootstrap SteamCMD"`
	Install         InstallCmd         `cmd:"" help:"Install or update the dedicated server through SteamCMD"`
	Start           StartCmd           `cmd:"" help:"Start the dedicated server"`
	Stop            StopCmd            `cmd:"" help:"Stop the dedicated server"`
	Status          StatusCmd          `cmd:"" help:"Show server status and resource usage"`
	Watch           WatchCmd           `cmd:"" help:"Print status changes until interrupted"`
	Console         ConsoleCmd         `cmd:"" help:"Interactive console with live status and server log"`
	Backup          BackupCmd          `cmd:"" help:"Backup world saves with rotation"`
	Config          ConfigCmd          `cmd:"" help:"Show or change the manager settings"`
	Ini             IniCmd             `cmd:"" help:"Show or change MoriaServerConfig.ini"`
}

// App carries the services commands run against. It is bound into the Kong
// context so each command's Run receives it.
type App struct {
	Globals *Globals
	Store   *config.Store
	Config  *config.AppConfig
	Server  *management.Controller
	Reader  *status.Reader
	Monitor *status.Monitor
	Ini     *configs.Store
	Procs   platform.ProcessTable
	Runner  platform.CommandRunner
	HTTP    *http.Client
	Output  *ui.UI
	Logger  *slog.Logger
}

// Deps are the platform services an App is built from.
type Deps struct {
	Runner   platform.CommandRunner
	Procs    platform.ProcessTable
	Launcher platform.Launcher
	HTTP     *http.Client
	Output   *ui.UI
	Logger   *slog.Logger
}

// OSDeps returns Deps backed by the real operating system.
func OSDeps(logger *slog.Logger) Deps {
	return Deps{
		Runner:   platform.NewOSCommandRunner(logger),
		Procs:    platform.NewGopsutilProcessTable(),
		Launcher: platform.NewOSLauncher(logger),
		HTTP:     &http.Client{Timeout: 10 * time.Minute},
		Output:   ui.Default(),
		Logger:   logger,
	}
}

// NewApp loads the manager config and wires the services for g.
func NewApp(g *Globals, d Deps) (*App, error) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	vocab, err := configs.VocabularyFor(g.Lang)
	if err != nil {
		return nil, err
	}

	store := config.NewStore(g.Config, d.Logger)
	cfg := store.Load()

	serverDir := cfg.ServerPath
	if g.ServerDir != "" {
		serverDir = g.ServerDir
	}

	reader := status.NewReader(d.Logger)
	ctrl := management.NewController(d.Procs, d.Launcher, d.Logger)
	ctrl.Bind(serverDir)

	return &App{
		Globals: g,
		Store:   store,
		Config:  cfg,
		Server:  ctrl,
		Reader:  reader,
		Monitor: status.NewMonitor(reader, status.WithLogger(d.Logger)),
		Ini:     configs.NewStore(vocab, d.Logger),
		Procs:   d.Procs,
		Runner:  d.Runner,
		HTTP:    d.HTTP,
		Output:  d.Output,
		Logger:  d.Logger,
	}, nil
}

// ServerDir returns the directory the commands operate on.
func (a *App) ServerDir() string {
	return a.Server.ServerDir()
}

// Bind makes the app and its services available to command Run methods.
func (a *App) Bind(ctx context.Context, kctx *kong.Context) {
	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.BindTo(a.Runner, (*platform.CommandRunner)(nil))
	kctx.BindTo(a.Procs, (*platform.ProcessTable)(nil))
	kctx.Bind(a, a.Output, a.Logger)
}

// Main parses args, sets up logging and runs the selected command. It
// returns the process exit code.
func Main(ctx context.Context, args []string, version string, stderr io.Writer) int {
	return run(ctx, args, version, stderr, OSDeps)
}

func run(ctx context.Context, args []string, version string, stderr io.Writer, deps func(*slog.Logger) Deps) int {
	var c CLI
	parser := kong.Must(&c,
		kong.Name("moria-server-manager"),
		kong.Description("Install, run and watch a Return to Moria dedicated server."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	kctx, err := parser.Parse(args)
	parser.FatalIfErrorf(err)

	// A log directory that cannot be created leaves a stderr logger in
	// place; the command still runs.
	logger, closer, logErr := setupLogging(&c.Globals, stderr)
	defer closer.Close()

	app, err := NewApp(&c.Globals, deps(logger))
	if err != nil {
		parser.Errorf("%s", err)
		return 1
	}
	if logErr != nil {
		app.Output.Warn("File logging disabled: %v", logErr)
	}
	app.Bind(ctx, kctx)

	if err := kctx.Run(); err != nil {
		logger.Error("command failed", "command", kctx.Command(), "err", err)
		app.Output.Error("%s", err)
		return 1
	}
	return 0
}

func setupLogging(g *Globals, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	return logging.Setup(logging.Options{Dir: g.LogDir(), Verbose: g.Verbose, Stderr: stderr})
}
