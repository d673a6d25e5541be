package management

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
	"github.com/KevinTCoughlin/moria-server-manager/internal/status"
)

// ProcessName is the OS process name of a running dedicated server.
const ProcessName = "ReturnToMoriaServer"

// ExecutableNames lists the server executables in launch preference order.
var ExecutableNames = []string{"ReturnToMoriaServer.exe", "MoriaServer.exe"}

const (
	defaultStopTimeout = 10 * time.Second
	stopPollInterval   = 200 * time.Millisecond
)

// ExitInfo describes how a started server process ended.
type ExitInfo struct {
	PID  int
	Code int
	Err  error
}

// FindExecutable returns the path of the first server executable present in
// serverDir, or "" when none is.
func FindExecutable(serverDir string) string {
	if serverDir == "" {
		return ""
	}
	for _, name := range ExecutableNames {
		path := filepath.Join(serverDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Controller launches, tracks and terminates the dedicated server process.
// Its public methods log failures and report them as false or StatusError
// instead of returning errors.
type Controller struct {
	procs       platform.ProcessTable
	launcher    platform.Launcher
	logger      *slog.Logger
	stopTimeout time.Duration

	mu        sync.Mutex
	serverDir string
}

// NewController creates a Controller. A nil logger uses slog.Default().
func NewController(procs platform.ProcessTable, launcher platform.Launcher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		procs:       procs,
		launcher:    launcher,
		logger:      logger,
		stopTimeout: defaultStopTimeout,
	}
}

// Bind sets the server directory used by IsInstalled and CheckStatus.
func (c *Controller) Bind(serverDir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serverDir = serverDir
}

// ServerDir returns the bound server directory.
func (c *Controller) ServerDir() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverDir
}

// IsInstalled reports whether a server executable exists in the bound
// directory.
func (c *Controller) IsInstalled() bool {
	return FindExecutable(c.ServerDir()) != ""
}

// CheckStatus reports whether the server is running based on the marker
// file and the OS process table.
func (c *Controller) CheckStatus(ctx context.Context) ServerStatus {
	dir := c.ServerDir()
	if dir == "" {
		return StatusUnknown
	}
	if !markerExists(dir) {
		return StatusStopped
	}
	procs, err := c.procs.FindByName(ctx, ProcessName)
	if err != nil {
		c.logger.Error("checking server process", "err", err)
		return StatusError
	}
	if len(procs) == 0 {
		return StatusStopped
	}
	return StatusRunning
}

// markerExists checks for Status.json where the server writes it, falling
// back to the install root used by older server builds.
func markerExists(serverDir string) bool {
	for _, path := range []string{
		status.FilePath(serverDir),
		filepath.Join(serverDir, status.FileName),
	} {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// Processes returns the running server processes.
func (c *Controller) Processes(ctx context.Context) ([]platform.ProcessInfo, error) {
	return c.procs.FindByName(ctx, ProcessName)
}

// Start launches the server executable found in serverDir (the bound
// directory when empty) with serverDir as its working directory. It returns
// once the process is spawned. When onExit is non-nil it is called exactly
// once, from another goroutine, after the process exits.
func (c *Controller) Start(ctx context.Context, serverDir string, onExit func(ExitInfo)) bool {
	if serverDir == "" {
		serverDir = c.ServerDir()
	}
	exe := FindExecutable(serverDir)
	if exe == "" {
		c.logger.Error("server executable not found", "dir", serverDir, "names", ExecutableNames)
		return false
	}

	proc, err := c.launcher.Launch(ctx, serverDir, exe)
	if err != nil {
		c.logger.Error("starting server", "exe", exe, "err", err)
		return false
	}
	pid := proc.Pid()
	c.logger.Info("server started", "pid", pid, "exe", exe)

	go func() {
		code, err := proc.Wait()
		c.logger.Info("server exited", "pid", pid, "code", code, "err", err)
		if onExit != nil {
			onExit(ExitInfo{PID: pid, Code: code, Err: err})
		}
	}()
	return true
}

// Stop forcefully terminates every running server process and waits for
// them to disappear. Having nothing to stop counts as success. A process
// that cannot be killed is logged and does not stop the others from being
// killed.
func (c *Controller) Stop(ctx context.Context, serverDir string) bool {
	procs, err := c.procs.FindByName(ctx, ProcessName)
	if err != nil {
		c.logger.Error("listing server processes", "dir", serverDir, "err", err)
		return false
	}
	if len(procs) == 0 {
		c.logger.Info("no server process to stop", "dir", serverDir)
		return true
	}

	ok := true
	var killed []int32
	for _, p := range procs {
		if err := c.procs.Kill(ctx, p.PID); err != nil {
			c.logger.Error("killing server process", "pid", p.PID, "err", err)
			ok = false
			continue
		}
		c.logger.Info("killed server process", "pid", p.PID)
		killed = append(killed, p.PID)
	}

	if !c.waitGone(ctx, killed) {
		ok = false
	}
	return ok
}

// waitGone polls until none of pids exist or the stop timeout elapses.
func (c *Controller) waitGone(ctx context.Context, pids []int32) bool {
	if len(pids) == 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, c.stopTimeout)
	defer cancel()

	ticker := time.NewTicker(stopPollInterval)
	defer ticker.Stop()
	for {
		remaining := pids[:0:0]
		for _, pid := range pids {
			alive, err := c.procs.Exists(ctx, pid)
			if err != nil || alive {
				remaining = append(remaining, pid)
			}
		}
		if len(remaining) == 0 {
			return true
		}
		pids = remaining

		select {
		case <-ctx.Done():
			c.logger.Warn("server process still present after kill", "pids", pids, "timeout", c.stopTimeout)
			return false
		case <-ticker.C:
		}
	}
}
