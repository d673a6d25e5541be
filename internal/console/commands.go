package console

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/KevinTCoughlin/moria-server-manager/internal/management"
	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
	"github.com/KevinTCoughlin/moria-server-manager/internal/status"
	"github.com/KevinTCoughlin/moria-server-manager/internal/ui"
)

// sentinel value returned by dispatch to signal a viewport clear.
const clearSentinel = "\x00CLEAR"

// env is the state shared by console commands.
type env struct {
	mgr   management.ServerManager
	procs platform.ProcessTable
	keep  int
	exits chan management.ExitInfo
}

func newEnv(opts *Options) *env {
	return &env{
		mgr:   opts.Manager,
		procs: opts.Procs,
		keep:  opts.KeepBackups,
		exits: make(chan management.ExitInfo, 4),
	}
}

// onExit hands exit notifications to the UI without ever blocking the
// controller's wait goroutine.
func (e *env) onExit(info management.ExitInfo) {
	select {
	case e.exits <- info:
	default:
	}
}

// dispatch parses input and runs the corresponding command, capturing output
// into a string. Returns the output text and whether the console should quit.
func dispatch(ctx context.Context, input string, e *env, snap status.Snapshot) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])

	var buf bytes.Buffer
	output := ui.NewWriter(&buf, false)

	switch cmd {
	case "start":
		if _, err := management.StartServer(ctx, e.mgr, e.onExit, output); err != nil {
			output.Warn("Starting server: %s", err)
		}

	case "stop":
		if err := management.StopServer(ctx, e.mgr, output); err != nil {
			output.Warn("%s", err)
		}

	case "status":
		management.PrintStatus(ctx, e.mgr, e.procs, snap, output)

	case "backup":
		if err := management.Backup(ctx, e.mgr.ServerDir(), e.keep, e.mgr, output); err != nil {
			output.Warn("Backup failed: %s", err)
		}

	case "help":
		return helpText(), false

	case "clear":
		return clearSentinel, false

	case "exit", "quit":
		return "", true

	default:
		return fmt.Sprintf("Unknown command: %s (type 'help' for available commands)", cmd), false
	}

	return strings.TrimRight(buf.String(), "\n"), false
}

func helpText() string {
	return `Available commands:
  start           Start the dedicated server
  stop            Stop the dedicated server
  status          Show server status and resource usage
  backup          Backup world saves
  clear           Clear the console
  help            Show this help
  exit / quit     Exit the console (the server keeps running)`
}
