package management

import (
	"context"

	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
)

// ServerManager is the lifecycle surface the CLI and console drive. The
// Controller is the production implementation.
type ServerManager interface {
	// IsInstalled reports whether a server executable is present.
	IsInstalled() bool

	// CheckStatus reports the process-level server state.
	CheckStatus(ctx context.Context) ServerStatus

	// Processes lists running server processes, whatever the marker says.
	Processes(ctx context.Context) ([]platform.ProcessInfo, error)

	// Start launches the server and returns once it is spawned.
	Start(ctx context.Context, serverDir string, onExit func(ExitInfo)) bool

	// Stop terminates every running server process.
	Stop(ctx context.Context, serverDir string) bool

	// ServerDir returns the bound server directory.
	ServerDir() string
}
