package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
)

// CommandRunner abstracts shell-out operations for testability.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
	RunInDir(ctx context.Context, dir, name string, args ...string) error
	RunWithOutput(ctx context.Context, name string, args ...string) ([]byte, error)
	CommandExists(name string) bool
}

// OSCommandRunner executes real system commands.
type OSCommandRunner struct {
	logger *slog.Logger
}

// NewOSCommandRunner returns a CommandRunner that executes real system
// commands. A nil logger uses slog.Default().
func NewOSCommandRunner(logger *slog.Logger) *OSCommandRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &OSCommandRunner{logger: logger}
}

// Run executes a system command in the current directory.
func (r *OSCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	return r.RunInDir(ctx, "", name, args...)
}

// RunInDir executes a system command with dir as its working directory.
// An empty dir means the current directory.
func (r *OSCommandRunner) RunInDir(ctx context.Context, dir, name string, args ...string) error {
	r.logger.Debug("exec", "cmd", name, "args", args, "dir", dir)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w: %s", name, args, err, stderr.String())
	}
	return nil
}

// RunWithOutput executes a system command and returns its stdout output.
func (r *OSCommandRunner) RunWithOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.logger.Debug("exec", "cmd", name, "args", args)
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s %v: %w: %s", name, args, err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("%s %v: %w", name, args, err)
	}
	return out, nil
}

// CommandExists checks whether a command is available on the system PATH.
func (r *OSCommandRunner) CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// MockRunner records commands for testing without executing them.
type MockRunner struct {
	mu        sync.Mutex
	Commands  []MockCommand
	OutputMap map[string][]byte
	ErrorMap  map[string]error
	ExistsMap map[string]bool
}

// MockCommand records a single command invocation.
type MockCommand struct {
	Name string
	Args []string
	Dir  string
}

// NewMockRunner creates a MockRunner with empty state.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		OutputMap: make(map[string][]byte),
		ErrorMap:  make(map[string]error),
		ExistsMap: make(map[string]bool),
	}
}

// Key returns the map key used for OutputMap / ErrorMap lookups.
func (m *MockRunner) Key(name string, args ...string) string {
	return fmt.Sprintf("%s %v", name, args)
}

func (m *MockRunner) record(dir, name string, args []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = append(m.Commands, MockCommand{Name: name, Args: args, Dir: dir})
}

// Run records the command and returns any preconfigured error.
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) error {
	return m.RunInDir(ctx, "", name, args...)
}

// RunInDir records the command with its working directory and returns any
// preconfigured error.
func (m *MockRunner) RunInDir(_ context.Context, dir, name string, args ...string) error {
	m.record(dir, name, args)
	if err, ok := m.ErrorMap[m.Key(name, args...)]; ok {
		return err
	}
	return nil
}

// RunWithOutput records the command and returns preconfigured output or error.
func (m *MockRunner) RunWithOutput(_ context.Context, name string, args ...string) ([]byte, error) {
	m.record("", name, args)
	if err, ok := m.ErrorMap[m.Key(name, args...)]; ok {
		return nil, err
	}
	if out, ok := m.OutputMap[m.Key(name, args...)]; ok {
		return out, nil
	}
	return nil, nil
}

// CommandExists returns the preconfigured existence value for the given command.
func (m *MockRunner) CommandExists(name string) bool {
	if exists, ok := m.ExistsMap[name]; ok {
		return exists
	}
	return false
}
