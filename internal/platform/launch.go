package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
)

// Process is a handle to a launched child process.
type Process interface {
	Pid() int
	// Wait blocks until the process exits and returns its exit code.
	Wait() (int, error)
}

// Launcher starts long-running processes that outlive the call.
type Launcher interface {
	Launch(ctx context.Context, dir, path string, args ...string) (Process, error)
}

// OSLauncher starts real OS processes.
type OSLauncher struct {
	logger *slog.Logger
}

// NewOSLauncher returns a Launcher that starts real OS processes. A nil
// logger uses slog.Default().
func NewOSLauncher(logger *slog.Logger) *OSLauncher {
	if logger == nil {
		logger = slog.Default()
	}
	return &OSLauncher{logger: logger}
}

// Launch starts path with dir as the working directory and returns without
// waiting. The child is not bound to ctx: cancelling ctx does not kill it.
func (l *OSLauncher) Launch(_ context.Context, dir, path string, args ...string) (Process, error) {
	l.logger.Debug("launch", "cmd", path, "args", args, "dir", dir)
	cmd := exec.Command(path, args...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", path, err)
	}
	return &osProcess{cmd: cmd}, nil
}

type osProcess struct {
	cmd *exec.Cmd
}

func (p *osProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *osProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	code := -1
	if p.cmd.ProcessState != nil {
		code = p.cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// A non-zero exit is reported through the code, not as a failure.
		return code, nil
	}
	return code, err
}

// MockLauncher records launches and hands out controllable processes.
type MockLauncher struct {
	mu       sync.Mutex
	Launches []MockLaunch
	Err      error
	nextPID  int
}

// MockLaunch records one Launch call.
type MockLaunch struct {
	Dir     string
	Path    string
	Args    []string
	Process *MockProcess
}

// NewMockLauncher creates a MockLauncher whose processes get PIDs from 1000.
func NewMockLauncher() *MockLauncher {
	return &MockLauncher{nextPID: 1000}
}

// Launch records the call and returns a MockProcess, or Err when set.
func (m *MockLauncher) Launch(_ context.Context, dir, path string, args ...string) (Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.nextPID++
	p := &MockProcess{pid: m.nextPID, exit: make(chan int, 1)}
	m.Launches = append(m.Launches, MockLaunch{Dir: dir, Path: path, Args: args, Process: p})
	return p, nil
}

// Last returns the most recent launch, if any.
func (m *MockLauncher) Last() (MockLaunch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Launches) == 0 {
		return MockLaunch{}, false
	}
	return m.Launches[len(m.Launches)-1], true
}

// MockProcess is a Process whose exit is triggered by the test.
type MockProcess struct {
	pid  int
	exit chan int
}

// Pid returns the fake PID.
func (p *MockProcess) Pid() int {
	return p.pid
}

// Wait blocks until Exit is called.
func (p *MockProcess) Wait() (int, error) {
	return <-p.exit, nil
}

// Exit makes a pending Wait return code.
func (p *MockProcess) Exit(code int) {
	p.exit <- code
}
