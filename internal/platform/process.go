package platform

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo describes one running OS process.
type ProcessInfo struct {
	PID        int32
	Name       string
	RSS        uint64 // resident memory in bytes
	CPUPercent float64
	StartedAt  time.Time
}

// ProcessTable abstracts OS process lookup and termination for testability.
type ProcessTable interface {
	// FindByName returns every process whose executable name matches name.
	// A trailing ".exe" is ignored and the comparison is case-insensitive.
	FindByName(ctx context.Context, name string) ([]ProcessInfo, error)
	// Kill forcefully terminates the process.
	Kill(ctx context.Context, pid int32) error
	// Exists reports whether a process with the given PID is still alive.
	Exists(ctx context.Context, pid int32) (bool, error)
}

// MatchProcessName reports whether an OS process name refers to the given
// base name, ignoring case and an ".exe" suffix.
func MatchProcessName(procName, want string) bool {
	if ext := filepath.Ext(procName); strings.EqualFold(ext, ".exe") {
		procName = procName[:len(procName)-len(ext)]
	}
	return strings.EqualFold(procName, want)
}

// GopsutilProcessTable reads the live process table through gopsutil.
type GopsutilProcessTable struct{}

// NewGopsutilProcessTable returns a ProcessTable backed by the OS.
func NewGopsutilProcessTable() *GopsutilProcessTable {
	return &GopsutilProcessTable{}
}

// FindByName enumerates all processes and returns those matching name.
// Processes that vanish or deny access while being inspected are skipped.
func (t *GopsutilProcessTable) FindByName(ctx context.Context, name string) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	var found []ProcessInfo
	for _, p := range procs {
		procName, err := p.NameWithContext(ctx)
		if err != nil || !MatchProcessName(procName, name) {
			continue
		}
		info := ProcessInfo{PID: p.Pid, Name: procName}
		if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
			info.RSS = mem.RSS
		}
		if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
			info.CPUPercent = cpu
		}
		if created, err := p.CreateTimeWithContext(ctx); err == nil {
			info.StartedAt = time.UnixMilli(created)
		}
		found = append(found, info)
	}
	return found, nil
}

// Kill terminates the process without giving it a chance to shut down.
func (t *GopsutilProcessTable) Kill(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return fmt.Errorf("opening process %d: %w", pid, err)
	}
	if err := p.KillWithContext(ctx); err != nil {
		return fmt.Errorf("killing process %d: %w", pid, err)
	}
	return nil
}

// Exists reports whether pid is still present in the process table.
func (t *GopsutilProcessTable) Exists(ctx context.Context, pid int32) (bool, error) {
	return process.PidExistsWithContext(ctx, pid)
}

// MockProcessTable is an in-memory ProcessTable for tests.
type MockProcessTable struct {
	mu        sync.Mutex
	Processes []ProcessInfo
	FindErr   error
	KillErr   map[int32]error
	Killed    []int32
}

// NewMockProcessTable creates a MockProcessTable holding procs.
func NewMockProcessTable(procs ...ProcessInfo) *MockProcessTable {
	return &MockProcessTable{
		Processes: procs,
		KillErr:   make(map[int32]error),
	}
}

// FindByName returns the preconfigured processes matching name.
func (m *MockProcessTable) FindByName(_ context.Context, name string) ([]ProcessInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	var found []ProcessInfo
	for _, p := range m.Processes {
		if MatchProcessName(p.Name, name) {
			found = append(found, p)
		}
	}
	return found, nil
}

// Kill records the kill and removes the process unless a KillErr is set.
func (m *MockProcessTable) Kill(_ context.Context, pid int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.KillErr[pid]; ok {
		return err
	}
	for i, p := range m.Processes {
		if p.PID == pid {
			m.Processes = append(m.Processes[:i], m.Processes[i+1:]...)
			m.Killed = append(m.Killed, pid)
			return nil
		}
	}
	return errors.New("no such process")
}

// Exists reports whether pid is still in the mock table.
func (m *MockProcessTable) Exists(_ context.Context, pid int32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Processes {
		if p.PID == pid {
			return true, nil
		}
	}
	return false, nil
}

// KilledPIDs returns a copy of the PIDs killed so far.
func (m *MockProcessTable) KilledPIDs() []int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int32(nil), m.Killed...)
}
