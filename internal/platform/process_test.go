package platform

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestMatchProcessName(t *testing.T) {
	tests := []struct {
		proc, want string
		match      bool
	}{
		{"ReturnToMoriaServer.exe", "ReturnToMoriaServer", true},
		{"ReturnToMoriaServer.EXE", "ReturnToMoriaServer", true},
		{"returntomoriaserver", "ReturnToMoriaServer", true},
		{"ReturnToMoriaServer", "ReturnToMoriaServer", true},
		{"ReturnToMoriaServer-Win64-Shipping.exe", "ReturnToMoriaServer", false},
		{"MoriaServer.exe", "ReturnToMoriaServer", false},
		{"ReturnToMoriaServer.sh", "ReturnToMoriaServer", false},
	}
	for _, tc := range tests {
		if got := MatchProcessName(tc.proc, tc.want); got != tc.match {
			t.Errorf("MatchProcessName(%q, %q) = %v, want %v", tc.proc, tc.want, got, tc.match)
		}
	}
}

func TestMockProcessTable_FindAndKill(t *testing.T) {
	ctx := context.Background()
	m := NewMockProcessTable(
		ProcessInfo{PID: 10, Name: "ReturnToMoriaServer.exe"},
		ProcessInfo{PID: 11, Name: "explorer.exe"},
		ProcessInfo{PID: 12, Name: "ReturnToMoriaServer.exe"},
	)

	found, err := m.FindByName(ctx, "ReturnToMoriaServer")
	if err != nil {
		t.Fatalf("FindByName() error = %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(found))
	}

	if err := m.Kill(ctx, 10); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}
	if alive, _ := m.Exists(ctx, 10); alive {
		t.Error("pid 10 should be gone after Kill")
	}
	if alive, _ := m.Exists(ctx, 11); !alive {
		t.Error("pid 11 should still exist")
	}
	if err := m.Kill(ctx, 99); err == nil {
		t.Error("Kill() of unknown pid should fail")
	}
}

func TestMockProcessTable_FindErr(t *testing.T) {
	m := NewMockProcessTable()
	m.FindErr = errors.New("access denied")
	if _, err := m.FindByName(context.Background(), "x"); err == nil {
		t.Fatal("expected FindErr to be returned")
	}
}

func TestGopsutilProcessTable_Self(t *testing.T) {
	self, err := os.Executable()
	if err != nil {
		t.Skipf("os.Executable: %v", err)
	}
	name := filepath.Base(self)

	table := NewGopsutilProcessTable()
	found, err := table.FindByName(context.Background(), name)
	if err != nil {
		t.Fatalf("FindByName() error = %v", err)
	}
	pid := int32(os.Getpid())
	var seen bool
	for _, p := range found {
		if p.PID == pid {
			seen = true
		}
	}
	// Process names are truncated on some platforms (15 chars on Linux).
	if !seen && len(name) <= 15 {
		t.Errorf("expected to find own pid %d under name %q", pid, name)
	}

	alive, err := table.Exists(context.Background(), pid)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !alive {
		t.Error("own process should exist")
	}
}

func TestOSLauncher_ExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	dir := t.TempDir()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p, err := NewOSLauncher(logger).Launch(context.Background(), dir, "/bin/sh", "-c", "exit 3")
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if p.Pid() <= 0 {
		t.Errorf("Pid() = %d, want > 0", p.Pid())
	}
	code, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if !strings.Contains(logs.String(), "msg=launch") || !strings.Contains(logs.String(), dir) {
		t.Errorf("launch not logged to the given logger:\n%s", logs.String())
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := WriteFileAtomic(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two"), 0o644); err != nil {
		t.Fatalf("second write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "two" {
		t.Errorf("content = %q, want %q", data, "two")
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the target file to remain, got %d entries", len(entries))
	}
}
