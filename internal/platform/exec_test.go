package platform

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"testing"
)

func TestMockRunner_Run(t *testing.T) {
	m := NewMockRunner()
	ctx := context.Background()

	if err := m.Run(ctx, "echo", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(m.Commands))
	}
	if m.Commands[0].Name != "echo" {
		t.Fatalf("expected echo, got %s", m.Commands[0].Name)
	}
	if m.Commands[0].Dir != "" {
		t.Fatalf("expected empty dir, got %q", m.Commands[0].Dir)
	}
}

func TestMockRunner_RunInDir(t *testing.T) {
	m := NewMockRunner()
	m.ErrorMap[m.Key("steamcmd.sh", "+quit")] = errors.New("boom")

	err := m.RunInDir(context.Background(), "/opt/steamcmd", "steamcmd.sh", "+quit")
	if err == nil {
		t.Fatal("expected preconfigured error")
	}
	if got := m.Commands[0].Dir; got != "/opt/steamcmd" {
		t.Fatalf("Dir = %q, want /opt/steamcmd", got)
	}
}

func TestMockRunner_RunWithOutput(t *testing.T) {
	m := NewMockRunner()
	m.OutputMap[m.Key("cat", "/etc/hostname")] = []byte("testhost\n")

	out, err := m.RunWithOutput(context.Background(), "cat", "/etc/hostname")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "testhost\n" {
		t.Fatalf("expected testhost, got %s", out)
	}
}

func TestMockRunner_CommandExists(t *testing.T) {
	m := NewMockRunner()
	m.ExistsMap["steamcmd"] = true

	if !m.CommandExists("steamcmd") {
		t.Fatal("expected steamcmd to exist")
	}
	if m.CommandExists("nonexistent") {
		t.Fatal("expected nonexistent to not exist")
	}
}

func TestOSCommandRunner_LogsToGivenLogger(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	var logs bytes.Buffer
	r := NewOSCommandRunner(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	out, err := r.RunWithOutput(context.Background(), "/bin/sh", "-c", "echo hi")
	if err != nil {
		t.Fatalf("RunWithOutput() error = %v", err)
	}
	if strings.TrimSpace(string(out)) != "hi" {
		t.Errorf("output = %q, want hi", out)
	}
	if !strings.Contains(logs.String(), "msg=exec") || !strings.Contains(logs.String(), "/bin/sh") {
		t.Errorf("exec not logged to the given logger:\n%s", logs.String())
	}
}
