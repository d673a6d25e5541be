package console

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/KevinTCoughlin/moria-server-manager/internal/management"
	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
	"github.com/KevinTCoughlin/moria-server-manager/internal/status"
)

func newTestEnv(t *testing.T) (*env, *platform.MockLauncher) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ReturnToMoriaServer.exe"), []byte("x"), 0o755); err != nil {
		t.Fatal(err)
	}
	launcher := platform.NewMockLauncher()
	ctrl := management.NewController(platform.NewMockProcessTable(), launcher, nil)
	ctrl.Bind(dir)
	return newEnv(&Options{Manager: ctrl, Procs: platform.NewMockProcessTable()}), launcher
}

func TestDispatch_Basics(t *testing.T) {
	e, _ := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		input    string
		contains string
		quit     bool
	}{
		{"help", "Available commands", false},
		{"HELP", "Available commands", false},
		{"frobnicate", "Unknown command: frobnicate", false},
		{"status", "Status:  STOPPED", false},
		{"quit", "", true},
		{"exit", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			out, quit := dispatch(ctx, tc.input, e, status.Snapshot{})
			if quit != tc.quit {
				t.Errorf("quit = %v, want %v", quit, tc.quit)
			}
			if !strings.Contains(out, tc.contains) {
				t.Errorf("output %q does not contain %q", out, tc.contains)
			}
		})
	}
}

func TestDispatch_ClearAndEmpty(t *testing.T) {
	e, _ := newTestEnv(t)
	if out, _ := dispatch(context.Background(), "clear", e, status.Snapshot{}); out != clearSentinel {
		t.Errorf("clear returned %q", out)
	}
	if out, quit := dispatch(context.Background(), "   ", e, status.Snapshot{}); out != "" || quit {
		t.Errorf("blank input returned %q, %v", out, quit)
	}
}

func TestDispatch_StartReportsExit(t *testing.T) {
	e, launcher := newTestEnv(t)

	out, _ := dispatch(context.Background(), "start", e, status.Snapshot{})
	if !strings.Contains(out, "Server started") {
		t.Fatalf("start output = %q", out)
	}
	launch, ok := launcher.Last()
	if !ok {
		t.Fatal("nothing was launched")
	}
	launch.Process.Exit(1)

	select {
	case info := <-e.exits:
		if info.Code != 1 {
			t.Errorf("exit code = %d, want 1", info.Code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("exit was not reported")
	}
}

func TestEnv_OnExitNeverBlocks(t *testing.T) {
	e := newEnv(&Options{})
	for i := 0; i < cap(e.exits)+3; i++ {
		e.onExit(management.ExitInfo{PID: i})
	}
	if len(e.exits) != cap(e.exits) {
		t.Errorf("queued %d exits, want %d", len(e.exits), cap(e.exits))
	}
}

func TestPanelText(t *testing.T) {
	tests := []struct {
		name string
		snap status.Snapshot
		want string
	}{
		{"zero", status.Snapshot{}, "No status reported yet"},
		{"status only", status.Snapshot{Status: "Stopped"}, "Stopped"},
		{
			"running",
			status.Snapshot{Status: "Running", InviteCode: "ABCD", WorldName: "Khazad-dûm", WorldSeed: 42, Players: "2/8", Version: "1.4"},
			"Running | Invite ABCD | World Khazad-dûm (seed 42) | Players 2/8 | v1.4",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := panelText(tc.snap); got != tc.want {
				t.Errorf("panelText() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestModel_SnapshotAndExitMessages(t *testing.T) {
	e, _ := newTestEnv(t)
	updates := make(chan status.Snapshot, 1)
	m := newModel(context.Background(), e, updates)
	defer m.cancel()

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next, _ = next.Update(snapshotMsg{Status: "Running", InviteCode: "XYZ"})
	next, _ = next.Update(exitMsg{PID: 7, Code: 2})

	got := next.(model)
	if got.snap.InviteCode != "XYZ" {
		t.Errorf("snapshot not applied: %+v", got.snap)
	}
	if n := len(got.lines); n == 0 || !strings.Contains(got.lines[n-1], "server exited (pid 7, code 2)") {
		t.Errorf("lines = %q", got.lines)
	}
	if !strings.Contains(got.View(), "Invite XYZ") {
		t.Error("View() does not show the status panel")
	}
}

func TestModel_ClearCommand(t *testing.T) {
	e, _ := newTestEnv(t)
	m := newModel(context.Background(), e, nil)
	defer m.cancel()
	m.lines = []string{"a", "b"}

	next, _ := m.Update(cmdDoneMsg{input: "clear", output: clearSentinel})
	if got := next.(model).lines; len(got) != 0 {
		t.Errorf("lines after clear = %q", got)
	}
}

func TestLogPath(t *testing.T) {
	want := filepath.Join("srv", "Moria", "Saved", "Logs", "Moria.log")
	if got := LogPath("srv"); got != want {
		t.Errorf("LogPath() = %q, want %q", got, want)
	}
}
