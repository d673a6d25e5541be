// Package console implements the interactive server console: a live status
// panel, a tail of the server log and a small command prompt.
package console

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/KevinTCoughlin/moria-server-manager/internal/management"
	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
	"github.com/KevinTCoughlin/moria-server-manager/internal/status"
)

// Options holds what the console needs from the CLI.
type Options struct {
	Manager     management.ServerManager
	Procs       platform.ProcessTable
	Monitor     *status.Monitor
	KeepBackups int
}

// LogPath returns the server's own log file.
func LogPath(serverDir string) string {
	return filepath.Join(serverDir, "Moria", "Saved", "Logs", "Moria.log")
}

// Styles.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("94")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("223"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

// cmdDoneMsg is sent when a dispatched command finishes.
type cmdDoneMsg struct {
	input  string
	output string
	quit   bool
}

// snapshotMsg carries a status update from the monitor.
type snapshotMsg status.Snapshot

// exitMsg reports that a server started from the console has exited.
type exitMsg management.ExitInfo

type model struct {
	viewport viewport.Model
	input    textinput.Model
	lines    []string
	history  []string
	histIdx  int
	env      *env
	snap     status.Snapshot
	updates  <-chan status.Snapshot
	width    int
	height   int
	ready    bool
	quitting bool
	cancel   context.CancelFunc
	ctx      context.Context
	logPath  string
	// running indicates whether a command is currently executing.
	running bool
}

func newModel(ctx context.Context, e *env, updates <-chan status.Snapshot) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("> ")
	ti.Focus()
	ti.CharLimit = 256

	ctx, cancel := context.WithCancel(ctx)

	return model{
		input:   ti,
		env:     e,
		updates: updates,
		histIdx: -1,
		ctx:     ctx,
		cancel:  cancel,
		logPath: LogPath(e.mgr.ServerDir()),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tailLog(m.ctx, m.logPath),
		waitForSnapshot(m.updates),
		waitForExit(m.ctx, m.env.exits),
	)
}

func waitForSnapshot(updates <-chan status.Snapshot) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func waitForExit(ctx context.Context, exits <-chan management.ExitInfo) tea.Cmd {
	return func() tea.Msg {
		select {
		case info := <-exits:
			return exitMsg(info)
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *model) appendLines(lines ...string) {
	m.lines = append(m.lines, lines...)
	if m.ready {
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// 1 title bar + 1 status panel + 1 input + 1 status bar.
		viewHeight := max(1, m.height-4)

		if !m.ready {
			m.viewport = viewport.New(m.width, viewHeight)
			m.viewport.SetContent(strings.Join(m.lines, "\n"))
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewHeight
		}
		m.input.Width = m.width - 4

	case logReadMsg:
		m.appendLines(msg.line)
		cmds = append(cmds, nextLogLine(m.ctx, m.logPath, msg.offset))

	case snapshotMsg:
		m.snap = status.Snapshot(msg)
		cmds = append(cmds, waitForSnapshot(m.updates))

	case exitMsg:
		m.appendLines(eventStyle.Render(exitLine(management.ExitInfo(msg))))
		cmds = append(cmds, waitForExit(m.ctx, m.env.exits))

	case cmdDoneMsg:
		m.running = false
		if msg.quit {
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}
		if msg.output == clearSentinel {
			m.lines = nil
			if m.ready {
				m.viewport.SetContent("")
			}
		} else {
			m.appendLines(promptStyle.Render("> ") + msg.input)
			if msg.output != "" {
				m.appendLines(strings.Split(msg.output, "\n")...)
			}
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			m.cancel()
			return m, tea.Quit

		case tea.KeyEnter:
			if m.running {
				break
			}
			input := m.input.Value()
			m.input.SetValue("")
			if strings.TrimSpace(input) == "" {
				break
			}
			m.history = append(m.history, input)
			m.histIdx = len(m.history)
			m.running = true
			cmds = append(cmds, m.runCommand(input))

		case tea.KeyUp:
			if len(m.history) > 0 && m.histIdx > 0 {
				m.histIdx--
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}

		case tea.KeyDown:
			if m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			} else if m.histIdx == len(m.history)-1 {
				m.histIdx = len(m.history)
				m.input.SetValue("")
			}

		case tea.KeyPgUp, tea.KeyPgDown:
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			cmds = append(cmds, vpCmd)
		}
	}

	var tiCmd tea.Cmd
	m.input, tiCmd = m.input.Update(msg)
	cmds = append(cmds, tiCmd)

	return m, tea.Batch(cmds...)
}

func exitLine(info management.ExitInfo) string {
	if info.Err != nil {
		return fmt.Sprintf("*** server exited (pid %d): %v", info.PID, info.Err)
	}
	return fmt.Sprintf("*** server exited (pid %d, code %d)", info.PID, info.Code)
}

// panelText summarizes a snapshot on one line.
func panelText(s status.Snapshot) string {
	if s.IsZero() {
		return "No status reported yet"
	}
	parts := []string{orDash(s.Status)}
	if s.InviteCode != "" {
		parts = append(parts, "Invite "+s.InviteCode)
	}
	if s.WorldName != "" {
		parts = append(parts, fmt.Sprintf("World %s (seed %d)", s.WorldName, s.WorldSeed))
	}
	if s.Players != "" {
		parts = append(parts, "Players "+s.Players)
	}
	if s.Version != "" {
		parts = append(parts, "v"+s.Version)
	}
	return strings.Join(parts, " | ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (m model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := titleStyle.Render(" Return to Moria Server Console ")
	panel := panelStyle.Render(" " + panelText(m.snap))
	statusText := statusBarStyle.Render(
		fmt.Sprintf(" %s | Ctrl+C to exit | PgUp/PgDn to scroll", m.env.mgr.ServerDir()))

	titleBar := title + strings.Repeat(" ", max(0, m.width-lipgloss.Width(title)))

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		titleBar,
		panel,
		m.viewport.View(),
		m.input.View(),
		statusText,
	)
}

func (m model) runCommand(input string) tea.Cmd {
	ctx := m.ctx
	e := m.env
	snap := m.snap
	return func() tea.Msg {
		output, quit := dispatch(ctx, input, e, snap)
		return cmdDoneMsg{input: input, output: output, quit: quit}
	}
}

// Run starts the interactive console TUI. The monitor is started for the
// manager's server directory and stopped again when the console exits.
func Run(ctx context.Context, opts *Options) error {
	e := newEnv(opts)

	var updates <-chan status.Snapshot
	if opts.Monitor != nil {
		ch, unsubscribe := opts.Monitor.Subscribe()
		defer unsubscribe()
		updates = ch
		opts.Monitor.Start(opts.Manager.ServerDir())
		defer opts.Monitor.Stop()
	}

	p := tea.NewProgram(
		newModel(ctx, e, updates),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
