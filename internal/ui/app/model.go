package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	capturedto "avrec/internal/modules/capture/dto"
	recordingsdto "avrec/internal/modules/recordings/dto"
	"avrec/internal/ui/theme"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type capturePort interface {
	SetMode(ctx context.Context, mode string) error
	Start(ctx context.Context) (capturedto.StartOutput, error)
	Stop(ctx context.Context) (capturedto.StopOutput, error)
	Download(ctx context.Context, handle, mode string) (capturedto.DownloadOutput, error)
	Play(ctx context.Context, handle string) error
	Snapshot(ctx context.Context) capturedto.SnapshotOutput
	Subscribe() <-chan struct{}
}

type historyPort interface {
	Enumerate(ctx context.Context) ([]recordingsdto.RecordingOutput, error)
}

// ─── async messages ───────────────────────────────────────────────────────────

type captureChangedMsg struct{}

type historyLoadedMsg struct {
	items []recordingsdto.RecordingOutput
	err   error
}

type startedMsg struct {
	out capturedto.StartOutput
	err error
}

type stoppedMsg struct {
	out capturedto.StopOutput
	err error
}

type downloadedMsg struct {
	out capturedto.DownloadOutput
	err error
}

type playedMsg struct {
	handle string
	err    error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Audio    key.Binding
	Video    key.Binding
	Toggle   key.Binding
	Download key.Binding
	Play     key.Binding
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Audio:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "audio mode")),
		Video:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "video mode")),
		Toggle:   key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "start/stop")),
		Download: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download last")),
		Play:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play last")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "select")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↑/↓", "select")),
		Open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "play selected")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Audio, k.Video, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Audio, k.Video, k.Toggle},
		{k.Play, k.Download},
		{k.Up, k.Open},
		{k.Help, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. Capture and history state live behind
// the ports; the model keeps the latest snapshot of each for rendering.
type Model struct {
	capture capturePort
	history historyPort

	snap     capturedto.SnapshotOutput
	items    []recordingsdto.RecordingOutput
	selected int

	keys     keyMap
	help     help.Model
	showHelp bool
	spinner  spinner.Model
	status   string
	width    int
	height   int
}

func NewModel(capture capturePort, history historyPort) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Hot
	return Model{
		capture: capture,
		history: history,
		snap:    capture.Snapshot(context.Background()),
		keys:    defaultKeys(),
		help:    help.New(),
		spinner: sp,
		status:  "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForChange(),
		m.loadHistoryCmd(),
		m.spinner.Tick,
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = m.width

	case captureChangedMsg:
		m.snap = m.capture.Snapshot(context.Background())
		return m, tea.Batch(m.waitForChange(), m.loadHistoryCmd())

	case historyLoadedMsg:
		if msg.err != nil {
			m.status = "history: " + msg.err.Error()
			return m, nil
		}
		m.items = msg.items
		if m.selected >= len(m.items) {
			m.selected = max(len(m.items)-1, 0)
		}

	case startedMsg:
		m.snap = m.capture.Snapshot(context.Background())
		if msg.err != nil {
			m.status = "start failed"
			return m, nil
		}
		m.status = "recording " + msg.out.Mode

	case stoppedMsg:
		m.snap = m.capture.Snapshot(context.Background())
		if msg.err != nil {
			m.status = "stop: " + msg.err.Error()
			return m, nil
		}
		m.status = "finalizing " + msg.out.Mode + " recording"

	case downloadedMsg:
		if msg.err != nil {
			m.status = "download: " + msg.err.Error()
		} else {
			m.status = "saved " + msg.out.Path
		}

	case playedMsg:
		if msg.err != nil {
			m.status = "play: " + msg.err.Error()
		} else {
			m.status = "playing " + msg.handle
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.snap.Recording {
			// Release the devices before the program exits; finalization is
			// awaited by the caller.
			_, _ = m.capture.Stop(context.Background())
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.Audio):
		return m.selectMode(modeAudio)

	case key.Matches(msg, m.keys.Video):
		return m.selectMode(modeVideo)

	case key.Matches(msg, m.keys.Toggle):
		switch {
		case m.snap.Recording:
			return m, m.stopCmd()
		case m.snap.State == stateRequesting:
			return m, nil
		default:
			m.snap.State = stateRequesting
			m.status = "requesting devices"
			return m, m.startCmd()
		}

	case key.Matches(msg, m.keys.Download):
		if m.snap.Last == nil {
			m.status = "nothing recorded yet"
			return m, nil
		}
		return m, m.downloadCmd(m.snap.Last.Handle, m.snap.Last.Mode)

	case key.Matches(msg, m.keys.Play):
		if m.snap.Last == nil {
			m.status = "nothing recorded yet"
			return m, nil
		}
		return m, m.playCmd(m.snap.Last.Handle)

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.items)-1 {
			m.selected++
		}

	case key.Matches(msg, m.keys.Open):
		if m.selected < len(m.items) {
			return m, m.playCmd(m.items[m.selected].URL)
		}
	}
	return m, nil
}

// selectMode is inert while a session is active.
func (m Model) selectMode(mode string) (tea.Model, tea.Cmd) {
	if m.snap.Recording || m.snap.State != stateIdle {
		return m, nil
	}
	if err := m.capture.SetMode(context.Background(), mode); err != nil {
		m.status = "mode: " + err.Error()
		return m, nil
	}
	m.snap = m.capture.Snapshot(context.Background())
	m.status = mode + " mode"
	return m, nil
}

// ─── commands ─────────────────────────────────────────────────────────────────

// waitForChange blocks on the capture subscription; Update re-arms it after
// every delivery.
func (m Model) waitForChange() tea.Cmd {
	sub := m.capture.Subscribe()
	return func() tea.Msg {
		<-sub
		return captureChangedMsg{}
	}
}

func (m Model) loadHistoryCmd() tea.Cmd {
	history := m.history
	return func() tea.Msg {
		items, err := history.Enumerate(context.Background())
		return historyLoadedMsg{items: items, err: err}
	}
}

func (m Model) startCmd() tea.Cmd {
	capture := m.capture
	return func() tea.Msg {
		out, err := capture.Start(context.Background())
		return startedMsg{out: out, err: err}
	}
}

func (m Model) stopCmd() tea.Cmd {
	capture := m.capture
	return func() tea.Msg {
		out, err := capture.Stop(context.Background())
		return stoppedMsg{out: out, err: err}
	}
}

func (m Model) downloadCmd(handle, mode string) tea.Cmd {
	capture := m.capture
	return func() tea.Msg {
		out, err := capture.Download(context.Background(), handle, mode)
		return downloadedMsg{out: out, err: err}
	}
}

func (m Model) playCmd(handle string) tea.Cmd {
	capture := m.capture
	return func() tea.Msg {
		err := capture.Play(context.Background(), handle)
		return playedMsg{handle: handle, err: err}
	}
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	var body string
	if m.showHelp {
		body = m.help.View(m.keys)
	} else {
		body = Render(Screen{
			Capture:  m.snap,
			History:  m.items,
			Selected: m.selected,
			Spinner:  m.spinner.View(),
		})
	}
	return theme.App.Render(lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar()))
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.snap.Recording {
		left = theme.Error.Render("● REC "+m.snap.Elapsed) + "  " + left
	}
	right := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := m.width - 4 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return "\n" + left + strings.Repeat(" ", gap) + right
}
