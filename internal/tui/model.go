package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/haul/internal/engine"
	"github.com/zjrosen/haul/internal/input"
	"github.com/zjrosen/haul/internal/keys"
	"github.com/zjrosen/haul/internal/log"
	"github.com/zjrosen/haul/internal/pubsub"
	"github.com/zjrosen/haul/internal/queue"
)

const (
	// DefaultHeight is the number of lines the live area may use.
	DefaultHeight = 8

	defaultWidth = 80
	nameWidth    = 20
	elapsedWidth = 8
	minBarWidth  = 10
	maxBarWidth  = 40

	// logPaneLines is how many recent debug log entries the view shows.
	logPaneLines = 3
)

// ResizeMsg applies new terminal geometry. The control loop sends it after
// it has processed the corresponding Resize event.
type ResizeMsg struct {
	Width  int
	Height int
}

// LineMsg prints a line above the live area.
type LineMsg struct {
	Line string
}

// FinishMsg prints a final line, clears the live area and quits.
type FinishMsg struct {
	Line string
}

// ModelConfig configures a Model.
type ModelConfig struct {
	// Raw receives key presses and window sizes for the input listener.
	// Nil drops them.
	Raw *queue.Mailbox[input.Raw]

	// Snapshots delivers the control loop's state.
	Snapshots *pubsub.ContinuousListener[engine.Snapshot]

	// Logs delivers debug log entries, shown under the tasks. Nil when
	// logging is off.
	Logs *pubsub.ContinuousListener[string]

	KeyMap keys.KeyMap

	// Height caps the live area, title and gauge included.
	Height int

	// Clock returns the current time. Default: time.Now.
	Clock func() time.Time
}

// Model is the inline progress view. It owns no run state: everything it
// shows comes from the latest Snapshot.
type Model struct {
	raw       *queue.Mailbox[input.Raw]
	snapshots *pubsub.ContinuousListener[engine.Snapshot]
	logs      *pubsub.ContinuousListener[string]
	keys      keys.KeyMap
	help      help.Model
	bar       progress.Model
	gauge     progress.Model
	now       func() time.Time

	snap     engine.Snapshot
	logLines []string
	width    int
	height   int
	done     bool
}

// NewModel creates a Model.
func NewModel(cfg ModelConfig) Model {
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if len(cfg.KeyMap.Quit.Keys()) == 0 {
		cfg.KeyMap = keys.DefaultKeyMap()
	}

	m := Model{
		raw:       cfg.Raw,
		snapshots: cfg.Snapshots,
		logs:      cfg.Logs,
		keys:      cfg.KeyMap,
		help:      help.New(),
		bar:       progress.New(progress.WithDefaultGradient()),
		gauge:     progress.New(progress.WithSolidFill(successColor.Dark), progress.WithoutPercentage()),
		now:       cfg.Clock,
		height:    cfg.Height,
	}
	return m.setWidth(defaultWidth)
}

// Init starts listening for snapshots and log entries.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.snapshots != nil {
		cmds = append(cmds, m.snapshots.Listen())
	}
	if m.logs != nil {
		cmds = append(cmds, m.logs.Listen())
	}
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.forward(input.KeyRaw(msg.String()))
		return m, nil

	case tea.WindowSizeMsg:
		m.forward(input.ResizeRaw(msg.Width, msg.Height))
		return m, nil

	case ResizeMsg:
		return m.setWidth(msg.Width), nil

	case pubsub.Event[engine.Snapshot]:
		m.snap = msg.Payload
		if m.snapshots == nil {
			return m, nil
		}
		return m, m.snapshots.Listen()

	case pubsub.Event[string]:
		m.logLines = append(m.logLines, strings.TrimRight(msg.Payload, "\n"))
		if n := len(m.logLines); n > logPaneLines {
			m.logLines = m.logLines[n-logPaneLines:]
		}
		if m.logs == nil {
			return m, nil
		}
		return m, m.logs.Listen()

	case LineMsg:
		return m, tea.Println(msg.Line)

	case FinishMsg:
		m.done = true
		return m, tea.Sequence(tea.Println(msg.Line), tea.Quit)
	}

	return m, nil
}

func (m Model) forward(raw input.Raw) {
	if m.raw == nil {
		return
	}
	if err := m.raw.Send(raw); err != nil {
		log.Debug(log.CatUI, "Dropping terminal input after listener stopped", "error", err)
	}
}

func (m Model) setWidth(width int) Model {
	if width <= 0 {
		return m
	}
	m.width = width
	m.help.Width = width

	bar := width - nameWidth - elapsedWidth - 4
	m.bar.Width = max(minBarWidth, min(maxBarWidth, bar))
	m.gauge.Width = max(minBarWidth, min(maxBarWidth, width-len(GaugeLabel(engine.Stats{Total: 999}))-2))
	return m
}

// Snapshot returns the state currently on screen.
func (m Model) Snapshot() engine.Snapshot {
	return m.snap
}

// Width returns the applied terminal width.
func (m Model) Width() int {
	return m.width
}

// View renders the live area.
func (m Model) View() string {
	if m.done {
		return ""
	}

	stats := m.snap.Stats()
	var b strings.Builder

	ratio := 0.0
	if stats.Total > 0 {
		ratio = float64(stats.Done()) / float64(stats.Total)
	}
	b.WriteString(titleStyle.Render(GaugeLabel(stats)))
	b.WriteString("  ")
	b.WriteString(m.gauge.ViewAs(ratio))
	b.WriteString("\n")

	// Title, help and the log pane have fixed heights; task overflow
	// collapses into one line.
	tasks := m.snap.InProgress
	hidden := 0
	if rows := max(1, m.height-2-len(m.logLines)); len(tasks) > rows {
		hidden = len(tasks) - (rows - 1)
		tasks = tasks[:rows-1]
	}
	now := m.now()
	for _, p := range tasks {
		b.WriteString(nameStyle.Render(fitName(p.Name, nameWidth)))
		b.WriteString(" ")
		b.WriteString(elapsedStyle.Render(fmt.Sprintf("%*s", elapsedWidth, formatElapsed(p.Elapsed(now)))))
		b.WriteString("  ")
		b.WriteString(m.bar.ViewAs(p.Progress / 100))
		b.WriteString("\n")
	}
	if hidden > 0 {
		b.WriteString(elapsedStyle.Render(fmt.Sprintf("… and %d more", hidden)))
		b.WriteString("\n")
	}

	for _, line := range m.logLines {
		b.WriteString(logStyle.Render(ansi.Truncate(line, m.width, "…")))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return b.String()
}
