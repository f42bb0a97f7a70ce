package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/muesli/termenv"

	"github.com/zjrosen/haul/internal/engine"
)

// Plain writes one line per notification and draws nothing live. It is used
// with --plain or when stdout is not a terminal.
type Plain struct {
	mu  sync.Mutex
	out *termenv.Output
}

var (
	_ engine.Renderer = (*Plain)(nil)
	_ engine.Notifier = (*Plain)(nil)
)

// NewPlain writes to w, colouring only if w is a colour-capable terminal.
func NewPlain(w io.Writer) *Plain {
	return &Plain{out: termenv.NewOutput(w)}
}

func (p *Plain) Render(engine.Snapshot) {}

func (p *Plain) Resize(int, int) {}

func (p *Plain) TaskCompleted(name string, elapsed time.Duration) {
	p.println(CompletedLine(name, elapsed), successColor.Dark)
}

func (p *Plain) TaskFailed(name, message string) {
	p.println(FailedLine(name, message), errorColor.Dark)
}

func (p *Plain) RunCompleted(stats engine.Stats) {
	p.println(FinishedLine(stats), "")
}

func (p *Plain) RunStalled(stats engine.Stats) {
	p.println(StalledLine(stats), warningColor.Dark)
}

func (p *Plain) println(line, hex string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if hex != "" {
		line = p.out.String(line).Foreground(p.out.Color(hex)).String()
	}
	_, _ = fmt.Fprintln(p.out, line)
}
