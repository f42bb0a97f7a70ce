// Package tui renders a run to the terminal: Inline draws a live progress
// area with bubbletea, Plain writes one line per notification.
package tui

import (
	"context"
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/haul/internal/engine"
	"github.com/zjrosen/haul/internal/input"
	"github.com/zjrosen/haul/internal/keys"
	"github.com/zjrosen/haul/internal/log"
	"github.com/zjrosen/haul/internal/pubsub"
	"github.com/zjrosen/haul/internal/queue"
)

// InlineConfig configures an Inline renderer.
type InlineConfig struct {
	Input  io.Reader // default: stdin
	Output io.Writer // default: stdout
	Raw    *queue.Mailbox[input.Raw]
	Logs   *pubsub.ContinuousListener[string] // debug log pane; nil hides it
	KeyMap keys.KeyMap
	Height int
}

// Inline is an engine.Renderer and engine.Notifier backed by a bubbletea
// program without the alternate screen. Snapshots travel through a
// latest-wins broker, so a slow terminal drops intermediate frames instead of
// stalling the control loop.
type Inline struct {
	program *tea.Program
	broker  *pubsub.Broker[engine.Snapshot]
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

var (
	_ engine.Renderer = (*Inline)(nil)
	_ engine.Notifier = (*Inline)(nil)
)

// NewInline creates the program. Call Start to run it.
func NewInline(ctx context.Context, cfg InlineConfig) *Inline {
	ctx, cancel := context.WithCancel(ctx)
	broker := pubsub.NewLatestBroker[engine.Snapshot](1)

	model := NewModel(ModelConfig{
		Raw:       cfg.Raw,
		Snapshots: pubsub.NewContinuousListener(ctx, broker),
		Logs:      cfg.Logs,
		KeyMap:    cfg.KeyMap,
		Height:    cfg.Height,
	})

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}
	if cfg.Output != nil {
		opts = append(opts, tea.WithOutput(cfg.Output))
	}

	return &Inline{
		program: tea.NewProgram(model, opts...),
		broker:  broker,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start runs the program in the background.
func (i *Inline) Start() {
	go func() {
		defer close(i.done)
		if _, err := i.program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			log.ErrorErr(log.CatUI, "Inline renderer exited", err)
			i.err = err
		}
	}()
}

// Render publishes snap to the view.
func (i *Inline) Render(snap engine.Snapshot) {
	i.broker.Publish(pubsub.UpdatedEvent, snap)
}

// Resize applies new geometry to the view.
func (i *Inline) Resize(width, height int) {
	i.program.Send(ResizeMsg{Width: width, Height: height})
}

func (i *Inline) TaskCompleted(name string, elapsed time.Duration) {
	i.program.Send(LineMsg{Line: successStyle.Render(CompletedLine(name, elapsed))})
}

func (i *Inline) TaskFailed(name, message string) {
	i.program.Send(LineMsg{Line: failureStyle.Render(FailedLine(name, message))})
}

func (i *Inline) RunCompleted(stats engine.Stats) {
	i.program.Send(FinishMsg{Line: FinishedLine(stats)})
}

func (i *Inline) RunStalled(stats engine.Stats) {
	i.program.Send(FinishMsg{Line: warningStyle.Render(StalledLine(stats))})
}

// Done is closed once the program has exited.
func (i *Inline) Done() <-chan struct{} {
	return i.done
}

// Stop ends the program, waits for it to restore the terminal, and returns
// any error it exited with. Safe after the program quit on its own.
func (i *Inline) Stop() error {
	i.program.Quit()
	<-i.done
	i.cancel()
	i.broker.Close()
	return i.err
}
