package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/haul/internal/config"
	"github.com/zjrosen/haul/internal/engine"
	"github.com/zjrosen/haul/internal/events"
	"github.com/zjrosen/haul/internal/executor"
	"github.com/zjrosen/haul/internal/history"
	"github.com/zjrosen/haul/internal/input"
	"github.com/zjrosen/haul/internal/installer"
	"github.com/zjrosen/haul/internal/keys"
	"github.com/zjrosen/haul/internal/log"
	"github.com/zjrosen/haul/internal/pool"
	"github.com/zjrosen/haul/internal/queue"
	"github.com/zjrosen/haul/internal/task"
	"github.com/zjrosen/haul/internal/tui"
)

// finishTimeout bounds how long the inline view gets to print its final
// line after the run ends.
const finishTimeout = 2 * time.Second

// runner holds what survives between runs in --watch mode.
type runner struct {
	cfg      config.Config
	manifest string
	plain    bool
	in       io.Reader
	out      io.Writer
	errOut   io.Writer

	tracer   trace.Tracer
	runs     history.RunRepository // nil when history is off
	download *executor.Download
}

func newRunner(c config.Config, in io.Reader, out, errOut io.Writer) *runner {
	return &runner{
		cfg:      c,
		manifest: c.Manifest,
		plain:    c.Plain,
		in:       in,
		out:      out,
		errOut:   errOut,
		download: executor.NewDownload(c.Download.Dir, c.Download.Timeout),
	}
}

func (r *runner) executor() pool.Executor {
	return &executor.Auto{
		Simulated: &executor.Simulated{
			ChunkUnits: r.cfg.Simulate.ChunkUnits,
			UnitDelay:  r.cfg.Simulate.UnitDelay,
		},
		Download: r.download,
	}
}

// runOnce runs tasks to an outcome. Cancelling ctx quits the run the same way
// a quit key does.
func (r *runner) runOnce(ctx context.Context, tasks []task.Task) (engine.Result, error) {
	mailbox := queue.NewMailbox[events.Event]()
	keyMap := keys.New(r.cfg.QuitKeys)

	workers, err := pool.New(pool.Config{
		Size:     r.cfg.Workers,
		Executor: r.executor(),
		Events:   mailbox,
	})
	if err != nil {
		return engine.Result{}, fmt.Errorf("starting workers: %w", err)
	}
	// Quit abandons in-flight tasks; closing here only releases them.
	defer workers.Close()

	var (
		raw       *queue.Mailbox[input.Raw]
		renderer  engine.Renderer
		notifiers engine.MultiNotifier
		inline    *tui.Inline
	)
	if r.plain {
		plain := tui.NewPlain(r.out)
		renderer = plain
		notifiers = append(notifiers, plain)
	} else {
		raw = queue.NewMailbox[input.Raw]()
		defer raw.Close()
		logCtx, stopLogs := context.WithCancel(ctx)
		defer stopLogs()
		inline = tui.NewInline(ctx, tui.InlineConfig{
			Input:  r.in,
			Output: r.out,
			Raw:    raw,
			Logs:   log.NewListener(logCtx),
			KeyMap: keyMap,
		})
		inline.Start()
		renderer = inline
		notifiers = append(notifiers, inline)
	}

	recorder := r.startRecording(len(tasks))
	if recorder != nil {
		notifiers = append(notifiers, recorder)
	}

	agg, err := engine.New(engine.Config{
		Backlog:          task.NewBacklog(tasks),
		Pool:             workers,
		Events:           mailbox,
		Renderer:         renderer,
		Notifier:         notifiers,
		IsQuit:           keyMap.IsQuit,
		ErrorPolicy:      r.cfg.Policy(),
		CoalesceProgress: r.cfg.CoalesceProgress,
		Tracer:           r.tracer,
	})
	if err != nil {
		if inline != nil {
			_ = inline.Stop()
		}
		return engine.Result{}, err
	}

	listenCtx, stopListening := context.WithCancel(context.Background())
	listenDone := make(chan struct{})
	go func() {
		defer close(listenDone)
		input.NewListener(r.cfg.TickInterval, raw).Run(listenCtx, mailbox)
	}()

	runDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			// Interrupts become a quit key so the loop ends on its next receive.
			_ = mailbox.Send(events.Input{Key: keyMap.Quit.Keys()[0]})
		case <-runDone:
		}
	}()

	result, runErr := agg.Run(ctx)
	close(runDone)
	stopListening()
	<-listenDone

	if inline != nil {
		if result.Outcome == engine.OutcomeComplete || result.Outcome == engine.OutcomeStalled {
			select {
			case <-inline.Done():
			case <-time.After(finishTimeout):
			}
		}
		if err := inline.Stop(); err != nil && runErr == nil {
			runErr = fmt.Errorf("running progress view: %w", err)
		}
	}
	if recorder != nil {
		recorder.Close(result)
	}
	if runErr != nil {
		return result, runErr
	}

	if err := r.install(ctx, result, tasks); err != nil {
		return result, err
	}
	return result, nil
}

func (r *runner) startRecording(total int) *history.Recorder {
	if r.runs == nil {
		return nil
	}
	rec, err := history.NewRecorder(r.runs, history.RunInfo{
		Manifest:    r.manifest,
		Workers:     r.cfg.Workers,
		ErrorPolicy: r.cfg.Policy(),
		Total:       total,
	}, nil)
	if err != nil {
		log.ErrorErr(log.CatHistory, "Run will not be recorded", err)
		return nil
	}
	return rec
}

// install runs the post-run installer once every task succeeded.
func (r *runner) install(ctx context.Context, result engine.Result, tasks []task.Task) error {
	if !r.cfg.Install.Enabled || result.Outcome != engine.OutcomeComplete || result.Stats.Errored > 0 {
		return nil
	}
	inst, err := installer.New(r.cfg.Install.Command, r.out, r.errOut)
	if err != nil {
		return err
	}
	ran, err := inst.Install(ctx, r.download.Artifacts(ctx, tasks))
	if err != nil {
		return fmt.Errorf("installing packages: %w", err)
	}
	if !ran {
		_, _ = fmt.Fprintln(r.out, "Nothing to install")
	}
	return nil
}

var (
	// ErrTasksFailed is returned when a completed run had failed tasks.
	ErrTasksFailed = errors.New("some tasks failed")
	// ErrRunStalled is returned when failed workers left tasks pending.
	ErrRunStalled = errors.New("run stalled")
)

// resultError maps a run's outcome to the command's exit status. Quitting is
// not an error.
func resultError(result engine.Result) error {
	switch result.Outcome {
	case engine.OutcomeStalled:
		return fmt.Errorf("%w: %d pending after every worker failed", ErrRunStalled, result.Stats.Pending)
	case engine.OutcomeComplete:
		if result.Stats.Errored > 0 {
			return fmt.Errorf("%w: %d of %d", ErrTasksFailed, result.Stats.Errored, result.Stats.Total)
		}
	}
	return nil
}
