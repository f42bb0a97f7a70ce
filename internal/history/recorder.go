package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/haul/internal/engine"
	"github.com/zjrosen/haul/internal/log"
)

// RunInfo describes a run as it starts.
type RunInfo struct {
	Manifest    string
	Workers     int
	ErrorPolicy engine.ErrorPolicy
	Total       int
}

// Recorder is an engine.Notifier that writes every terminal task and the
// run's outcome to a RunRepository. It is driven by the control loop's
// goroutine only. Storage failures are logged and never interrupt the run.
type Recorder struct {
	repo     RunRepository
	runID    string
	now      func() time.Time
	finished bool
}

var _ engine.Notifier = (*Recorder)(nil)

// NewRecorder creates the run row and returns a Recorder for it. A nil
// clock means time.Now.
func NewRecorder(repo RunRepository, info RunInfo, clock func() time.Time) (*Recorder, error) {
	if clock == nil {
		clock = time.Now
	}
	run := &Run{
		ID:          uuid.New().String(),
		Manifest:    info.Manifest,
		Workers:     info.Workers,
		ErrorPolicy: info.ErrorPolicy.String(),
		Stats:       engine.Stats{Pending: info.Total, Total: info.Total},
		StartedAt:   clock(),
	}
	if err := repo.Create(run); err != nil {
		return nil, fmt.Errorf("recording run start: %w", err)
	}
	log.Debug(log.CatHistory, "Recording run", "run", run.ID, "total", info.Total)
	return &Recorder{repo: repo, runID: run.ID, now: clock}, nil
}

// RunID returns the ID of the run being recorded.
func (r *Recorder) RunID() string {
	return r.runID
}

func (r *Recorder) TaskCompleted(name string, elapsed time.Duration) {
	r.addResult(TaskResult{Name: name, Status: StatusDone, Elapsed: elapsed})
}

func (r *Recorder) TaskFailed(name, message string) {
	r.addResult(TaskResult{Name: name, Status: StatusError, Message: message})
}

func (r *Recorder) RunCompleted(stats engine.Stats) {
	r.finish(engine.OutcomeComplete, stats)
}

func (r *Recorder) RunStalled(stats engine.Stats) {
	r.finish(engine.OutcomeStalled, stats)
}

// Close records the final result if the control loop did not already, which
// is the case when the user quits.
func (r *Recorder) Close(result engine.Result) {
	r.finish(result.Outcome, result.Stats)
}

func (r *Recorder) addResult(res TaskResult) {
	res.RunID = r.runID
	res.FinishedAt = r.now()
	if err := r.repo.AddResult(res); err != nil {
		log.ErrorErr(log.CatHistory, "Failed to record task result", err, "run", r.runID, "task", res.Name)
	}
}

func (r *Recorder) finish(outcome engine.Outcome, stats engine.Stats) {
	if r.finished {
		return
	}
	r.finished = true
	if err := r.repo.Finish(r.runID, outcome.String(), stats, r.now()); err != nil {
		log.ErrorErr(log.CatHistory, "Failed to record run outcome", err, "run", r.runID, "outcome", outcome)
		return
	}
	log.Info(log.CatHistory, "Recorded run", "run", r.runID, "outcome", outcome,
		"completed", stats.Completed, "errored", stats.Errored)
}
