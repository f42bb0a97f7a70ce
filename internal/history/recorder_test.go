package history

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/haul/internal/engine"
)

func fixedClock() func() time.Time {
	now := testStart
	return func() time.Time {
		now = now.Add(100 * time.Millisecond)
		return now
	}
}

func TestRecorder_RecordsCompletedRun(t *testing.T) {
	repo := newTestDB(t).RunRepository()

	rec, err := NewRecorder(repo, RunInfo{
		Manifest:    "packages.yaml",
		Workers:     2,
		ErrorPolicy: engine.ErrorPolicyRefeed,
		Total:       2,
	}, fixedClock())
	require.NoError(t, err)
	require.Len(t, rec.RunID(), 36, "run IDs are UUIDs")

	rec.TaskCompleted("git", 150*time.Millisecond)
	rec.TaskFailed("git-man", "connection reset")
	stats := engine.Stats{Completed: 1, Errored: 1, Total: 2}
	rec.RunCompleted(stats)

	run, err := repo.Get(rec.RunID())
	require.NoError(t, err)
	require.Equal(t, "complete", run.Outcome)
	require.Equal(t, "refeed", run.ErrorPolicy)
	require.Equal(t, stats, run.Stats)
	require.True(t, run.Finished())

	results, err := repo.Results(rec.RunID())
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, TaskResult{
		RunID:      rec.RunID(),
		Name:       "git",
		Status:     StatusDone,
		Elapsed:    150 * time.Millisecond,
		FinishedAt: results[0].FinishedAt,
	}, results[0])
	require.Equal(t, "connection reset", results[1].Message)
}

func TestRecorder_StalledRun(t *testing.T) {
	repo := newTestDB(t).RunRepository()
	rec, err := NewRecorder(repo, RunInfo{Workers: 1, Total: 3}, fixedClock())
	require.NoError(t, err)

	rec.TaskFailed("git", "boom")
	rec.RunStalled(engine.Stats{Pending: 2, Errored: 1, Total: 3})

	run, err := repo.Get(rec.RunID())
	require.NoError(t, err)
	require.Equal(t, "stalled", run.Outcome)
	require.Equal(t, 2, run.Stats.Pending)
}

func TestRecorder_CloseRecordsQuit(t *testing.T) {
	repo := newTestDB(t).RunRepository()
	rec, err := NewRecorder(repo, RunInfo{Workers: 2, Total: 5}, fixedClock())
	require.NoError(t, err)

	rec.Close(engine.Result{
		Outcome: engine.OutcomeQuit,
		Stats:   engine.Stats{Pending: 3, InProgress: 2, Total: 5},
	})

	run, err := repo.Get(rec.RunID())
	require.NoError(t, err)
	require.Equal(t, "quit", run.Outcome)
}

func TestRecorder_CloseAfterCompletionKeepsOutcome(t *testing.T) {
	repo := newTestDB(t).RunRepository()
	rec, err := NewRecorder(repo, RunInfo{Workers: 1, Total: 1}, fixedClock())
	require.NoError(t, err)

	rec.TaskCompleted("git", time.Millisecond)
	rec.RunCompleted(engine.Stats{Completed: 1, Total: 1})
	rec.Close(engine.Result{Outcome: engine.OutcomeComplete, Stats: engine.Stats{Completed: 1, Total: 1}})

	run, err := repo.Get(rec.RunID())
	require.NoError(t, err)
	require.Equal(t, "complete", run.Outcome)
}

type failingRepo struct {
	RunRepository
	createErr error
	calls     int
}

func (f *failingRepo) Create(*Run) error { return f.createErr }

func (f *failingRepo) AddResult(TaskResult) error {
	f.calls++
	return errors.New("disk full")
}

func (f *failingRepo) Finish(string, string, engine.Stats, time.Time) error {
	f.calls++
	return errors.New("disk full")
}

func TestRecorder_CreateFailure(t *testing.T) {
	_, err := NewRecorder(&failingRepo{createErr: errors.New("read-only")}, RunInfo{}, nil)
	require.ErrorContains(t, err, "read-only")
}

func TestRecorder_StorageFailuresDoNotPanic(t *testing.T) {
	repo := &failingRepo{}
	rec, err := NewRecorder(repo, RunInfo{Total: 1}, nil)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		rec.TaskCompleted("git", time.Millisecond)
		rec.RunCompleted(engine.Stats{Completed: 1, Total: 1})
		rec.Close(engine.Result{Outcome: engine.OutcomeComplete})
	})
	require.Equal(t, 2, repo.calls, "outcome is written at most once")
}
