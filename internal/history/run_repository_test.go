package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/haul/internal/engine"
)

var testStart = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func TestRunRepository_CreateAndGet(t *testing.T) {
	repo := newTestDB(t).RunRepository()

	run := &Run{
		ID:          "run-1",
		Manifest:    "packages.yaml",
		Workers:     2,
		ErrorPolicy: "refeed",
		Stats:       engine.Stats{Pending: 5, Total: 5},
		StartedAt:   testStart,
	}
	require.NoError(t, repo.Create(run))
	require.Equal(t, "running", run.Outcome)

	got, err := repo.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, "packages.yaml", got.Manifest)
	assert.Equal(t, 2, got.Workers)
	assert.Equal(t, "refeed", got.ErrorPolicy)
	assert.Equal(t, "running", got.Outcome)
	assert.Equal(t, engine.Stats{Pending: 5, Total: 5}, got.Stats)
	assert.True(t, testStart.Equal(got.StartedAt))
	assert.False(t, got.Finished())
	assert.Zero(t, got.Duration())
}

func TestRunRepository_GetMissing(t *testing.T) {
	repo := newTestDB(t).RunRepository()

	_, err := repo.Get("nope")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunRepository_DuplicateID(t *testing.T) {
	repo := newTestDB(t).RunRepository()

	require.NoError(t, repo.Create(&Run{ID: "run-1", Workers: 1, StartedAt: testStart}))
	require.Error(t, repo.Create(&Run{ID: "run-1", Workers: 1, StartedAt: testStart}))
}

func TestRunRepository_Finish(t *testing.T) {
	repo := newTestDB(t).RunRepository()
	require.NoError(t, repo.Create(&Run{ID: "run-1", Workers: 2, StartedAt: testStart}))

	stats := engine.Stats{Completed: 4, Errored: 1, Total: 5}
	require.NoError(t, repo.Finish("run-1", "complete", stats, testStart.Add(1500*time.Millisecond)))

	got, err := repo.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, "complete", got.Outcome)
	assert.Equal(t, stats, got.Stats)
	assert.True(t, got.Finished())
	assert.Equal(t, 1500*time.Millisecond, got.Duration())
}

func TestRunRepository_FinishMissing(t *testing.T) {
	repo := newTestDB(t).RunRepository()

	err := repo.Finish("nope", "complete", engine.Stats{}, testStart)
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunRepository_Results(t *testing.T) {
	repo := newTestDB(t).RunRepository()
	require.NoError(t, repo.Create(&Run{ID: "run-1", Workers: 2, StartedAt: testStart}))
	require.NoError(t, repo.Create(&Run{ID: "run-2", Workers: 2, StartedAt: testStart}))

	require.NoError(t, repo.AddResult(TaskResult{RunID: "run-1", Name: "git-man", Status: StatusDone, Elapsed: 80 * time.Millisecond, FinishedAt: testStart}))
	require.NoError(t, repo.AddResult(TaskResult{RunID: "run-1", Name: "git", Status: StatusError, Message: "boom", FinishedAt: testStart}))
	require.NoError(t, repo.AddResult(TaskResult{RunID: "run-2", Name: "other", Status: StatusDone, FinishedAt: testStart}))

	results, err := repo.Results("run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "git-man", results[0].Name)
	assert.Equal(t, 80*time.Millisecond, results[0].Elapsed)
	assert.Equal(t, StatusError, results[1].Status)
	assert.Equal(t, "boom", results[1].Message)
}

func TestRunRepository_ResultRequiresRun(t *testing.T) {
	repo := newTestDB(t).RunRepository()

	err := repo.AddResult(TaskResult{RunID: "missing", Name: "git", Status: StatusDone, FinishedAt: testStart})
	require.Error(t, err, "foreign keys are enforced")
}

func TestRunRepository_ResultRejectsUnknownStatus(t *testing.T) {
	repo := newTestDB(t).RunRepository()
	require.NoError(t, repo.Create(&Run{ID: "run-1", Workers: 1, StartedAt: testStart}))

	err := repo.AddResult(TaskResult{RunID: "run-1", Name: "git", Status: "maybe", FinishedAt: testStart})
	require.Error(t, err)
}

func TestRunRepository_Recent(t *testing.T) {
	repo := newTestDB(t).RunRepository()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(&Run{ID: id, Workers: 1, StartedAt: testStart.Add(time.Duration(i) * time.Minute)}))
	}

	runs, err := repo.Recent(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	runs, err = repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
}

func TestRunRepository_RecentEmpty(t *testing.T) {
	repo := newTestDB(t).RunRepository()

	runs, err := repo.Recent(10)
	require.NoError(t, err)
	require.Empty(t, runs)
}
