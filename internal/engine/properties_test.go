package engine_test

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/haul/internal/engine"
	"github.com/zjrosen/haul/internal/events"
	"github.com/zjrosen/haul/internal/queue"
	"github.com/zjrosen/haul/internal/task"
)

// world plays the workers' side: it tracks what each worker was handed and
// produces plausible events for it.
type world struct {
	pool     *recordingPool
	seen     int
	current  map[events.WorkerID]task.ID
	progress map[events.WorkerID]float64
}

func newWorld(pool *recordingPool) *world {
	return &world{
		pool:     pool,
		current:  make(map[events.WorkerID]task.ID),
		progress: make(map[events.WorkerID]float64),
	}
}

// sync picks up dispatches made since the last call.
func (w *world) sync() []dispatch {
	fresh := w.pool.dispatched[w.seen:]
	w.seen = len(w.pool.dispatched)
	for _, d := range fresh {
		w.current[d.Worker] = d.Task.ID
		w.progress[d.Worker] = 0
	}
	return fresh
}

func (w *world) busy() []events.WorkerID {
	ids := make([]events.WorkerID, 0, len(w.current))
	for id := range w.current {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func namedTasks(m int) []task.Task {
	names := make([]string, m)
	for i := range names {
		names[i] = fmt.Sprintf("pkg-%d", i)
	}
	return makeTasks(names...)
}

func TestProperty_RunInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := rapid.IntRange(0, 12).Draw(rt, "tasks")
		n := rapid.IntRange(1, 4).Draw(rt, "workers")
		policy := rapid.SampledFrom([]engine.ErrorPolicy{
			engine.ErrorPolicyLeaveIdle,
			engine.ErrorPolicyRefeed,
		}).Draw(rt, "policy")

		pool := &recordingPool{size: n}
		notifier := &recordingNotifier{}
		agg, err := engine.New(engine.Config{
			Backlog:          task.NewBacklog(namedTasks(m)),
			Pool:             pool,
			Events:           queue.NewMailbox[events.Event](),
			Renderer:         &recordingRenderer{},
			Notifier:         notifier,
			ErrorPolicy:      policy,
			CoalesceProgress: rapid.Bool().Draw(rt, "coalesce"),
		})
		require.NoError(rt, err)

		outcome, err := agg.Start()
		require.NoError(rt, err)
		require.True(rt, agg.Stats().Conserved())

		w := newWorld(pool)
		w.sync()

		for step := 0; outcome == engine.OutcomeRunning; step++ {
			busy := w.busy()
			require.NotEmpty(rt, busy, "running with no busy worker")

			worker := rapid.SampledFrom(busy).Draw(rt, "worker")
			id := w.current[worker]
			kind := rapid.IntRange(0, 4).Draw(rt, "kind")
			if step > 200 {
				kind = 3
			}

			pendingBefore := agg.Stats().Pending
			var ev events.Event
			switch kind {
			case 0:
				ev = events.Tick{}
			case 1:
				w.progress[worker] = min(100, w.progress[worker]+rapid.Float64Range(0.5, 40).Draw(rt, "delta"))
				ev = events.ProgressUpdate{Worker: worker, Task: id, Percent: w.progress[worker]}
			case 2:
				ev = events.TaskDone{Worker: worker, Task: id + task.ID(m) + 1}
			case 3:
				delete(w.current, worker)
				ev = events.TaskDone{Worker: worker, Task: id}
			case 4:
				delete(w.current, worker)
				ev = events.TaskError{Worker: worker, Task: id, Message: "failed"}
			}

			outcome, err = agg.Handle(ev)
			require.NoError(rt, err)
			require.True(rt, agg.Stats().Conserved(), "conservation after %s: %+v", ev.Kind(), agg.Stats())

			fresh := w.sync()
			require.LessOrEqual(rt, len(fresh), 1, "one event dispatches at most one task")

			switch kind {
			case 1:
				entry, ok := agg.InProgress(worker)
				require.True(rt, ok)
				require.Equal(rt, w.progress[worker], entry.Progress)
			case 3:
				// Done: the same worker is re-fed if anything was pending.
				if pendingBefore > 0 {
					require.Len(rt, fresh, 1)
					require.Equal(rt, worker, fresh[0].Worker)
				} else {
					require.Empty(rt, fresh)
				}
			case 4:
				if policy == engine.ErrorPolicyRefeed && pendingBefore > 0 {
					require.Len(rt, fresh, 1)
					require.Equal(rt, worker, fresh[0].Worker)
				} else {
					require.Empty(rt, fresh)
				}
			default:
				require.Empty(rt, fresh)
			}
		}

		// No task was dispatched twice.
		dispatched := make(map[task.ID]bool)
		for _, d := range pool.dispatched {
			require.False(rt, dispatched[d.Task.ID], "task %s dispatched twice", d.Task.ID)
			dispatched[d.Task.ID] = true
		}

		// Every terminal notification names a distinct task.
		terminal := make(map[string]bool)
		for _, name := range append(append([]string{}, notifier.completed...), notifier.failed...) {
			require.False(rt, terminal[name], "task %s reached a terminal state twice", name)
			terminal[name] = true
		}

		stats := agg.Stats()
		switch outcome {
		case engine.OutcomeComplete:
			require.Zero(rt, stats.Pending)
			require.Zero(rt, stats.InProgress)
			require.Equal(rt, m, stats.Done())
			require.Len(rt, terminal, m)
			require.Len(rt, notifier.runCompleted, 1)
			require.Empty(rt, notifier.runStalled)
		case engine.OutcomeStalled:
			require.Equal(rt, engine.ErrorPolicyLeaveIdle, policy)
			require.Positive(rt, stats.Pending)
			require.Zero(rt, stats.InProgress)
			require.Len(rt, notifier.runStalled, 1)
			require.Empty(rt, notifier.runCompleted)
		default:
			rt.Fatalf("unexpected outcome %s", outcome)
		}
	})
}

func TestProperty_QuitAtAnyPoint(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := rapid.IntRange(1, 10).Draw(rt, "tasks")
		n := rapid.IntRange(1, 3).Draw(rt, "workers")
		quitAfter := rapid.IntRange(0, m).Draw(rt, "quitAfter")

		pool := &recordingPool{size: n}
		agg, err := engine.New(engine.Config{
			Backlog:  task.NewBacklog(namedTasks(m)),
			Pool:     pool,
			Events:   queue.NewMailbox[events.Event](),
			Renderer: &recordingRenderer{},
			Notifier: &recordingNotifier{},
		})
		require.NoError(rt, err)

		outcome, err := agg.Start()
		require.NoError(rt, err)

		w := newWorld(pool)
		w.sync()
		for i := 0; i < quitAfter && outcome == engine.OutcomeRunning; i++ {
			worker := w.busy()[0]
			id := w.current[worker]
			delete(w.current, worker)
			outcome, err = agg.Handle(events.TaskDone{Worker: worker, Task: id})
			require.NoError(rt, err)
			w.sync()
		}
		if outcome != engine.OutcomeRunning {
			return
		}

		before := agg.Stats()
		outcome, err = agg.Handle(events.Input{Key: "q"})
		require.NoError(rt, err)
		require.Equal(rt, engine.OutcomeQuit, outcome)
		require.Equal(rt, before, agg.Stats(), "quit does not touch run state")
	})
}
