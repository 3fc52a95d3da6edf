package dispatch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"recon/internal/scouts"
)

// Task names one scout invocation inside a parallel batch.
type Task struct {
	Scout  string
	Params scouts.Params
}

// TaskResult is one slot of a parallel batch: the task's name plus its
// normalized run result.
type TaskResult struct {
	TaskName string         `json:"taskName"`
	Details  Details        `json:"details"`
	Content  []ContentBlock `json:"content"`
	IsError  bool           `json:"isError"`
}

// AggregateState is the combined view of a parallel batch, rebuilt for every
// progress emission and returned once every task settles.
type AggregateState struct {
	Mode    string       `json:"mode"`
	Status  Status       `json:"status"`
	Results []TaskResult `json:"results"`
}

// AggregateProgressFunc receives throttled combined-progress snapshots.
type AggregateProgressFunc func(state AggregateState)

// Aggregator fans out scout tasks and reduces their outcomes.
type Aggregator struct {
	registry *scouts.Registry
	runner   *Runner
}

// NewAggregator creates an aggregator that resolves task names against
// registry and executes them through runner.
func NewAggregator(registry *scouts.Registry, runner *Runner) *Aggregator {
	return &Aggregator{registry: registry, runner: runner}
}

// slots holds per-task results. Each task owns exactly one index, so slot
// writes never contend; only snapshotting for a combined emission locks.
type slots struct {
	emitter *progressEmitter

	mu    sync.Mutex
	items []slotItem
}

type slotItem struct {
	name   string
	status Status
	result *Result
	record *RunRecord
}

// RunAll executes every task concurrently and waits for all of them to
// settle. One task's failure never affects its siblings or the batch. An
// unknown scout name fails its own slot immediately without a session.
func (a *Aggregator) RunAll(ctx context.Context, tasks []Task, onProgress AggregateProgressFunc) AggregateState {
	s := &slots{items: make([]slotItem, len(tasks))}
	for i, task := range tasks {
		s.items[i] = slotItem{name: task.Scout, status: StatusRunning}
	}

	var emit func()
	if onProgress != nil {
		emit = func() { onProgress(s.snapshot()) }
	}
	s.emitter = newProgressEmitter(combinedProgressInterval, emit)
	s.emitter.EmitForce()

	group := &errgroup.Group{}
	for i, task := range tasks {
		cfg, ok := a.registry.Lookup(task.Scout)
		if !ok {
			s.fail(i, fmt.Sprintf("Unknown scout: %s", task.Scout))
			continue
		}

		group.Go(func() error {
			onRunProgress := func(rec RunRecord) {
				force := rec.Status.Terminal()
				s.update(i, rec, force)
			}
			result := a.runner.Run(ctx, cfg, task.Params, onRunProgress)
			s.settle(i, result)
			return nil
		})
	}

	// Run absorbs its own failures into the per-slot result, so the group
	// never carries an error.
	_ = group.Wait()

	final := s.snapshot()
	s.emitter.EmitForce()
	return final
}

// update refreshes one slot from a run progress snapshot and triggers a
// combined emission. Transitions force the emission past the throttle.
func (s *slots) update(i int, rec RunRecord, force bool) {
	s.mu.Lock()
	transitioned := s.items[i].status != rec.Status
	s.items[i].status = rec.Status
	recCopy := rec
	s.items[i].record = &recCopy
	s.mu.Unlock()

	if force || transitioned {
		s.emitter.EmitForce()
		return
	}
	s.emitter.Emit()
}

// settle stores a task's final result.
func (s *slots) settle(i int, result *Result) {
	s.mu.Lock()
	s.items[i].status = result.Details.Status
	s.items[i].result = result
	s.mu.Unlock()

	s.emitter.EmitForce()
}

// fail short-circuits one slot to a terminal error without a run.
func (s *slots) fail(i int, msg string) {
	result := &Result{
		Content: []ContentBlock{{Kind: "text", Text: msg}},
		Details: Details{Status: StatusError},
		IsError: true,
	}
	s.settle(i, result)
}

// snapshot rebuilds the combined state from the current slots.
func (s *slots) snapshot() AggregateState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := AggregateState{
		Mode:    "parallel",
		Results: make([]TaskResult, len(s.items)),
	}
	for i, item := range s.items {
		tr := TaskResult{TaskName: item.name}
		switch {
		case item.result != nil:
			tr.Details = item.result.Details
			tr.Content = item.result.Content
			tr.IsError = item.result.IsError
		case item.record != nil:
			tr.Details = Details{
				Status: item.record.Status,
				Runs:   []RunRecord{*item.record},
			}
		default:
			tr.Details = Details{Status: StatusRunning}
		}
		state.Results[i] = tr
	}
	state.Status = reduceStatus(state.Results)
	return state
}

// reduceStatus folds per-task statuses into the batch status: running beats
// everything, then error, then aborted only when every task aborted.
func reduceStatus(results []TaskResult) Status {
	if len(results) == 0 {
		return StatusDone
	}

	allAborted := true
	anyError := false
	for _, r := range results {
		switch r.Details.Status {
		case StatusRunning:
			return StatusRunning
		case StatusError:
			anyError = true
			allAborted = false
		case StatusDone:
			allAborted = false
		}
	}
	if anyError {
		return StatusError
	}
	if allAborted {
		return StatusAborted
	}
	return StatusDone
}
