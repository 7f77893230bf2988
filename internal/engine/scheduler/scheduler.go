// Package scheduler executes a task graph with bounded parallelism.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/zerr"
)

// TaskStatus represents the status of a task.
type TaskStatus string

const (
	// StatusPending indicates the task is waiting to be executed.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the task is currently executing.
	StatusRunning TaskStatus = "Running"
	// StatusCompleted indicates the task has finished successfully.
	StatusCompleted TaskStatus = "Completed"
	// StatusFailed indicates the task execution failed.
	StatusFailed TaskStatus = "Failed"
	// StatusSkipped indicates the task was not started because a dependency failed.
	StatusSkipped TaskStatus = "Skipped"
)

// Scheduler manages the execution of tasks in the dependency graph.
type Scheduler struct {
	tracer  ports.Tracer
	metrics ports.Metrics
	logger  ports.Logger

	mu         sync.RWMutex
	taskStatus map[domain.InternedString]TaskStatus
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(tracer ports.Tracer, metrics ports.Metrics, logger ports.Logger) *Scheduler {
	return &Scheduler{
		tracer:     tracer,
		metrics:    metrics,
		logger:     logger,
		taskStatus: make(map[domain.InternedString]TaskStatus),
	}
}

// Status returns the status of the named task in the most recent run.
func (s *Scheduler) Status(name string) TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskStatus[domain.NewInternedString(name)]
}

func (s *Scheduler) initTaskStatuses(graph *domain.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.taskStatus)
	for task := range graph.Walk() {
		s.taskStatus[task.Name] = StatusPending
	}
}

func (s *Scheduler) updateStatus(name domain.InternedString, status TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStatus[name] = status
}

// Run executes every task of the graph, starting a task once all of its
// dependencies completed. At most parallelism tasks run at the same time.
// Dependents of a failed task are marked skipped and never started.
func (s *Scheduler) Run(ctx context.Context, graph *domain.Graph, parallelism int) error {
	if err := graph.Validate(); err != nil {
		return err
	}
	if parallelism < 1 {
		parallelism = 1
	}

	planned := make([]string, 0, graph.TaskCount())
	depMap := make(map[string][]string, graph.TaskCount())
	for task := range graph.Walk() {
		name := task.Name.String()
		planned = append(planned, name)
		deps := make([]string, len(task.Dependencies))
		for i, dep := range task.Dependencies {
			deps[i] = dep.String()
		}
		depMap[name] = deps
	}
	s.tracer.EmitPlan(ctx, planned, depMap)

	s.initTaskStatuses(graph)

	return s.newRunState(ctx, graph, parallelism).runExecutionLoop()
}

type result struct {
	task     domain.InternedString
	err      error
	duration time.Duration
}

type schedulerRunState struct {
	graph       *domain.Graph
	inDegree    map[domain.InternedString]int
	ready       []domain.InternedString
	active      int
	resultsCh   chan result
	errs        error
	ctx         context.Context
	parallelism int
	s           *Scheduler
}

func (s *Scheduler) newRunState(ctx context.Context, graph *domain.Graph, parallelism int) *schedulerRunState {
	inDegree := make(map[domain.InternedString]int, graph.TaskCount())
	var ready []domain.InternedString

	// Walk order keeps the initial ready queue deterministic.
	for task := range graph.Walk() {
		inDegree[task.Name] = len(task.Dependencies)
		if len(task.Dependencies) == 0 {
			ready = append(ready, task.Name)
		}
	}

	return &schedulerRunState{
		graph:       graph,
		inDegree:    inDegree,
		ready:       ready,
		resultsCh:   make(chan result, parallelism),
		ctx:         ctx,
		parallelism: parallelism,
		s:           s,
	}
}

func (state *schedulerRunState) runExecutionLoop() error {
	done := state.ctx.Done()
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			return errors.Join(state.errs, state.ctx.Err())
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-done:
			// Cancelled: only results can change the state now.
			done = nil
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	return state.errs
}

func (state *schedulerRunState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		taskName := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.s.updateStatus(taskName, StatusRunning)

		t, _ := state.graph.GetTask(taskName)
		go state.executeTask(t)
	}
}

func (state *schedulerRunState) executeTask(t domain.Task) {
	// The span is ended before the result is sent so that it is recorded
	// by the time the loop observes the result.
	res := func() result {
		ctx, span := state.s.tracer.Start(state.ctx, t.Name.String(),
			ports.WithAttribute("meister.steps", len(t.Steps)))
		defer span.End()

		start := time.Now()
		err := t.Run(ctx, span)
		if err != nil {
			span.RecordError(err)
		}
		return result{task: t.Name, err: err, duration: time.Since(start)}
	}()

	state.resultsCh <- res
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--

	if res.err != nil {
		enhancedErr := zerr.With(zerr.Wrap(res.err, domain.ErrTaskExecutionFailed.Error()), "task", res.task.String())
		state.errs = errors.Join(state.errs, enhancedErr)
		state.s.updateStatus(res.task, StatusFailed)
		state.s.metrics.ObserveTask(res.task.String(), ports.TaskFailed, res.duration)
		state.skipDependents(res.task)
		return
	}

	state.s.updateStatus(res.task, StatusCompleted)
	state.s.metrics.ObserveTask(res.task.String(), ports.TaskSucceeded, res.duration)

	for _, dep := range state.graph.Dependents(res.task) {
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 && state.s.Status(dep.String()) == StatusPending {
			state.ready = append(state.ready, dep)
		}
	}
}

// skipDependents marks every transitive dependent of a failed task as skipped.
func (state *schedulerRunState) skipDependents(failed domain.InternedString) {
	queue := state.graph.Dependents(failed)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if state.s.Status(name.String()) != StatusPending {
			continue
		}
		state.s.updateStatus(name, StatusSkipped)
		state.s.metrics.ObserveTask(name.String(), ports.TaskSkipped, 0)
		state.s.logger.Warn("skipping task, a dependency failed",
			"task", name.String(), "dependency", failed.String())

		queue = append(queue, state.graph.Dependents(name)...)
	}
}
