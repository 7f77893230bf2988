// Package domain contains the core domain models of the asset build: configuration,
// entries, artifacts, the manifest and the task graph.
package domain

import (
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Graph represents a dependency graph of tasks.
type Graph struct {
	tasks          map[InternedString]Task
	dependents     map[InternedString][]InternedString
	executionOrder []InternedString
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks:      make(map[InternedString]Task),
		dependents: make(map[InternedString][]InternedString),
	}
}

// AddTask adds a task to the graph.
// It returns an error if a task with the same name already exists.
func (g *Graph) AddTask(t *Task) error {
	if _, exists := g.tasks[t.Name]; exists {
		return zerr.With(ErrTaskAlreadyExists, "task_name", t.Name.String())
	}
	g.tasks[t.Name] = *t
	for _, dep := range t.Dependencies {
		g.dependents[dep] = append(g.dependents[dep], t.Name)
	}
	return nil
}

// GetTask returns the task with the given name.
func (g *Graph) GetTask(name InternedString) (Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Dependents returns the tasks that depend directly on the named task.
func (g *Graph) Dependents(name InternedString) []InternedString {
	return slices.Clone(g.dependents[name])
}

// TaskCount returns the number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

// Validate checks for missing dependencies and cycles using a topological sort.
// It populates the execution order used by Walk if successful.
func (g *Graph) Validate() error {
	g.executionOrder = make([]InternedString, 0, len(g.tasks))
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		task, exists := g.tasks[u]
		if !exists {
			return zerr.With(ErrMissingDependency, "dependency", u.String())
		}

		for _, dep := range task.Dependencies {
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	// Sorted roots keep Walk deterministic across runs.
	for _, name := range g.sortedNames() {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []InternedString, dep InternedString) error {
	startIdx := slices.Index(path, dep)
	parts := make([]string, 0, len(path)-startIdx+1)
	for _, node := range path[startIdx:] {
		parts = append(parts, node.String())
	}
	parts = append(parts, dep.String())
	return zerr.With(ErrCycleDetected, "cycle", strings.Join(parts, " -> "))
}

// Walk returns an iterator that yields tasks in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}

// Stages groups the tasks into series stages. Tasks in one stage only depend on
// tasks of earlier stages and may run in parallel. Tasks within a stage are sorted
// by name. It assumes Validate() has been called and returned nil.
func (g *Graph) Stages() [][]Task {
	if len(g.executionOrder) != len(g.tasks) {
		return nil
	}
	level := make(map[InternedString]int, len(g.tasks))
	depth := 0
	for _, name := range g.executionOrder {
		l := 0
		for _, dep := range g.tasks[name].Dependencies {
			l = max(l, level[dep]+1)
		}
		level[name] = l
		depth = max(depth, l+1)
	}

	stages := make([][]Task, depth)
	for _, name := range g.sortedNames() {
		l := level[name]
		stages[l] = append(stages[l], g.tasks[name])
	}
	return stages
}

func (g *Graph) sortedNames() []InternedString {
	names := make([]InternedString, 0, len(g.tasks))
	for name := range g.tasks {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b InternedString) int {
		return strings.Compare(a.String(), b.String())
	})
	return names
}
