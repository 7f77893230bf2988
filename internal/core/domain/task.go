package domain

import (
	"context"
	"io"
	"slices"
)

// Step names one stage of work a task performs. Steps are informational and are
// shown by the plan command.
type Step string

const (
	StepClean      Step = "clean"
	StepPreprocess Step = "preprocess"
	StepCompile    Step = "compile"
	StepMinify     Step = "minify"
	StepSourcemaps Step = "sourcemaps"
	StepMemoize    Step = "memoize"
	StepWrite      Step = "write"
	StepWatch      Step = "watch"
	StepServe      Step = "serve"
	StepManifest   Step = "manifest"
)

// Task represents a unit of work in the build graph.
type Task struct {
	Name         InternedString
	Dependencies []InternedString
	Steps        []Step
	// Action performs the work. Progress lines are written to out.
	Action func(ctx context.Context, out io.Writer) error
}

// HasStep reports whether the task performs the step.
func (t Task) HasStep(s Step) bool {
	return slices.Contains(t.Steps, s)
}

// Run executes the task action. A task without an action succeeds immediately.
func (t Task) Run(ctx context.Context, out io.Writer) error {
	if t.Action == nil {
		return nil
	}
	if out == nil {
		out = io.Discard
	}
	return t.Action(ctx, out)
}
