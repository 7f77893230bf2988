package ports

import "time"

// Renderer is the abstraction for build progress output.
// It decouples telemetry collection from presentation.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// OnPlanEmit is called when the scheduler has planned the task graph.
	OnPlanEmit(tasks []string, deps map[string][]string)

	// OnTaskStart is called when a task begins execution.
	OnTaskStart(spanID, parentID, name string, startTime time.Time)

	// OnTaskLog is called when a task emits output.
	OnTaskLog(spanID string, data []byte)

	// OnTaskComplete is called when a task finishes execution.
	OnTaskComplete(spanID string, endTime time.Time, err error)

	// Stop flushes any buffered output.
	Stop() error
}
