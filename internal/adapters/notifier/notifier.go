// Package notifier reports compile failures through the logger.
package notifier

import (
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier prints a warning headline followed by the rendered error chain.
type LogNotifier struct {
	logger ports.Logger
}

// New creates a LogNotifier.
func New(logger ports.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify reports n. A notification without an error only logs the headline.
func (n *LogNotifier) Notify(note domain.Notification) {
	title := note.Title
	if title == "" {
		title = "build problem"
	}
	if note.Task != "" {
		n.logger.Warn(title, "task", note.Task)
	} else {
		n.logger.Warn(title)
	}
	if note.Err != nil {
		n.logger.Error(note.Err)
	}
}
