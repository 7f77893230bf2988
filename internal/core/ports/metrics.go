package ports

import (
	"net/http"
	"time"
)

// Task results reported to ObserveTask.
const (
	TaskSucceeded = "success"
	TaskFailed    = "failed"
	TaskSkipped   = "skipped"
)

// Metrics records build and live-reload metrics.
type Metrics interface {
	ObserveTask(task, result string, d time.Duration)
	IncCompileError(kind string)
	IncCacheResult(task string, hit bool)
	SetLiveReloadClients(n int)
	IncReloadBroadcast()
	// Handler serves the metrics in the exposition format.
	Handler() http.Handler
}
