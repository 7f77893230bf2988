package metrics

import (
	"net/http"
	"time"

	"go.trai.ch/meister/internal/core/ports"
)

var _ ports.Metrics = NoopRecorder{}

// NoopRecorder discards every observation.
type NoopRecorder struct{}

func (NoopRecorder) ObserveTask(string, string, time.Duration) {}
func (NoopRecorder) IncCompileError(string)                    {}
func (NoopRecorder) IncCacheResult(string, bool)               {}
func (NoopRecorder) SetLiveReloadClients(int)                  {}
func (NoopRecorder) IncReloadBroadcast()                       {}

// Handler responds 404.
func (NoopRecorder) Handler() http.Handler { return http.NotFoundHandler() }
