// Package metrics implements the metrics port with Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/meister/internal/core/ports"
)

const namespace = "meister"

var _ ports.Metrics = (*PrometheusRecorder)(nil)

// PrometheusRecorder implements ports.Metrics on a private registry.
type PrometheusRecorder struct {
	registry         *prom.Registry
	taskDuration     *prom.HistogramVec
	compileErrors    *prom.CounterVec
	cacheResults     *prom.CounterVec
	liveReloadClient prom.Gauge
	reloads          prom.Counter
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil registry selects a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of build tasks",
			Buckets:   prom.DefBuckets,
		}, []string{"task", "result"}),
		compileErrors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "compile_errors_total",
			Help:      "Compile errors by asset kind",
		}, []string{"kind"}),
		cacheResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_results_total",
			Help:      "Input-hash cache lookups by task and outcome",
		}, []string{"task", "outcome"}),
		liveReloadClient: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "livereload_clients",
			Help:      "Connected live-reload clients",
		}),
		reloads: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "livereload_broadcasts_total",
			Help:      "Reload events sent to connected browsers",
		}),
	}
	reg.MustRegister(pr.taskDuration, pr.compileErrors, pr.cacheResults, pr.liveReloadClient, pr.reloads)
	return pr
}

// ObserveTask records a finished task.
func (p *PrometheusRecorder) ObserveTask(task, result string, d time.Duration) {
	p.taskDuration.WithLabelValues(task, result).Observe(d.Seconds())
}

// IncCompileError counts a compile error of the kind.
func (p *PrometheusRecorder) IncCompileError(kind string) {
	p.compileErrors.WithLabelValues(kind).Inc()
}

// IncCacheResult counts a cache hit or miss.
func (p *PrometheusRecorder) IncCacheResult(task string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	p.cacheResults.WithLabelValues(task, outcome).Inc()
}

// SetLiveReloadClients sets the number of connected clients.
func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	p.liveReloadClient.Set(float64(n))
}

// IncReloadBroadcast counts one reload broadcast.
func (p *PrometheusRecorder) IncReloadBroadcast() {
	p.reloads.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
