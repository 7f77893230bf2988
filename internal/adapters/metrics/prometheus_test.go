package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/meister/internal/adapters/metrics"
	"go.trai.ch/meister/internal/core/ports"
)

func TestPrometheusRecorder_Gather(t *testing.T) {
	reg := prom.NewRegistry()
	pr := metrics.NewPrometheusRecorder(reg)

	pr.ObserveTask("styles", ports.TaskSucceeded, 150*time.Millisecond)
	pr.IncCompileError("script")
	pr.IncCacheResult("scripts", true)
	pr.IncCacheResult("scripts", false)
	pr.SetLiveReloadClients(3)
	pr.IncReloadBroadcast()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				values[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.InDelta(t, 1, values["meister_task_duration_seconds"], 0)
	assert.InDelta(t, 1, values["meister_compile_errors_total"], 0)
	assert.InDelta(t, 2, values["meister_cache_results_total"], 0)
	assert.InDelta(t, 3, values["meister_livereload_clients"], 0)
	assert.InDelta(t, 1, values["meister_livereload_broadcasts_total"], 0)
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	pr := metrics.NewPrometheusRecorder(nil)
	pr.IncReloadBroadcast()

	srv := httptest.NewServer(pr.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "meister_livereload_broadcasts_total 1")
}

func TestNoopRecorder(t *testing.T) {
	var r metrics.NoopRecorder
	r.ObserveTask("styles", ports.TaskFailed, time.Second)
	r.IncCompileError("style")
	r.IncCacheResult("styles", true)
	r.SetLiveReloadClients(1)
	r.IncReloadBroadcast()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
