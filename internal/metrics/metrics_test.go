package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/pilot/internal/metrics"
)

func TestObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveRun("k8s-healthcheck", metrics.OutcomeOK, 10*time.Millisecond)
	m.ObserveRun("k8s-healthcheck", metrics.OutcomeOK, 20*time.Millisecond)
	m.ObserveRun("missing", metrics.OutcomeFailed, 0)

	count, err := countSeries(reg, "pilot_flow_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = countSeries(reg, "pilot_flow_run_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestObserveStep(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveStep("f", "a", metrics.OutcomeOK, time.Millisecond)
	m.ObserveStep("f", "a", metrics.OutcomeError, time.Millisecond)
	m.ObserveStep("f", "b", metrics.OutcomeMissing, 0)

	count, err := countSeries(reg, "pilot_step_executions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = countSeries(reg, "pilot_step_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun("f", metrics.OutcomeOK, time.Second)
		m.ObserveStep("f", "a", metrics.OutcomeOK, time.Second)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveRun("k8s-healthcheck", metrics.OutcomeOK, time.Millisecond)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metrics.Handler(reg).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(),
		`pilot_flow_runs_total{flow="k8s-healthcheck",outcome="ok"} 1`,
	)
}

func countSeries(g prometheus.Gatherer, name string) (int, error) {
	families, err := g.Gather()
	if err != nil {
		return 0, err
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return len(mf.GetMetric()), nil
		}
	}
	return 0, nil
}
