package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kode4food/pilot/pkg/api"
)

type (
	// Metrics records flow and step executions as Prometheus collectors.
	// A nil *Metrics records nothing
	Metrics struct {
		runsTotal    *prometheus.CounterVec
		runDuration  *prometheus.HistogramVec
		stepsTotal   *prometheus.CounterVec
		stepDuration *prometheus.HistogramVec
	}

	// Outcome labels the result of a run or a step
	Outcome string
)

const (
	OutcomeOK      Outcome = "ok"
	OutcomeError   Outcome = "error"
	OutcomeMissing Outcome = "missing"
	OutcomeFailed  Outcome = "failed"

	// UnknownFlow labels runs whose flow could not be resolved
	UnknownFlow api.FlowName = "unknown"

	namespace = "pilot"
)

// New registers the pilot collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_runs_total",
			Help:      "Flow runs by flow and outcome",
		}, []string{"flow", "outcome"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flow_run_duration_seconds",
			Help:      "Wall-clock duration of flow runs",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"flow"}),
		stepsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_executions_total",
			Help:      "Step executions by flow, task and outcome",
		}, []string{"flow", "task", "outcome"}),
		stepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of task invocations",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"task"}),
	}
}

// Handler exposes the collectors gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveRun records a completed or aborted flow run
func (m *Metrics) ObserveRun(flow api.FlowName, o Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(string(flow), string(o)).Inc()
	if o != OutcomeFailed {
		m.runDuration.WithLabelValues(string(flow)).Observe(d.Seconds())
	}
}

// ObserveStep records a single step. Missing tasks are counted but their
// duration is not observed
func (m *Metrics) ObserveStep(
	flow api.FlowName, task api.TaskID, o Outcome, d time.Duration,
) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(string(flow), string(task), string(o)).Inc()
	if o != OutcomeMissing {
		m.stepDuration.WithLabelValues(string(task)).Observe(d.Seconds())
	}
}
