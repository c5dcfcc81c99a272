package flow

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus-compatible counters and gauges for an
// Instance's execution. A nil *Metrics is valid: every method is a no-op on
// a nil receiver. Production hosts construct one NewMetrics per process and
// pass it to instances that want observability.
//
// The active_pauses gauge is registered, but nothing in this module calls
// setActivePauses, so the gauge stays at zero.
//
// Grounded on the teacher's PrometheusMetrics: a struct of pre-registered
// vectors behind a factory built from promauto.With(registry), trimmed to
// the counters FlowCore's components actually produce (steps, pauses, loop
// iterations, node-event fanout) rather than the teacher's concurrent-DAG
// metrics (inflight nodes, queue depth, merge conflicts), which have no
// FlowCore analog since evaluation here is single-threaded per Instance.
type Metrics struct {
	stepsTotal         *prometheus.CounterVec
	activePauses       prometheus.Gauge
	loopIterations     *prometheus.CounterVec
	nodeEventFanout    *prometheus.CounterVec
	mu                 sync.Mutex
}

// NewMetrics registers and returns a Metrics bound to registry. A nil
// registry uses prometheus.DefaultRegisterer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		stepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowcore",
			Name:      "steps_total",
			Help:      "Number of nodes evaluated, labeled by outcome.",
		}, []string{"flow_instance_id", "outcome"}),

		activePauses: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "flowcore",
			Name:      "active_pauses",
			Help:      "Number of currently held Flow Hub pauses.",
		}),

		loopIterations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowcore",
			Name:      "loop_iterations_total",
			Help:      "Number of loop controller iterations evaluated.",
		}, []string{"flow_instance_id"}),

		nodeEventFanout: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowcore",
			Name:      "node_event_fanout_total",
			Help:      "Number of flowManagerNodeEvent emissions, by custom event name.",
		}, []string{"custom_event_name"}),
	}
}

func (m *Metrics) recordStep(flowInstanceID string, hasError bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if hasError {
		outcome = "error"
	}
	m.stepsTotal.WithLabelValues(flowInstanceID, outcome).Inc()
}

func (m *Metrics) recordLoopIteration(flowInstanceID string) {
	if m == nil {
		return
	}
	m.loopIterations.WithLabelValues(flowInstanceID).Inc()
}

func (m *Metrics) recordNodeEventFanout(customEventName string) {
	if m == nil {
		return
	}
	m.nodeEventFanout.WithLabelValues(customEventName).Inc()
}

func (m *Metrics) setActivePauses(n int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activePauses.Set(float64(n))
}
