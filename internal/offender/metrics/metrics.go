package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the offender setup workflow.
type Metrics struct {
	SetupsStarted    prometheus.Counter
	SetupsCompleted  prometheus.Counter
	SetupsTerminated prometheus.Counter
}

// New creates a Metrics instance with all setup workflow metrics registered.
func New() *Metrics {
	return &Metrics{
		SetupsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supervision_setups_started_total",
			Help: "Total number of offender setups started",
		}),
		SetupsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supervision_setups_completed_total",
			Help: "Total number of offender setups completed (offender verified)",
		}),
		SetupsTerminated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supervision_setups_terminated_total",
			Help: "Total number of offender setups terminated",
		}),
	}
}

func (m *Metrics) IncrementSetupsStarted() {
	m.SetupsStarted.Inc()
}

func (m *Metrics) IncrementSetupsCompleted() {
	m.SetupsCompleted.Inc()
}

func (m *Metrics) IncrementSetupsTerminated() {
	m.SetupsTerminated.Inc()
}
