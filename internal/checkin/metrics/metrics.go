package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the check-in lifecycle.
type Metrics struct {
	CheckinsCreated   prometheus.Counter
	CheckinsSubmitted prometheus.Counter
	CheckinsReviewed  prometheus.Counter
	CheckinsExpired   prometheus.Counter
	RemindersSent     prometheus.Counter
	VerifyDuration    prometheus.Histogram
}

// New creates a Metrics instance with all check-in metrics registered.
func New() *Metrics {
	return &Metrics{
		CheckinsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supervision_checkins_created_total",
			Help: "Total number of check-ins scheduled by the sweep",
		}),
		CheckinsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supervision_checkins_submitted_total",
			Help: "Total number of check-ins submitted by offenders",
		}),
		CheckinsReviewed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supervision_checkins_reviewed_total",
			Help: "Total number of check-ins reviewed by practitioners",
		}),
		CheckinsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supervision_checkins_expired_total",
			Help: "Total number of check-ins expired by the sweep",
		}),
		RemindersSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supervision_checkin_reminders_sent_total",
			Help: "Total number of check-in reminders sent",
		}),
		VerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "supervision_identity_verification_duration_seconds",
			Help:    "Duration of the identity verification step at submission",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) AddCheckinsCreated(n int) {
	m.CheckinsCreated.Add(float64(n))
}

func (m *Metrics) IncrementCheckinsSubmitted() {
	m.CheckinsSubmitted.Inc()
}

func (m *Metrics) IncrementCheckinsReviewed() {
	m.CheckinsReviewed.Inc()
}

func (m *Metrics) AddCheckinsExpired(n int) {
	m.CheckinsExpired.Add(float64(n))
}

func (m *Metrics) AddRemindersSent(n int) {
	m.RemindersSent.Add(float64(n))
}

// ObserveVerify records the duration of one verification pass.
// Call with time.Now() at the start of the pass.
func (m *Metrics) ObserveVerify(start time.Time) {
	m.VerifyDuration.Observe(time.Since(start).Seconds())
}
