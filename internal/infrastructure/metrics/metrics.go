package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"remindbot/internal/ports/output"
)

var _ output.Recorder = (*Metrics)(nil)

const namespace = "remindbot"

// Metrics exposes Prometheus collectors for the bot's activity.
type Metrics struct {
	eventsCreated      *prometheus.CounterVec
	proposals          *prometheus.CounterVec
	remindersSent      prometheus.Counter
	remindersFailed    prometheus.Counter
	tickDuration       prometheus.Histogram
	remindersDuePerRun prometheus.Gauge
	commands           *prometheus.CounterVec
}

// MustNewMetrics registers the collectors with reg and panics on a
// registration conflict. Tests should pass a fresh prometheus.NewRegistry().
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		eventsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_created_total",
			Help:      "Events stored, by source (command or proposal).",
		}, []string{"source"}),
		proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_total",
			Help:      "Event proposals, by outcome.",
		}, []string{"outcome"}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "reminders_dispatched_total",
			Help:      "Reminders delivered to a chat.",
		}),
		remindersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "reminders_failed_total",
			Help:      "Reminder deliveries that failed and will be retried.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "tick_duration_seconds",
			Help:      "Duration of a reminder dispatch tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		remindersDuePerRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "reminders_due",
			Help:      "Reminders found due by the last tick.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Handled commands, by command and status.",
		}, []string{"command", "status"}),
	}
	reg.MustRegister(
		m.eventsCreated,
		m.proposals,
		m.remindersSent,
		m.remindersFailed,
		m.tickDuration,
		m.remindersDuePerRun,
		m.commands,
	)
	return m
}

func (m *Metrics) EventCreated(source string) {
	m.eventsCreated.WithLabelValues(source).Inc()
}

func (m *Metrics) ProposalResolved(outcome string) {
	m.proposals.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ReminderDispatched() {
	m.remindersSent.Inc()
}

func (m *Metrics) ReminderFailed() {
	m.remindersFailed.Inc()
}

func (m *Metrics) TickCompleted(d time.Duration, due int) {
	m.tickDuration.Observe(d.Seconds())
	m.remindersDuePerRun.Set(float64(due))
}

func (m *Metrics) CommandHandled(command, status string) {
	m.commands.WithLabelValues(command, status).Inc()
}
