package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Op outcomes recorded by RecordOp.
const (
	OutcomeApplied = "applied"
	OutcomeIgnored = "ignored"
	OutcomeFailed  = "failed"
)

var (
	registerOnce sync.Once

	opsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worldsync",
			Subsystem: "reader",
			Name:      "ops_total",
			Help:      "Inbound ops processed by the reader, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	updatesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worldsync",
			Subsystem: "writer",
			Name:      "component_updates_total",
			Help:      "Component updates sent to the runtime.",
		},
		[]string{"component"},
	)
	commandRequestsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worldsync",
			Subsystem: "commands",
			Name:      "requests_sent_total",
			Help:      "Outbound command requests sent.",
		},
		[]string{"component"},
	)
	commandResponsesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worldsync",
			Subsystem: "commands",
			Name:      "responses_sent_total",
			Help:      "Responses sent for inbound command requests.",
		},
		[]string{"component"},
	)
	commandResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worldsync",
			Subsystem: "commands",
			Name:      "results_total",
			Help:      "Command results delivered to callbacks, by status.",
		},
		[]string{"component", "status"},
	)
	commandsInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "worldsync",
			Subsystem: "commands",
			Name:      "in_flight",
			Help:      "Outbound command requests awaiting a response.",
		},
		[]string{"component"},
	)
	phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "worldsync",
			Subsystem: "frame",
			Name:      "phase_duration_seconds",
			Help:      "Frame phase duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"phase"},
	)
	framesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "worldsync",
			Subsystem: "frame",
			Name:      "ticks_total",
			Help:      "Completed frames.",
		},
	)
)

// RegisterMetrics registers every collector with the default registerer once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			opsTotal,
			updatesSent,
			commandRequestsSent,
			commandResponsesSent,
			commandResults,
			commandsInFlight,
			phaseDuration,
			framesTotal,
		)
	})
}

func RecordOp(kind, outcome string) {
	RegisterMetrics()
	opsTotal.WithLabelValues(kind, outcome).Inc()
}

func RecordComponentUpdate(component string) {
	RegisterMetrics()
	updatesSent.WithLabelValues(component).Inc()
}

func RecordCommandRequest(component string) {
	RegisterMetrics()
	commandRequestsSent.WithLabelValues(component).Inc()
}

func RecordCommandResponse(component string) {
	RegisterMetrics()
	commandResponsesSent.WithLabelValues(component).Inc()
}

func RecordCommandResult(component, status string) {
	RegisterMetrics()
	commandResults.WithLabelValues(component, status).Inc()
}

func SetCommandsInFlight(component string, n int) {
	RegisterMetrics()
	commandsInFlight.WithLabelValues(component).Set(float64(n))
}

func RecordPhase(phase string, duration time.Duration) {
	RegisterMetrics()
	phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

func RecordFrame() {
	RegisterMetrics()
	framesTotal.Inc()
}
