package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "casa_empenos"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	loanOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loans",
			Name:      "operations_total",
			Help:      "Loan lifecycle operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)

	valuationFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "valuation",
			Name:      "fallbacks_total",
			Help:      "Estimates replaced by the fallback formula.",
		},
		[]string{"reason"},
	)

	appointmentOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "operations_total",
			Help:      "Appointment operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)

	reminderRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "runs_total",
			Help:      "Expiry reminder job runs.",
		},
		[]string{"success"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		loanOperations,
		valuationFallbacks,
		appointmentOperations,
		reminderRuns,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordLoanOperation records a lifecycle operation; outcome is "ok" or the
// error kind.
func RecordLoanOperation(operation, outcome string) {
	loanOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordValuationFallback records the reason an estimate fell back.
func RecordValuationFallback(reason string) {
	valuationFallbacks.WithLabelValues(reason).Inc()
}

// RecordAppointmentOperation records a scheduler operation.
func RecordAppointmentOperation(operation, outcome string) {
	appointmentOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordReminderRun records one run of the reminder job.
func RecordReminderRun(success bool) {
	label := "false"
	if success {
		label = "true"
	}
	reminderRuns.WithLabelValues(label).Inc()
}
