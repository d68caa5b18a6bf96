package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// LoginCounter counts login attempts by resolved role and outcome
	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carconnect_login_total",
			Help: "Total number of login attempts",
		},
		[]string{"role", "outcome"},
	)

	// RegisterCounter counts registrations by account kind and outcome
	RegisterCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carconnect_register_total",
			Help: "Total number of account registrations",
		},
		[]string{"kind", "outcome"},
	)

	// TenantOperationCounter counts tenant scoped writes
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carconnect_tenant_operations_total",
			Help: "Total number of tenant scoped write operations",
		},
		[]string{"resource", "operation"},
	)

	// HistoryFailureCounter counts tenants that failed during a vehicle history fan-out
	HistoryFailureCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "carconnect_history_tenant_failures_total",
			Help: "Total number of tenant queries that failed while assembling vehicle history",
		},
	)

	// AuditEventCounter counts audit events by kind and outcome (published, failed, dropped)
	AuditEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carconnect_audit_events_total",
			Help: "Total number of audit events handled by the recorder",
		},
		[]string{"kind", "outcome"},
	)
)

// Histogram metrics
var (
	// ProvisionDuration records how long tenant schema provisioning takes
	ProvisionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carconnect_tenant_provision_duration_seconds",
			Help:    "Duration of tenant schema provisioning in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(HistoryFailureCounter)
	prometheus.MustRegister(AuditEventCounter)
	prometheus.MustRegister(ProvisionDuration)

	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDurationHistogram)
}

// Outcome label for err
func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// TrackProvision returns a func that observes the elapsed provisioning time
func TrackProvision() func(err error) {
	start := time.Now()
	return func(err error) {
		ProvisionDuration.WithLabelValues(Outcome(err)).Observe(time.Since(start).Seconds())
	}
}

// GetPrometheusHandler exposes the default registry
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
