package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OpRequestCredential = "request_credential"
	OpIssueCredential   = "issue_credential"
	OpGetCredentials    = "get_credentials"
	OpPendingRequest    = "pending_request"
)

// Metrics holds the Prometheus collectors for credential operations
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationLatency  *prometheus.HistogramVec
	CredentialsIssued *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credential_ledger_operations_total",
			Help: "Total number of ledger operations by outcome",
		}, []string{"operation", "outcome"}),
		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credential_ledger_operation_latency_seconds",
			Help:    "Latency of ledger operations in seconds, queue wait included",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		CredentialsIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credential_ledger_credentials_issued_total",
			Help: "Total number of credentials issued by type",
		}, []string{"credential_type"}),
	}
}

// Observe records one finished operation. A nil receiver is a no-op.
func (m *Metrics) Observe(operation, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) IncIssued(credentialType string) {
	if m == nil {
		return
	}
	m.CredentialsIssued.WithLabelValues(credentialType).Inc()
}
