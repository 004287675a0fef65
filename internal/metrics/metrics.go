package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for Railclaw.
type Metrics struct {
	// Orchestrator routing/validation outcomes
	RequestsTotal    *prometheus.CounterVec
	RejectionsTotal  *prometheus.CounterVec
	PaymentsCreated  *prometheus.CounterVec

	// Monitor lifecycle
	MonitorsActive      prometheus.Gauge
	MonitorStageSeconds *prometheus.HistogramVec
	PaymentsTerminal    *prometheus.CounterVec

	// Chain adapter RPC calls
	RPCCallsTotal   *prometheus.CounterVec
	RPCCallDuration *prometheus.HistogramVec
	RPCErrorsTotal  *prometheus.CounterVec

	// Outbound notification delivery
	NotificationsTotal *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railclaw_requests_total",
				Help: "Total number of orchestrator requests by action",
			},
			[]string{"action"},
		),
		RejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railclaw_rejections_total",
				Help: "Total number of rejected create_payment_link requests by violation",
			},
			[]string{"violation"},
		),
		PaymentsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railclaw_payments_created_total",
				Help: "Total number of payment records created by kind",
			},
			[]string{"kind", "settlement_chain"},
		),
		MonitorsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "railclaw_monitors_active",
				Help: "Number of monitor goroutines currently running",
			},
		),
		MonitorStageSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "railclaw_monitor_stage_seconds",
				Help:    "Time spent in a monitor stage before it resolves",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 900, 1800, 3600, 7200},
			},
			[]string{"kind", "stage"},
		),
		PaymentsTerminal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railclaw_payments_terminal_total",
				Help: "Total number of payments reaching a terminal status",
			},
			[]string{"kind", "status"},
		),
		RPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railclaw_rpc_calls_total",
				Help: "Total number of RPC calls to blockchain nodes",
			},
			[]string{"method", "chain"},
		),
		RPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "railclaw_rpc_call_duration_seconds",
				Help:    "Duration of RPC calls to blockchain nodes",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "chain"},
		),
		RPCErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railclaw_rpc_errors_total",
				Help: "Total number of RPC errors by coarse error category",
			},
			[]string{"method", "chain", "error_type"},
		),
		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railclaw_notifications_total",
				Help: "Total number of queued notifications drained by delivery outcome",
			},
			[]string{"kind", "outcome"},
		),
	}
}

// ObserveRPCCall records an RPC call to a chain adapter, categorizing errors
// coarsely so dashboards can separate transient noise from fatal failures.
func (m *Metrics) ObserveRPCCall(method, chain string, duration time.Duration, err error) {
	m.RPCCallsTotal.WithLabelValues(method, chain).Inc()
	m.RPCCallDuration.WithLabelValues(method, chain).Observe(duration.Seconds())

	if err == nil {
		return
	}
	errorType := "other"
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		errorType = "timeout"
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		errorType = "rate_limit"
	case strings.Contains(msg, "connection"):
		errorType = "connection"
	case strings.Contains(msg, "not found"):
		errorType = "not_found"
	}
	m.RPCErrorsTotal.WithLabelValues(method, chain, errorType).Inc()
}

// ObserveMonitorStage records how long a monitor spent in a stage before it
// resolved (matched, advanced, or timed out).
func (m *Metrics) ObserveMonitorStage(kind, stage string, duration time.Duration) {
	m.MonitorStageSeconds.WithLabelValues(kind, stage).Observe(duration.Seconds())
}

// ObserveTerminal records a payment reaching confirmed/expired/error.
func (m *Metrics) ObserveTerminal(kind, status string) {
	m.PaymentsTerminal.WithLabelValues(kind, status).Inc()
}
