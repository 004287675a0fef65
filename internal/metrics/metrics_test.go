package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsInitialization(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("metrics collector should not be nil")
	}
	if m.RequestsTotal == nil {
		t.Error("RequestsTotal should be initialized")
	}
	if m.RejectionsTotal == nil {
		t.Error("RejectionsTotal should be initialized")
	}
	if m.PaymentsCreated == nil {
		t.Error("PaymentsCreated should be initialized")
	}
	if m.MonitorsActive == nil {
		t.Error("MonitorsActive should be initialized")
	}
	if m.MonitorStageSeconds == nil {
		t.Error("MonitorStageSeconds should be initialized")
	}
	if m.PaymentsTerminal == nil {
		t.Error("PaymentsTerminal should be initialized")
	}
	if m.RPCCallsTotal == nil {
		t.Error("RPCCallsTotal should be initialized")
	}
}

func TestObserveRPCCallCategorizesErrors(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveRPCCall("get_logs", "polygon", 10*time.Millisecond, nil)
	if got := promtest.ToFloat64(m.RPCCallsTotal.WithLabelValues("get_logs", "polygon")); got != 1 {
		t.Errorf("expected 1 call recorded, got %v", got)
	}

	m.ObserveRPCCall("get_logs", "polygon", 10*time.Millisecond, errors.New("request timeout"))
	if got := promtest.ToFloat64(m.RPCErrorsTotal.WithLabelValues("get_logs", "polygon", "timeout")); got != 1 {
		t.Errorf("expected 1 timeout error recorded, got %v", got)
	}

	m.ObserveRPCCall("send_and_confirm", "solana", 5*time.Millisecond, errors.New("account not found"))
	if got := promtest.ToFloat64(m.RPCErrorsTotal.WithLabelValues("send_and_confirm", "solana", "not_found")); got != 1 {
		t.Errorf("expected 1 not_found error recorded, got %v", got)
	}
}

func TestObserveTerminalAndMonitorStage(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveTerminal("direct", "confirmed")
	if got := promtest.ToFloat64(m.PaymentsTerminal.WithLabelValues("direct", "confirmed")); got != 1 {
		t.Errorf("expected 1 terminal confirmed, got %v", got)
	}

	m.ObserveMonitorStage("bridge", "deposit_watch", 2*time.Second)
	if count := promtest.CollectAndCount(m.MonitorStageSeconds); count == 0 {
		t.Error("expected monitor stage histogram to record a sample")
	}
}
