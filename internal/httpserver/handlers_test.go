package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/railclaw/orchestrator/internal/chain/evm"
	"github.com/railclaw/orchestrator/internal/circuitbreaker"
	"github.com/railclaw/orchestrator/internal/config"
	"github.com/railclaw/orchestrator/internal/metrics"
	"github.com/railclaw/orchestrator/internal/monitor"
	"github.com/railclaw/orchestrator/internal/orchestrator"
	"github.com/railclaw/orchestrator/internal/policy"
	"github.com/railclaw/orchestrator/internal/recordstore"
	"github.com/railclaw/orchestrator/internal/sealing"
)

const testSealKey = "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e"

const activePolicy = `
version: 1
status: active
business:
  id: biz_1
  name: Acme
  wallet: "0xAcmeSettlementWallet"
  onboarded: true
specification:
  allowed_chains: [polygon]
  allowed_tokens: [USDC]
restrictions:
  max_single_payment: 1000
`

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(policyPath, []byte(activePolicy), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	sealer, err := sealing.NewSealer(testSealKey)
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}

	cfg := &config.Config{
		Payment: config.PaymentConfig{BaseURL: "https://pay.railclaw.test", DefaultExpiryHours: 6},
		Server:  config.ServerConfig{Address: ":0"},
	}

	records := recordstore.New(t.TempDir())
	m := metrics.New(prometheus.NewRegistry())

	breaker := circuitbreaker.NewManagerFromConfig(cfg.CircuitBreaker)
	pool, err := evm.NewPool(context.Background(), map[string]string{}, breaker, m)
	if err != nil {
		t.Fatalf("new evm pool: %v", err)
	}
	monitorDeps := &monitor.Deps{
		Store:    records,
		EVMPool:  pool,
		Sealer:   sealer,
		Config:   cfg,
		Metrics:  m,
		Registry: monitor.NewRegistry(),
	}

	orch := orchestrator.New(cfg, policy.NewStore(policyPath), records, sealer, m, monitorDeps, zerolog.Nop())

	router := chi.NewRouter()
	ConfigureRouter(router, cfg, orch, m, zerolog.Nop())
	return router
}

func TestCreatePayment_DirectRouteReturnsExecuted(t *testing.T) {
	router := testRouter(t)

	body, _ := json.Marshal(map[string]any{"amount": 10, "token": "USDC", "chain": "polygon"})
	req := httptest.NewRequest(http.MethodPost, "/v1/payments", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp orchestrator.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "executed" {
		t.Fatalf("expected executed, got %+v", resp)
	}
}

func TestCreatePayment_RejectsUnknownChain(t *testing.T) {
	router := testRouter(t)

	body, _ := json.Marshal(map[string]any{"amount": 10, "token": "USDC", "chain": "base"})
	req := httptest.NewRequest(http.MethodPost, "/v1/payments", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 (rejection is a body, not a status code), got %d", rec.Code)
	}

	var resp orchestrator.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "rejected" || resp.Violation != "chain" {
		t.Fatalf("expected chain rejection, got %+v", resp)
	}
}

func TestCreatePayment_InvalidBody(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/payments", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetPayment_UnknownIDReturns404(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/payments/pay_does_not_exist", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListPayments_EmptyStoreReturnsEmptyList(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/payments?business=biz_1", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp orchestrator.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(resp.Records))
	}
}

func TestHealth_ReportsOK(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/railclaw-health", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
