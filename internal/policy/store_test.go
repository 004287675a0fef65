package policy

import (
	"os"
	"path/filepath"
	"testing"

	railerrors "github.com/railclaw/orchestrator/internal/errors"
)

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	return path
}

func TestStore_Load_ValidActivePolicy(t *testing.T) {
	path := writePolicy(t, `---
version: 3
status: active
updated_at: "2026-01-01T00:00:00Z"
---
business:
  id: biz_1
  name: Acme
  wallet: "0xAcmeWallet"
  onboarded: true
specification:
  allowed_chains: [polygon]
  allowed_tokens: [USDC]
restrictions:
  max_single_payment: 10000
cross_chain:
  user_payable_chains: [solana]
  bridge:
    enabled: false
`)

	store := NewStore(path)
	p, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsActive() {
		t.Error("expected policy to be active")
	}
	if !p.AllowsChain("polygon") {
		t.Error("expected polygon to be allowed")
	}
	if !p.AllowsToken("usdc") {
		t.Error("expected case-insensitive token match")
	}
}

func TestStore_Load_NotFound(t *testing.T) {
	store := NewStore("/nonexistent/policy.yaml")
	_, err := store.Load()
	var perr *railerrors.PolicyError
	if !asPolicyError(err, &perr) || perr.Kind != "not_found" {
		t.Fatalf("expected not_found PolicyError, got %v", err)
	}
}

func TestStore_Load_InvariantViolated_EmptyChainsWhenActive(t *testing.T) {
	path := writePolicy(t, `
version: 1
status: active
specification:
  allowed_chains: []
  allowed_tokens: [USDC]
`)

	store := NewStore(path)
	_, err := store.Load()
	var perr *railerrors.PolicyError
	if !asPolicyError(err, &perr) || perr.Kind != "invariant_violated" || perr.Which != "allowed_chains" {
		t.Fatalf("expected invariant_violated on allowed_chains, got %v", err)
	}
}

func TestStore_Load_InvariantViolated_BridgeSettlementNotAllowed(t *testing.T) {
	path := writePolicy(t, `
version: 1
status: active
specification:
  allowed_chains: [polygon]
  allowed_tokens: [USDC]
cross_chain:
  bridge:
    enabled: true
    settlement_chain: arbitrum
`)

	store := NewStore(path)
	_, err := store.Load()
	var perr *railerrors.PolicyError
	if !asPolicyError(err, &perr) || perr.Which != "cross_chain.bridge.settlement_chain" {
		t.Fatalf("expected invariant_violated on settlement_chain, got %v", err)
	}
}

func TestPolicy_WithinMaxPayment(t *testing.T) {
	p := Policy{Restrictions: Restrictions{MaxSinglePayment: 100}}
	if !p.WithinMaxPayment(100) {
		t.Error("expected amount equal to max to be accepted")
	}
	if p.WithinMaxPayment(100.01) {
		t.Error("expected amount over max to be rejected")
	}

	unlimited := Policy{Restrictions: Restrictions{MaxSinglePayment: 0}}
	if !unlimited.WithinMaxPayment(1_000_000) {
		t.Error("expected max_single_payment=0 to mean unlimited")
	}
}

func asPolicyError(err error, target **railerrors.PolicyError) bool {
	perr, ok := err.(*railerrors.PolicyError)
	if !ok {
		return false
	}
	*target = perr
	return true
}
