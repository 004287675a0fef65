package recordstore

import (
	"testing"
	"time"

	railerrors "github.com/railclaw/orchestrator/internal/errors"
)

func newTestRecord(id string) Record {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return Record{
		PaymentID:        id,
		BusinessID:       "biz_1",
		BusinessName:     "Acme",
		SettlementWallet: "0xAcmeWallet",
		Kind:             KindDirect,
		Token:            "USDC",
		SettlementChain:  "polygon",
		Status:           StatusPending,
		CreatedAt:        now,
		ExpiresAt:        now.Add(6 * time.Hour),
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	store := New(t.TempDir())
	r := newTestRecord("pay_1")

	if err := store.Create(r); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get("pay_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.BusinessID != r.BusinessID || got.Token != r.Token {
		t.Errorf("round-tripped record mismatch: %+v", got)
	}
}

func TestStore_Create_Conflict(t *testing.T) {
	store := New(t.TempDir())
	r := newTestRecord("pay_1")

	if err := store.Create(r); err != nil {
		t.Fatalf("first create: %v", err)
	}

	err := store.Create(r)
	rerr, ok := err.(*railerrors.RecordError)
	if !ok || rerr.Kind != "conflict" {
		t.Fatalf("expected conflict RecordError, got %v", err)
	}
}

func TestStore_Get_NotFound(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Get("missing")
	rerr, ok := err.(*railerrors.RecordError)
	if !ok || rerr.Kind != "not_found" {
		t.Fatalf("expected not_found RecordError, got %v", err)
	}
}

func TestStore_Update(t *testing.T) {
	store := New(t.TempDir())
	r := newTestRecord("pay_1")
	if err := store.Create(r); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := store.Update("pay_1", func(rec *Record) error {
		rec.Status = StatusConfirmed
		rec.TxHash = "0xdeadbeef"
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.Get("pay_1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Status != StatusConfirmed || got.TxHash != "0xdeadbeef" {
		t.Errorf("update did not persist: %+v", got)
	}
}

func TestStore_Update_NotFound(t *testing.T) {
	store := New(t.TempDir())
	err := store.Update("missing", func(rec *Record) error { return nil })
	rerr, ok := err.(*railerrors.RecordError)
	if !ok || rerr.Kind != "not_found" {
		t.Fatalf("expected not_found RecordError, got %v", err)
	}
}

func TestStore_List_FiltersByBusinessAndStatus(t *testing.T) {
	store := New(t.TempDir())

	a := newTestRecord("pay_a")
	a.BusinessID = "biz_1"
	a.Status = StatusPending

	b := newTestRecord("pay_b")
	b.BusinessID = "biz_1"
	b.Status = StatusConfirmed

	c := newTestRecord("pay_c")
	c.BusinessID = "biz_2"
	c.Status = StatusPending

	for _, r := range []Record{a, b, c} {
		if err := store.Create(r); err != nil {
			t.Fatalf("create %s: %v", r.PaymentID, err)
		}
	}

	all, err := store.List(Filter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}

	biz1, err := store.List(Filter{BusinessID: "biz_1"})
	if err != nil {
		t.Fatalf("list biz_1: %v", err)
	}
	if len(biz1) != 2 {
		t.Fatalf("expected 2 records for biz_1, got %d", len(biz1))
	}

	pending, err := store.List(Filter{Status: StatusPending})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending records, got %d", len(pending))
	}
}

func TestStore_List_EmptyDataDir(t *testing.T) {
	store := New(t.TempDir())
	records, err := store.List(Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestStore_EnqueueAndDrainNotifications(t *testing.T) {
	store := New(t.TempDir())

	n1 := Notification{PaymentID: "pay_1", Kind: "confirmed", Message: "payment confirmed", QueuedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	n2 := Notification{PaymentID: "pay_1", Kind: "confirmed", Message: "duplicate event", QueuedAt: time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC)}

	if err := store.EnqueueNotification(n1); err != nil {
		t.Fatalf("enqueue n1: %v", err)
	}
	if err := store.EnqueueNotification(n2); err != nil {
		t.Fatalf("enqueue n2: %v", err)
	}

	drained, err := store.DrainNotifications()
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(drained) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(drained))
	}
	if drained[0].Message != n1.Message {
		t.Errorf("expected queue order preserved, got %+v", drained)
	}

	again, err := store.DrainNotifications()
	if err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("expected drained notifications to be removed, got %d", len(again))
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	terminal := []Status{StatusConfirmed, StatusExpired, StatusError}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	nonTerminal := []Status{StatusPending, StatusWaitingDeposit, StatusDepositReceived, StatusBridging, StatusConfirming}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("expected %s to not be terminal", s)
		}
	}
}
