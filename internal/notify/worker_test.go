package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/railclaw/orchestrator/internal/recordstore"
)

func TestWorker_DeliversQueuedNotification(t *testing.T) {
	var mu sync.Mutex
	var received []recordstore.Notification

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n recordstore.Notification
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			t.Errorf("decode body: %v", err)
		}
		mu.Lock()
		received = append(received, n)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := recordstore.New(t.TempDir())
	if err := store.EnqueueNotification(recordstore.Notification{
		PaymentID: "pay_1",
		Kind:      "confirmed",
		Message:   "payment confirmed",
		QueuedAt:  time.Now().UTC(),
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w := NewWorker(store, Config{WebhookURL: server.URL, Interval: 10 * time.Millisecond}, zerolog.Nop())
	w.Start(context.Background())
	defer w.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(received)
		mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 delivered notification, got %d", len(received))
	}
	if received[0].PaymentID != "pay_1" || received[0].Kind != "confirmed" {
		t.Fatalf("unexpected notification: %+v", received[0])
	}
}

func TestWorker_StartIsNoOpWithoutWebhookURL(t *testing.T) {
	store := recordstore.New(t.TempDir())
	w := NewWorker(store, Config{}, zerolog.Nop())

	w.Start(context.Background())
	w.Stop()
}
