// Package notify drains recordstore's queued webhook notifications and
// delivers them to a single configured endpoint on a ticker, the way the
// callbacks package polls and delivers queued webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/railclaw/orchestrator/internal/httputil"
	"github.com/railclaw/orchestrator/internal/metrics"
	"github.com/railclaw/orchestrator/internal/recordstore"
)

// Config holds the worker's polling and delivery settings.
type Config struct {
	WebhookURL string
	Interval   time.Duration
	Timeout    time.Duration
}

// Worker drains queued notifications on a ticker and POSTs each as JSON to
// WebhookURL. Delivery is at-most-once: a notification removed from the
// queue is not retried on failure, matching recordstore's own drain
// semantics.
type Worker struct {
	store   *recordstore.Store
	cfg     Config
	client  *http.Client
	logger  zerolog.Logger
	metrics *metrics.Metrics

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewWorker builds a Worker. A zero WebhookURL makes Start a no-op so
// businesses that never configure notify still run cleanly.
func NewWorker(store *recordstore.Store, cfg Config, log zerolog.Logger) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Worker{
		store:    store,
		cfg:      cfg,
		client:   httputil.NewClient(cfg.Timeout),
		logger:   log,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// WithMetrics attaches a metrics collector the worker reports delivery
// outcomes to.
func (w *Worker) WithMetrics(m *metrics.Metrics) *Worker {
	w.metrics = m
	return w
}

// Start begins draining the notification queue on a ticker. It is a no-op
// if no webhook URL was configured.
func (w *Worker) Start(ctx context.Context) {
	if w.cfg.WebhookURL == "" {
		close(w.doneChan)
		return
	}
	go w.run(ctx)
}

// Stop gracefully stops the worker, waiting for the in-flight drain to finish.
func (w *Worker) Stop() {
	select {
	case <-w.doneChan:
		return
	default:
	}
	close(w.stopChan)
	<-w.doneChan
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.doneChan)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.cfg.Interval).Msg("notify.worker_started")

	for {
		select {
		case <-w.stopChan:
			w.logger.Info().Msg("notify.worker_stopping")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	pending, err := w.store.DrainNotifications()
	if err != nil {
		w.logger.Error().Err(err).Msg("notify.drain_failed")
		return
	}

	for _, n := range pending {
		if err := w.deliver(ctx, n); err != nil {
			w.logger.Warn().Err(err).Str("payment_id", n.PaymentID).Str("kind", n.Kind).Msg("notify.delivery_failed")
			w.observe(n.Kind, "failure")
			continue
		}
		w.observe(n.Kind, "success")
	}
}

func (w *Worker) deliver(ctx context.Context, n recordstore.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, w.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("received status %d from %s", resp.StatusCode, w.cfg.WebhookURL)
	}
	return nil
}

func (w *Worker) observe(kind, outcome string) {
	if w.metrics == nil {
		return
	}
	w.metrics.NotificationsTotal.WithLabelValues(kind, outcome).Inc()
}
