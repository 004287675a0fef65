// Package monitor runs the two long-lived state machines that watch a
// payment to completion after the orchestrator creates its record: the
// Direct EVM Monitor and the Bridge Pipeline Monitor. Each is launched on
// its own goroutine and outlives the HTTP request that spawned it.
package monitor

import (
	"fmt"
	"sync"
)

// Registry enforces at most one monitor instance per payment_id at any
// wall-clock moment — the only concurrency guarantee §5 requires for
// correctness of record updates.
type Registry struct {
	mu      sync.Mutex
	running map[string]struct{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{running: make(map[string]struct{})}
}

// Start marks paymentID as having an active monitor, returning an error if
// one is already registered. Callers must call Done when the monitor exits,
// typically via defer.
func (r *Registry) Start(paymentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.running[paymentID]; ok {
		return fmt.Errorf("monitor: payment %s already has an active monitor", paymentID)
	}
	r.running[paymentID] = struct{}{}
	return nil
}

// Done releases paymentID's monitor slot.
func (r *Registry) Done(paymentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, paymentID)
}

// Active reports how many monitors are currently registered.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.running)
}

// IsActive reports whether paymentID currently has a registered monitor.
func (r *Registry) IsActive(paymentID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[paymentID]
	return ok
}
