package evm

import (
	"context"
	"fmt"

	"github.com/railclaw/orchestrator/internal/circuitbreaker"
	railerrors "github.com/railclaw/orchestrator/internal/errors"
	"github.com/railclaw/orchestrator/internal/metrics"
)

// Pool holds one dialed Client per configured chain, shared across every
// monitor so each chain's RPC connection and circuit breaker state is
// reused rather than redialed per payment.
type Pool struct {
	clients map[string]*Client
}

// NewPool dials every chain in rpcEndpoints eagerly, failing fast on the
// first unreachable endpoint so misconfiguration surfaces at startup rather
// than inside a detached monitor.
func NewPool(ctx context.Context, rpcEndpoints map[string]string, breaker *circuitbreaker.Manager, m *metrics.Metrics) (*Pool, error) {
	clients := make(map[string]*Client, len(rpcEndpoints))
	for chain, url := range rpcEndpoints {
		c, err := Dial(ctx, chain, url, breaker, m)
		if err != nil {
			return nil, fmt.Errorf("evm pool: dial %s: %w", chain, err)
		}
		clients[chain] = c
	}
	return &Pool{clients: clients}, nil
}

// Get returns the client for chain, or a fatal RpcError if the chain has no
// configured RPC endpoint.
func (p *Pool) Get(chain string) (*Client, error) {
	c, ok := p.clients[chain]
	if !ok {
		return nil, &railerrors.RpcError{Chain: chain, Transient: false, Err: fmt.Errorf("no rpc endpoint configured for chain %q", chain)}
	}
	return c, nil
}

// Close closes every dialed client, aggregating the first error.
func (p *Pool) Close() error {
	var firstErr error
	for _, c := range p.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
