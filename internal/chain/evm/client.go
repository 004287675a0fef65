// Package evm adapts an EVM JSON-RPC endpoint to the uniform operations the
// direct-payment monitor and bridge fill watcher need: block height, chunked
// log scans, receipts, an optional push subscription, and schema-aware log
// decoders for ERC-20 transfers and Across SpokePool fills.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/railclaw/orchestrator/internal/circuitbreaker"
	railerrors "github.com/railclaw/orchestrator/internal/errors"
	"github.com/railclaw/orchestrator/internal/metrics"
	"github.com/railclaw/orchestrator/internal/rpcutil"
)

// MaxLogChunkBlocks is the widest block range a single get_logs call may
// span; wider ranges are rejected or throttled by most public RPC providers.
const MaxLogChunkBlocks = 10

// ChunkSleep is paused between consecutive get_logs chunk calls to avoid
// bursting a provider's rate limiter.
const ChunkSleep = 100 * time.Millisecond

// Client is a chain-tagged EVM adapter, safe for concurrent use by multiple
// monitors.
type Client struct {
	chain   string
	rpcURL  string
	client  *ethclient.Client
	breaker *circuitbreaker.Manager
	metrics *metrics.Metrics
}

// Dial connects to an EVM RPC endpoint for the named chain.
func Dial(ctx context.Context, chain, rpcURL string, breaker *circuitbreaker.Manager, m *metrics.Metrics) (*Client, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, &railerrors.RpcError{Chain: chain, Transient: false, Err: err}
	}
	return &Client{chain: chain, rpcURL: rpcURL, client: c, breaker: breaker, metrics: m}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() error {
	c.client.Close()
	return nil
}

// Chain returns the chain tag this client was dialed for.
func (c *Client) Chain() string { return c.chain }

func (c *Client) call(ctx context.Context, method string, fn func() (any, error)) (any, error) {
	start := time.Now()
	result, err := c.breaker.Execute(circuitbreaker.Service(c.chain), func() (any, error) {
		return fn()
	})
	if c.metrics != nil {
		c.metrics.ObserveRPCCall(method, c.chain, time.Since(start), err)
	}
	if err != nil {
		return nil, &railerrors.RpcError{Chain: c.chain, Transient: rpcutil.IsRetryable(err), Err: err}
	}
	return result, nil
}

// GetBlockNumber returns the current chain head height.
func (c *Client) GetBlockNumber(ctx context.Context) (uint64, error) {
	result, err := c.call(ctx, "get_block_number", func() (any, error) {
		return c.client.BlockNumber(ctx)
	})
	if err != nil {
		return 0, err
	}
	return result.(uint64), nil
}

// GetReceipt returns the receipt for a transaction hash.
func (c *Client) GetReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	result, err := c.call(ctx, "get_receipt", func() (any, error) {
		return c.client.TransactionReceipt(ctx, txHash)
	})
	if err != nil {
		return nil, err
	}
	return result.(*types.Receipt), nil
}

// BlockByNumber returns the full block (with transactions) at height.
func (c *Client) BlockByNumber(ctx context.Context, number uint64) (*types.Block, error) {
	result, err := c.call(ctx, "get_block", func() (any, error) {
		return c.client.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	})
	if err != nil {
		return nil, err
	}
	return result.(*types.Block), nil
}

// GetLogs performs a single get_logs call. Callers must keep the range
// within MaxLogChunkBlocks; use ChunkRanges to split a wider span.
func (c *Client) GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	result, err := c.call(ctx, "get_logs", func() (any, error) {
		return c.client.FilterLogs(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.Log), nil
}

// GetLogsChunked scans [fromBlock, toBlock] in chunks of at most
// MaxLogChunkBlocks, sleeping ChunkSleep between chunks, and returns the
// concatenation of every chunk's logs. A transient failure on one chunk does
// not drop logs already collected from earlier chunks; it aborts the scan
// and returns what it has plus the error, so the caller can retry starting
// from its own bookkeeping.
func (c *Client) GetLogsChunked(ctx context.Context, address common.Address, topics [][]common.Hash, fromBlock, toBlock uint64) ([]types.Log, error) {
	var all []types.Log
	for _, rng := range ChunkRanges(fromBlock, toBlock, MaxLogChunkBlocks) {
		query := ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(rng[0]),
			ToBlock:   new(big.Int).SetUint64(rng[1]),
			Addresses: []common.Address{address},
			Topics:    topics,
		}
		logs, err := c.GetLogs(ctx, query)
		if err != nil {
			return all, err
		}
		all = append(all, logs...)

		select {
		case <-ctx.Done():
			return all, ctx.Err()
		case <-time.After(ChunkSleep):
		}
	}
	return all, nil
}

// ChunkRanges splits [from, to] into inclusive [a,b] pairs no wider than
// chunkSize, covering every block exactly once and visiting exactly
// ceil((to-from+1)/chunkSize) chunks.
func ChunkRanges(from, to uint64, chunkSize uint64) [][2]uint64 {
	if to < from || chunkSize == 0 {
		return nil
	}
	var ranges [][2]uint64
	for start := from; start <= to; start += chunkSize {
		end := start + chunkSize - 1
		if end > to {
			end = to
		}
		ranges = append(ranges, [2]uint64{start, end})
	}
	return ranges
}

// Subscribe opens a push subscription for logs matching query. On any
// transport failure the returned channel is closed and the caller must fall
// back to polling; Subscribe never panics or blocks indefinitely.
func (c *Client) Subscribe(ctx context.Context, query ethereum.FilterQuery) (<-chan types.Log, error) {
	ch := make(chan types.Log, 64)
	sub, err := c.client.SubscribeFilterLogs(ctx, query, ch)
	if err != nil {
		close(ch)
		return nil, &railerrors.RpcError{Chain: c.chain, Transient: true, Err: fmt.Errorf("subscribe: %w", err)}
	}

	out := make(chan types.Log, 64)
	go func() {
		defer close(out)
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				_ = err // transport failure: terminate, caller falls back to polling
				return
			case log, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- log:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
