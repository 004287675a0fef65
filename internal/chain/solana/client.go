// Package solana adapts a Solana JSON-RPC endpoint (plus its WebSocket
// sibling) to the uniform operations the bridge pipeline monitor needs:
// token-account balance polling, ATA/PDA derivation, instruction building,
// and a deadline-bound send-and-confirm.
package solana

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"

	"github.com/railclaw/orchestrator/internal/circuitbreaker"
	railerrors "github.com/railclaw/orchestrator/internal/errors"
	"github.com/railclaw/orchestrator/internal/metrics"
	"github.com/railclaw/orchestrator/internal/rpcutil"
)

// PollInterval is how often send_and_confirm checks signature status.
const PollInterval = 2 * time.Second

// Client is a Solana RPC adapter, safe for concurrent use by multiple
// monitors.
type Client struct {
	rpcClient *rpc.Client
	wsClient  *ws.Client
	breaker   *circuitbreaker.Manager
	metrics   *metrics.Metrics
}

const chainTag = "solana"

// Dial connects an RPC and WebSocket client pair for the given endpoints.
func Dial(ctx context.Context, rpcURL, wsURL string, breaker *circuitbreaker.Manager, m *metrics.Metrics) (*Client, error) {
	rpcClient := rpc.New(rpcURL)

	var wsClient *ws.Client
	if wsURL != "" {
		c, err := ws.Connect(ctx, wsURL)
		if err != nil {
			return nil, &railerrors.RpcError{Chain: chainTag, Transient: true, Err: fmt.Errorf("connect ws: %w", err)}
		}
		wsClient = c
	}

	return &Client{rpcClient: rpcClient, wsClient: wsClient, breaker: breaker, metrics: m}, nil
}

// Close releases the WebSocket connection, if any.
func (c *Client) Close() error {
	if c.wsClient != nil {
		c.wsClient.Close()
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, fn func() (any, error)) (any, error) {
	start := time.Now()
	result, err := c.breaker.Execute(circuitbreaker.Service(chainTag), func() (any, error) {
		return fn()
	})
	if c.metrics != nil {
		c.metrics.ObserveRPCCall(method, chainTag, time.Since(start), err)
	}
	if err != nil {
		return nil, &railerrors.RpcError{Chain: chainTag, Transient: rpcutil.IsRetryable(err), Err: err}
	}
	return result, nil
}

// ErrAccountNotFound is returned by GetTokenAccountBalance when the
// associated token account has not been created yet (the user's first
// deposit transfer creates it; until then this is expected and benign).
var ErrAccountNotFound = fmt.Errorf("solana: token account not found")

// GetTokenAccountBalance returns the raw (atomic-unit) balance of ata, or
// ErrAccountNotFound if the account does not exist yet.
func (c *Client) GetTokenAccountBalance(ctx context.Context, ata solana.PublicKey) (uint64, error) {
	result, err := c.call(ctx, "get_token_account_balance", func() (any, error) {
		return c.rpcClient.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	})
	if err != nil {
		if isAccountNotFound(err) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}

	res := result.(*rpc.GetTokenAccountBalanceResult)
	if res == nil || res.Value == nil {
		return 0, ErrAccountNotFound
	}

	var amount uint64
	if _, scanErr := fmt.Sscanf(res.Value.Amount, "%d", &amount); scanErr != nil {
		return 0, fmt.Errorf("solana: parse token balance %q: %w", res.Value.Amount, scanErr)
	}
	return amount, nil
}

func isAccountNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return contains(msg, "could not find account") || contains(msg, "AccountNotFound") || contains(msg, "not been found")
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// DeriveATA returns the deterministic associated token account for
// (owner, mint).
func DeriveATA(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("solana: derive ata: %w", err)
	}
	return ata, nil
}

// DerivePDA returns the program-derived address for seeds under program.
// Works off-curve: the result is never a valid ed25519 public key, by
// construction, so it cannot be signed for directly.
func DerivePDA(program solana.PublicKey, seeds [][]byte) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("solana: derive pda: %w", err)
	}
	return pda, bump, nil
}

// LatestBlockhash fetches a recent blockhash for transaction construction.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.call(ctx, "get_latest_blockhash", func() (any, error) {
		return c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	})
	if err != nil {
		return solana.Hash{}, err
	}
	return result.(*rpc.GetLatestBlockhashResult).Value.Blockhash, nil
}

// SendAndConfirm submits tx and polls signature status until it lands,
// fails, or deadline passes. It never holds a persistent WebSocket
// subscription open for this purpose, matching the adapter contract.
func (c *Client) SendAndConfirm(ctx context.Context, tx *solana.Transaction, deadline time.Time) (solana.Signature, error) {
	result, err := c.call(ctx, "send_transaction", func() (any, error) {
		return c.rpcClient.SendTransaction(ctx, tx)
	})
	if err != nil {
		return solana.Signature{}, &railerrors.TxError{Reason: "send_transaction", Err: err}
	}
	sig := result.(solana.Signature)

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return sig, &railerrors.TxError{Reason: "context cancelled awaiting confirmation", Err: ctx.Err()}
		case <-ticker.C:
			if time.Now().After(deadline) {
				return sig, &railerrors.TxError{Reason: "confirmation deadline exceeded"}
			}

			result, err := c.call(ctx, "get_signature_statuses", func() (any, error) {
				return c.rpcClient.GetSignatureStatuses(ctx, true, sig)
			})
			if err != nil {
				continue // transient; keep polling until deadline
			}
			statuses := result.(*rpc.GetSignatureStatusesResult)
			if len(statuses.Value) == 0 || statuses.Value[0] == nil {
				continue
			}
			status := statuses.Value[0]
			if status.Err != nil {
				return sig, &railerrors.TxError{Reason: fmt.Sprintf("transaction failed: %v", status.Err)}
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed || status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return sig, nil
			}
		}
	}
}
