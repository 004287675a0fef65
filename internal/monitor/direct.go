package monitor

import (
	"context"
	"fmt"
	"math/big"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/railclaw/orchestrator/internal/chain/evm"
	"github.com/railclaw/orchestrator/internal/logger"
	"github.com/railclaw/orchestrator/internal/money"
	"github.com/railclaw/orchestrator/internal/recordstore"
)

const defaultTokenDecimals = 6
const nativeDecimals = 18

// match is a located candidate transfer, pending confirmation.
type match struct {
	txHash common.Hash
	block  uint64
}

// RunDirect watches settlement_chain for a transfer paying settlement_wallet
// the expected amount of token, then waits for required_confirmations. It
// mutates the record to its terminal status before returning and never
// propagates an error to its caller — it is a detached monitor.
func RunDirect(ctx context.Context, deps *Deps, paymentID string) {
	defer deps.Registry.Done(paymentID)

	rec, err := deps.Store.Get(paymentID)
	if err != nil {
		return
	}

	log := logger.FromContext(ctx).With().
		Str("payment_id", paymentID).
		Str("business_id", rec.BusinessID).
		Str("chain", rec.SettlementChain).
		Logger()

	deadline := deps.DirectDeadline(rec.CreatedAt)

	client, err := deps.EVMPool.Get(rec.SettlementChain)
	if err != nil {
		log.Error().Err(err).Msg("direct_monitor.fatal_no_rpc")
		finalizeError(deps, paymentID)
		return
	}

	wallet := common.HexToAddress(rec.SettlementWallet)

	decimals, err := resolveDecimals(ctx, deps, client, rec)
	if err != nil {
		log.Error().Err(err).Msg("direct_monitor.fatal_token_config")
		finalizeError(deps, paymentID)
		return
	}

	expected, err := money.ParseUnits(rec.RawOutputAmount, decimals)
	if err != nil {
		log.Error().Err(err).Msg("direct_monitor.fatal_amount")
		finalizeError(deps, paymentID)
		return
	}
	lower, upper, err := expected.ToleranceWindow(99, 110)
	if err != nil {
		log.Error().Err(err).Msg("direct_monitor.fatal_tolerance")
		finalizeError(deps, paymentID)
		return
	}

	var found *match
	if evm.IsNativeSymbol(rec.Token) {
		found = watchNative(ctx, deps, client, wallet, expected, deadline)
	} else {
		found = watchERC20(ctx, deps, client, rec, wallet, lower, upper, deadline)
	}

	if found == nil {
		if ctx.Err() != nil || time.Now().After(deadline) {
			log.Warn().Msg("direct_monitor.expired")
			finalizeExpired(deps, paymentID)
			return
		}
		log.Error().Msg("direct_monitor.error_no_match")
		finalizeError(deps, paymentID)
		return
	}

	if err := deps.Store.Update(paymentID, func(r *recordstore.Record) error {
		r.Status = recordstore.StatusConfirming
		r.TxHash = found.txHash.Hex()
		return nil
	}); err != nil {
		log.Error().Err(err).Msg("direct_monitor.record_update_failed")
	}

	if !waitForConfirmations(ctx, client, found.block, deps.RequiredConfirmations(), deadline, deps.PollInterval()) {
		log.Warn().Msg("direct_monitor.expired_awaiting_confirmations")
		finalizeExpired(deps, paymentID)
		return
	}

	now := time.Now()
	if err := deps.Store.Update(paymentID, func(r *recordstore.Record) error {
		r.Status = recordstore.StatusConfirmed
		r.Confirmations = deps.RequiredConfirmations()
		r.ConfirmedAt = &now
		return nil
	}); err != nil {
		log.Error().Err(err).Msg("direct_monitor.record_update_failed")
		return
	}

	deps.Metrics.ObserveTerminal("direct", "confirmed")
	_ = deps.Store.EnqueueNotification(recordstore.Notification{
		PaymentID: paymentID,
		ChatID:    rec.ChatID,
		Kind:      "direct_confirmed",
		Message:   fmt.Sprintf("Payment %s confirmed: %s %s received on %s", paymentID, rec.RawOutputAmount, rec.Token, rec.SettlementChain),
		QueuedAt:  now,
	})
	log.Info().Str("tx_hash", found.txHash.Hex()).Msg("direct_monitor.confirmed")
}

func resolveDecimals(ctx context.Context, deps *Deps, client *evm.Client, rec recordstore.Record) (uint8, error) {
	if evm.IsNativeSymbol(rec.Token) {
		return nativeDecimals, nil
	}

	tokenCfg, ok := deps.Config.Tokens[rec.SettlementChain][rec.Token]
	if !ok {
		return 0, fmt.Errorf("direct_monitor: no token config for %s on %s", rec.Token, rec.SettlementChain)
	}

	decimals, err := client.Decimals(ctx, common.HexToAddress(tokenCfg.Address))
	if err != nil {
		return defaultTokenDecimals, nil
	}
	return decimals, nil
}

func watchNative(ctx context.Context, deps *Deps, client *evm.Client, wallet common.Address, expected money.Money, deadline time.Time) *match {
	current, err := client.GetBlockNumber(ctx)
	if err != nil {
		return nil
	}
	next := current

	ticker := time.NewTicker(deps.PollInterval())
	defer ticker.Stop()

	for {
		if time.Now().After(deadline) {
			return nil
		}

		head, err := client.GetBlockNumber(ctx)
		if err == nil {
			for b := next; b <= head; b++ {
				block, err := client.BlockByNumber(ctx, b)
				if err != nil {
					continue
				}
				for _, t := range evm.FindNativeTransfers(block, wallet) {
					if meetsNativeFloor(t.Value, expected) {
						return &match{txHash: t.TxHash, block: t.Block}
					}
				}
			}
			next = head + 1
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// meetsNativeFloor applies the native-asset rule: accept value >= 0.99*amount
// (no upper bound, unlike ERC-20 transfers).
func meetsNativeFloor(value *big.Int, expected money.Money) bool {
	lower, err := expected.MulFraction(99, 100)
	if err != nil {
		return false
	}
	return value.Cmp(big.NewInt(lower.Atomic)) >= 0
}

func watchERC20(ctx context.Context, deps *Deps, client *evm.Client, rec recordstore.Record, wallet common.Address, lower, upper money.Money, deadline time.Time) *match {
	spokePools := knownSpokePoolSenders(deps)

	chainParams := deps.Config.Chains[rec.SettlementChain]
	current, err := client.GetBlockNumber(ctx)
	if err != nil {
		return nil
	}
	start := evm.EstimateHistoricalStartBlock(current, time.Now(), rec.CreatedAt, chainParams.BlockTimeSeconds, int64(chainParams.MaxHistoricalWindowBlocks))

	topics := [][]common.Hash{{evm.ERC20TransferTopic}, nil, {evm.PadAddressTopic(wallet)}}

	sub, _ := client.Subscribe(ctx, goethereum.FilterQuery{Topics: topics})

	next := current + 1
	logs, err := client.GetLogsChunked(ctx, tokenAddress(deps, rec), topics, start, current)
	if m := firstMatch(logs, lower, upper, spokePools); m != nil {
		return m
	}
	if err != nil {
		next = start // rescan the historical window on the next poll
	}

	ticker := time.NewTicker(deps.PollInterval())
	defer ticker.Stop()

	for {
		if time.Now().After(deadline) {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-sub:
			if ok {
				if m := firstMatch([]types.Log{l}, lower, upper, spokePools); m != nil {
					return m
				}
			}
		case <-ticker.C:
			head, err := client.GetBlockNumber(ctx)
			if err != nil {
				continue
			}
			if head >= next {
				logs, err := client.GetLogsChunked(ctx, tokenAddress(deps, rec), topics, next, head)
				if err == nil {
					if m := firstMatch(logs, lower, upper, spokePools); m != nil {
						return m
					}
					next = head + 1
				}
			}
		}
	}
}

func firstMatch(logs []types.Log, lower, upper money.Money, spokePools map[common.Address]struct{}) *match {
	for _, l := range logs {
		t, err := evm.ParseERC20Transfer(l)
		if err != nil {
			continue
		}
		if _, isBridge := spokePools[t.From]; isBridge {
			continue
		}
		if t.Value.Cmp(big.NewInt(lower.Atomic)) < 0 || t.Value.Cmp(big.NewInt(upper.Atomic)) > 0 {
			continue
		}
		return &match{txHash: t.TxHash, block: t.Block}
	}
	return nil
}

func knownSpokePoolSenders(deps *Deps) map[common.Address]struct{} {
	out := make(map[common.Address]struct{})
	for _, addr := range deps.Config.Bridge.SpokePools {
		out[common.HexToAddress(addr)] = struct{}{}
	}
	return out
}

func tokenAddress(deps *Deps, rec recordstore.Record) common.Address {
	cfg := deps.Config.Tokens[rec.SettlementChain][rec.Token]
	return common.HexToAddress(cfg.Address)
}

func waitForConfirmations(ctx context.Context, client *evm.Client, txBlock uint64, required uint64, deadline time.Time, interval time.Duration) bool {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		current, err := client.GetBlockNumber(ctx)
		if err == nil && current >= txBlock && current-txBlock+1 >= required {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func finalizeExpired(deps *Deps, paymentID string) {
	now := time.Now()
	_ = deps.Store.Update(paymentID, func(r *recordstore.Record) error {
		r.Status = recordstore.StatusExpired
		r.ExpiredAt = &now
		return nil
	})
	deps.Metrics.ObserveTerminal("direct", "expired")
}

func finalizeError(deps *Deps, paymentID string) {
	_ = deps.Store.Update(paymentID, func(r *recordstore.Record) error {
		r.Status = recordstore.StatusError
		return nil
	})
	deps.Metrics.ObserveTerminal("direct", "error")
}

