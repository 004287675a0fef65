package monitor

import (
	"context"
	"fmt"
	"math/big"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/rs/zerolog"

	"github.com/railclaw/orchestrator/internal/chain/evm"
	chainsolana "github.com/railclaw/orchestrator/internal/chain/solana"
	"github.com/railclaw/orchestrator/internal/logger"
	"github.com/railclaw/orchestrator/internal/money"
	"github.com/railclaw/orchestrator/internal/recordstore"
	lowsolana "github.com/railclaw/orchestrator/internal/solana"
)

// solanaUSDCDecimals is the fixed decimals used for the Solana-side input
// mint (USDC on Solana is 6); no config value is consulted.
const solanaUSDCDecimals = 6

// eventAuthoritySeed is the canonical Anchor CPI event-authority seed used
// by the SpokePool program to sign its own emitted-event self-CPI.
const eventAuthoritySeed = "__event_authority"

// stateSeed derives the SpokePool's singleton state account. The program
// only ever initializes one state account, seeded by a fixed literal.
const stateSeed = "state"

// RunBridge drives a payment through the three serial bridge stages:
// Solana deposit watch, bridge deposit submission, EVM fill watch. Like
// RunDirect it never returns an error to its caller — outcomes surface
// only via the record's terminal status and, on success, a notification.
func RunBridge(ctx context.Context, deps *Deps, paymentID string, resumeStage3 bool) {
	defer deps.Registry.Done(paymentID)

	rec, err := deps.Store.Get(paymentID)
	if err != nil {
		return
	}

	log := logger.FromContext(ctx).With().
		Str("payment_id", paymentID).
		Str("business_id", rec.BusinessID).
		Str("source_chain", rec.SourceChain).
		Str("settlement_chain", rec.SettlementChain).
		Logger()

	deadline := deps.BridgeDeadline(rec.CreatedAt)

	if !resumeStage3 && rec.Status == recordstore.StatusPending {
		if err := deps.Store.Update(paymentID, func(r *recordstore.Record) error {
			r.Status = recordstore.StatusWaitingDeposit
			return nil
		}); err != nil {
			log.Error().Err(err).Msg("bridge_monitor.record_update_failed")
			return
		}
	}

	actualInput := rec.ActualInputAtomic
	if !resumeStage3 && rec.Status != recordstore.StatusBridging {
		actualInput, err = stage1WatchDeposit(ctx, deps, rec, deadline, &log)
		if err != nil {
			log.Warn().Err(err).Msg("bridge_monitor.stage1_expired")
			finalizeExpired(deps, paymentID)
			return
		}
		if err := deps.Store.Update(paymentID, func(r *recordstore.Record) error {
			r.Status = recordstore.StatusDepositReceived
			r.ActualInputAtomic = actualInput
			return nil
		}); err != nil {
			log.Error().Err(err).Msg("bridge_monitor.record_update_failed")
			return
		}

		depositSig, err := stage2SubmitDeposit(ctx, deps, rec, actualInput, &log)
		if err != nil {
			log.Error().Err(err).Msg("bridge_monitor.stage2_failed")
			finalizeError(deps, paymentID)
			return
		}
		if err := deps.Store.Update(paymentID, func(r *recordstore.Record) error {
			r.Status = recordstore.StatusBridging
			r.DepositTxSig = depositSig.String()
			return nil
		}); err != nil {
			log.Error().Err(err).Msg("bridge_monitor.record_update_failed")
			return
		}
	}

	lookback := deps.Config.Bridge.HistoricalLookbackBlocks
	if resumeStage3 {
		lookback = deps.Config.Bridge.ResumeLookbackBlocks
	}
	if lookback <= 0 {
		if resumeStage3 {
			lookback = 2000
		} else {
			lookback = 300
		}
	}

	fill, err := stage3WatchFill(ctx, deps, rec, deadline, lookback, &log)
	if err != nil {
		log.Warn().Err(err).Msg("bridge_monitor.stage3_expired")
		finalizeExpired(deps, paymentID)
		return
	}

	now := time.Now()
	confirmations := uint64(1)
	if fill.currentBlock >= fill.block {
		confirmations = fill.currentBlock - fill.block + 1
	}
	if err := deps.Store.Update(paymentID, func(r *recordstore.Record) error {
		r.Status = recordstore.StatusConfirmed
		r.TxHash = fill.txHash.Hex()
		r.Confirmations = confirmations
		r.ConfirmedAt = &now
		return nil
	}); err != nil {
		log.Error().Err(err).Msg("bridge_monitor.record_update_failed")
		return
	}

	deps.Metrics.ObserveTerminal("bridge", "confirmed")
	_ = deps.Store.EnqueueNotification(recordstore.Notification{
		PaymentID: paymentID,
		ChatID:    rec.ChatID,
		Kind:      "bridge_confirmed",
		Message:   fmt.Sprintf("Payment %s confirmed: bridged %s %s to %s", paymentID, rec.RawOutputAmount, rec.Token, rec.SettlementChain),
		QueuedAt:  now,
	})
	log.Info().Str("tx_hash", fill.txHash.Hex()).Msg("bridge_monitor.confirmed")
}

// stage1WatchDeposit polls the one-time deposit ATA until its balance
// reaches raw_input_amount·0.99, tolerating AccountNotFound until the
// user's first transfer creates the account.
func stage1WatchDeposit(ctx context.Context, deps *Deps, rec recordstore.Record, deadline time.Time, log *zerolog.Logger) (uint64, error) {
	ata, err := solana.PublicKeyFromBase58(rec.DepositAddress)
	if err != nil {
		return 0, fmt.Errorf("bridge stage1: parse deposit address: %w", err)
	}

	expected, err := money.ParseUnits(rec.RawInputAmount, solanaUSDCDecimals)
	if err != nil {
		return 0, fmt.Errorf("bridge stage1: parse raw input amount: %w", err)
	}
	threshold, err := expected.MulFraction(99, 100)
	if err != nil {
		return 0, fmt.Errorf("bridge stage1: compute threshold: %w", err)
	}

	ticker := time.NewTicker(deps.PollInterval())
	defer ticker.Stop()

	for {
		if time.Now().After(deadline) {
			return 0, fmt.Errorf("bridge stage1: deadline exceeded waiting for deposit")
		}

		balance, err := deps.Solana.GetTokenAccountBalance(ctx, ata)
		if err != nil {
			if err != chainsolana.ErrAccountNotFound {
				log.Warn().Err(err).Msg("bridge_monitor.stage1_rpc_error")
			}
		} else if int64(balance) >= threshold.Atomic {
			return balance, nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

// stage2SubmitDeposit unseals the temp wallet key, optionally funds it from
// a dispenser wallet, grants a delegate PDA approveChecked authority over
// actualInput, and submits the deposit instruction.
func stage2SubmitDeposit(ctx context.Context, deps *Deps, rec recordstore.Record, actualInput uint64, log *zerolog.Logger) (solana.Signature, error) {
	plaintext, err := deps.Sealer.Open(rec.TempPrivateKeySealed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: unseal temp key: %w", err)
	}
	tempKey, err := lowsolana.ParsePrivateKey(string(plaintext))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: parse temp key: %w", err)
	}
	tempWallet := tempKey.PublicKey()

	if deps.Config.Sol.DispenserKey != "" && deps.Config.Sol.FundAmountLamports > 0 {
		if err := fundTempWallet(ctx, deps, tempWallet); err != nil {
			return solana.Signature{}, fmt.Errorf("bridge stage2: fund temp wallet: %w", err)
		}
	}

	program, err := solana.PublicKeyFromBase58(rec.SpokePoolSource)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: parse spoke pool program: %w", err)
	}
	inputMint, err := solana.PublicKeyFromBase58(rec.InputTokenMint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: parse input mint: %w", err)
	}

	statePDA, _, err := chainsolana.DerivePDA(program, [][]byte{[]byte(stateSeed)})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: derive state pda: %w", err)
	}
	eventAuthority, _, err := chainsolana.DerivePDA(program, [][]byte{[]byte(eventAuthoritySeed)})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: derive event authority: %w", err)
	}
	vault, err := chainsolana.DeriveATA(statePDA, inputMint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: derive vault: %w", err)
	}
	depositorATA, err := chainsolana.DeriveATA(tempWallet, inputMint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: derive depositor ata: %w", err)
	}

	params, err := buildDepositParams(rec, tempWallet, actualInput)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: build deposit params: %w", err)
	}

	delegatePDA, _, err := chainsolana.DeriveDelegatePDA(program, params)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: derive delegate pda: %w", err)
	}

	approveIx := chainsolana.BuildApprove(depositorATA, inputMint, delegatePDA, tempWallet, actualInput, solanaUSDCDecimals)

	depositData, err := params.DepositInstructionData()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: encode deposit data: %w", err)
	}

	// Account order is load-bearing: signer, state, delegate, depositor_token_account,
	// vault, mint, token_program, associated_token_program, system_program,
	// event_authority, program.
	accounts := solana.AccountMetaSlice{
		chainsolana.AccountMeta(tempWallet, true, true),
		chainsolana.AccountMeta(statePDA, true, false),
		chainsolana.AccountMeta(delegatePDA, false, false),
		chainsolana.AccountMeta(depositorATA, true, false),
		chainsolana.AccountMeta(vault, true, false),
		chainsolana.AccountMeta(inputMint, false, false),
		chainsolana.AccountMeta(solana.TokenProgramID, false, false),
		chainsolana.AccountMeta(solana.SPLAssociatedTokenAccountProgramID, false, false),
		chainsolana.AccountMeta(solana.SystemProgramID, false, false),
		chainsolana.AccountMeta(eventAuthority, false, false),
		chainsolana.AccountMeta(program, false, false),
	}
	depositIx := chainsolana.BuildRawInstruction(program, accounts, depositData)

	blockhash, err := deps.Solana.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: fetch blockhash: %w", err)
	}

	tx, err := solana.NewTransaction([]solana.Instruction{approveIx, depositIx}, blockhash, solana.TransactionPayer(tempWallet))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: build transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(tempWallet) {
			return &tempKey
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("bridge stage2: sign transaction: %w", err)
	}

	deadline := time.Now().Add(2 * time.Minute)
	sig, err := deps.Solana.SendAndConfirm(ctx, tx, deadline)
	if err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}

func fundTempWallet(ctx context.Context, deps *Deps, tempWallet solana.PublicKey) error {
	dispenserKey, err := lowsolana.ParsePrivateKey(deps.Config.Sol.DispenserKey)
	if err != nil {
		return fmt.Errorf("parse dispenser key: %w", err)
	}
	dispenserPub := dispenserKey.PublicKey()

	transferIx := system.NewTransferInstruction(deps.Config.Sol.FundAmountLamports, dispenserPub, tempWallet).Build()

	blockhash, err := deps.Solana.LatestBlockhash(ctx)
	if err != nil {
		return fmt.Errorf("fetch blockhash: %w", err)
	}
	tx, err := solana.NewTransaction([]solana.Instruction{transferIx}, blockhash, solana.TransactionPayer(dispenserPub))
	if err != nil {
		return fmt.Errorf("build funding transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(dispenserPub) {
			return &dispenserKey
		}
		return nil
	}); err != nil {
		return fmt.Errorf("sign funding transaction: %w", err)
	}

	deadline := time.Now().Add(2 * time.Minute)
	_, err = deps.Solana.SendAndConfirm(ctx, tx, deadline)
	return err
}

func buildDepositParams(rec recordstore.Record, depositor solana.PublicKey, actualInput uint64) (chainsolana.DepositParams, error) {
	inputMint, err := solana.PublicKeyFromBase58(rec.InputTokenMint)
	if err != nil {
		return chainsolana.DepositParams{}, fmt.Errorf("parse input mint: %w", err)
	}

	outputAmount, err := money.ParseUnits(rec.RawOutputAmount, solanaUSDCDecimals)
	if err != nil {
		return chainsolana.DepositParams{}, fmt.Errorf("parse raw output amount: %w", err)
	}

	recipient := hexAddressTo20Bytes(rec.SettlementWallet)
	outputToken := hexAddressTo20Bytes(rec.OutputTokenAddress)

	var exclusiveRelayer [32]byte // no exclusive relayer configured

	var quoteTimestamp, fillDeadline uint32
	if rec.QuoteTimestamp != nil {
		quoteTimestamp = uint32(rec.QuoteTimestamp.Unix())
	}
	if rec.FillDeadline != nil {
		fillDeadline = uint32(rec.FillDeadline.Unix())
	}

	return chainsolana.DepositParams{
		Depositor:           depositor,
		Recipient:           chainsolana.PadEVMAddress(recipient),
		InputToken:          inputMint,
		OutputToken:         chainsolana.PadEVMAddress(outputToken),
		InputAmount:         actualInput,
		OutputAmount:        chainsolana.U256BigEndian(big.NewInt(outputAmount.Atomic)),
		DestinationChainID:  uint64(rec.DestinationChainID),
		ExclusiveRelayer:    exclusiveRelayer,
		QuoteTimestamp:      quoteTimestamp,
		FillDeadline:        fillDeadline,
		ExclusivityDeadline: 0,
		Message:             nil,
	}, nil
}

func hexAddressTo20Bytes(addr string) [20]byte {
	var out [20]byte
	copy(out[:], common.HexToAddress(addr).Bytes())
	return out
}

type fillMatch struct {
	txHash       common.Hash
	block        uint64
	currentBlock uint64
}

// stage3WatchFill registers the live subscription before spawning the
// historical sweep, per the ordering guarantee that prevents a fast fill
// from landing in the gap between deposit submission and subscription.
func stage3WatchFill(ctx context.Context, deps *Deps, rec recordstore.Record, deadline time.Time, lookbackBlocks int64, log *zerolog.Logger) (*fillMatch, error) {
	client, err := deps.EVMPool.Get(rec.SettlementChain)
	if err != nil {
		return nil, fmt.Errorf("no rpc for settlement chain %s: %w", rec.SettlementChain, err)
	}

	solanaChainID := deps.Config.Bridge.AcrossChainIDs["solana"]
	originTopic := common.BigToHash(big.NewInt(solanaChainID))
	topics := [][]common.Hash{{evm.FilledRelayTopic}, {originTopic}}

	stageCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, _ := client.Subscribe(stageCtx, goethereum.FilterQuery{Topics: topics})

	current, err := client.GetBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get block number: %w", err)
	}
	start := current
	if lookbackBlocks > 0 && int64(current) > lookbackBlocks {
		start = current - uint64(lookbackBlocks)
	} else {
		start = 0
	}

	logs, err := client.GetLogsChunked(ctx, common.HexToAddress(rec.SpokePoolDestination), topics, start, current)
	if m := firstFillMatch(logs, rec); m != nil {
		m.currentBlock = maxU64(current, m.block)
		return m, nil
	}

	next := current + 1
	if err != nil {
		next = start // rescan the historical window on the next poll
	}
	ticker := time.NewTicker(deps.PollInterval())
	defer ticker.Stop()

	for {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("stage3: deadline exceeded waiting for fill")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case l, ok := <-sub:
			if ok {
				if m := firstFillMatch([]types.Log{l}, rec); m != nil {
					head, _ := client.GetBlockNumber(ctx)
					m.currentBlock = maxU64(head, m.block)
					return m, nil
				}
			}
		case <-ticker.C:
			head, err := client.GetBlockNumber(ctx)
			if err != nil {
				continue
			}
			if head >= next {
				logs, err := client.GetLogsChunked(ctx, common.HexToAddress(rec.SpokePoolDestination), topics, next, head)
				if err == nil {
					if m := firstFillMatch(logs, rec); m != nil {
						m.currentBlock = maxU64(head, m.block)
						return m, nil
					}
					next = head + 1
				}
			}
		}
	}
}

func firstFillMatch(logs []types.Log, rec recordstore.Record) *fillMatch {
	settlementWallet := common.HexToAddress(rec.SettlementWallet)
	outputToken := common.HexToAddress(rec.OutputTokenAddress)

	expected, err := money.ParseUnits(rec.RawOutputAmount, solanaUSDCDecimals)
	if err != nil {
		return nil
	}
	lower, upper, err := expected.ToleranceWindow(99, 101)
	if err != nil {
		return nil
	}

	for _, l := range logs {
		fill, err := evm.ParseFilledRelay(l)
		if err != nil {
			continue
		}
		if fill.Recipient != settlementWallet || fill.OutputToken != outputToken {
			continue
		}
		if fill.OutputAmount.Cmp(big.NewInt(lower.Atomic)) < 0 || fill.OutputAmount.Cmp(big.NewInt(upper.Atomic)) > 0 {
			continue
		}
		return &fillMatch{txHash: fill.TxHash, block: fill.Block}
	}
	return nil
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
