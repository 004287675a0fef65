// Package orchestrator is Railclaw's central routing component: it decides
// whether a payment settles directly on its requested chain or crosses the
// Across bridge from Solana, creates the payment's durable record, and
// detaches a monitor to carry it to a terminal state.
package orchestrator

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	gagsolana "github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	chainsolana "github.com/railclaw/orchestrator/internal/chain/solana"
	"github.com/railclaw/orchestrator/internal/config"
	"github.com/railclaw/orchestrator/internal/logger"
	"github.com/railclaw/orchestrator/internal/metrics"
	"github.com/railclaw/orchestrator/internal/money"
	"github.com/railclaw/orchestrator/internal/monitor"
	"github.com/railclaw/orchestrator/internal/policy"
	"github.com/railclaw/orchestrator/internal/recordstore"
	"github.com/railclaw/orchestrator/internal/sealing"
	temporalsolana "github.com/railclaw/orchestrator/internal/solana"
)

// solanaUSDCDecimals is the fixed precision bridge quoting runs at (USDC's
// precision on Solana). The Solana leg uses the configured Solana mint of the
// requested token, and that token's decimals are not looked up.
const solanaUSDCDecimals = 6

// Orchestrator wires a business's policy and payment-record store together
// with the chain adapters a launched monitor will need.
type Orchestrator struct {
	Config  *config.Config
	Policy  *policy.Store
	Records *recordstore.Store
	Sealer  *sealing.Sealer
	Metrics *metrics.Metrics
	Monitors *monitor.Deps
	Logger  zerolog.Logger

	// launch starts the monitor for a freshly created record. It is
	// replaced with a recording stub in tests so routing and record
	// creation can be verified without a live chain adapter.
	launch func(paymentID string, kind recordstore.Kind)
}

// New builds an Orchestrator and wires its default, goroutine-spawning
// monitor launcher.
func New(cfg *config.Config, policyStore *policy.Store, records *recordstore.Store, sealer *sealing.Sealer, m *metrics.Metrics, monitors *monitor.Deps, log zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		Config:   cfg,
		Policy:   policyStore,
		Records:  records,
		Sealer:   sealer,
		Metrics:  m,
		Monitors: monitors,
		Logger:   log,
	}
	o.launch = o.spawnMonitor
	return o
}

// spawnMonitor registers paymentID with the monitor registry and runs its
// monitor on a detached goroutine. The registry gate makes a double-launch
// (two requests racing the same payment ID, which cannot happen today since
// IDs are generated, not supplied, but matters for a future resume path) a
// no-op rather than a second concurrent writer.
func (o *Orchestrator) spawnMonitor(paymentID string, kind recordstore.Kind) {
	if err := o.Monitors.Registry.Start(paymentID); err != nil {
		o.Logger.Error().Err(err).Str("payment_id", paymentID).Msg("orchestrator.monitor_already_running")
		return
	}

	o.Metrics.MonitorsActive.Inc()
	ctx := logger.WithContext(context.Background(), o.Logger)

	go func() {
		defer o.Metrics.MonitorsActive.Dec()
		switch kind {
		case recordstore.KindDirect:
			monitor.RunDirect(ctx, o.Monitors, paymentID)
		case recordstore.KindBridge:
			monitor.RunBridge(ctx, o.Monitors, paymentID, false)
		}
	}()
}

// Handle dispatches req to the action it names.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (Response, error) {
	o.Metrics.RequestsTotal.WithLabelValues(string(req.Action)).Inc()

	switch req.Action {
	case ActionCreatePaymentLink:
		return o.createPaymentLink(req)
	case ActionCheckPayment:
		return o.checkPayment(req)
	case ActionListPayments:
		return o.listPayments(req)
	default:
		return Response{}, fmt.Errorf("orchestrator: unknown action %q", req.Action)
	}
}

// createPaymentLink implements the routing predicate in its required
// order — bridge, then direct, then rejected — followed by token and
// amount validation, record creation, and a detached monitor launch. It
// returns before the monitor's own work begins and never creates a record
// or starts a monitor on a policy or validation failure.
func (o *Orchestrator) createPaymentLink(req Request) (Response, error) {
	pol, err := o.Policy.Load()
	if err != nil {
		return Response{}, err
	}
	if !pol.IsActive() {
		return Response{Status: "not_ready"}, nil
	}

	kind, settlementChain, ok := route(&pol, req.Chain)
	if !ok {
		o.Metrics.RejectionsTotal.WithLabelValues("chain").Inc()
		return rejection("chain", pol.Specification.AllowedChains, req.Chain), nil
	}
	if !pol.AllowsToken(req.Token) {
		o.Metrics.RejectionsTotal.WithLabelValues("token").Inc()
		return rejection("token", pol.Specification.AllowedTokens, req.Token), nil
	}
	if !pol.WithinMaxPayment(req.Amount) {
		o.Metrics.RejectionsTotal.WithLabelValues("amount").Inc()
		return rejection("amount", pol.Restrictions.MaxSinglePayment, req.Amount), nil
	}

	paymentID := "pay_" + uuid.NewString()
	now := time.Now().UTC()
	expiryHours := o.Config.Payment.DefaultExpiryHours
	if expiryHours <= 0 {
		expiryHours = 24
	}

	rec := recordstore.Record{
		PaymentID:        paymentID,
		BusinessID:       pol.Business.ID,
		BusinessName:     pol.Business.Name,
		SettlementWallet: pol.Business.Wallet,
		ChatID:           pol.Business.ChatID,
		Kind:             kind,
		Token:            req.Token,
		SettlementChain:  settlementChain,
		Status:           recordstore.StatusPending,
		CreatedAt:        now,
		ExpiresAt:        now.Add(time.Duration(expiryHours) * time.Hour),
	}

	var resp Response
	switch kind {
	case recordstore.KindDirect:
		rec.RawOutputAmount = formatAmount(req.Amount)
		resp = Response{
			Status:    "executed",
			PaymentID: paymentID,
			Link:      o.Config.Payment.BaseURL + "/p/" + paymentID,
		}
	case recordstore.KindBridge:
		rec.SourceChain = req.Chain
		if err := o.fillBridgeFields(&rec, req); err != nil {
			return Response{}, err
		}
		resp = Response{
			Status:    "bridge_payment",
			PaymentID: paymentID,
			BridgeInstructions: &BridgeInstructions{
				DepositAddress:   rec.DepositAddress,
				AmountToSend:     rec.RawInputAmount,
				RelayFee:         rec.RelayFee,
				BusinessReceives: rec.RawOutputAmount,
				SettlementChain:  settlementChain,
				SettlementWallet: rec.SettlementWallet,
			},
		}
	}

	if err := o.Records.Create(rec); err != nil {
		return Response{}, err
	}

	o.Metrics.PaymentsCreated.WithLabelValues(string(kind), settlementChain).Inc()
	o.launch(paymentID, kind)
	return resp, nil
}

// route applies the exact routing predicate: bridge iff chain is both
// user-payable and bridging is enabled (settling on the policy's configured
// settlement chain), else direct iff chain is itself a settlement chain,
// else no route exists.
func route(pol *policy.Policy, chain string) (kind recordstore.Kind, settlementChain string, ok bool) {
	if pol.IsUserPayableChain(chain) && pol.BridgeEnabled() {
		return recordstore.KindBridge, pol.SettlementChain(), true
	}
	if pol.AllowsChain(chain) {
		return recordstore.KindDirect, chain, true
	}
	return "", "", false
}

// fillBridgeFields computes every field a bridged record needs before it is
// created: the disposable temp wallet and its deposit ATA, the sealed
// private key, the relay fee and raw input/output amounts, and the
// quote/fill-deadline timestamps the Solana deposit instruction carries.
func (o *Orchestrator) fillBridgeFields(rec *recordstore.Record, req Request) error {
	solanaToken, ok := o.Config.Tokens["solana"][req.Token]
	if !ok {
		return fmt.Errorf("orchestrator: no solana token config for %s", req.Token)
	}
	settlementToken, ok := o.Config.Tokens[rec.SettlementChain][req.Token]
	if !ok {
		return fmt.Errorf("orchestrator: no %s token config for %s", rec.SettlementChain, req.Token)
	}

	amount, err := money.ParseUnits(formatAmount(req.Amount), solanaUSDCDecimals)
	if err != nil {
		return fmt.Errorf("orchestrator: parse amount: %w", err)
	}
	minBuffer, err := money.ParseUnits(formatAmount(o.Config.Bridge.MinRelayFeeBuffer), solanaUSDCDecimals)
	if err != nil {
		return fmt.Errorf("orchestrator: parse min relay fee buffer: %w", err)
	}
	feePctPermille := int64(math.Round(o.Config.Bridge.EstimatedRelayFeePct * 1000))
	relayFee, err := money.RelayFee(amount, feePctPermille, minBuffer)
	if err != nil {
		return fmt.Errorf("orchestrator: compute relay fee: %w", err)
	}
	rawInput, err := amount.Add(relayFee)
	if err != nil {
		return fmt.Errorf("orchestrator: compute raw input amount: %w", err)
	}

	tempKey, err := temporalsolana.GenerateDisposableKeypair()
	if err != nil {
		return fmt.Errorf("orchestrator: generate temp wallet: %w", err)
	}
	mint, err := gagsolana.PublicKeyFromBase58(solanaToken.Address)
	if err != nil {
		return fmt.Errorf("orchestrator: parse solana mint: %w", err)
	}
	depositATA, err := chainsolana.DeriveATA(tempKey.PublicKey(), mint)
	if err != nil {
		return fmt.Errorf("orchestrator: derive deposit ata: %w", err)
	}
	sealed, err := o.Sealer.Seal([]byte(tempKey.String()))
	if err != nil {
		return fmt.Errorf("orchestrator: seal temp key: %w", err)
	}

	fillDeadlineSec := o.Config.Bridge.FillDeadlineOffsetSec
	if fillDeadlineSec <= 0 {
		fillDeadlineSec = 6 * 3600
	}
	quoteTimestamp := time.Now().UTC()
	fillDeadline := quoteTimestamp.Add(time.Duration(fillDeadlineSec) * time.Second)

	rec.InputTokenMint = solanaToken.Address
	rec.OutputTokenAddress = settlementToken.Address
	rec.RawInputAmount = rawInput.Format()
	rec.RawOutputAmount = amount.Format()
	rec.RelayFee = relayFee.Format()
	rec.TempWalletPubkey = tempKey.PublicKey().String()
	rec.DepositAddress = depositATA.String()
	rec.TempPrivateKeySealed = sealed
	rec.SpokePoolSource = o.Config.Bridge.SpokePools["solana"]
	rec.SpokePoolDestination = o.Config.Bridge.SpokePools[rec.SettlementChain]
	rec.DestinationChainID = o.Config.Bridge.AcrossChainIDs[rec.SettlementChain]
	rec.QuoteTimestamp = &quoteTimestamp
	rec.FillDeadline = &fillDeadline
	return nil
}

// checkPayment returns the current record for a payment ID verbatim.
func (o *Orchestrator) checkPayment(req Request) (Response, error) {
	rec, err := o.Records.Get(req.PaymentID)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: string(rec.Status), PaymentID: rec.PaymentID, Record: &rec}, nil
}

// listPayments returns every record matching the requested filter.
func (o *Orchestrator) listPayments(req Request) (Response, error) {
	filter := recordstore.Filter{BusinessID: req.Business, Status: recordstore.Status(req.Status)}
	records, err := o.Records.List(filter)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: "ok", Records: records}, nil
}

func rejection(violation string, policyValue, received any) Response {
	return Response{Status: "rejected", Violation: violation, Policy: policyValue, Received: received}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
