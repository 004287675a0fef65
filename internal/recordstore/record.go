// Package recordstore persists one JSON file per payment under a shared
// data directory. Every write is a temp-file-then-rename so a reader never
// observes a partially written record.
package recordstore

import "time"

// Kind distinguishes a direct EVM payment from a bridged Solana-to-EVM one.
type Kind string

const (
	KindDirect Kind = "direct"
	KindBridge Kind = "bridge"
)

// Status is the payment's lifecycle state. Bridge payments pass through
// every state in order; direct payments only ever see pending, confirming,
// confirmed, expired, error.
type Status string

const (
	StatusPending         Status = "pending"
	StatusWaitingDeposit  Status = "waiting_deposit"
	StatusDepositReceived Status = "deposit_received"
	StatusBridging        Status = "bridging"
	StatusConfirming      Status = "confirming"
	StatusConfirmed       Status = "confirmed"
	StatusExpired         Status = "expired"
	StatusError           Status = "error"
)

// IsTerminal reports whether status ends the payment's monitor.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusConfirmed, StatusExpired, StatusError:
		return true
	default:
		return false
	}
}

// Record is the durable state of one payment, mutated only by the monitor
// that owns it after creation.
type Record struct {
	PaymentID        string `json:"payment_id"`
	BusinessID       string `json:"business_id"`
	BusinessName     string `json:"business_name"`
	SettlementWallet string `json:"settlement_wallet"`
	ChatID           string `json:"chat_id,omitempty"`

	Kind Kind `json:"kind"`

	Token              string `json:"token"`
	SettlementChain    string `json:"settlement_chain"`
	SourceChain        string `json:"source_chain,omitempty"`
	InputTokenMint     string `json:"input_token_mint,omitempty"`
	OutputTokenAddress string `json:"output_token_address,omitempty"`
	RawInputAmount     string `json:"raw_input_amount,omitempty"`
	RawOutputAmount    string `json:"raw_output_amount,omitempty"`
	RelayFee           string `json:"relay_fee,omitempty"`

	TempWalletPubkey     string     `json:"temp_wallet_pubkey,omitempty"`
	DepositAddress       string     `json:"deposit_address,omitempty"`
	TempPrivateKeySealed string     `json:"temp_private_key_sealed,omitempty"`
	SpokePoolSource      string     `json:"spoke_pool_source,omitempty"`
	SpokePoolDestination string     `json:"spoke_pool_destination,omitempty"`
	DestinationChainID   int64      `json:"destination_chain_id,omitempty"`
	QuoteTimestamp       *time.Time `json:"quote_timestamp,omitempty"`
	FillDeadline         *time.Time `json:"fill_deadline,omitempty"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	TxHash        string     `json:"tx_hash,omitempty"`
	DepositTxSig  string     `json:"deposit_tx_sig,omitempty"`
	Confirmations uint64     `json:"confirmations,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
	ExpiredAt     *time.Time `json:"expired_at,omitempty"`

	// ActualInputAtomic is the deposit balance stage 1 observed, in the input
	// mint's atomic units. Stage 2 approves exactly this amount; a resumed
	// monitor reads it back instead of re-watching the deposit.
	ActualInputAtomic uint64 `json:"actual_input_atomic,omitempty"`
}
