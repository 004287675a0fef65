package orchestrator

import "github.com/railclaw/orchestrator/internal/recordstore"

// Action names one of the three operations the orchestrator exposes.
type Action string

const (
	ActionCreatePaymentLink Action = "create_payment_link"
	ActionCheckPayment      Action = "check_payment"
	ActionListPayments      Action = "list_payments"
)

// Request is the uniform envelope for all three orchestrator actions; a
// caller populates only the fields its action needs.
type Request struct {
	Action Action `json:"action"`

	// create_payment_link
	Amount float64 `json:"amount,omitempty"`
	Token  string  `json:"token,omitempty"`
	Chain  string  `json:"chain,omitempty"`

	// check_payment
	PaymentID string `json:"payment_id,omitempty"`

	// list_payments (both optional filters)
	Business string `json:"business,omitempty"`
	Status   string `json:"status,omitempty"`
}

// BridgeInstructions tells the caller where to send funds for a bridged
// payment and what the business will ultimately receive.
type BridgeInstructions struct {
	DepositAddress   string `json:"deposit_address"`
	AmountToSend     string `json:"amount_to_send"`
	RelayFee         string `json:"relay_fee"`
	BusinessReceives string `json:"business_receives"`
	SettlementChain  string `json:"settlement_chain"`
	SettlementWallet string `json:"settlement_wallet"`
}

// Response is the shape returned for every action. Which fields are
// populated depends on Status: "rejected" carries Violation/Policy/Received,
// "executed" carries Link, "bridge_payment" carries BridgeInstructions, and
// check_payment/list_payments carry Record/Records.
type Response struct {
	Status    string `json:"status"`
	PaymentID string `json:"payment_id,omitempty"`

	Link               string              `json:"link,omitempty"`
	BridgeInstructions *BridgeInstructions `json:"bridge_instructions,omitempty"`

	Violation string `json:"violation,omitempty"`
	Policy    any    `json:"policy,omitempty"`
	Received  any    `json:"received,omitempty"`

	Record  *recordstore.Record  `json:"record,omitempty"`
	Records []recordstore.Record `json:"records,omitempty"`
}
