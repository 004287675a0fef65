package errors

import "fmt"

// PolicyError reports a failure to load or validate the policy document.
// Kind is one of "not_found", "malformed", "invariant_violated".
type PolicyError struct {
	Kind    string
	Which   string // populated for Kind == "invariant_violated"
	Message string
}

func (e *PolicyError) Error() string {
	if e.Which != "" {
		return fmt.Sprintf("policy: %s (%s): %s", e.Kind, e.Which, e.Message)
	}
	return fmt.Sprintf("policy: %s: %s", e.Kind, e.Message)
}

func (e *PolicyError) Code() ErrorCode {
	switch e.Kind {
	case "malformed":
		return ErrCodePolicyMalformed
	case "invariant_violated":
		return ErrCodePolicyInvariantViolated
	default:
		return ErrCodePolicyNotFound
	}
}

// ValidationError reports a routing/policy rejection surfaced to the caller
// as `{status: "rejected", violation: ..., policy: ..., received: ...}`.
type ValidationError struct {
	Violation string // "chain" | "token" | "amount" | "emi"
	Policy    any
	Received  any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s rejected (received %v, policy %v)", e.Violation, e.Received, e.Policy)
}

func (e *ValidationError) Code() ErrorCode {
	switch e.Violation {
	case "token":
		return ErrCodeTokenRejected
	case "amount":
		return ErrCodeAmountRejected
	case "emi":
		return ErrCodeEMIRejected
	default:
		return ErrCodeChainRejected
	}
}

// RecordError reports a payment-record-store failure.
// Kind is one of "not_found", "conflict".
type RecordError struct {
	Kind      string
	PaymentID string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record: %s: %s", e.Kind, e.PaymentID)
}

func (e *RecordError) Code() ErrorCode {
	if e.Kind == "conflict" {
		return ErrCodeRecordConflict
	}
	return ErrCodeRecordNotFound
}

// RpcError reports a chain-adapter RPC failure. Transient errors drive retry
// inside a monitor's poll loop; fatal errors end the monitor in "error".
type RpcError struct {
	Chain     string
	Transient bool
	Err       error
}

func (e *RpcError) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("rpc(%s): %s: %v", e.Chain, kind, e.Err)
}

func (e *RpcError) Unwrap() error { return e.Err }

func (e *RpcError) Code() ErrorCode {
	if e.Transient {
		return ErrCodeRPCTransient
	}
	return ErrCodeRPCFatal
}

// TxError reports a failed Solana approve/deposit submission. It is fatal
// for the payment that produced it.
type TxError struct {
	Reason string
	Err    error
}

func (e *TxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tx: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("tx: %s", e.Reason)
}

func (e *TxError) Unwrap() error { return e.Err }

func (e *TxError) Code() ErrorCode { return ErrCodeTxFailed }

// TimeoutError reports that a monitor's deadline elapsed without reaching a
// terminal success. The record transitions to "expired".
type TimeoutError struct {
	PaymentID string
	Stage     string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: payment %s at stage %s", e.PaymentID, e.Stage)
}

func (e *TimeoutError) Code() ErrorCode { return ErrCodeTimeout }
