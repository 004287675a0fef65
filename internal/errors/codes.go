package errors

// ErrorCode is a machine-readable identifier for outcomes the orchestrator
// and monitors can produce, mirroring the error-kind taxonomy the core is
// built around: policy, validation, record, RPC, transaction, and timeout
// failures.
type ErrorCode string

// Policy errors (internal/policy.Store.Load)
const (
	ErrCodePolicyNotFound           ErrorCode = "policy_not_found"
	ErrCodePolicyMalformed          ErrorCode = "policy_malformed"
	ErrCodePolicyInvariantViolated  ErrorCode = "policy_invariant_violated"
	ErrCodePolicyNotReady           ErrorCode = "policy_not_ready"
)

// Validation errors (routing/amount/token rejection at the Orchestrator)
const (
	ErrCodeChainRejected  ErrorCode = "chain_rejected"
	ErrCodeTokenRejected  ErrorCode = "token_rejected"
	ErrCodeAmountRejected ErrorCode = "amount_rejected"
	ErrCodeEMIRejected    ErrorCode = "emi_rejected"
)

// Record errors (internal/recordstore)
const (
	ErrCodeRecordNotFound ErrorCode = "record_not_found"
	ErrCodeRecordConflict ErrorCode = "record_conflict"
)

// RPC errors (internal/chain/evm, internal/chain/solana)
const (
	ErrCodeRPCTransient ErrorCode = "rpc_transient"
	ErrCodeRPCFatal     ErrorCode = "rpc_fatal"
)

// Transaction errors (Solana approve/deposit submission)
const (
	ErrCodeTxFailed ErrorCode = "tx_failed"
)

// Timeout errors (monitor deadline expiry)
const (
	ErrCodeTimeout ErrorCode = "timeout"
)

// Internal/system errors
const (
	ErrCodeInternal     ErrorCode = "internal_error"
	ErrCodeConfig       ErrorCode = "config_error"
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	ErrCodeBadRequest   ErrorCode = "bad_request"
)

// IsRetryable reports whether an error code represents a transient condition
// a caller or a monitor's own retry loop should absorb rather than surface.
func (e ErrorCode) IsRetryable() bool {
	switch e {
	case ErrCodeRPCTransient:
		return true
	default:
		return false
	}
}

// HTTPStatus maps an ErrorCode to the status the HTTP surface should return.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	case ErrCodeChainRejected, ErrCodeTokenRejected, ErrCodeAmountRejected, ErrCodeEMIRejected:
		return 400
	case ErrCodePolicyNotReady:
		return 409
	case ErrCodeRecordNotFound:
		return 404
	case ErrCodeRecordConflict:
		return 409
	case ErrCodePolicyMalformed, ErrCodePolicyInvariantViolated, ErrCodePolicyNotFound:
		return 500
	case ErrCodeRPCTransient, ErrCodeRPCFatal:
		return 502
	case ErrCodeTxFailed:
		return 502
	case ErrCodeTimeout:
		return 504
	case ErrCodeUnauthorized:
		return 401
	case ErrCodeBadRequest:
		return 400
	default:
		return 500
	}
}
