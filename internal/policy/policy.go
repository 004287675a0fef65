// Package policy exposes a typed, read-only view over a business's versioned
// policy document: which chains and tokens it accepts, its payment limits,
// and whether cross-chain bridging is enabled.
package policy

import "strings"

// Status is the onboarding state of a business's policy.
type Status string

const (
	StatusPendingOnboarding Status = "pending_onboarding"
	StatusActive            Status = "active"
)

// Business identifies the merchant this policy governs.
type Business struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Wallet    string `yaml:"wallet"` // EVM settlement address
	Onboarded bool   `yaml:"onboarded"`
	ChatID    string `yaml:"chat_id,omitempty"`
}

// Specification names what the business accepts.
type Specification struct {
	AllowedChains []string `yaml:"allowed_chains"`
	AllowedTokens []string `yaml:"allowed_tokens"`
}

// Restrictions bounds an individual payment.
type Restrictions struct {
	MaxSinglePayment float64 `yaml:"max_single_payment"` // 0 means unlimited
}

// Operational carries EMI (installment) configuration.
type Operational struct {
	EMIEnabled        bool    `yaml:"emi_enabled"`
	EMIPremiumPercent float64 `yaml:"emi_premium_percent"`
}

// BridgeSpec describes the business's cross-chain bridge configuration.
type BridgeSpec struct {
	Enabled         bool   `yaml:"enabled"`
	Provider        string `yaml:"provider"`
	SettlementChain string `yaml:"settlement_chain"`
}

// CrossChain names which source chains a user may pay from, and the bridge
// configuration used to route them to the settlement chain.
type CrossChain struct {
	UserPayableChains []string   `yaml:"user_payable_chains"`
	Bridge            BridgeSpec `yaml:"bridge"`
}

// Policy is the versioned document governing one business's payment acceptance.
type Policy struct {
	Version       int            `yaml:"version"`
	Status        Status         `yaml:"status"`
	UpdatedAt     string         `yaml:"updated_at"`
	Business      Business       `yaml:"business"`
	Specification Specification  `yaml:"specification"`
	Restrictions  Restrictions   `yaml:"restrictions"`
	Operational   Operational    `yaml:"operational"`
	CrossChain    CrossChain     `yaml:"cross_chain"`
}

// IsActive reports whether the business has completed onboarding.
func (p *Policy) IsActive() bool {
	return p.Status == StatusActive
}

// AllowsChain reports whether chain is a direct-settlement chain.
func (p *Policy) AllowsChain(chain string) bool {
	return containsFold(p.Specification.AllowedChains, chain)
}

// AllowsToken reports whether token is accepted, case-insensitively.
func (p *Policy) AllowsToken(token string) bool {
	return containsFold(p.Specification.AllowedTokens, token)
}

// IsUserPayableChain reports whether a user may pay from chain via the bridge.
func (p *Policy) IsUserPayableChain(chain string) bool {
	return containsFold(p.CrossChain.UserPayableChains, chain)
}

// BridgeEnabled reports whether cross-chain bridging is configured.
func (p *Policy) BridgeEnabled() bool {
	return p.CrossChain.Bridge.Enabled
}

// SettlementChain returns the chain a bridged payment settles on.
func (p *Policy) SettlementChain() string {
	return p.CrossChain.Bridge.SettlementChain
}

// WithinMaxPayment reports whether amount respects the single-payment cap
// (0 means unlimited).
func (p *Policy) WithinMaxPayment(amount float64) bool {
	if p.Restrictions.MaxSinglePayment <= 0 {
		return true
	}
	return amount <= p.Restrictions.MaxSinglePayment
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}
