package policy

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	railerrors "github.com/railclaw/orchestrator/internal/errors"
)

// Store reads the policy document fresh from disk on every Load call. It
// never caches a parsed Policy across requests: a policy edit takes effect
// on the very next request, by construction.
type Store struct {
	path string
}

// NewStore returns a Store reading the document at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load parses and validates the policy document, returning a fresh Policy
// value (never a shared pointer a caller could mutate across requests).
func (s *Store) Load() (Policy, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Policy{}, &railerrors.PolicyError{Kind: "not_found", Message: s.path}
		}
		return Policy{}, &railerrors.PolicyError{Kind: "malformed", Message: err.Error()}
	}

	var p Policy
	if err := yaml.Unmarshal(stripFrontMatterDelimiters(data), &p); err != nil {
		return Policy{}, &railerrors.PolicyError{Kind: "malformed", Message: err.Error()}
	}

	if err := validateInvariants(&p); err != nil {
		return Policy{}, err
	}

	return p, nil
}

// stripFrontMatterDelimiters removes leading/trailing "---" lines so a
// policy document written with Jekyll-style front matter parses as one
// ordered YAML document rather than erroring on the delimiter markers.
func stripFrontMatterDelimiters(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	var kept []string
	delimiters := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "---" && delimiters < 2 {
			delimiters++
			continue
		}
		kept = append(kept, line)
	}
	return []byte(strings.Join(kept, "\n"))
}

// validateInvariants checks the invariants a freshly parsed Policy must
// satisfy before it can drive routing decisions.
func validateInvariants(p *Policy) error {
	if p.Status == StatusActive {
		if len(p.Specification.AllowedChains) == 0 {
			return &railerrors.PolicyError{Kind: "invariant_violated", Which: "allowed_chains", Message: "must hold at least one element when status=active"}
		}
		if len(p.Specification.AllowedTokens) == 0 {
			return &railerrors.PolicyError{Kind: "invariant_violated", Which: "allowed_tokens", Message: "must hold at least one element when status=active"}
		}
	}
	if p.CrossChain.Bridge.Enabled {
		if !containsFold(p.Specification.AllowedChains, p.CrossChain.Bridge.SettlementChain) {
			return &railerrors.PolicyError{Kind: "invariant_violated", Which: "cross_chain.bridge.settlement_chain", Message: "must be a member of allowed_chains"}
		}
	}
	return nil
}
