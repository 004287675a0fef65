package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// finalize fills in zero-value defaults the YAML file left unset and
// validates the resulting configuration.
func (c *Config) finalize() error {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Environment == "" {
		c.Logging.Environment = "production"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.PolicyPath == "" {
		c.PolicyPath = "./policy.yaml"
	}

	if c.RPC == nil {
		c.RPC = map[string]string{}
	}
	if c.Chains == nil {
		c.Chains = map[string]ChainParams{}
	}
	if c.Tokens == nil {
		c.Tokens = map[string]map[string]TokenConfig{}
	}
	if c.Bridge.SpokePools == nil {
		c.Bridge.SpokePools = map[string]string{}
	}
	if c.Bridge.AcrossChainIDs == nil {
		c.Bridge.AcrossChainIDs = map[string]int64{}
	}
	if c.Bridge.EstimatedRelayFeePct <= 0 {
		c.Bridge.EstimatedRelayFeePct = 0.003
	}
	if c.Bridge.FillDeadlineOffsetSec <= 0 {
		c.Bridge.FillDeadlineOffsetSec = 6 * 3600
	}
	if c.Bridge.HistoricalLookbackBlocks <= 0 {
		c.Bridge.HistoricalLookbackBlocks = 300
	}
	if c.Bridge.ResumeLookbackBlocks <= 0 {
		c.Bridge.ResumeLookbackBlocks = 2000
	}

	if c.Monitoring.PollIntervalMs <= 0 {
		c.Monitoring.PollIntervalMs = 30_000
	}
	if c.Monitoring.RequiredConfirmations == 0 {
		c.Monitoring.RequiredConfirmations = 20
	}
	if c.Monitoring.DirectTimeoutMs <= 0 {
		c.Monitoring.DirectTimeoutMs = 3600_000
	}
	if c.Monitoring.BridgeTimeoutMs <= 0 {
		c.Monitoring.BridgeTimeoutMs = 7200_000
	}

	if c.Payment.DefaultExpiryHours <= 0 {
		c.Payment.DefaultExpiryHours = 6
	}

	// Fill per-chain defaults for known chain classes when the operator only
	// listed an RPC endpoint and didn't spell out block-time metadata.
	for chain := range c.RPC {
		params, ok := c.Chains[chain]
		if ok && params.BlockTimeSeconds > 0 && params.MaxHistoricalWindowBlocks > 0 {
			continue
		}
		c.Chains[chain] = defaultChainParams(chain, params)
	}

	return c.validate()
}

// defaultChainParams fills unset fields of a chain's metadata using well
// known defaults for common EVM chain classes; unknown chains fall back to
// Arbitrum-class (fast, finalized quickly) numbers, which are conservative.
func defaultChainParams(chain string, params ChainParams) ChainParams {
	if params.BlockTimeSeconds <= 0 {
		switch chain {
		case "polygon":
			params.BlockTimeSeconds = 2
		case "ethereum", "mainnet":
			params.BlockTimeSeconds = 12
		case "arbitrum", "optimism", "base":
			params.BlockTimeSeconds = 0.25
		case "avalanche":
			params.BlockTimeSeconds = 2
		case "bsc":
			params.BlockTimeSeconds = 3
		default:
			params.BlockTimeSeconds = 2
		}
	}
	if params.MaxHistoricalWindowBlocks <= 0 {
		switch chain {
		case "polygon", "avalanche", "bsc":
			params.MaxHistoricalWindowBlocks = 150
		case "arbitrum", "optimism", "base":
			params.MaxHistoricalWindowBlocks = 1500
		default:
			params.MaxHistoricalWindowBlocks = 150
		}
	}
	if params.NativeSymbol == "" {
		switch chain {
		case "polygon":
			params.NativeSymbol = "MATIC"
		case "avalanche":
			params.NativeSymbol = "AVAX"
		case "bsc":
			params.NativeSymbol = "BNB"
		case "solana":
			params.NativeSymbol = "SOL"
		default:
			params.NativeSymbol = "ETH"
		}
	}
	return params
}

// validate checks that required configuration fields are set correctly.
func (c *Config) validate() error {
	var errs []string

	if len(c.RPC) == 0 {
		errs = append(errs, "rpc must define at least one chain endpoint")
	}
	for chain, endpoint := range c.RPC {
		if endpoint == "" {
			errs = append(errs, fmt.Sprintf("rpc.%s is empty", chain))
		}
	}

	if c.Payment.BaseURL == "" {
		errs = append(errs, "payment.baseUrl is required to construct payment links")
	}

	if c.Encryption.WalletKey != "" {
		if err := validateHexKey(c.Encryption.WalletKey, 32); err != nil {
			errs = append(errs, fmt.Sprintf("encryption.walletKey: %v", err))
		}
	} else if len(c.Bridge.SpokePools) > 0 {
		errs = append(errs, "encryption.walletKey is required when bridge.spokePools is configured (temp Solana keys must be sealed)")
	}

	if c.Sol.DispenserKey != "" {
		if _, err := decodeHexKey(c.Sol.DispenserKey); err != nil {
			errs = append(errs, fmt.Sprintf("sol.dispenserKey: %v", err))
		}
	}

	// Every configured SpokePool chain needs a matching Across chain id, and
	// vice versa — a one-sided entry means the bridge stage can derive fees
	// but never find the destination (or cannot be targeted at all).
	for chain := range c.Bridge.SpokePools {
		if _, ok := c.Bridge.AcrossChainIDs[chain]; !ok {
			errs = append(errs, fmt.Sprintf("bridge.acrossChainIds.%s is required because bridge.spokePools.%s is set", chain, chain))
		}
	}
	for chain := range c.Bridge.AcrossChainIDs {
		if _, ok := c.Bridge.SpokePools[chain]; !ok {
			errs = append(errs, fmt.Sprintf("bridge.spokePools.%s is required because bridge.acrossChainIds.%s is set", chain, chain))
		}
	}

	if c.Bridge.EstimatedRelayFeePct < 0 || c.Bridge.EstimatedRelayFeePct > 1 {
		errs = append(errs, "bridge.estimatedRelayFeePct must be between 0 and 1")
	}
	if c.Bridge.MinRelayFeeBuffer < 0 {
		errs = append(errs, "bridge.minRelayFeeBuffer must not be negative")
	}

	if c.Monitoring.RequiredConfirmations == 0 {
		errs = append(errs, "monitoring.requiredConfirmations must be greater than zero")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// validateHexKey checks that s decodes to exactly wantBytes of hex.
func validateHexKey(s string, wantBytes int) error {
	decoded, err := decodeHexKey(s)
	if err != nil {
		return err
	}
	if len(decoded) != wantBytes {
		return fmt.Errorf("expected %d bytes, got %d", wantBytes, len(decoded))
	}
	return nil
}

func decodeHexKey(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return decoded, nil
}

// DeriveWebsocketURL converts an HTTP(S) RPC URL to WS(S) format, used by
// chain adapters to upgrade an RPC endpoint for log subscriptions.
func DeriveWebsocketURL(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("rpc url empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
		return raw, nil
	case "":
		return "", errors.New("rpc url missing scheme")
	default:
		return "", fmt.Errorf("unsupported rpc url scheme %q", u.Scheme)
	}
	return u.String(), nil
}
