package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string to keep config edits human-friendly.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds application level configuration aggregated from file and environment variables.
type Config struct {
	Server         ServerConfig                       `yaml:"server"`
	Logging        LoggingConfig                      `yaml:"logging"`
	RPC            map[string]string                  `yaml:"rpc"`    // chain -> RPC endpoint URL
	Chains         map[string]ChainParams              `yaml:"chains"` // chain -> block-time / native-asset metadata
	Tokens         map[string]map[string]TokenConfig   `yaml:"tokens"` // chain -> symbol -> on-chain address/mint
	Bridge         BridgeConfig                       `yaml:"bridge"`
	Monitoring     MonitoringConfig                   `yaml:"monitoring"`
	Encryption     EncryptionConfig                   `yaml:"encryption"`
	Payment        PaymentConfig                      `yaml:"payment"`
	Sol            SolConfig                          `yaml:"sol"`
	Notify         NotifyConfig                       `yaml:"notify"`
	DataDir        string                             `yaml:"dataDir"`
	PolicyPath     string                             `yaml:"policyPath"`
	CircuitBreaker CircuitBreakerConfig               `yaml:"circuit_breaker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address            string   `yaml:"address"`
	ReadTimeout        Duration `yaml:"read_timeout"`
	WriteTimeout       Duration `yaml:"write_timeout"`
	IdleTimeout        Duration `yaml:"idle_timeout"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	RoutePrefix        string   `yaml:"route_prefix"`          // optional prefix for all routes (e.g. "/api")
	AdminMetricsAPIKey string   `yaml:"admin_metrics_api_key"` // optional API key to protect /metrics (empty disables protection)
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error (default: info)
	Format      string `yaml:"format"`      // json, console (default: json)
	Environment string `yaml:"environment"` // production, staging, development
}

// ChainParams holds per-chain metadata the monitors need to bound their scans.
type ChainParams struct {
	BlockTimeSeconds          float64 `yaml:"blockTimeSeconds"`
	MaxHistoricalWindowBlocks int64   `yaml:"maxHistoricalWindowBlocks"` // §4.D.1: 150 for Polygon-class, 1500 for Arbitrum-class
	NativeSymbol              string  `yaml:"nativeSymbol"`              // ETH, MATIC, AVAX, BNB, SOL, ...
}

// TokenConfig names a token's on-chain address/mint. Decimals are read from
// the chain at match time (see internal/chain) and fall back to 6 on failure
// per §4.D.1; the Decimals field is parsed but not read by the monitors, so
// it does not override the on-chain value.
type TokenConfig struct {
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
}

// BridgeConfig holds Across-protocol bridge configuration.
type BridgeConfig struct {
	SpokePools               map[string]string `yaml:"spokePools"`     // chain -> SpokePool contract/program address
	AcrossChainIDs           map[string]int64  `yaml:"acrossChainIds"` // chain -> Across-internal chain id
	EstimatedRelayFeePct     float64           `yaml:"estimatedRelayFeePct"`
	MinRelayFeeBuffer        float64           `yaml:"minRelayFeeBuffer"`
	FillDeadlineOffsetSec    int64             `yaml:"fillDeadlineOffsetSec"`
	HistoricalLookbackBlocks int64             `yaml:"historicalLookbackBlocks"` // stage 3 default sweep depth (default 300)
	ResumeLookbackBlocks     int64             `yaml:"resumeLookbackBlocks"`     // widened sweep on resume_stage3 (default 2000)
}

// MonitoringConfig holds monitor polling and deadline configuration.
type MonitoringConfig struct {
	PollIntervalMs        int64  `yaml:"pollIntervalMs"`
	RequiredConfirmations uint64 `yaml:"requiredConfirmations"`
	DirectTimeoutMs       int64  `yaml:"directTimeoutMs"`
	BridgeTimeoutMs       int64  `yaml:"bridgeTimeoutMs"`
}

// EncryptionConfig holds the symmetric key used to seal/open temp wallet keys.
type EncryptionConfig struct {
	WalletKey string `yaml:"walletKey"` // hex-encoded, 32 bytes
}

// PaymentConfig holds outward-facing payment-link configuration.
type PaymentConfig struct {
	BaseURL            string `yaml:"baseUrl"`
	DefaultExpiryHours int    `yaml:"defaultExpiryHours"`
}

// SolConfig holds Solana-side bridge support configuration.
type SolConfig struct {
	DispenserKey       string `yaml:"dispenserKey"` // hex-encoded, funds temp wallets for stage 2
	FundAmountLamports uint64 `yaml:"fundAmountLamports"`
}

// NotifyConfig holds the outbound webhook delivery configuration the
// notification worker drains recordstore's queue against.
type NotifyConfig struct {
	WebhookURL string   `yaml:"webhookUrl"`
	Interval   Duration `yaml:"interval"`
	Timeout    Duration `yaml:"timeout"`
}

// CircuitBreakerConfig holds circuit breaker configuration applied to every chain's RPC traffic.
type CircuitBreakerConfig struct {
	Enabled             bool     `yaml:"enabled"`
	MaxRequests         uint32   `yaml:"max_requests"`
	Interval            Duration `yaml:"interval"`
	Timeout             Duration `yaml:"timeout"`
	ConsecutiveFailures uint32   `yaml:"consecutive_failures"`
	FailureRatio        float64  `yaml:"failure_ratio"`
	MinRequests         uint32   `yaml:"min_requests"`
}
