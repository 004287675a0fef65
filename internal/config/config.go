package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.parseFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  Duration{Duration: 15 * time.Second},
			WriteTimeout: Duration{Duration: 15 * time.Second},
			IdleTimeout:  Duration{Duration: 60 * time.Second},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Environment: "production",
		},
		RPC:    map[string]string{},
		Chains: map[string]ChainParams{},
		Tokens: map[string]map[string]TokenConfig{},
		Bridge: BridgeConfig{
			SpokePools:               map[string]string{},
			AcrossChainIDs:           map[string]int64{},
			EstimatedRelayFeePct:     0.003,
			MinRelayFeeBuffer:        0.5,
			FillDeadlineOffsetSec:    6 * 3600,
			HistoricalLookbackBlocks: 300,
			ResumeLookbackBlocks:     2000,
		},
		Monitoring: MonitoringConfig{
			PollIntervalMs:        30_000,
			RequiredConfirmations: 20,
			DirectTimeoutMs:       3600_000,
			BridgeTimeoutMs:       7200_000,
		},
		Payment: PaymentConfig{
			DefaultExpiryHours: 6,
		},
		Notify: NotifyConfig{
			Interval: Duration{Duration: 5 * time.Second},
			Timeout:  Duration{Duration: 10 * time.Second},
		},
		DataDir: "./data",
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:             true,
			MaxRequests:         3,
			Interval:            Duration{Duration: 60 * time.Second},
			Timeout:             Duration{Duration: 30 * time.Second},
			ConsecutiveFailures: 5,
			FailureRatio:        0.5,
			MinRequests:         10,
		},
	}
}

// parseFile reads and unmarshals a YAML configuration file.
func (c *Config) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}
