package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration.
// All env vars use the RAILCLAW_ prefix for namespace isolation.
func (c *Config) applyEnvOverrides() {
	// Server config
	setIfEnv(&c.Server.Address, "RAILCLAW_SERVER_ADDRESS")
	setIfEnv(&c.Server.RoutePrefix, "RAILCLAW_ROUTE_PREFIX")
	setIfEnv(&c.Server.AdminMetricsAPIKey, "RAILCLAW_ADMIN_METRICS_API_KEY")
	if c.Server.RoutePrefix != "" {
		c.Server.RoutePrefix = normalizeRoutePrefix(c.Server.RoutePrefix)
	}

	// Logging config
	setIfEnv(&c.Logging.Level, "RAILCLAW_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "RAILCLAW_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "RAILCLAW_ENVIRONMENT")

	// Per-chain RPC endpoints: RAILCLAW_RPC_<CHAIN>=https://...
	loadChainKeyedMap(c.RPC, "RAILCLAW_RPC_")

	// Per-chain/symbol token addresses: RAILCLAW_TOKEN_<CHAIN>_<SYMBOL>=0x...
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "RAILCLAW_TOKEN_") {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		rest := strings.TrimPrefix(parts[0], "RAILCLAW_TOKEN_")
		pieces := strings.SplitN(rest, "_", 2)
		if len(pieces) != 2 || pieces[0] == "" || pieces[1] == "" {
			continue
		}
		chain := strings.ToLower(pieces[0])
		symbol := strings.ToUpper(pieces[1])
		if c.Tokens[chain] == nil {
			if c.Tokens == nil {
				c.Tokens = map[string]map[string]TokenConfig{}
			}
			c.Tokens[chain] = map[string]TokenConfig{}
		}
		tok := c.Tokens[chain][symbol]
		tok.Address = parts[1]
		c.Tokens[chain][symbol] = tok
	}

	// Bridge config
	loadChainKeyedMap(c.Bridge.SpokePools, "RAILCLAW_BRIDGE_SPOKEPOOL_")
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "RAILCLAW_BRIDGE_CHAIN_ID_") {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		chain := strings.ToLower(strings.TrimPrefix(parts[0], "RAILCLAW_BRIDGE_CHAIN_ID_"))
		if chain == "" {
			continue
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		if c.Bridge.AcrossChainIDs == nil {
			c.Bridge.AcrossChainIDs = map[string]int64{}
		}
		c.Bridge.AcrossChainIDs[chain] = id
	}
	setFloatIfEnv(&c.Bridge.EstimatedRelayFeePct, "RAILCLAW_BRIDGE_RELAY_FEE_PCT")
	setFloatIfEnv(&c.Bridge.MinRelayFeeBuffer, "RAILCLAW_BRIDGE_MIN_RELAY_FEE_BUFFER")
	setInt64IfEnv(&c.Bridge.FillDeadlineOffsetSec, "RAILCLAW_BRIDGE_FILL_DEADLINE_OFFSET_SEC")
	setInt64IfEnv(&c.Bridge.HistoricalLookbackBlocks, "RAILCLAW_BRIDGE_HISTORICAL_LOOKBACK_BLOCKS")
	setInt64IfEnv(&c.Bridge.ResumeLookbackBlocks, "RAILCLAW_BRIDGE_RESUME_LOOKBACK_BLOCKS")

	// Monitoring config
	setInt64IfEnv(&c.Monitoring.PollIntervalMs, "RAILCLAW_MONITORING_POLL_INTERVAL_MS")
	if v := os.Getenv("RAILCLAW_MONITORING_REQUIRED_CONFIRMATIONS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Monitoring.RequiredConfirmations = n
		}
	}
	setInt64IfEnv(&c.Monitoring.DirectTimeoutMs, "RAILCLAW_MONITORING_DIRECT_TIMEOUT_MS")
	setInt64IfEnv(&c.Monitoring.BridgeTimeoutMs, "RAILCLAW_MONITORING_BRIDGE_TIMEOUT_MS")

	// Encryption / payment / Solana dispenser config
	setIfEnv(&c.Encryption.WalletKey, "RAILCLAW_WALLET_ENCRYPTION_KEY")
	setIfEnv(&c.Payment.BaseURL, "RAILCLAW_PAYMENT_BASE_URL")
	if v := os.Getenv("RAILCLAW_PAYMENT_DEFAULT_EXPIRY_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Payment.DefaultExpiryHours = n
		}
	}
	setIfEnv(&c.Sol.DispenserKey, "RAILCLAW_SOL_DISPENSER_KEY")
	if v := os.Getenv("RAILCLAW_SOL_FUND_AMOUNT_LAMPORTS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Sol.FundAmountLamports = n
		}
	}

	setIfEnv(&c.DataDir, "RAILCLAW_DATA_DIR")
	setIfEnv(&c.PolicyPath, "RAILCLAW_POLICY_PATH")

	// Circuit breaker config
	setBoolIfEnv(&c.CircuitBreaker.Enabled, "RAILCLAW_CIRCUIT_BREAKER_ENABLED")
}

// loadChainKeyedMap fills dst[chain] = value from every env var with the
// given prefix, lower-casing the chain tag (e.g. RAILCLAW_RPC_POLYGON -> "polygon").
func loadChainKeyedMap(dst map[string]string, prefix string) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		chain := strings.ToLower(strings.TrimPrefix(parts[0], prefix))
		if chain == "" {
			continue
		}
		dst[chain] = parts[1]
	}
}

// setIfEnv sets a string pointer to the environment variable value if it exists.
func setIfEnv(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

// setBoolIfEnv sets a boolean pointer from an environment variable.
// Accepts "1", "true", "TRUE", "True" as true values.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setDurationIfEnv sets a Duration pointer from an environment variable.
// Uses time.ParseDuration to parse values like "5m", "120s", "1h30m".
func setDurationIfEnv(target *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			*target = Duration{Duration: dur}
		}
	}
}

// setFloatIfEnv sets a float64 pointer from an environment variable.
func setFloatIfEnv(target *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

// setInt64IfEnv sets an int64 pointer from an environment variable.
func setInt64IfEnv(target *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*target = n
		}
	}
}

// normalizeRoutePrefix ensures the prefix starts with / and doesn't end with /.
// Examples: "api" -> "/api", "/api/" -> "/api", "railclaw" -> "/railclaw"
func normalizeRoutePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	prefix = strings.TrimSuffix(prefix, "/")
	return prefix
}
