package config

import (
	"os"
	"testing"
)

func TestEnvOverrides_ServerAndChains(t *testing.T) {
	defer os.Clearenv()

	tests := []struct {
		name      string
		envVars   map[string]string
		checkFunc func(*testing.T, *Config)
	}{
		{
			name: "RAILCLAW_SERVER_ADDRESS overrides default",
			envVars: map[string]string{
				"RAILCLAW_SERVER_ADDRESS": ":3000",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Server.Address != ":3000" {
					t.Errorf("expected :3000, got %s", cfg.Server.Address)
				}
			},
		},
		{
			name: "RAILCLAW_ROUTE_PREFIX is normalized",
			envVars: map[string]string{
				"RAILCLAW_ROUTE_PREFIX": "api/",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Server.RoutePrefix != "/api" {
					t.Errorf("expected /api, got %s", cfg.Server.RoutePrefix)
				}
			},
		},
		{
			name: "RAILCLAW_RPC_<CHAIN> populates the rpc map",
			envVars: map[string]string{
				"RAILCLAW_RPC_POLYGON":  "https://polygon-rpc.example.com",
				"RAILCLAW_RPC_ARBITRUM": "https://arbitrum-rpc.example.com",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.RPC["polygon"] != "https://polygon-rpc.example.com" {
					t.Errorf("expected polygon rpc set, got %v", cfg.RPC)
				}
				if cfg.RPC["arbitrum"] != "https://arbitrum-rpc.example.com" {
					t.Errorf("expected arbitrum rpc set, got %v", cfg.RPC)
				}
			},
		},
		{
			name: "RAILCLAW_TOKEN_<CHAIN>_<SYMBOL> populates the token map",
			envVars: map[string]string{
				"RAILCLAW_TOKEN_POLYGON_USDC": "0xTokenAddress",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				tok, ok := cfg.Tokens["polygon"]["USDC"]
				if !ok {
					t.Fatalf("expected polygon/USDC token set, got %v", cfg.Tokens)
				}
				if tok.Address != "0xTokenAddress" {
					t.Errorf("expected token address set, got %q", tok.Address)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			cfg := defaultConfig()
			cfg.applyEnvOverrides()
			tt.checkFunc(t, cfg)
		})
	}
}

func TestNormalizeRoutePrefix(t *testing.T) {
	cases := map[string]string{
		"api":      "/api",
		"/api/":    "/api",
		"railclaw": "/railclaw",
		"":         "",
	}
	for in, want := range cases {
		if got := normalizeRoutePrefix(in); got != want {
			t.Errorf("normalizeRoutePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
