package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_DefaultsWithSnapshot(t *testing.T) {
	path := writeConfig(t, "snapshot:\n  path: ./pairs.yaml\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "v2-router" {
		t.Errorf("App.Name = %q", cfg.App.Name)
	}
	if cfg.Ethereum.ChainID != 56709 {
		t.Errorf("ChainID = %d", cfg.Ethereum.ChainID)
	}
	if cfg.Ethereum.CallTimeout != 5*time.Second {
		t.Errorf("CallTimeout = %s", cfg.Ethereum.CallTimeout)
	}
	if cfg.Search.MaxHops != 3 || cfg.Search.MaxResults != 3 {
		t.Errorf("Search = %+v", cfg.Search)
	}
	if got := cfg.Uniswap.FactoryAddressHex().Hex(); got != "0x78ebE685961Fcbe72671c819c0F011d5B60B782a" {
		t.Errorf("factory = %s", got)
	}
	if got := cfg.Swap.TTL(); got != 20*time.Minute {
		t.Errorf("TTL = %s", got)
	}
	if got := cfg.Swap.SlippagePercent().String(); got != "0.50%" {
		t.Errorf("slippage = %s", got)
	}
	if cfg.Tokens.FetchTimeout != 10*time.Second || len(cfg.Tokens.ListURLs) != 0 {
		t.Errorf("Tokens = %+v", cfg.Tokens)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "snapshot:\n  path: ./pairs.yaml\nsearch:\n  max_hops: 2\n")
	t.Setenv("ROUTER_MAX_RESULTS", "5")
	t.Setenv("ROUTER_ETH_CHAIN_ID", "1")
	t.Setenv("ROUTER_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.MaxHops != 2 {
		t.Errorf("MaxHops = %d, want value from file", cfg.Search.MaxHops)
	}
	if cfg.Search.MaxResults != 5 {
		t.Errorf("MaxResults = %d, want value from env", cfg.Search.MaxResults)
	}
	if cfg.Ethereum.ChainID != 1 {
		t.Errorf("ChainID = %d", cfg.Ethereum.ChainID)
	}
	if cfg.App.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.App.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Ethereum: EthereumConfig{HTTPURL: "http://localhost:8545", ChainID: 1, RequestsPerMinute: 60},
			Uniswap: UniswapConfig{
				FactoryAddress: "0x78ebE685961Fcbe72671c819c0F011d5B60B782a",
				InitCodeHash:   "0x467d41f67eee0008df1487cb8493d243faa23e4abe5d6149a41c7ad048d43249",
				RouterAddress:  "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
			},
			Search: SearchConfig{MaxHops: 3, MaxResults: 3},
			Swap:   SwapConfig{SlippageBps: 50, TTLSeconds: 60},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no source", func(c *Config) { c.Ethereum.HTTPURL = "" }, "snapshot.path"},
		{"unknown chain", func(c *Config) { c.Ethereum.ChainID = 999 }, "chain_id"},
		{"bad factory", func(c *Config) { c.Uniswap.FactoryAddress = "0x123" }, "factory_address"},
		{"bad router", func(c *Config) { c.Uniswap.RouterAddress = "nope" }, "router_address"},
		{"short hash", func(c *Config) { c.Uniswap.InitCodeHash = "0x467d" }, "init_code_hash"},
		{"hash without prefix", func(c *Config) {
			c.Uniswap.InitCodeHash = "467d41f67eee0008df1487cb8493d243faa23e4abe5d6149a41c7ad048d43249"
		}, "init_code_hash"},
		{"zero hops", func(c *Config) { c.Search.MaxHops = 0 }, "max_hops"},
		{"zero results", func(c *Config) { c.Search.MaxResults = 0 }, "max_results"},
		{"negative slippage", func(c *Config) { c.Swap.SlippageBps = -1 }, "slippage_bps"},
		{"slippage above 100%", func(c *Config) { c.Swap.SlippageBps = 10_001 }, "slippage_bps"},
		{"zero ttl", func(c *Config) { c.Swap.TTLSeconds = 0 }, "ttl_seconds"},
		{"zero rpm", func(c *Config) { c.Ethereum.RequestsPerMinute = 0 }, "requests_per_minute"},
		{"token list path", func(c *Config) { c.Tokens.ListURLs = []string{"./tokens.json"} }, "list_urls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
