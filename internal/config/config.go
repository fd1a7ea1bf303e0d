// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/viper"

	"github.com/fd1az/v2-router/internal/asset"
	"github.com/fd1az/v2-router/internal/fraction"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Uniswap   UniswapConfig   `mapstructure:"uniswap"`
	Search    SearchConfig    `mapstructure:"search"`
	Swap      SwapConfig      `mapstructure:"swap"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Tokens    TokensConfig    `mapstructure:"tokens"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds Ethereum node configuration.
// An empty HTTPURL means reserves come from the snapshot file only.
type EthereumConfig struct {
	HTTPURL           string        `mapstructure:"http_url"`
	ChainID           uint64        `mapstructure:"chain_id"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	CallTimeout       time.Duration `mapstructure:"call_timeout"`
	TokenCacheTTL     time.Duration `mapstructure:"token_cache_ttl"`
}

// UniswapConfig holds the V2 deployment the engine prices against.
type UniswapConfig struct {
	FactoryAddress string `mapstructure:"factory_address"`
	InitCodeHash   string `mapstructure:"init_code_hash"`
	RouterAddress  string `mapstructure:"router_address"`
}

// FactoryAddressHex returns the factory address as common.Address.
func (c *UniswapConfig) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// InitCodeHashHex returns the pair init code hash.
func (c *UniswapConfig) InitCodeHashHex() common.Hash {
	return common.HexToHash(c.InitCodeHash)
}

// RouterAddressHex returns the router address as common.Address.
func (c *UniswapConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// SearchConfig bounds the best-trade search.
type SearchConfig struct {
	MaxHops    int      `mapstructure:"max_hops"`
	MaxResults int      `mapstructure:"max_results"`
	BaseTokens []string `mapstructure:"base_tokens"` // symbols or addresses used as intermediate hops
}

// SwapConfig holds the defaults for swap call parameters.
type SwapConfig struct {
	SlippageBps int64 `mapstructure:"slippage_bps"`
	TTLSeconds  int64 `mapstructure:"ttl_seconds"`
}

// SlippagePercent returns the slippage tolerance as a percent.
func (c *SwapConfig) SlippagePercent() fraction.Percent {
	return fraction.NewPercent(c.SlippageBps, 10_000)
}

// TTL returns the deadline offset.
func (c *SwapConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// SnapshotConfig points at a file of tokens and pair reserves.
type SnapshotConfig struct {
	Path string `mapstructure:"path"`
}

// TokensConfig lists token-list documents loaded into the registry at
// startup. Entries on other chains are ignored.
type TokensConfig struct {
	ListURLs     []string      `mapstructure:"list_urls"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Port              int `mapstructure:"port"`
	HealthPort        int `mapstructure:"health_port"`
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Provider       string `mapstructure:"provider"` // console, zipkin, otlp-grpc, otlp-http
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ROUTER")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	_ = v.BindEnv("app.name", "ROUTER_APP_NAME", "SERVICE_NAME")
	_ = v.BindEnv("app.environment", "ROUTER_ENVIRONMENT", "ENVIRONMENT")
	_ = v.BindEnv("app.log_level", "ROUTER_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	_ = v.BindEnv("ethereum.http_url", "ROUTER_ETH_HTTP_URL", "ETH_HTTP_URL")
	_ = v.BindEnv("ethereum.chain_id", "ROUTER_ETH_CHAIN_ID", "ETH_CHAIN_ID")
	_ = v.BindEnv("ethereum.requests_per_minute", "ROUTER_ETH_RPM")

	// Uniswap
	_ = v.BindEnv("uniswap.factory_address", "ROUTER_UNISWAP_FACTORY")
	_ = v.BindEnv("uniswap.init_code_hash", "ROUTER_UNISWAP_INIT_CODE_HASH")
	_ = v.BindEnv("uniswap.router_address", "ROUTER_UNISWAP_ROUTER")

	// Search and swap
	_ = v.BindEnv("search.max_hops", "ROUTER_MAX_HOPS")
	_ = v.BindEnv("search.max_results", "ROUTER_MAX_RESULTS")
	_ = v.BindEnv("search.base_tokens", "ROUTER_BASE_TOKENS")
	_ = v.BindEnv("swap.slippage_bps", "ROUTER_SLIPPAGE_BPS")
	_ = v.BindEnv("swap.ttl_seconds", "ROUTER_TTL_SECONDS")

	// Snapshot and HTTP
	_ = v.BindEnv("snapshot.path", "ROUTER_SNAPSHOT_PATH")
	_ = v.BindEnv("tokens.list_urls", "ROUTER_TOKEN_LISTS")
	_ = v.BindEnv("http.port", "ROUTER_HTTP_PORT", "PORT")

	// Telemetry
	_ = v.BindEnv("telemetry.enabled", "ROUTER_OTEL_ENABLED", "OTEL_ENABLED")
	_ = v.BindEnv("telemetry.service_name", "ROUTER_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	_ = v.BindEnv("telemetry.otlp_endpoint", "ROUTER_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("telemetry.provider", "ROUTER_OTEL_PROVIDER")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "v2-router")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", asset.ChainIDMainnet)
	v.SetDefault("ethereum.requests_per_minute", 600)
	v.SetDefault("ethereum.call_timeout", "5s")
	v.SetDefault("ethereum.token_cache_ttl", "1h")

	// Uniswap V2 defaults
	v.SetDefault("uniswap.factory_address", "0x78ebE685961Fcbe72671c819c0F011d5B60B782a")
	v.SetDefault("uniswap.init_code_hash", "0x467d41f67eee0008df1487cb8493d243faa23e4abe5d6149a41c7ad048d43249")
	v.SetDefault("uniswap.router_address", "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")

	// Search defaults
	v.SetDefault("search.max_hops", 3)
	v.SetDefault("search.max_results", 3)
	v.SetDefault("search.base_tokens", []string{"WETH"})

	// Swap defaults
	v.SetDefault("swap.slippage_bps", 50) // 0.5%
	v.SetDefault("swap.ttl_seconds", 1200)

	v.SetDefault("tokens.fetch_timeout", "10s")

	// HTTP defaults
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.health_port", 8081)
	v.SetDefault("http.requests_per_minute", 1200)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "v2-router")
	v.SetDefault("telemetry.provider", "console")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" && c.Snapshot.Path == "" {
		return fmt.Errorf("one of ethereum.http_url or snapshot.path is required")
	}
	if _, err := asset.WrappedNative(c.Ethereum.ChainID); err != nil {
		return fmt.Errorf("unsupported ethereum.chain_id %d", c.Ethereum.ChainID)
	}
	if !common.IsHexAddress(c.Uniswap.FactoryAddress) {
		return fmt.Errorf("invalid uniswap.factory_address: %s", c.Uniswap.FactoryAddress)
	}
	if !common.IsHexAddress(c.Uniswap.RouterAddress) {
		return fmt.Errorf("invalid uniswap.router_address: %s", c.Uniswap.RouterAddress)
	}
	if !isHash(c.Uniswap.InitCodeHash) {
		return fmt.Errorf("invalid uniswap.init_code_hash: %s", c.Uniswap.InitCodeHash)
	}
	if c.Search.MaxHops < 1 {
		return fmt.Errorf("search.max_hops must be at least 1, got %d", c.Search.MaxHops)
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be at least 1, got %d", c.Search.MaxResults)
	}
	if c.Swap.SlippageBps < 0 || c.Swap.SlippageBps > 10_000 {
		return fmt.Errorf("swap.slippage_bps must be within [0, 10000], got %d", c.Swap.SlippageBps)
	}
	if c.Swap.TTLSeconds < 1 {
		return fmt.Errorf("swap.ttl_seconds must be positive, got %d", c.Swap.TTLSeconds)
	}
	for _, u := range c.Tokens.ListURLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("tokens.list_urls: %q is not an http(s) URL", u)
		}
	}
	if c.Ethereum.RequestsPerMinute < 1 {
		return fmt.Errorf("ethereum.requests_per_minute must be positive")
	}
	return nil
}

func isHash(s string) bool {
	b, err := hexutil.Decode(s)
	return err == nil && len(b) == common.HashLength
}
