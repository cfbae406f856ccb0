// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/fd1az/token-deployer/internal/asset"
)

// DefaultRPCURLs are public Somnia testnet endpoints used when RPC_URL is unset.
var DefaultRPCURLs = []string{
	"https://dream-rpc.somnia.network",
	"https://rpc.ankr.com/somnia_testnet",
}

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Network   NetworkConfig   `mapstructure:"network"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Tx        TxConfig        `mapstructure:"tx"`
	Token     TokenConfig     `mapstructure:"token"`
	Compiler  CompilerConfig  `mapstructure:"compiler"`
	Verifier  VerifierConfig  `mapstructure:"verifier"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	EnvFile     string `mapstructure:"env_file"`
	TUIMode     bool   `mapstructure:"-"` // set at runtime
}

// NetworkConfig holds RPC endpoint and selection settings.
type NetworkConfig struct {
	RPCURL       string        `mapstructure:"rpc_url"` // comma separated
	ChainID      uint64        `mapstructure:"chain_id"`
	ExplorerURL  string        `mapstructure:"explorer_url"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	MaxBlockAge  time.Duration `mapstructure:"max_block_age"`
	SelectionTTL time.Duration `mapstructure:"selection_ttl"`
}

// Endpoints splits RPCURL into trimmed, non-empty endpoint URLs.
func (c *NetworkConfig) Endpoints() []string {
	parts := strings.Split(c.RPCURL, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WalletConfig holds the signing key and readiness thresholds.
type WalletConfig struct {
	PrivateKey   string        `mapstructure:"private_key"`
	MinBalance   string        `mapstructure:"min_balance"` // native units, decimal
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"` // 0 = wait forever
}

// MinBalanceDecimal returns the readiness balance threshold.
func (c *WalletConfig) MinBalanceDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.MinBalance)
	if err != nil {
		return decimal.RequireFromString("0.01")
	}
	return d
}

// TxConfig holds transaction submission settings.
type TxConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	ReceiptTimeout time.Duration `mapstructure:"receipt_timeout"`
	ReceiptPoll    time.Duration `mapstructure:"receipt_poll"`
	NonceWait      time.Duration `mapstructure:"nonce_wait"`
	TransportWait  time.Duration `mapstructure:"transport_wait"`
	FeeBumpPercent int64         `mapstructure:"fee_bump_percent"`
}

// TokenConfig holds the deployed token and deploy defaults.
type TokenConfig struct {
	ContractAddress string `mapstructure:"contract_address"`
	Name            string `mapstructure:"name"`
	Symbol          string `mapstructure:"symbol"`
	Supply          string `mapstructure:"supply"` // whole tokens
	Decimals        uint8  `mapstructure:"decimals"`
}

// ContractAddressHex returns the configured token address.
func (c *TokenConfig) ContractAddressHex() (common.Address, bool) {
	if !common.IsHexAddress(c.ContractAddress) {
		return common.Address{}, false
	}
	return common.HexToAddress(c.ContractAddress), true
}

// CompilerConfig holds solc settings.
type CompilerConfig struct {
	SolcPath       string `mapstructure:"solc_path"`
	ContractSource string `mapstructure:"contract_source"`
	ContractName   string `mapstructure:"contract_name"`
	Optimize       bool   `mapstructure:"optimize"`
	OptimizeRuns   int    `mapstructure:"optimize_runs"`
}

// VerifierConfig holds block explorer verification settings.
type VerifierConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	APIURL          string        `mapstructure:"api_url"`
	APIKey          string        `mapstructure:"api_key"`
	CompilerVersion string        `mapstructure:"compiler_version"` // e.g. v0.8.24+commit.e11b9ed9
	Attempts        int           `mapstructure:"attempts"`
	Delay           time.Duration `mapstructure:"delay"`
	RequestsPerSec  float64       `mapstructure:"requests_per_sec"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Exporter       string `mapstructure:"exporter"` // zipkin, otlp-grpc, otlp-http, console
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
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

	v.SetEnvPrefix("DEPLOYER")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
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
	v.BindEnv("app.name", "DEPLOYER_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "DEPLOYER_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "DEPLOYER_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.env_file", "DEPLOYER_ENV_FILE", "ENV_FILE")

	// Network
	v.BindEnv("network.rpc_url", "DEPLOYER_RPC_URL", "RPC_URL")
	v.BindEnv("network.chain_id", "DEPLOYER_CHAIN_ID", "CHAIN_ID")
	v.BindEnv("network.explorer_url", "DEPLOYER_EXPLORER_URL", "EXPLORER_URL")

	// Wallet
	v.BindEnv("wallet.private_key", "DEPLOYER_PRIVATE_KEY", "MAIN_PRIVATE_KEY")
	v.BindEnv("wallet.max_wait", "DEPLOYER_READINESS_MAX_WAIT", "READINESS_MAX_WAIT")

	// Token
	v.BindEnv("token.contract_address", "DEPLOYER_CONTRACT_ADDRESS", "CONTRACT_ADDRESS")
	v.BindEnv("token.name", "DEPLOYER_TOKEN_NAME", "TOKEN_NAME")
	v.BindEnv("token.symbol", "DEPLOYER_TOKEN_SYMBOL", "TOKEN_SYMBOL")
	v.BindEnv("token.supply", "DEPLOYER_TOKEN_SUPPLY", "TOKEN_SUPPLY")

	// Compiler
	v.BindEnv("compiler.solc_path", "DEPLOYER_SOLC_PATH", "SOLC_PATH")
	v.BindEnv("compiler.contract_source", "DEPLOYER_CONTRACT_SOURCE", "CONTRACT_SOURCE")
	v.BindEnv("compiler.contract_name", "DEPLOYER_CONTRACT_NAME", "CONTRACT_NAME")

	// Verifier
	v.BindEnv("verifier.enabled", "DEPLOYER_VERIFY_ENABLED", "VERIFY_ENABLED")
	v.BindEnv("verifier.api_url", "DEPLOYER_VERIFIER_API_URL", "VERIFIER_API_URL")
	v.BindEnv("verifier.api_key", "DEPLOYER_VERIFIER_API_KEY", "VERIFIER_API_KEY", "ETHERSCAN_API_KEY")
	v.BindEnv("verifier.request_timeout", "DEPLOYER_VERIFIER_TIMEOUT", "VERIFIER_TIMEOUT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "DEPLOYER_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "DEPLOYER_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.exporter", "DEPLOYER_OTEL_EXPORTER", "OTEL_EXPORTER")
	v.BindEnv("telemetry.otlp_endpoint", "DEPLOYER_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "DEPLOYER_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
	v.BindEnv("telemetry.prometheus_port", "DEPLOYER_PROMETHEUS_PORT", "PROMETHEUS_PORT")

	// Health
	v.BindEnv("health.enabled", "DEPLOYER_HEALTH_ENABLED", "HEALTH_ENABLED")
	v.BindEnv("health.port", "DEPLOYER_HEALTH_PORT", "HEALTH_PORT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "token-deployer")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.env_file", ".env")

	// Somnia Shannon testnet
	v.SetDefault("network.rpc_url", strings.Join(DefaultRPCURLs, ","))
	v.SetDefault("network.chain_id", 50312)
	v.SetDefault("network.explorer_url", "https://shannon-explorer.somnia.network")
	v.SetDefault("network.probe_timeout", "5s")
	v.SetDefault("network.max_block_age", "30s")
	v.SetDefault("network.selection_ttl", "60s")

	// Wallet defaults
	v.SetDefault("wallet.min_balance", "0.01")
	v.SetDefault("wallet.poll_interval", "10s")
	v.SetDefault("wallet.max_wait", "0s")

	// Transaction defaults
	v.SetDefault("tx.max_retries", 3)
	v.SetDefault("tx.receipt_timeout", "3m")
	v.SetDefault("tx.receipt_poll", "2s")
	v.SetDefault("tx.nonce_wait", "5s")
	v.SetDefault("tx.transport_wait", "10s")
	v.SetDefault("tx.fee_bump_percent", 20)

	// Token defaults
	v.SetDefault("token.name", "Test Token")
	v.SetDefault("token.symbol", "TEST")
	v.SetDefault("token.supply", "1000000")
	v.SetDefault("token.decimals", 18)

	// Compiler defaults
	v.SetDefault("compiler.solc_path", "solc")
	v.SetDefault("compiler.contract_source", "contracts/Token.sol")
	v.SetDefault("compiler.contract_name", "Token")
	v.SetDefault("compiler.optimize", true)
	v.SetDefault("compiler.optimize_runs", 200)

	// Verifier defaults
	v.SetDefault("verifier.enabled", true)
	v.SetDefault("verifier.api_url", "https://shannon-explorer.somnia.network/api")
	v.SetDefault("verifier.compiler_version", "") // empty uses the version solc reports
	v.SetDefault("verifier.attempts", 3)
	v.SetDefault("verifier.delay", "10s")
	v.SetDefault("verifier.requests_per_sec", 2)
	v.SetDefault("verifier.request_timeout", "30s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "token-deployer")
	v.SetDefault("telemetry.exporter", "zipkin")
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:9411/api/v2/spans")
	v.SetDefault("telemetry.prometheus_port", 9090)

	// Health defaults
	v.SetDefault("health.enabled", false)
	v.SetDefault("health.port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Wallet.PrivateKey == "" {
		return fmt.Errorf("wallet.private_key is required (MAIN_PRIVATE_KEY)")
	}
	if len(c.Network.Endpoints()) == 0 {
		return fmt.Errorf("network.rpc_url must list at least one endpoint")
	}
	if c.Token.ContractAddress != "" && !common.IsHexAddress(c.Token.ContractAddress) {
		return fmt.Errorf("invalid token.contract_address: %s", c.Token.ContractAddress)
	}
	if c.Tx.MaxRetries < 1 {
		return fmt.Errorf("tx.max_retries must be at least 1")
	}
	if c.Token.Decimals > asset.MaxDecimals {
		return fmt.Errorf("token.decimals must be at most %d", asset.MaxDecimals)
	}
	if _, err := decimal.NewFromString(c.Token.Supply); err != nil {
		return fmt.Errorf("invalid token.supply: %s", c.Token.Supply)
	}
	if _, err := decimal.NewFromString(c.Wallet.MinBalance); err != nil {
		return fmt.Errorf("invalid wallet.min_balance: %s", c.Wallet.MinBalance)
	}
	return nil
}
