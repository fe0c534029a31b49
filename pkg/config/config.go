package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the relayer configuration
type Config struct {
	Server         ServerConfig      `yaml:"server"`
	Database       DatabaseConfig    `yaml:"database"`
	HomeChain      ChainConfig       `yaml:"home_chain"`
	ExecutionChain ChainConfig       `yaml:"execution_chain"`
	Venue          VenueConfig       `yaml:"venue"`
	Attestation    AttestationConfig `yaml:"attestation"`
	Agent          AgentConfig       `yaml:"agent"`
	Oracle         OracleConfig      `yaml:"oracle"`
	Backend        BackendConfig     `yaml:"backend"`
	Monitoring     MonitoringConfig  `yaml:"monitoring"`
	Logging        LoggingConfig     `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"gte=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
	RateLimit       int           `yaml:"rate_limit" default:"120"`
	// AuthSecret protects /api/v1 with HS256 bearer tokens when set
	AuthSecret string `yaml:"auth_secret"`
}

// DatabaseConfig contains database connection settings.
// When Enabled is false the relayer keeps its processed sets in memory.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"5432"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"copytrade_relayer"`
	SSLMode  string `yaml:"ssl_mode" default:"disable"`
}

// ChainConfig describes one EVM chain the relayer signs on
type ChainConfig struct {
	Name               string        `yaml:"name" validate:"required"`
	ChainID            int64         `yaml:"chain_id" validate:"gt=0"`
	RPCURL             string        `yaml:"rpc_url" validate:"required,url"`
	Domain             uint32        `yaml:"domain"`
	USDC               string        `yaml:"usdc" validate:"required,eth_addr"`
	TokenMessenger     string        `yaml:"token_messenger" validate:"required,eth_addr"`
	MessageTransmitter string        `yaml:"message_transmitter" validate:"required,eth_addr"`
	GasLimit           uint64        `yaml:"gas_limit" default:"500000"`
	MaxGasPrice        string        `yaml:"max_gas_price"`
	ReceiptPoll        time.Duration `yaml:"receipt_poll_interval" default:"1s"`
	ReceiptTimeout     time.Duration `yaml:"receipt_timeout" default:"3m"`
}

// VenueConfig describes the swap venue on the execution chain
type VenueConfig struct {
	PoolSwapTest       string `yaml:"pool_swap_test" validate:"required,eth_addr"`
	PoolManager        string `yaml:"pool_manager" validate:"omitempty,eth_addr"`
	Hook               string `yaml:"hook" validate:"omitempty,eth_addr"`
	DefaultFee         uint32 `yaml:"default_fee" default:"3000"`
	DefaultTickSpacing int32  `yaml:"default_tick_spacing" default:"60"`
}

// AttestationConfig contains attestation service polling settings
type AttestationConfig struct {
	BaseURL           string        `yaml:"base_url" default:"https://iris-api-sandbox.circle.com" validate:"required,url"`
	MaxAttempts       int           `yaml:"max_attempts" default:"120" validate:"gt=0"`
	Interval          time.Duration `yaml:"interval" default:"5s"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown" default:"60s"`
	RequestTimeout    time.Duration `yaml:"request_timeout" default:"15s"`
}

// AgentConfig contains the automated agent's settings
type AgentConfig struct {
	PrivateKey      string        `yaml:"private_key"`
	PollInterval    time.Duration `yaml:"poll_interval" default:"12s"`
	IdeaEveryNTicks int           `yaml:"idea_every_n_ticks" default:"5" validate:"gt=0"`
	CatchUpBlocks   uint64        `yaml:"catch_up_blocks" default:"100"`
	// MaxBlockRange caps the block span of a single log query
	MaxBlockRange uint64 `yaml:"max_block_range" default:"2000" validate:"gt=0"`
	USDCDecimals  int32  `yaml:"usdc_decimals" default:"6"`
}

// OracleConfig contains decision oracle settings
type OracleConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url" default:"https://api.anthropic.com" validate:"required,url"`
	Model     string        `yaml:"model" default:"claude-sonnet-4-20250514"`
	MaxTokens int           `yaml:"max_tokens" default:"256"`
	Timeout   time.Duration `yaml:"timeout" default:"30s"`
}

// BackendConfig contains backend service settings
type BackendConfig struct {
	URL         string        `yaml:"url" default:"http://localhost:3001" validate:"required,url"`
	AgentSecret string        `yaml:"agent_secret"`
	Timeout     time.Duration `yaml:"timeout" default:"10s"`
	TokenTTL    time.Duration `yaml:"token_ttl" default:"5m"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" default:"stdout"`
}

// DefaultHomeChain returns the Arc testnet settings
func DefaultHomeChain() ChainConfig {
	return ChainConfig{
		Name:               "arc-testnet",
		ChainID:            5042002,
		RPCURL:             "https://rpc.testnet.arc.network",
		Domain:             26,
		USDC:               "0x3600000000000000000000000000000000000000",
		TokenMessenger:     "0x8FE6B999Dc680CcFDD5Bf7EB0974218be2542DAA",
		MessageTransmitter: "0xE737e5cEBEEBa77EFE34D4aa090756590b1CE275",
	}
}

// DefaultExecutionChain returns the Base Sepolia settings
func DefaultExecutionChain() ChainConfig {
	return ChainConfig{
		Name:               "base-sepolia",
		ChainID:            84532,
		RPCURL:             "https://sepolia.base.org",
		Domain:             6,
		USDC:               "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		TokenMessenger:     "0x8FE6B999Dc680CcFDD5Bf7EB0974218be2542DAA",
		MessageTransmitter: "0xE737e5cEBEEBa77EFE34D4aa090756590b1CE275",
	}
}

// DefaultVenue returns the Uniswap v4 test router deployment on Base Sepolia
func DefaultVenue() VenueConfig {
	return VenueConfig{
		PoolSwapTest: "0x8b5bcc363dde2614281ad875bad385e0a785d3b9",
		PoolManager:  "0x05E73354cFDd6745C338b50BcFDfA3Aa6fA03408",
	}
}

// Default returns a configuration with every default applied
func Default() (*Config, error) {
	cfg := &Config{
		HomeChain:      DefaultHomeChain(),
		ExecutionChain: DefaultExecutionChain(),
		Venue:          DefaultVenue(),
	}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// Load loads configuration from a YAML file. ${VAR} references are expanded
// from the environment before parsing.
func Load(configPath string) (*Config, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes configuration from YAML bytes
func Parse(raw []byte) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if cfg.HomeChain.ChainID == cfg.ExecutionChain.ChainID {
		return errors.New("home_chain and execution_chain must be different chains")
	}
	if cfg.HomeChain.Domain == cfg.ExecutionChain.Domain {
		return errors.New("home_chain and execution_chain must use different bridge domains")
	}
	if cfg.Database.Enabled && cfg.Database.User == "" {
		return errors.New("database.user is required when database is enabled")
	}
	if cfg.Agent.PrivateKey != "" && len(strings.TrimPrefix(cfg.Agent.PrivateKey, "0x")) != 64 {
		return errors.New("agent.private_key must be a 32-byte hex key")
	}
	return nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// HasSigner reports whether a signing key is configured
func (c *AgentConfig) HasSigner() bool {
	return c.PrivateKey != ""
}
