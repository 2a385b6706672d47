package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ChainConfig describes the network the gallery mints against.
type ChainConfig struct {
	NetworkID       int64  `toml:"network_id" json:"network_id"`
	NetworkName     string `toml:"network_name" json:"network_name"`
	RPCURL          string `toml:"rpc_url" json:"rpc_url"`
	ContractAddress string `toml:"contract_address" json:"contract_address"`
	ExplorerTxURL   string `toml:"explorer_tx_url" json:"explorer_tx_url"`
	MintPriceETH    string `toml:"mint_price_eth" json:"mint_price_eth"`
}

// Config holds runtime configuration values for the API service.
type Config struct {
	Port        string `toml:"port"`
	Environment string `toml:"environment"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`

	DatabaseDriver string `toml:"database_driver"`
	DatabaseDSN    string `toml:"database_dsn"`

	JWTSecret      string        `toml:"jwt_secret"`
	JWTIssuer      string        `toml:"jwt_issuer"`
	AccessTokenTTL time.Duration `toml:"access_token_ttl"`
	AdminWallets   string        `toml:"admin_wallets"`

	CORSAllowOrigins string `toml:"cors_allow_origins"`
	RateLimitRPS     int    `toml:"rate_limit_rps"`
	RateLimitBurst   int    `toml:"rate_limit_burst"`
	RedisAddr        string `toml:"redis_addr"`

	IPFSGateway          string        `toml:"ipfs_gateway"`
	IPFSGatewayToken     string        `toml:"ipfs_gateway_token"`
	TrustedFetchDomains  string        `toml:"trusted_fetch_domains"`
	MetadataFetchTimeout time.Duration `toml:"metadata_fetch_timeout"`

	Chain ChainConfig `toml:"chain"`
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func defaults() Config {
	return Config{
		Port:                 "8080",
		Environment:          "development",
		LogLevel:             "info",
		LogFormat:            "text",
		DatabaseDriver:       DriverMemory,
		JWTSecret:            "dev-only-secret-change-me",
		JWTIssuer:            "marfa-gallery-api",
		AccessTokenTTL:       12 * time.Hour,
		CORSAllowOrigins:     "http://localhost:3000",
		RateLimitRPS:         20,
		RateLimitBurst:       40,
		IPFSGateway:          "https://ipfs.io/ipfs/",
		TrustedFetchDomains:  "ipfs.io,gateway.pinata.cloud,api.create.xyz",
		MetadataFetchTimeout: 10 * time.Second,
		Chain: ChainConfig{
			NetworkID:       360,
			NetworkName:     "Shape Network",
			RPCURL:          "https://mainnet.shape.network",
			ContractAddress: "0x1A822EF7e9Cb1D7867CB4C52ef174ACEb053E8ce",
			ExplorerTxURL:   "https://shapescan.xyz/tx/",
			MintPriceETH:    "0.01",
		},
	}
}

func getenvOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

// Load reads config from an optional .env file, an optional TOML file named
// by GALLERY_CONFIG and finally env vars, with safe defaults for local
// development.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("GALLERY_CONFIG")); path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("decoding config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getenvOrDefault("API_PORT", cfg.Port)
	cfg.Environment = getenvOrDefault("API_ENV", cfg.Environment)
	cfg.LogLevel = getenvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.DatabaseDriver = getenvOrDefault("DATABASE_DRIVER", cfg.DatabaseDriver)
	cfg.DatabaseDSN = getenvOrDefault("DATABASE_URL", cfg.DatabaseDSN)
	cfg.JWTSecret = getenvOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = getenvOrDefault("JWT_ISSUER", cfg.JWTIssuer)
	cfg.AdminWallets = getenvOrDefault("ADMIN_WALLETS", cfg.AdminWallets)
	cfg.CORSAllowOrigins = getenvOrDefault("CORS_ALLOW_ORIGINS", cfg.CORSAllowOrigins)
	cfg.RedisAddr = getenvOrDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.IPFSGateway = getenvOrDefault("IPFS_GATEWAY", cfg.IPFSGateway)
	cfg.IPFSGatewayToken = getenvOrDefault("IPFS_GATEWAY_TOKEN", cfg.IPFSGatewayToken)
	cfg.TrustedFetchDomains = getenvOrDefault("TRUSTED_FETCH_DOMAINS", cfg.TrustedFetchDomains)
	cfg.Chain.RPCURL = getenvOrDefault("CHAIN_RPC_URL", cfg.Chain.RPCURL)
	cfg.Chain.ContractAddress = getenvOrDefault("CHAIN_CONTRACT_ADDRESS", cfg.Chain.ContractAddress)
	cfg.Chain.ExplorerTxURL = getenvOrDefault("CHAIN_EXPLORER_TX_URL", cfg.Chain.ExplorerTxURL)

	var err error
	if cfg.AccessTokenTTL, err = getenvDuration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return err
	}
	if cfg.MetadataFetchTimeout, err = getenvDuration("METADATA_FETCH_TIMEOUT", cfg.MetadataFetchTimeout); err != nil {
		return err
	}
	if cfg.RateLimitRPS, err = getenvInt("RATE_LIMIT_RPS", cfg.RateLimitRPS); err != nil {
		return err
	}
	if cfg.RateLimitBurst, err = getenvInt("RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return err
	}
	return nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			return fmt.Errorf("database dsn is required for driver %q", c.DatabaseDriver)
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("jwt secret must not be empty")
	}
	if c.IsProduction() && c.JWTSecret == defaults().JWTSecret {
		return errors.New("jwt secret must be set in production")
	}
	if c.AccessTokenTTL <= 0 {
		return errors.New("access token ttl must be positive")
	}
	if c.MetadataFetchTimeout <= 0 {
		return errors.New("metadata fetch timeout must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// SplitCSV splits a comma separated setting, dropping blanks.
func SplitCSV(raw string) []string {
	values := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
