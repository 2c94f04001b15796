package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/truesource/storefront/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// EthereumConfig holds the read-only chain connection configuration
type EthereumConfig struct {
	RPCURL               string        `mapstructure:"rpc_url"`
	APIKey               string        `mapstructure:"api_key"`
	ChainID              domain.Chain  `mapstructure:"chain_id"`
	ContractAddress      string        `mapstructure:"contract_address"`
	ClaimContractAddress string        `mapstructure:"claim_contract_address"`
	BlockHeadTTL         time.Duration `mapstructure:"block_head_ttl"`
	BlockHeadStaleWindow time.Duration `mapstructure:"block_head_stale_window"`
	// CallMaxElapsed bounds the retries of a single contract read
	CallMaxElapsed time.Duration `mapstructure:"call_max_elapsed"`
}

// ProvenanceConfig holds the log scanning parameters of the provenance resolver
type ProvenanceConfig struct {
	LookbackBlocks uint64        `mapstructure:"lookback_blocks"`
	BlocksPerChunk uint64        `mapstructure:"blocks_per_chunk"`
	ChunkDelay     time.Duration `mapstructure:"chunk_delay"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig holds inbound rate limit configuration for the history endpoint
type RateLimitConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	RequestsPerMinute   int  `mapstructure:"requests_per_minute"`
	Burst               int  `mapstructure:"burst"`
	EnableLocalFallback bool `mapstructure:"enable_local_fallback"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string `mapstructure:"jwt_public_key"`
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Ethereum   EthereumConfig   `mapstructure:"ethereum"`
	Provenance ProvenanceConfig `mapstructure:"provenance"`

	// CartRetention bounds the in-memory carts used when no database is configured
	CartRetention CartRetentionConfig `mapstructure:"cart_retention"`
}

// CartRetentionConfig holds configuration for the abandoned cart sweeper
type CartRetentionConfig struct {
	Retention      time.Duration `mapstructure:"retention"`
	BatchSize      int           `mapstructure:"batch_size"`
	WorkerPoolSize int           `mapstructure:"worker_pool_size"`
	Interval       time.Duration `mapstructure:"interval"`
	MaxMemoryCarts int           `mapstructure:"max_memory_carts"`
}

// SweeperConfig holds configuration for the sweeper service
type SweeperConfig struct {
	BaseConfig    `mapstructure:",squash"`
	Database      DatabaseConfig      `mapstructure:"database"`
	CartRetention CartRetentionConfig `mapstructure:"cart_retention"`
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("ethereum.chain_id", string(domain.ChainEthereumSepolia))
	v.SetDefault("ethereum.block_head_ttl", "0s")
	v.SetDefault("ethereum.block_head_stale_window", "30s")
	v.SetDefault("ethereum.call_max_elapsed", "5s")
	v.SetDefault("provenance.lookback_blocks", domain.DEFAULT_LOOKBACK_BLOCKS)
	v.SetDefault("provenance.blocks_per_chunk", domain.DEFAULT_BLOCKS_PER_CHUNK)
	v.SetDefault("provenance.chunk_delay", "100ms")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 5)
	v.SetDefault("rate_limit.enable_local_fallback", true)
	v.SetDefault("cart_retention.retention", "720h")
	v.SetDefault("cart_retention.interval", "15m")
	v.SetDefault("cart_retention.max_memory_carts", 10000)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadSweeperConfig loads configuration for the sweeper service
func LoadSweeperConfig(configFile string, envPath string) (*SweeperConfig, error) {
	v := configureViper("sweeper", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("cart_retention.retention", "720h")
	v.SetDefault("cart_retention.batch_size", 500)
	v.SetDefault("cart_retention.worker_pool_size", 4)
	v.SetDefault("cart_retention.interval", "15m")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables
	}

	var config SweeperConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if !config.Database.Enabled() {
		return nil, errors.New("database.host is required")
	}
	if config.CartRetention.Retention <= 0 {
		return nil, errors.New("cart_retention.retention must be positive")
	}
	if config.CartRetention.BatchSize <= 0 || config.CartRetention.WorkerPoolSize <= 0 {
		return nil, errors.New("cart_retention.batch_size and cart_retention.worker_pool_size must be positive")
	}

	return &config, nil
}

// Validate checks the fields the service cannot start without
func (c *APIConfig) Validate() error {
	if c.Ethereum.RPCURL == "" {
		return errors.New("ethereum.rpc_url is required")
	}
	if c.Ethereum.ContractAddress == "" {
		return errors.New("ethereum.contract_address is required")
	}
	if !domain.IsValidChain(c.Ethereum.ChainID) {
		return fmt.Errorf("unsupported ethereum.chain_id: %s", c.Ethereum.ChainID)
	}
	if c.Provenance.BlocksPerChunk == 0 {
		return errors.New("provenance.blocks_per_chunk must be greater than zero")
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("TRUESOURCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",
		// Rate limit
		"rate_limit.enabled",
		"rate_limit.requests_per_minute",
		"rate_limit.burst",
		"rate_limit.enable_local_fallback",
		// Auth
		"auth.jwt_public_key",
		// Ethereum
		"ethereum.rpc_url",
		"ethereum.api_key",
		"ethereum.chain_id",
		"ethereum.contract_address",
		"ethereum.claim_contract_address",
		"ethereum.block_head_ttl",
		"ethereum.block_head_stale_window",
		"ethereum.call_max_elapsed",
		// Provenance
		"provenance.lookback_blocks",
		"provenance.blocks_per_chunk",
		"provenance.chunk_delay",
		// Cart retention
		"cart_retention.retention",
		"cart_retention.batch_size",
		"cart_retention.worker_pool_size",
		"cart_retention.interval",
		"cart_retention.max_memory_carts",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile)) // later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// Enabled reports whether a database host is configured
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// DialURL returns the JSON-RPC endpoint, appending the API key in the path style used by Alchemy
func (c *EthereumConfig) DialURL() string {
	if c.APIKey == "" {
		return c.RPCURL
	}
	return strings.TrimRight(c.RPCURL, "/") + "/" + c.APIKey
}
