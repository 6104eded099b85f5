package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Sweeper   SweeperConfig   `mapstructure:"sweeper"`
	Inventory InventoryConfig `mapstructure:"inventory"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	Version     string `mapstructure:"version"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	// EnableTracing attaches the OpenTelemetry query tracer to the pool
	EnableTracing bool `mapstructure:"enable_tracing"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GatewayConfig holds payment gateway settings
type GatewayConfig struct {
	// Provider selects the gateway implementation: "http", "stripe" or "mock"
	Provider string        `mapstructure:"provider"`
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	// SecretKey is the Stripe secret key, required when Provider is "stripe"
	SecretKey string        `mapstructure:"secret_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SweeperConfig holds reconciliation sweeper settings
type SweeperConfig struct {
	// MinInterval is the sweep interval while stale bookings keep turning up
	MinInterval time.Duration `mapstructure:"min_interval"`
	// MaxInterval is the backed-off interval once sweeps come up empty
	MaxInterval time.Duration `mapstructure:"max_interval"`
	// Staleness is how old a Pending booking must be before it is swept
	Staleness time.Duration `mapstructure:"staleness"`
	BatchSize int           `mapstructure:"batch_size"`
	// RepairEvery is how many sweeps pass between denormalization repair runs
	RepairEvery int `mapstructure:"repair_every"`
}

// InventoryConfig selects the inventory backend
type InventoryConfig struct {
	// Backend is "postgres" or "redis"
	Backend string `mapstructure:"backend"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// .env is optional, environment variables may carry everything. A file
	// that exists but cannot be parsed is a hard error, not a silent skip.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	bindConfig(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "venue-booking")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "1.0.0")

	// Server defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "30s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	// Database defaults
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_DBNAME", "venue_booking")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_CONNS", 25)
	v.SetDefault("DATABASE_MIN_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DATABASE_CONN_MAX_IDLE_TIME", "30m")
	v.SetDefault("DATABASE_ENABLE_TRACING", false)

	// Redis defaults
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 100)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	// Gateway defaults
	v.SetDefault("GATEWAY_PROVIDER", "mock")
	v.SetDefault("GATEWAY_BASE_URL", "http://localhost:9090")
	v.SetDefault("GATEWAY_API_KEY", "")
	v.SetDefault("GATEWAY_SECRET_KEY", "")
	v.SetDefault("GATEWAY_TIMEOUT", "5s")

	// Sweeper defaults
	v.SetDefault("SWEEPER_MIN_INTERVAL", "15s")
	v.SetDefault("SWEEPER_MAX_INTERVAL", "2m")
	v.SetDefault("SWEEPER_STALENESS", "10m")
	v.SetDefault("SWEEPER_BATCH_SIZE", 100)
	v.SetDefault("SWEEPER_REPAIR_EVERY", 20)

	// Inventory defaults
	v.SetDefault("INVENTORY_BACKEND", "postgres")
}

func bindConfig(v *viper.Viper, cfg *Config) {
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")
	cfg.App.Debug = v.GetBool("APP_DEBUG")
	cfg.App.Version = v.GetString("APP_VERSION")

	cfg.Server.Host = v.GetString("SERVER_HOST")
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")

	cfg.Database.Host = v.GetString("DATABASE_HOST")
	cfg.Database.Port = v.GetInt("DATABASE_PORT")
	cfg.Database.User = v.GetString("DATABASE_USER")
	cfg.Database.Password = v.GetString("DATABASE_PASSWORD")
	cfg.Database.DBName = v.GetString("DATABASE_DBNAME")
	cfg.Database.SSLMode = v.GetString("DATABASE_SSLMODE")
	cfg.Database.MaxConns = v.GetInt32("DATABASE_MAX_CONNS")
	cfg.Database.MinConns = v.GetInt32("DATABASE_MIN_CONNS")
	cfg.Database.ConnMaxLifetime = v.GetDuration("DATABASE_CONN_MAX_LIFETIME")
	cfg.Database.ConnMaxIdleTime = v.GetDuration("DATABASE_CONN_MAX_IDLE_TIME")
	cfg.Database.EnableTracing = v.GetBool("DATABASE_ENABLE_TRACING")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetInt("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	cfg.Redis.MinIdleConns = v.GetInt("REDIS_MIN_IDLE_CONNS")
	cfg.Redis.DialTimeout = v.GetDuration("REDIS_DIAL_TIMEOUT")
	cfg.Redis.ReadTimeout = v.GetDuration("REDIS_READ_TIMEOUT")
	cfg.Redis.WriteTimeout = v.GetDuration("REDIS_WRITE_TIMEOUT")

	cfg.Gateway.Provider = v.GetString("GATEWAY_PROVIDER")
	cfg.Gateway.BaseURL = v.GetString("GATEWAY_BASE_URL")
	cfg.Gateway.APIKey = v.GetString("GATEWAY_API_KEY")
	cfg.Gateway.SecretKey = v.GetString("GATEWAY_SECRET_KEY")
	cfg.Gateway.Timeout = v.GetDuration("GATEWAY_TIMEOUT")

	cfg.Sweeper.MinInterval = v.GetDuration("SWEEPER_MIN_INTERVAL")
	cfg.Sweeper.MaxInterval = v.GetDuration("SWEEPER_MAX_INTERVAL")
	cfg.Sweeper.Staleness = v.GetDuration("SWEEPER_STALENESS")
	cfg.Sweeper.BatchSize = v.GetInt("SWEEPER_BATCH_SIZE")
	cfg.Sweeper.RepairEvery = v.GetInt("SWEEPER_REPAIR_EVERY")

	cfg.Inventory.Backend = v.GetString("INVENTORY_BACKEND")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Sweeper.MinInterval <= 0 || c.Sweeper.MaxInterval < c.Sweeper.MinInterval {
		return fmt.Errorf("invalid sweeper intervals: min=%s max=%s", c.Sweeper.MinInterval, c.Sweeper.MaxInterval)
	}
	switch c.Inventory.Backend {
	case "postgres", "redis":
	default:
		return fmt.Errorf("invalid inventory backend: %s", c.Inventory.Backend)
	}
	switch c.Gateway.Provider {
	case "http", "mock":
	case "stripe":
		if c.Gateway.SecretKey == "" {
			return fmt.Errorf("gateway provider stripe requires a secret key")
		}
	default:
		return fmt.Errorf("invalid gateway provider: %s", c.Gateway.Provider)
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
