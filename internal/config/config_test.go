package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Name: "venue-booking", Environment: "development"},
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Sweeper: SweeperConfig{
			MinInterval: 15 * time.Second,
			MaxInterval: 2 * time.Minute,
			Staleness:   10 * time.Minute,
			BatchSize:   100,
		},
		Inventory: InventoryConfig{Backend: "postgres"},
		Gateway:   GatewayConfig{Provider: "mock"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "redis backend", mutate: func(c *Config) { c.Inventory.Backend = "redis" }},
		{name: "http provider", mutate: func(c *Config) { c.Gateway.Provider = "http" }},
		{name: "missing app name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "max interval below min", mutate: func(c *Config) { c.Sweeper.MaxInterval = time.Second }, wantErr: true},
		{name: "zero min interval", mutate: func(c *Config) { c.Sweeper.MinInterval = 0 }, wantErr: true},
		{name: "unknown inventory backend", mutate: func(c *Config) { c.Inventory.Backend = "memcached" }, wantErr: true},
		{name: "unknown gateway provider", mutate: func(c *Config) { c.Gateway.Provider = "paypal" }, wantErr: true},
		{name: "stripe with secret key", mutate: func(c *Config) {
			c.Gateway.Provider = "stripe"
			c.Gateway.SecretKey = "sk_test_123"
		}},
		{name: "stripe without secret key", mutate: func(c *Config) { c.Gateway.Provider = "stripe" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "venue-booking", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Inventory.Backend)
	assert.Equal(t, "mock", cfg.Gateway.Provider)
	assert.Equal(t, 15*time.Second, cfg.Sweeper.MinInterval)
	assert.Equal(t, 2*time.Minute, cfg.Sweeper.MaxInterval)
	assert.Equal(t, 10*time.Minute, cfg.Sweeper.Staleness)
	assert.Equal(t, 20, cfg.Sweeper.RepairEvery)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load()
	assert.NoError(t, err, "a missing .env is optional, not an error")
}

func TestLoad_MalformedEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())

	// A line with no separator is unparseable. Startup must refuse it
	// rather than silently running on defaults.
	require.NoError(t, os.WriteFile(".env", []byte("SERVER_PORT\n"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read .env")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := &DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "svc",
		Password: "secret",
		DBName:   "venue_booking",
		SSLMode:  "require",
	}
	assert.Equal(t, "host=db.internal port=5432 user=svc password=secret dbname=venue_booking sslmode=require", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	r := &RedisConfig{Host: "cache.internal", Port: 6379}
	assert.Equal(t, "cache.internal:6379", r.Addr())
}
