package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/venuehub/venue-booking/internal/config"
)

const (
	connectRetries  = 3
	connectInterval = time.Second
)

// Client wraps redis.Client with a Lua script cache.
type Client struct {
	client  *redis.Client
	scripts sync.Map // map[scriptName]sha
}

// NewClient creates a new Redis client with retry logic
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	opts := &redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	client := redis.NewClient(opts)

	var lastErr error
	for attempt := 0; attempt <= connectRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(connectInterval)
		}
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return &Client{client: client}, nil
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", connectRetries+1, lastErr)
}

// Redis returns the underlying go-redis client
func (c *Client) Redis() *redis.Client {
	return c.client
}

// Close closes the connection
func (c *Client) Close() error {
	return c.client.Close()
}

// Ping checks connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// LoadScript loads a Lua script into Redis and caches its SHA under name.
func (c *Client) LoadScript(ctx context.Context, name, script string) (string, error) {
	sha, err := c.client.ScriptLoad(ctx, script).Result()
	if err != nil {
		return "", err
	}
	c.scripts.Store(name, sha)
	return sha, nil
}

// EvalWithFallback runs a cached script by SHA, falling back to EVAL (and
// re-caching) when the script cache was flushed.
func (c *Client) EvalWithFallback(ctx context.Context, name, script string, keys []string, args ...interface{}) *redis.Cmd {
	if sha, ok := c.scripts.Load(name); ok {
		cmd := c.client.EvalSha(ctx, sha.(string), keys, args...)
		if cmd.Err() == nil || !isNoScriptError(cmd.Err()) {
			return cmd
		}
	}

	cmd := c.client.Eval(ctx, script, keys, args...)
	if cmd.Err() == nil {
		go func() {
			_, _ = c.LoadScript(context.Background(), name, script)
		}()
	}
	return cmd
}

func isNoScriptError(err error) bool {
	if err == nil {
		return false
	}
	return len(err.Error()) >= 8 && err.Error()[:8] == "NOSCRIPT"
}
