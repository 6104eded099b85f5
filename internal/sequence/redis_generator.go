package sequence

import (
	"context"
	"fmt"

	pkgredis "github.com/venuehub/venue-booking/internal/redis"

	"github.com/venuehub/venue-booking/internal/domain"
)

// decrFloorScript decrements the counter but refuses to take it below zero,
// mirroring the local generator's underflow guard.
const decrFloorScript = `
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current <= 0 then
  return redis.error_reply('UNDERFLOW')
end
return redis.call('DECR', KEYS[1])
`

const scriptDecrFloor = "sequence_decr_floor"

// RedisGenerator issues order numbers via the server's atomic INCR, safe
// across any number of process instances.
type RedisGenerator struct {
	client *pkgredis.Client
}

// NewRedisGenerator creates a new RedisGenerator
func NewRedisGenerator(client *pkgredis.Client) *RedisGenerator {
	return &RedisGenerator{client: client}
}

func counterKey(key string) string {
	return fmt.Sprintf("sequence:counter:%s", key)
}

// Next atomically increments the counter for key.
func (g *RedisGenerator) Next(ctx context.Context, key string) (int64, error) {
	value, err := g.client.Redis().Incr(ctx, counterKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %q: %w", key, err)
	}
	return value, nil
}

// Previous atomically decrements the counter for key, refusing underflow.
func (g *RedisGenerator) Previous(ctx context.Context, key string) (int64, error) {
	cmd := g.client.EvalWithFallback(ctx, scriptDecrFloor, decrFloorScript, []string{counterKey(key)})
	value, err := cmd.Int64()
	if err != nil {
		if isUnderflowError(err) {
			return 0, domain.ErrSequenceUnderflow
		}
		return 0, fmt.Errorf("failed to decrement counter %q: %w", key, err)
	}
	return value, nil
}

func isUnderflowError(err error) bool {
	return err != nil && err.Error() == "UNDERFLOW"
}
