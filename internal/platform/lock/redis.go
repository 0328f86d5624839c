package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "lock:"

// releaseScript deletes the lock only when this instance still holds it, so
// an expired-and-reacquired lease is never released from under the new holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisProvider is a Redis-backed lease lock. This is the production
// implementation for distributed deployments where multiple instances run the
// sweep timer concurrently.
type RedisProvider struct {
	client *redis.Client
	// holder distinguishes this instance's leases in release checks.
	holder string
}

// NewRedisProvider constructs a Redis-backed lock provider.
func NewRedisProvider(client *redis.Client) *RedisProvider {
	return &RedisProvider{
		client: client,
		holder: uuid.NewString(),
	}
}

// TryAcquire attempts SET NX PX on the lock key. Returns false without error
// when the lease is held elsewhere.
func (p *RedisProvider) TryAcquire(ctx context.Context, name string, lease time.Duration) (bool, error) {
	return p.client.SetNX(ctx, lockKeyPrefix+name, p.holder, lease).Result()
}

// Release drops the lease if this instance still holds it. Releasing a lease
// that already expired is not an error.
func (p *RedisProvider) Release(ctx context.Context, name string) error {
	return releaseScript.Run(ctx, p.client, []string{lockKeyPrefix + name}, p.holder).Err()
}
