package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still carries this manager's
// owner token, so an expired lease taken over by another process is never
// released from here.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisManager implements Manager with SET NX PX leases, shared by all
// engine instances.
type RedisManager struct {
	client redis.UniversalClient
	owner  string
	prefix string
}

// NewRedisManager creates a lock manager with a unique owner token.
func NewRedisManager(client redis.UniversalClient) *RedisManager {
	return &RedisManager{
		client: client,
		owner:  uuid.New().String(),
		prefix: "zapflow:lock:",
	}
}

func (m *RedisManager) Acquire(ctx context.Context, key string, lease time.Duration) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.prefix+key, m.owner, lease).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	return ok, nil
}

func (m *RedisManager) Release(ctx context.Context, key string) error {
	deleted, err := m.client.Eval(ctx, releaseScript, []string{m.prefix + key}, m.owner).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}

	if deleted == 0 {
		return fmt.Errorf("lock %s: %w", key, ErrNotHeld)
	}

	return nil
}

var _ Manager = (*RedisManager)(nil)
