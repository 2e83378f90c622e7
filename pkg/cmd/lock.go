package cmd

import (
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/zapflow/zapflow/pkg/lock"
)

// NewLockManager builds the conversation lock manager. Redis is the
// production choice; "memory://" only serializes within one process.
func NewLockManager(redisURL string) lock.Manager {
	if strings.HasPrefix(redisURL, "memory://") {
		return lock.NewMemoryManager()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic("Invalid redis URL: " + err.Error())
	}

	return lock.NewRedisManager(redis.NewClient(opts))
}
