package engine

import (
	"time"

	"github.com/zapflow/zapflow/pkg/gateway"
)

// Config tunes the engine's protection limits and default deadlines. Zero
// fields fall back to the defaults.
type Config struct {
	// StalenessWindow is how long an active execution may go without an
	// update before startup recovery or a superseding start force-fails it.
	StalenessWindow time.Duration

	// IterationLimit caps run-loop iterations per invocation.
	IterationLimit int

	// InteractionLimit caps inbound interactions per execution.
	InteractionLimit int

	// DefaultReplyTimeout applies to attended waits that configure no
	// timeout of their own.
	DefaultReplyTimeout time.Duration

	// LockLease is the lease on the per-conversation lock.
	LockLease time.Duration

	// ExecutionTTL sets the absolute expiry of new executions. Zero disables
	// the deadline.
	ExecutionTTL time.Duration

	// Retry bounds the backoff applied to transient gateway failures.
	Retry gateway.RetryPolicy
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		StalenessWindow:     30 * time.Minute,
		IterationLimit:      100,
		InteractionLimit:    200,
		DefaultReplyTimeout: 300 * time.Second,
		LockLease:           30 * time.Second,
		ExecutionTTL:        24 * time.Hour,
		Retry:               gateway.DefaultRetryPolicy(),
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()

	if c.StalenessWindow <= 0 {
		c.StalenessWindow = defaults.StalenessWindow
	}

	if c.IterationLimit <= 0 {
		c.IterationLimit = defaults.IterationLimit
	}

	if c.InteractionLimit <= 0 {
		c.InteractionLimit = defaults.InteractionLimit
	}

	if c.DefaultReplyTimeout <= 0 {
		c.DefaultReplyTimeout = defaults.DefaultReplyTimeout
	}

	if c.LockLease <= 0 {
		c.LockLease = defaults.LockLease
	}

	if c.Retry.InitialInterval <= 0 {
		c.Retry = defaults.Retry
	}

	return c
}
