package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the exponential backoff applied to transient send
// failures.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxRetries      uint64
}

// DefaultRetryPolicy retries transient failures three times, at 2s, 4s, 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: 2 * time.Second,
		MaxRetries:      3,
	}
}

// SendWithRetry sends a message, retrying ErrSessionNotReady with exponential
// backoff. Permanent errors and retry exhaustion are returned to the caller,
// which treats them as node failures.
func SendWithRetry(ctx context.Context, gw Gateway, sessionID, contactID string, msg *Message, policy RetryPolicy) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = policy.InitialInterval
	expo.Multiplier = 2
	expo.RandomizationFactor = 0

	operation := func() error {
		err := Send(ctx, gw, sessionID, contactID, msg)
		if err == nil {
			return nil
		}

		if errors.Is(err, ErrSessionNotReady) {
			return err // retryable
		}

		return backoff.Permanent(err)
	}

	err := backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(expo, policy.MaxRetries), ctx))
	if err != nil {
		return fmt.Errorf("send failed after %d retries: %w", policy.MaxRetries, err)
	}

	return nil
}
