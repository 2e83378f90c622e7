package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryManager_AcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	manager := NewMemoryManager()

	ok, err := manager.Acquire(ctx, "exec:t1:s1:c1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second acquire of the same key is contention.
	ok, err = manager.Acquire(ctx, "exec:t1:s1:c1", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	// A different conversation is independent.
	ok, err = manager.Acquire(ctx, "exec:t1:s1:c2", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, manager.Release(ctx, "exec:t1:s1:c1"))

	ok, err = manager.Acquire(ctx, "exec:t1:s1:c1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryManager_LeaseExpiry(t *testing.T) {
	ctx := context.Background()
	manager := NewMemoryManager()

	ok, err := manager.Acquire(ctx, "key", time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	ok, err = manager.Acquire(ctx, "key", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired lease should be acquirable")
}

func TestMemoryManager_ReleaseNotHeld(t *testing.T) {
	manager := NewMemoryManager()

	err := manager.Release(context.Background(), "never-acquired")
	assert.ErrorIs(t, err, ErrNotHeld)
}
