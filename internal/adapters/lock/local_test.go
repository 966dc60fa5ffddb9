package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_MutualExclusion(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, ok, err := l.TryAcquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryAcquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire should fail while held")

	_, ok, _ = l.TryAcquire(ctx, "other", time.Minute)
	assert.True(t, ok, "different keys are independent")

	require.NoError(t, release(ctx))
	_, ok, _ = l.TryAcquire(ctx, "sweep", time.Minute)
	assert.True(t, ok, "acquire after release should succeed")
}

func TestLocal_ExpiredHoldIsReclaimed(t *testing.T) {
	l := NewLocal()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	staleRelease, ok, _ := l.TryAcquire(ctx, "sweep", time.Minute)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = l.TryAcquire(ctx, "sweep", time.Minute)
	require.True(t, ok, "expired hold should be reclaimable")

	// The stale holder must not release the new holder's lock.
	require.NoError(t, staleRelease(ctx))
	_, ok, _ = l.TryAcquire(ctx, "sweep", time.Minute)
	assert.False(t, ok)
}
