package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRedis_MutualExclusion runs against a real server when ELECTIONS_TEST_REDIS_ADDR is set.
func TestRedis_MutualExclusion(t *testing.T) {
	addr := os.Getenv("ELECTIONS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ELECTIONS_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	r, err := NewRedisFromAddr(ctx, addr, "", 0)
	require.NoError(t, err)
	defer r.Close()

	key := "test-" + time.Now().Format("150405.000000000")
	release, ok, err := r.TryAcquire(ctx, key, 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = r.TryAcquire(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "double release is a no-op")

	release, ok, err = r.TryAcquire(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	release(ctx)
}
