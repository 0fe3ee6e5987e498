//go:build integration

package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	addr, err := c.Endpoint(ctx, "")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func TestRedisStoreClaimForget(t *testing.T) {
	ctx := context.Background()
	rdb := startRedis(t)
	s := NewRedisStore(rdb, time.Minute)

	fresh, err := s.Claim(ctx, "idem:orders:alice:k1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = s.Claim(ctx, "idem:orders:alice:k1")
	require.NoError(t, err)
	assert.False(t, fresh)

	ttl, err := rdb.TTL(ctx, "idem:orders:alice:k1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Forget(ctx, "idem:orders:alice:k1"))
	fresh, err = s.Claim(ctx, "idem:orders:alice:k1")
	require.NoError(t, err)
	assert.True(t, fresh)
}
