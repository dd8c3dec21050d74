package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	redisclient "github.com/zatekoja/nearbydining/internal/infrastructure/clients/redis"
	"github.com/zatekoja/nearbydining/pkg/config"
)

// Requires a Redis instance on localhost:6379; skipped otherwise.
func TestRedisAdapter_IncrementAndTTL(t *testing.T) {
	ctx := context.Background()
	client, err := redisclient.NewClient(ctx, &config.RedisConfig{Host: "localhost", Port: 6379})
	if err != nil {
		t.Skip("Redis not available, skipping integration test")
	}
	defer client.Close()

	adapter := NewRedisAdapter(client)
	key := "test:rate:" + uuid.New().String()
	defer client.Client().Del(ctx, key)

	first, err := adapter.Increment(ctx, key, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := adapter.Increment(ctx, key, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)

	// The window is fixed by the first increment.
	ttl, err := adapter.TTL(ctx, key)
	require.NoError(t, err)
	assert.Greater(t, ttl, 5*time.Second)
	assert.LessOrEqual(t, ttl, 60*time.Second)

	missing, err := adapter.TTL(ctx, key+":missing")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), missing)
}
