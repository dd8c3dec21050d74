package providers

import (
	"context"
	"time"
)

// CacheProvider defines the counter operations backing per-client request limits
type CacheProvider interface {
	// Increment adds one to key and returns the new value; the expiration is
	// set only when the key is created
	Increment(ctx context.Context, key string, expirationSeconds int) (int64, error)

	// TTL returns the time left before key expires
	TTL(ctx context.Context, key string) (time.Duration, error)
}
