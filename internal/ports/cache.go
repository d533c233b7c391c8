package ports

import (
	"context"
	"time"
)

// Cache returns an empty string and a nil error on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
