package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired. A miss is never
// treated as a failure by callers.
var ErrCacheMiss = errors.New("cache miss")

// Service is the cache contract. Values are marshaled by the implementation;
// dest must be a pointer on Get.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Close() error
}

// Key builds a cache key from a prefix and an id.
func Key(prefix, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}
