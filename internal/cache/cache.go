package cache

import (
	"context"
	"errors"
)

// Store is a byte cache keyed by string. Implementations expire entries on
// their own TTL.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Delete(ctx context.Context, keys ...string) error
}

var ErrEmptyKey = errors.New("cache key is empty")
