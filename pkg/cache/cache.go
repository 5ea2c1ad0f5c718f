// Package cache provides the key/value contract shared by the primary
// (Redis) store and the in-memory fallback store, plus a pair type that
// routes around primary outages.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store is the cache backend contract. Patterns use glob syntax where
// '*' matches any run of characters ("Booking:get:*").
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context, pattern string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// IsMiss reports whether err is a cache miss as opposed to a backend failure.
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}
