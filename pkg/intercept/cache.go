package intercept

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/taskner/marketplace/pkg/cache"
)

// CacheKey derives a deterministic key from a prefix and a canonical JSON
// serialization of the call arguments: same prefix and arguments yield the
// same key. Arguments that cannot be serialized fall back to %v formatting.
func CacheKey(prefix string, args []any) string {
	raw, err := json.Marshal(args)
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", args))
	}
	return prefix + ":" + string(raw)
}

// CacheOptions tunes the cache-aside interceptor.
type CacheOptions struct {
	TTL time.Duration
	// Decode deserializes a cached entry back into the handler's result
	// type. When nil, entries decode into generic JSON values.
	Decode func(data []byte) (any, error)
}

// CacheAside caches handler results keyed by prefix and arguments. A hit
// returns the cached value without invoking the handler; a miss (or an
// outage with the fallback disabled) invokes the handler and then
// best-effort writes the result back with the configured TTL. Concurrent
// misses for the same key coalesce into a single handler invocation.
func CacheAside(store cache.Store, prefix string, opts CacheOptions, logger zerolog.Logger) Interceptor {
	var group singleflight.Group
	return func(next Handler) Handler {
		return func(ctx context.Context, args []any) (any, error) {
			key := CacheKey(prefix, args)

			data, err := store.Get(ctx, key)
			if err == nil {
				return decodeEntry(data, opts.Decode)
			}
			if !cache.IsMiss(err) {
				logger.Warn().Err(err).Str("key", key).Msg("cache read failed, computing")
			}

			result, err, _ := group.Do(key, func() (any, error) {
				result, err := next(ctx, args)
				if err != nil {
					return nil, err
				}
				raw, merr := json.Marshal(result)
				if merr != nil {
					logger.Warn().Err(merr).Str("key", key).Msg("result not cacheable")
					return result, nil
				}
				if serr := store.Set(ctx, key, raw, opts.TTL); serr != nil {
					// A write failure never fails the call.
					logger.Warn().Err(serr).Str("key", key).Msg("cache write failed")
				}
				return result, nil
			})
			return result, err
		}
	}
}

// CacheInvalidate invokes the wrapped handler first, then clears all cache
// keys matching pattern. A clear failure is logged but never fails the call
// or reverses the handler's work.
func CacheInvalidate(store cache.Store, pattern string, logger zerolog.Logger) Interceptor {
	return func(next Handler) Handler {
		return func(ctx context.Context, args []any) (any, error) {
			result, err := next(ctx, args)
			if err != nil {
				return nil, err
			}
			if cerr := store.Clear(ctx, pattern); cerr != nil {
				logger.Warn().Err(cerr).Str("pattern", pattern).Msg("cache invalidation failed")
			}
			return result, nil
		}
	}
}

func decodeEntry(data []byte, decode func([]byte) (any, error)) (any, error) {
	if decode != nil {
		return decode(data)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return v, nil
}
