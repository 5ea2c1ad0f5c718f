package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// FallbackPair layers a primary store over an in-process fallback store.
// A miss on the primary stays a miss; only backend failures (connection
// refused, timeouts) divert to the fallback tier. With the fallback
// disabled the pair behaves exactly like the primary.
type FallbackPair struct {
	primary  Store
	fallback Store
	enabled  bool
	logger   zerolog.Logger
}

type PairOption func(*FallbackPair)

// WithFallbackDisabled turns off the secondary tier; primary failures
// then surface to the caller unchanged.
func WithFallbackDisabled() PairOption {
	return func(p *FallbackPair) { p.enabled = false }
}

func NewFallbackPair(primary, fallback Store, logger zerolog.Logger, opts ...PairOption) *FallbackPair {
	p := &FallbackPair{
		primary:  primary,
		fallback: fallback,
		enabled:  true,
		logger:   logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *FallbackPair) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := p.primary.Get(ctx, key)
	if err == nil || IsMiss(err) {
		return val, err
	}
	if !p.enabled {
		return nil, err
	}
	p.logger.Warn().Err(err).Str("key", key).Msg("primary cache unreachable, reading fallback")
	return p.fallback.Get(ctx, key)
}

func (p *FallbackPair) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := p.primary.Set(ctx, key, value, ttl)
	if err == nil {
		return nil
	}
	if !p.enabled {
		return err
	}
	p.logger.Warn().Err(err).Str("key", key).Msg("primary cache unreachable, writing fallback")
	return p.fallback.Set(ctx, key, value, ttl)
}

func (p *FallbackPair) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := p.primary.Keys(ctx, pattern)
	if err == nil {
		return keys, nil
	}
	if !p.enabled {
		return nil, err
	}
	return p.fallback.Keys(ctx, pattern)
}

// Clear removes all keys matching pattern. If the primary clear fails the
// fallback tier is cleared instead, by enumerating its matching keys.
func (p *FallbackPair) Clear(ctx context.Context, pattern string) error {
	err := p.primary.Clear(ctx, pattern)
	if err == nil {
		return nil
	}
	if !p.enabled {
		return err
	}
	p.logger.Warn().Err(err).Str("pattern", pattern).Msg("primary cache clear failed, clearing fallback")
	return p.fallback.Clear(ctx, pattern)
}
