package intercept

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskner/marketplace/pkg/cache"
)

func TestCacheAside_MissThenHit(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	calls := 0

	h := Chain(
		func(ctx context.Context, args []any) (any, error) {
			calls++
			return map[string]any{"id": args[0]}, nil
		},
		CacheAside(store, "Booking:get", CacheOptions{TTL: 5 * time.Second}, zerolog.Nop()),
	)

	first, err := h(ctx, []any{"b-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	second, err := h(ctx, []any{"b-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "a hit must not re-invoke the wrapped work")
	assert.Equal(t, first, second)

	// Different arguments derive a different key.
	_, err = h(ctx, []any{"b-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCacheAside_Decode(t *testing.T) {
	type row struct {
		ID string `json:"id"`
	}
	store := cache.NewMemoryStore()
	h := Chain(
		func(ctx context.Context, args []any) (any, error) { return &row{ID: "b-1"}, nil },
		CacheAside(store, "rows", CacheOptions{
			TTL: time.Minute,
			Decode: func(data []byte) (any, error) {
				var r row
				if err := json.Unmarshal(data, &r); err != nil {
					return nil, err
				}
				return &r, nil
			},
		}, zerolog.Nop()),
	)

	_, err := h(context.Background(), []any{"b-1"})
	require.NoError(t, err)

	cached, err := h(context.Background(), []any{"b-1"})
	require.NoError(t, err)
	assert.Equal(t, &row{ID: "b-1"}, cached, "hits must decode to the handler's result type")
}

func TestCacheAside_HandlerErrorNotCached(t *testing.T) {
	store := cache.NewMemoryStore()
	boom := errors.New("boom")
	calls := 0
	h := Chain(
		func(ctx context.Context, args []any) (any, error) {
			calls++
			if calls == 1 {
				return nil, boom
			}
			return "ok", nil
		},
		CacheAside(store, "ops", CacheOptions{TTL: time.Minute}, zerolog.Nop()),
	)

	_, err := h(context.Background(), []any{1})
	assert.ErrorIs(t, err, boom)

	result, err := h(context.Background(), []any{1})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}

func TestCacheAside_WriteFailureDoesNotFailCall(t *testing.T) {
	h := Chain(
		func(ctx context.Context, args []any) (any, error) { return "computed", nil },
		CacheAside(failingStore{}, "ops", CacheOptions{TTL: time.Minute}, zerolog.Nop()),
	)

	result, err := h(context.Background(), []any{1})
	require.NoError(t, err)
	assert.Equal(t, "computed", result)
}

func TestCacheInvalidate_ClearsMatchingKeys(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	reads := 0

	read := Chain(
		func(ctx context.Context, args []any) (any, error) {
			reads++
			return "v", nil
		},
		CacheAside(store, "Booking:get", CacheOptions{TTL: time.Minute}, zerolog.Nop()),
	)
	write := Chain(
		func(ctx context.Context, args []any) (any, error) { return nil, nil },
		CacheInvalidate(store, "Booking:get:*", zerolog.Nop()),
	)

	_, err := read(ctx, []any{"b-1"})
	require.NoError(t, err)
	_, err = read(ctx, []any{"b-1"})
	require.NoError(t, err)
	require.Equal(t, 1, reads)

	_, err = write(ctx, []any{"b-1"})
	require.NoError(t, err)

	_, err = read(ctx, []any{"b-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, reads, "a cleared key must trigger recomputation")
}

func TestCacheInvalidate_FailedWorkSkipsClear(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "Booking:get:1", []byte(`"v"`), time.Minute))

	boom := errors.New("update failed")
	write := Chain(
		func(ctx context.Context, args []any) (any, error) { return nil, boom },
		CacheInvalidate(store, "Booking:get:*", zerolog.Nop()),
	)

	_, err := write(ctx, nil)
	assert.ErrorIs(t, err, boom)

	_, err = store.Get(ctx, "Booking:get:1")
	assert.NoError(t, err, "failed work must leave cache entries in place")
}

func TestCacheKey_Deterministic(t *testing.T) {
	a := CacheKey("Svc:get", []any{"x", 1})
	b := CacheKey("Svc:get", []any{"x", 1})
	c := CacheKey("Svc:get", []any{"x", 2})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

// failingStore accepts reads as misses but rejects writes.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, cache.ErrMiss }
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("write refused")
}
func (failingStore) Clear(context.Context, string) error          { return errors.New("clear refused") }
func (failingStore) Keys(context.Context, string) ([]string, error) { return nil, nil }
