package intercept

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureReporter struct {
	mu       sync.Mutex
	captured []error
	tags     []map[string]string
}

func (r *captureReporter) Capture(_ context.Context, err error, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captured = append(r.captured, err)
	r.tags = append(r.tags, tags)
}

func TestValidation_AllRulesPass_CanonicalizedArgs(t *testing.T) {
	var got []any
	h := Chain(
		func(ctx context.Context, args []any) (any, error) {
			got = args
			return "ok", nil
		},
		Validation(nil,
			NonEmptyString(0, "customerId"),
			Currency(1, "currency"),
			Positive(2, "amount"),
		),
	)

	result, err := h(context.Background(), []any{"  cus_123  ", "eur", int64(5000)})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, "cus_123", got[0], "string must arrive trimmed")
	assert.Equal(t, "EUR", got[1], "currency must arrive upper-cased")
	assert.Equal(t, int64(5000), got[2])
}

func TestValidation_AggregatesAllFailures(t *testing.T) {
	reporter := &captureReporter{}
	calls := 0
	h := Chain(
		func(ctx context.Context, args []any) (any, error) {
			calls++
			return nil, nil
		},
		Validation(reporter,
			NonEmptyString(0, "customerId"),
			Currency(1, "currency"),
			Positive(2, "amount"),
		),
	)

	_, err := h(context.Background(), []any{"cus_123", "euros", int64(-5)})
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2, "both failing rules must be listed")
	assert.Equal(t, "currency", verrs[0].Label)
	assert.Equal(t, "amount", verrs[1].Label)

	assert.Equal(t, 0, calls, "the wrapped work must never run on validation failure")
	assert.Len(t, reporter.captured, 1, "the aggregate is reported exactly once")
}

func TestValidation_IndexOutOfRange(t *testing.T) {
	h := Chain(
		func(ctx context.Context, args []any) (any, error) { return nil, nil },
		Validation(nil, NonEmptyString(3, "missing")),
	)

	_, err := h(context.Background(), []any{"only-one"})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs[0].Message, "out of range")
}

func TestValidation_DoesNotMutateCallerArgs(t *testing.T) {
	args := []any{"  padded  "}
	h := Chain(
		func(ctx context.Context, got []any) (any, error) { return got[0], nil },
		Validation(nil, NonEmptyString(0, "name")),
	)

	result, err := h(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, "padded", result)
	assert.Equal(t, "  padded  ", args[0], "caller's slice must stay untouched")
}

func TestTagRule(t *testing.T) {
	r := Tag(0, "id", "required,uuid4")

	_, err := r.Check("not-a-uuid")
	assert.Error(t, err)

	v, err := r.Check("2b1e9a04-7c1c-4e0a-9f3a-0d6c2f9be111")
	require.NoError(t, err)
	assert.Equal(t, "2b1e9a04-7c1c-4e0a-9f3a-0d6c2f9be111", v)
}
