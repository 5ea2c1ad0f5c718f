package intercept

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging_SuccessEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	h := Chain(
		func(ctx context.Context, args []any) (any, error) { return "done", nil },
		Logging(logger, nil, Identity{"BookingFacade", "CreateBooking"}, LoggingOptions{LogArgs: true}),
	)

	result, err := h(context.Background(), []any{"req-1"})
	require.NoError(t, err)
	assert.Equal(t, "done", result)

	out := buf.String()
	assert.Contains(t, out, "operation started")
	assert.Contains(t, out, "operation completed")
	assert.Contains(t, out, "BookingFacade.CreateBooking")
	assert.Contains(t, out, "elapsed")
}

func TestLogging_FailureReportsAndReturnsError(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	reporter := &captureReporter{}
	boom := errors.New("boom")

	h := Chain(
		func(ctx context.Context, args []any) (any, error) { return nil, boom },
		Logging(logger, reporter, Identity{"PaymentFacade", "ProcessPayment"}, LoggingOptions{}),
	)

	_, err := h(context.Background(), nil)
	assert.ErrorIs(t, err, boom, "the failure must be forwarded unchanged")

	require.Len(t, reporter.captured, 1)
	assert.Equal(t, "PaymentFacade", reporter.tags[0]["component"])
	assert.Equal(t, "ProcessPayment", reporter.tags[0]["method"])
	assert.Contains(t, buf.String(), "operation failed")
}

func TestLogging_MasksSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	type card struct {
		Number string `json:"number"`
		Holder string `json:"holder"`
	}
	args := []any{
		map[string]any{
			"customerId": "cus_1",
			"card":       card{Number: "4242424242424242", Holder: "A. Person"},
			"nested": []any{
				map[string]any{"paymentMethodId": "pm_secret", "note": "ok"},
			},
		},
	}

	h := Chain(
		func(ctx context.Context, got []any) (any, error) { return got, nil },
		Logging(logger, nil, Identity{"Svc", "Op"}, LoggingOptions{
			LogArgs:         true,
			SensitiveFields: []string{"number", "paymentMethodId"},
		}),
	)

	_, err := h(context.Background(), args)
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "4242424242424242")
	assert.NotContains(t, out, "pm_secret")
	assert.Contains(t, out, MaskToken)
	assert.Contains(t, out, "A. Person", "non-sensitive fields stay visible")

	// Masking must never touch the real arguments.
	assert.Equal(t, "4242424242424242", args[0].(map[string]any)["card"].(card).Number)
}

func TestLogging_MasksResultLikeArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := Chain(
		func(ctx context.Context, args []any) (any, error) {
			return map[string]any{"clientSecret": "sec_abc", "status": "ok"}, nil
		},
		Logging(logger, nil, Identity{"Svc", "Op"}, LoggingOptions{
			LogResult:       true,
			SensitiveFields: []string{"clientSecret"},
		}),
	)

	result, err := h(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "sec_abc", result.(map[string]any)["clientSecret"])

	assert.NotContains(t, buf.String(), "sec_abc")
	assert.Contains(t, buf.String(), MaskToken)
}

func TestRedact_CaseInsensitive(t *testing.T) {
	v := map[string]any{"PaymentMethodID": "pm_1", "other": "x"}
	out := redact(v, []string{"paymentmethodid"})

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "pm_1"))
}
