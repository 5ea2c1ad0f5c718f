package gateway

import (
	"context"
	"time"

	"github.com/taskner/marketplace/internal/domain/payment"
)

// WithTimeout caps every call through the client at d. A zero or negative
// duration leaves the client unwrapped. An expired deadline surfaces as a
// transient failure through the usual error mapping.
func WithTimeout(c Client, d time.Duration) Client {
	if d <= 0 {
		return c
	}
	return &timeoutClient{inner: c, d: d}
}

type timeoutClient struct {
	inner Client
	d     time.Duration
}

func (t *timeoutClient) CreateIntent(ctx context.Context, req IntentRequest) (*payment.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.CreateIntent(ctx, req)
}

func (t *timeoutClient) ConfirmIntent(ctx context.Context, intentID, paymentMethodID string) (*ConfirmOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.ConfirmIntent(ctx, intentID, paymentMethodID)
}
