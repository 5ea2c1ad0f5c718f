package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/taskner/marketplace/internal/domain/errors"
	"github.com/taskner/marketplace/internal/domain/payment"
)

// SimulatedClient stands in for an external gateway SDK in development
// and tests. Failure modes are injected via rates in [0, 1].
type SimulatedClient struct {
	name        string
	latency     time.Duration
	failureRate float64
	declineRate float64
	actionRate  float64

	mu      sync.Mutex
	rng     *rand.Rand
	intents map[string]*payment.Intent
}

type SimulatedOption func(*SimulatedClient)

func WithLatency(d time.Duration) SimulatedOption {
	return func(c *SimulatedClient) { c.latency = d }
}

// WithFailureRate injects transient gateway outages.
func WithFailureRate(rate float64) SimulatedOption {
	return func(c *SimulatedClient) { c.failureRate = rate }
}

// WithDeclineRate injects business declines on confirmation.
func WithDeclineRate(rate float64) SimulatedOption {
	return func(c *SimulatedClient) { c.declineRate = rate }
}

// WithActionRate injects requires-action confirmation outcomes.
func WithActionRate(rate float64) SimulatedOption {
	return func(c *SimulatedClient) { c.actionRate = rate }
}

func WithSeed(seed int64) SimulatedOption {
	return func(c *SimulatedClient) { c.rng = rand.New(rand.NewSource(seed)) }
}

func NewSimulatedClient(name string, opts ...SimulatedOption) *SimulatedClient {
	c := &SimulatedClient{
		name:    name,
		latency: 50 * time.Millisecond,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		intents: make(map[string]*payment.Intent),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *SimulatedClient) CreateIntent(ctx context.Context, req IntentRequest) (*payment.Intent, error) {
	if err := c.sleep(ctx); err != nil {
		return nil, err
	}
	if c.roll(c.failureRate) {
		return nil, fmt.Errorf("%s: %w", c.name, domainErrors.ErrGatewayUnavailable)
	}

	// An idempotency key replays the original intent instead of minting
	// a duplicate.
	c.mu.Lock()
	defer c.mu.Unlock()
	if req.IdempotencyKey != "" {
		if existing, ok := c.intents[req.IdempotencyKey]; ok {
			return existing, nil
		}
	}

	intent := &payment.Intent{
		ID:           fmt.Sprintf("%s_pi_%s", c.name, uuid.New().String()[:8]),
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
		Status:       payment.IntentPending,
		ClientSecret: fmt.Sprintf("%s_secret_%s", c.name, uuid.New().String()[:8]),
		Metadata:     req.Metadata,
	}
	if req.IdempotencyKey != "" {
		c.intents[req.IdempotencyKey] = intent
	}
	return intent, nil
}

func (c *SimulatedClient) ConfirmIntent(ctx context.Context, intentID, paymentMethodID string) (*ConfirmOutcome, error) {
	if err := c.sleep(ctx); err != nil {
		return nil, err
	}
	if c.roll(c.failureRate) {
		return nil, fmt.Errorf("%s: %w", c.name, domainErrors.ErrGatewayTimeout)
	}
	if c.roll(c.actionRate) {
		return &ConfirmOutcome{
			Status:       ConfirmRequiresAction,
			ActionURL:    fmt.Sprintf("https://%s.example/approve/%s", c.name, intentID),
			ClientSecret: fmt.Sprintf("%s_secret_%s", c.name, intentID),
		}, nil
	}
	if c.roll(c.declineRate) {
		return &ConfirmOutcome{
			Status:        ConfirmDeclined,
			DeclineReason: "card declined",
		}, nil
	}
	return &ConfirmOutcome{
		Status:        ConfirmSucceeded,
		TransactionID: fmt.Sprintf("%s_txn_%s", c.name, uuid.New().String()[:8]),
	}, nil
}

func (c *SimulatedClient) sleep(ctx context.Context) error {
	if c.latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(c.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *SimulatedClient) roll(rate float64) bool {
	if rate <= 0 {
		return false
	}
	if rate >= 1 {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64() < rate
}
