package orchestration_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/taskner/marketplace/internal/domain/errors"
	"github.com/taskner/marketplace/internal/domain/payment"
	"github.com/taskner/marketplace/internal/gateway"
	"github.com/taskner/marketplace/internal/infrastructure/observability"
	"github.com/taskner/marketplace/internal/orchestration"
	"github.com/taskner/marketplace/internal/testutil"
)

// scriptedClient pins gateway behavior per test and records every intent
// request it sees.
type scriptedClient struct {
	mu           sync.Mutex
	requests     []gateway.IntentRequest
	confirmCalls int
	createFunc   func(req gateway.IntentRequest) (*payment.Intent, error)
	confirmFunc  func(call int) (*gateway.ConfirmOutcome, error)
}

func (c *scriptedClient) CreateIntent(_ context.Context, req gateway.IntentRequest) (*payment.Intent, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if c.createFunc != nil {
		return c.createFunc(req)
	}
	return &payment.Intent{ID: "pi_1", AmountCents: req.AmountCents, Currency: req.Currency, Status: payment.IntentPending}, nil
}

func (c *scriptedClient) ConfirmIntent(_ context.Context, _, _ string) (*gateway.ConfirmOutcome, error) {
	c.mu.Lock()
	c.confirmCalls++
	call := c.confirmCalls
	c.mu.Unlock()
	if c.confirmFunc != nil {
		return c.confirmFunc(call)
	}
	return &gateway.ConfirmOutcome{Status: gateway.ConfirmSucceeded, TransactionID: "txn_1"}, nil
}

type facadeFixture struct {
	facade       *orchestration.PaymentFacade
	client       *scriptedClient
	transactions *testutil.MockTransactionService
	invoices     *testutil.MockInvoiceService
	notifier     *testutil.MockNotificationService
	metrics      *observability.Metrics
}

func newPaymentFixture(t *testing.T) *facadeFixture {
	t.Helper()
	client := &scriptedClient{}
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	reporter := observability.NewReporter(zerolog.Nop(), metrics)
	factory := gateway.NewFactory(gateway.DefaultBreakerSettings(), zerolog.Nop(), reporter, metrics,
		gateway.NewStripeGateway(client, zerolog.Nop()))

	fx := &facadeFixture{
		client:       client,
		transactions: testutil.NewMockTransactionService(),
		invoices:     testutil.NewMockInvoiceService(),
		notifier:     testutil.NewMockNotificationService(),
		metrics:      metrics,
	}
	fx.facade = orchestration.NewPaymentFacade(
		factory, fx.transactions, fx.invoices, fx.notifier,
		orchestration.RetrySettings{MaxAttempts: 3, BaseDelay: time.Millisecond, Backoff: "fixed"},
		zerolog.Nop(), reporter, metrics,
	)
	return fx
}

func TestPaymentFacade_Success(t *testing.T) {
	fx := newPaymentFixture(t)
	data := testutil.PaymentData()

	res := fx.facade.ProcessPayment(context.Background(), data)

	require.True(t, res.Success)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, "txn_1", res.Transaction.GatewayTransactionID)
	assert.Equal(t, data.AmountCents, res.Transaction.AmountCents)
	assert.Equal(t, data.PayerID, res.Transaction.PayerID)
	require.NotNil(t, res.Invoice)
	assert.Equal(t, res.Transaction.ID, res.Invoice.TransactionID)
	assert.Equal(t, []string{"payment_succeeded"}, fx.notifier.SentKinds())

	require.Len(t, fx.client.requests, 1)
	assert.NotEmpty(t, fx.client.requests[0].IdempotencyKey)
}

func TestPaymentFacade_ValidationFailure_AggregatesAndSkipsGateway(t *testing.T) {
	fx := newPaymentFixture(t)
	data := testutil.PaymentData()
	data.AmountCents = -5
	data.PayerID = "  "
	data.Currency = "usd" // canonicalized, still valid

	res := fx.facade.ProcessPayment(context.Background(), data)

	require.False(t, res.Success)
	assert.Contains(t, res.Error, "amountCents")
	assert.Contains(t, res.Error, "payerId")
	assert.NotContains(t, res.Error, "currency")
	assert.Empty(t, fx.client.requests)
	assert.Empty(t, fx.transactions.Specs)
	assert.Empty(t, fx.notifier.Sent)
}

func TestPaymentFacade_RetriesTransientThenSucceeds(t *testing.T) {
	fx := newPaymentFixture(t)
	fx.client.confirmFunc = func(call int) (*gateway.ConfirmOutcome, error) {
		if call < 3 {
			return nil, domainErrors.ErrGatewayTimeout
		}
		return &gateway.ConfirmOutcome{Status: gateway.ConfirmSucceeded, TransactionID: "txn_after_retry"}, nil
	}

	res := fx.facade.ProcessPayment(context.Background(), testutil.PaymentData())

	require.True(t, res.Success)
	assert.Equal(t, 3, fx.client.confirmCalls)
	assert.Equal(t, "txn_after_retry", res.Payment.TransactionID)

	// Every attempt replayed the same idempotency key.
	require.Len(t, fx.client.requests, 3)
	key := fx.client.requests[0].IdempotencyKey
	require.NotEmpty(t, key)
	for _, req := range fx.client.requests {
		assert.Equal(t, key, req.IdempotencyKey)
	}
	assert.GreaterOrEqual(t,
		promtest.ToFloat64(fx.metrics.PaymentRetries.WithLabelValues("process_payment")), 2.0)
}

func TestPaymentFacade_DeclineNeverRetried(t *testing.T) {
	fx := newPaymentFixture(t)
	fx.client.confirmFunc = func(int) (*gateway.ConfirmOutcome, error) {
		return &gateway.ConfirmOutcome{Status: gateway.ConfirmDeclined, DeclineReason: "insufficient funds"}, nil
	}

	res := fx.facade.ProcessPayment(context.Background(), testutil.PaymentData())

	require.False(t, res.Success)
	assert.Equal(t, 1, fx.client.confirmCalls)
	assert.Contains(t, res.Error, "insufficient funds")
	assert.Empty(t, fx.transactions.Specs)
	assert.Zero(t,
		promtest.ToFloat64(fx.metrics.PaymentRetries.WithLabelValues("process_payment")))
}

func TestPaymentFacade_RetriesExhausted(t *testing.T) {
	fx := newPaymentFixture(t)
	fx.client.confirmFunc = func(int) (*gateway.ConfirmOutcome, error) {
		return nil, domainErrors.ErrGatewayTimeout
	}

	res := fx.facade.ProcessPayment(context.Background(), testutil.PaymentData())

	require.False(t, res.Success)
	assert.Equal(t, 3, fx.client.confirmCalls)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, fx.transactions.Specs)
	assert.Empty(t, fx.notifier.Sent)
}

func TestPaymentFacade_RequiresAction_NoSideEffects(t *testing.T) {
	fx := newPaymentFixture(t)
	fx.client.confirmFunc = func(int) (*gateway.ConfirmOutcome, error) {
		return &gateway.ConfirmOutcome{Status: gateway.ConfirmRequiresAction, ClientSecret: "pi_secret"}, nil
	}

	res := fx.facade.ProcessPayment(context.Background(), testutil.PaymentData())

	require.False(t, res.Success)
	require.True(t, res.RequiresAction)
	require.NotNil(t, res.Payment.NextAction)
	assert.Equal(t, "pi_secret", res.Payment.NextAction.ClientSecret)
	assert.Equal(t, 1, fx.client.confirmCalls)

	assert.Empty(t, fx.transactions.Specs)
	assert.Empty(t, fx.invoices.Specs)
	assert.Empty(t, fx.notifier.Sent)
}

func TestPaymentFacade_TransactionFailureFlagsResult(t *testing.T) {
	fx := newPaymentFixture(t)
	fx.transactions.CreateTransactionFunc = func(context.Context, orchestration.TransactionSpec) (*orchestration.Transaction, error) {
		return nil, errors.New("ledger unavailable")
	}

	res := fx.facade.ProcessPayment(context.Background(), testutil.PaymentData())

	require.False(t, res.Success)
	require.NotNil(t, res.Payment)
	assert.True(t, res.Payment.Success)
	assert.Contains(t, res.Error, "transaction record failed")
	assert.Empty(t, fx.invoices.Specs)
}

func TestPaymentFacade_InvoiceFailureSwallowed(t *testing.T) {
	fx := newPaymentFixture(t)
	fx.invoices.CreateInvoiceFunc = func(context.Context, orchestration.InvoiceSpec) (*orchestration.Invoice, error) {
		return nil, errors.New("invoicing down")
	}

	res := fx.facade.ProcessPayment(context.Background(), testutil.PaymentData())

	require.True(t, res.Success)
	assert.Nil(t, res.Invoice)
	assert.Equal(t, []string{"payment_succeeded"}, fx.notifier.SentKinds())
}

func TestPaymentFacade_NotificationFailureSwallowed(t *testing.T) {
	fx := newPaymentFixture(t)
	fx.notifier.SendNotificationFunc = func(context.Context, orchestration.Notification) error {
		return errors.New("broker down")
	}

	res := fx.facade.ProcessPayment(context.Background(), testutil.PaymentData())

	require.True(t, res.Success)
	require.NotNil(t, res.Transaction)
}

func TestPaymentFacade_NoGatewayConfigured(t *testing.T) {
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	factory := gateway.NewFactory(gateway.DefaultBreakerSettings(), zerolog.Nop(), nil, metrics)
	facade := orchestration.NewPaymentFacade(
		factory,
		testutil.NewMockTransactionService(),
		testutil.NewMockInvoiceService(),
		testutil.NewMockNotificationService(),
		orchestration.DefaultRetrySettings(),
		zerolog.Nop(), nil, metrics,
	)

	res := facade.ProcessPayment(context.Background(), testutil.PaymentData())

	require.False(t, res.Success)
	assert.Contains(t, res.Error, "no gateway for currency")
}
