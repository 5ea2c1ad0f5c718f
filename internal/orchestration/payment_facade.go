package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainErrors "github.com/taskner/marketplace/internal/domain/errors"
	"github.com/taskner/marketplace/internal/domain/payment"
	"github.com/taskner/marketplace/internal/gateway"
	"github.com/taskner/marketplace/internal/infrastructure/observability"
	"github.com/taskner/marketplace/pkg/intercept"
)

// idempotencyKeyField is the metadata key gateway adapters read to make
// intent creation safe to re-run across retry attempts.
const idempotencyKeyField = "idempotency_key"

// RetrySettings bounds the transient-failure retry loop around the payment
// pipeline.
type RetrySettings struct {
	MaxAttempts uint
	BaseDelay   time.Duration
	Backoff     intercept.Backoff
	Multiplier  float64
}

func DefaultRetrySettings() RetrySettings {
	return RetrySettings{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		Backoff:     intercept.BackoffExponential,
		Multiplier:  2,
	}
}

// PaymentFacadeResult is the envelope every ProcessPayment call resolves
// to. Success implies a captured payment and a recorded transaction;
// RequiresAction is a non-error partial state the caller must complete
// out of band.
type PaymentFacadeResult struct {
	Success        bool            `json:"success"`
	RequiresAction bool            `json:"requiresAction,omitempty"`
	Payment        *payment.Result `json:"payment,omitempty"`
	Transaction    *Transaction    `json:"transaction,omitempty"`
	Invoice        *Invoice        `json:"invoice,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// PaymentOrchestrator is what the booking facade needs from the payment
// side. Satisfied by PaymentFacade.
type PaymentOrchestrator interface {
	ProcessPayment(ctx context.Context, data payment.Data) *PaymentFacadeResult
}

// PaymentFacade chains validation, transient-failure retry, the gateway
// pipeline and the post-payment side effects into one logical operation.
type PaymentFacade struct {
	factory      *gateway.Factory
	transactions TransactionService
	invoices     InvoiceService
	notifier     NotificationService
	retry        RetrySettings
	logger       zerolog.Logger
	reporter     *observability.Reporter
	metrics      *observability.Metrics
}

func NewPaymentFacade(
	factory *gateway.Factory,
	transactions TransactionService,
	invoices InvoiceService,
	notifier NotificationService,
	retry RetrySettings,
	logger zerolog.Logger,
	reporter *observability.Reporter,
	metrics *observability.Metrics,
) *PaymentFacade {
	if retry.MaxAttempts < 1 {
		retry = DefaultRetrySettings()
	}
	return &PaymentFacade{
		factory:      factory,
		transactions: transactions,
		invoices:     invoices,
		notifier:     notifier,
		retry:        retry,
		logger:       logger,
		reporter:     reporter,
		metrics:      metrics,
	}
}

// ProcessPayment takes a payment end to end: validate, select a gateway,
// create and confirm the intent (retrying transient faults only), record
// the transaction, then best-effort invoice and notification. It never
// returns a Go error; every path resolves to a PaymentFacadeResult.
func (f *PaymentFacade) ProcessPayment(ctx context.Context, data payment.Data) (out *PaymentFacadeResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("payment step panicked: %v", r)
			f.reporter.Capture(ctx, err, map[string]string{
				"component": "PaymentFacade",
				"method":    "ProcessPayment",
			})
			out = &PaymentFacadeResult{Success: false, Error: err.Error()}
		}
	}()

	// One key per logical call: every retry attempt replays the same
	// intent instead of creating a duplicate charge.
	data = data.WithMetadata(idempotencyKeyField, uuid.NewString())

	var last *payment.Result
	attempt := func(ctx context.Context, args []any) (any, error) {
		d := args[0].(payment.Data)
		proc, err := f.factory.BestFit(d.Currency, "")
		if err != nil {
			return nil, err
		}
		res := proc.Process(ctx, d)
		last = res
		if !res.Success && !res.RequiresAction {
			cause := res.Cause
			if cause == nil {
				cause = errors.New(res.Error)
			}
			return nil, cause
		}
		return res, nil
	}

	handler := intercept.Chain(attempt,
		intercept.Logging(f.logger, f.reporter,
			intercept.Identity{Component: "PaymentFacade", Method: "ProcessPayment"},
			intercept.LoggingOptions{
				LogArgs:         true,
				SensitiveFields: []string{"paymentMethodId", "clientSecret"},
			}),
		intercept.Validation(f.reporter, paymentRules()...),
		intercept.Retry(intercept.RetryPolicy{
			MaxAttempts: f.retry.MaxAttempts,
			BaseDelay:   f.retry.BaseDelay,
			Backoff:     f.retry.Backoff,
			Multiplier:  f.retry.Multiplier,
			ShouldRetry: domainErrors.IsTransient,
			OnRetry: func(uint, error) {
				if f.metrics != nil {
					f.metrics.PaymentRetries.WithLabelValues("process_payment").Inc()
				}
			},
		}, f.logger),
	)

	raw, err := handler(ctx, []any{data})
	if err != nil {
		res := last
		if res == nil {
			res = payment.Failed("", err)
		}
		msg := err.Error()
		if res.Error != "" {
			msg = res.Error
		}
		return &PaymentFacadeResult{Success: false, Payment: res, Error: msg}
	}

	res := raw.(*payment.Result)
	if res.RequiresAction {
		return &PaymentFacadeResult{RequiresAction: true, Payment: res}
	}
	return f.settle(ctx, data, res)
}

// settle records the captured payment and runs the best-effort tail.
func (f *PaymentFacade) settle(ctx context.Context, data payment.Data, res *payment.Result) *PaymentFacadeResult {
	tx, err := f.transactions.CreateTransaction(ctx, TransactionSpec{
		AmountCents:          data.AmountCents,
		Currency:             data.Currency,
		PayerID:              data.PayerID,
		BeneficiaryID:        data.BeneficiaryID,
		GatewayTransactionID: res.TransactionID,
		PaymentIntentID:      res.PaymentIntentID,
		ServiceType:          data.ServiceType,
		ServiceID:            data.ServiceID,
	})
	if err != nil {
		// The money moved but the ledger write did not. Surface that
		// explicitly instead of pretending the call succeeded.
		f.reporter.Capture(ctx, err, map[string]string{
			"component": "PaymentFacade",
			"method":    "ProcessPayment",
			"step":      "transaction",
		})
		return &PaymentFacadeResult{
			Success: false,
			Payment: res,
			Error:   "payment captured but transaction record failed: " + err.Error(),
		}
	}

	result := &PaymentFacadeResult{Success: true, Payment: res, Transaction: tx}

	inv, err := f.invoices.CreateInvoice(ctx, InvoiceSpec{
		TransactionID: tx.ID,
		AmountCents:   data.AmountCents,
		Currency:      data.Currency,
		CustomerID:    data.CustomerID,
		Description:   data.Description,
	})
	if err != nil {
		f.logger.Warn().Err(err).
			Str("transaction_id", tx.ID.String()).
			Msg("invoice creation failed, payment stands")
	} else {
		result.Invoice = inv
	}

	if err := f.notifier.SendNotification(ctx, Notification{
		RecipientID: data.PayerID,
		Kind:        "payment_succeeded",
		Title:       "Payment received",
		Body:        fmt.Sprintf("Your %s payment of %d %s was captured.", data.ServiceType, data.AmountCents, data.Currency),
		Metadata: map[string]any{
			"transactionId": tx.ID.String(),
			"serviceId":     data.ServiceID,
		},
	}); err != nil {
		f.logger.Warn().Err(err).Str("recipient", data.PayerID).Msg("payment notification failed")
	}

	return result
}

// paymentRules validates each facet of the payment input independently so
// a caller sees every problem at once, with canonicalized values flowing
// on to the pipeline.
func paymentRules() []intercept.Rule {
	return []intercept.Rule{
		intercept.Custom(0, "amountCents", func(v any) (any, error) {
			d := v.(payment.Data)
			if d.AmountCents <= 0 {
				return nil, errors.New("must be greater than zero")
			}
			return d, nil
		}),
		intercept.Custom(0, "currency", func(v any) (any, error) {
			d := v.(payment.Data)
			d.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
			if len(d.Currency) != 3 {
				return nil, errors.New("must be a 3-letter ISO-4217 code")
			}
			return d, nil
		}),
		nonEmptyField("payerId", func(d payment.Data) string { return d.PayerID }),
		nonEmptyField("beneficiaryId", func(d payment.Data) string { return d.BeneficiaryID }),
		nonEmptyField("customerId", func(d payment.Data) string { return d.CustomerID }),
		nonEmptyField("paymentMethodId", func(d payment.Data) string { return d.PaymentMethodID }),
		nonEmptyField("serviceType", func(d payment.Data) string { return d.ServiceType }),
		nonEmptyField("serviceId", func(d payment.Data) string { return d.ServiceID }),
	}
}

func nonEmptyField(label string, get func(payment.Data) string) intercept.Rule {
	return intercept.Custom(0, label, func(v any) (any, error) {
		d := v.(payment.Data)
		if strings.TrimSpace(get(d)) == "" {
			return nil, errors.New("must not be empty")
		}
		return d, nil
	})
}
