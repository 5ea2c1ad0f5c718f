package gateway

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	domainErrors "github.com/taskner/marketplace/internal/domain/errors"
	"github.com/taskner/marketplace/internal/domain/payment"
	"github.com/taskner/marketplace/internal/infrastructure/observability"
)

// Processor drives the fixed payment pipeline: validate, before-payment
// hook, create intent, confirm, after-payment hook, metrics, notification
// hook. Gateway-specific behavior comes from the injected Gateway; the
// step order is not overridable.
type Processor struct {
	gw       Gateway
	breaker  *gobreaker.CircuitBreaker[any]
	logger   zerolog.Logger
	reporter *observability.Reporter
	metrics  *observability.Metrics
}

func NewProcessor(
	gw Gateway,
	breaker *gobreaker.CircuitBreaker[any],
	logger zerolog.Logger,
	reporter *observability.Reporter,
	metrics *observability.Metrics,
) *Processor {
	return &Processor{
		gw:       gw,
		breaker:  breaker,
		logger:   logger,
		reporter: reporter,
		metrics:  metrics,
	}
}

// GatewayName reports which gateway this processor drives.
func (p *Processor) GatewayName() string { return p.gw.Name() }

// Process runs the pipeline end to end. It never returns an error for
// ordinary gateway failures: validation errors, declines, outages and
// unexpected step failures all fold into an unsuccessful Result, reported
// once to the error tracker. The Result's Cause keeps the failure class
// for callers that need a retry decision.
func (p *Processor) Process(ctx context.Context, data payment.Data) *payment.Result {
	result := p.run(ctx, data)

	p.recordMetrics(data, result)

	// Notification delivery is composed at the orchestration layer; the
	// pipeline itself only records the outcome.
	p.logger.Debug().
		Str("gateway", p.gw.Name()).
		Str("outcome", result.Outcome()).
		Msg("payment pipeline finished")

	return result
}

func (p *Processor) run(ctx context.Context, data payment.Data) *payment.Result {
	if err := data.Validate(); err != nil {
		p.capture(ctx, err, "validate")
		return payment.Failed("", err)
	}

	if err := p.gw.BeforePayment(ctx, data); err != nil {
		p.capture(ctx, err, "before_payment")
		return payment.Failed("", err)
	}

	intent, err := p.createIntent(ctx, data)
	if err != nil {
		p.capture(ctx, err, "create_payment")
		return payment.Failed("", err)
	}

	result, err := p.confirmIntent(ctx, intent, data)
	if err != nil {
		p.capture(ctx, err, "confirm_payment")
		return payment.Failed(intent.ID, err)
	}
	result.PaymentIntentID = intent.ID

	p.gw.AfterPayment(ctx, intent, result)
	return result
}

func (p *Processor) createIntent(ctx context.Context, data payment.Data) (*payment.Intent, error) {
	v, err := p.protect(func() (any, error) {
		return p.gw.CreatePayment(ctx, data)
	})
	if err != nil {
		return nil, err
	}
	return v.(*payment.Intent), nil
}

func (p *Processor) confirmIntent(ctx context.Context, intent *payment.Intent, data payment.Data) (*payment.Result, error) {
	v, err := p.protect(func() (any, error) {
		return p.gw.ConfirmPayment(ctx, intent, data)
	})
	if err != nil {
		return nil, err
	}
	return v.(*payment.Result), nil
}

// protect runs a gateway call through the circuit breaker when one is
// configured. An open breaker surfaces as a transient gateway outage.
func (p *Processor) protect(fn func() (any, error)) (any, error) {
	if p.breaker == nil {
		return fn()
	}
	v, err := p.breaker.Execute(fn)
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%s circuit open: %w", p.gw.Name(), domainErrors.ErrGatewayUnavailable)
		}
		return nil, err
	}
	return v, nil
}

func (p *Processor) capture(ctx context.Context, err error, step string) {
	p.reporter.Capture(ctx, err, map[string]string{
		"component": "gateway.Processor",
		"gateway":   p.gw.Name(),
		"step":      step,
	})
}

func (p *Processor) recordMetrics(data payment.Data, result *payment.Result) {
	if p.metrics == nil {
		return
	}
	p.metrics.PaymentsTotal.WithLabelValues(
		data.Currency,
		p.gw.Name(),
		result.Outcome(),
		payment.AmountBucket(data.AmountCents),
	).Inc()
	if result.Success {
		p.metrics.PaymentAmount.WithLabelValues(data.Currency, p.gw.Name()).Set(float64(data.AmountCents))
	}
}
