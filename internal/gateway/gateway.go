// Package gateway implements the payment-processing pipeline: a fixed
// step sequence driven by Processor, with gateway-specific behavior
// supplied by Gateway implementations and selection handled by Factory.
package gateway

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/taskner/marketplace/internal/domain/payment"
)

// Gateway provides the provider-specific steps of the payment pipeline.
// The sequencing itself belongs to Processor and cannot be overridden.
type Gateway interface {
	// Name identifies the gateway ("stripe", "paypal").
	Name() string
	// BeforePayment runs gateway-specific preconditions before any money
	// movement is attempted.
	BeforePayment(ctx context.Context, data payment.Data) error
	// CreatePayment creates a pending payment intent at the gateway.
	CreatePayment(ctx context.Context, data payment.Data) (*payment.Intent, error)
	// ConfirmPayment confirms the intent. Declines come back as an
	// unsuccessful result, not an error; requires-action comes back as a
	// distinct partial-success outcome.
	ConfirmPayment(ctx context.Context, intent *payment.Intent, data payment.Data) (*payment.Result, error)
	// AfterPayment runs after confirmation, whatever the outcome.
	AfterPayment(ctx context.Context, intent *payment.Intent, result *payment.Result)
}

// Client is the minimal surface of an external gateway SDK consumed by
// the adapters. The concrete SDKs live outside this repository.
type Client interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*payment.Intent, error)
	ConfirmIntent(ctx context.Context, intentID, paymentMethodID string) (*ConfirmOutcome, error)
}

// IntentRequest is the gateway-side intent creation payload.
type IntentRequest struct {
	AmountCents    int64
	Currency       string
	CustomerID     string
	IdempotencyKey string
	Metadata       map[string]any
}

// ConfirmOutcome is the raw confirmation answer from a gateway client,
// before the adapter maps it onto a payment.Result.
type ConfirmOutcome struct {
	Status        ConfirmStatus
	TransactionID string
	DeclineReason string
	ActionURL     string
	ClientSecret  string
}

type ConfirmStatus string

const (
	ConfirmSucceeded      ConfirmStatus = "succeeded"
	ConfirmDeclined       ConfirmStatus = "declined"
	ConfirmRequiresAction ConfirmStatus = "requires_action"
)

// base carries the default hook behavior shared by the adapters.
type base struct {
	name   string
	logger zerolog.Logger
}

func (b base) Name() string { return b.name }

func (b base) BeforePayment(context.Context, payment.Data) error { return nil }

func (b base) AfterPayment(_ context.Context, intent *payment.Intent, result *payment.Result) {
	b.logger.Info().
		Str("gateway", b.name).
		Str("intent_id", intent.ID).
		Str("outcome", result.Outcome()).
		Msg("payment attempt finished")
}
