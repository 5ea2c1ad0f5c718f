package gateway

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/taskner/marketplace/internal/domain/payment"
)

// StripeGateway adapts a Stripe-style client: card payments confirmed
// in-session, with strong customer authentication surfacing as a
// client-secret based requires-action outcome.
type StripeGateway struct {
	base
	client Client
}

func NewStripeGateway(client Client, logger zerolog.Logger) *StripeGateway {
	return &StripeGateway{
		base:   base{name: "stripe", logger: logger},
		client: client,
	}
}

func (g *StripeGateway) CreatePayment(ctx context.Context, data payment.Data) (*payment.Intent, error) {
	idempotencyKey, _ := data.Metadata["idempotency_key"].(string)
	intent, err := g.client.CreateIntent(ctx, IntentRequest{
		AmountCents:    data.AmountCents,
		Currency:       data.Currency,
		CustomerID:     data.CustomerID,
		IdempotencyKey: idempotencyKey,
		Metadata: map[string]any{
			"service_type": data.ServiceType,
			"service_id":   data.ServiceID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("stripe create intent: %w", err)
	}
	return intent, nil
}

func (g *StripeGateway) ConfirmPayment(ctx context.Context, intent *payment.Intent, data payment.Data) (*payment.Result, error) {
	outcome, err := g.client.ConfirmIntent(ctx, intent.ID, data.PaymentMethodID)
	if err != nil {
		return nil, fmt.Errorf("stripe confirm intent: %w", err)
	}

	switch outcome.Status {
	case ConfirmSucceeded:
		return payment.Succeeded(outcome.TransactionID, intent.ID), nil
	case ConfirmRequiresAction:
		return payment.ActionRequired(intent.ID, &payment.NextAction{
			Kind:         "use_sdk",
			ClientSecret: outcome.ClientSecret,
		}), nil
	case ConfirmDeclined:
		return payment.Declined(intent.ID, outcome.DeclineReason), nil
	default:
		return nil, fmt.Errorf("stripe: unexpected confirm status %q", outcome.Status)
	}
}
