package gateway

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	domainErrors "github.com/taskner/marketplace/internal/domain/errors"
	"github.com/taskner/marketplace/internal/domain/payment"
)

// paypalCurrencies is the subset of currencies the PayPal integration is
// contracted for. Anything else is rejected before money movement.
var paypalCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "CAD": {}, "AUD": {}, "BRL": {}, "MXN": {},
}

// PayPalGateway adapts a PayPal-style client: an order is created and the
// customer approves it out-of-band, so requires-action carries a redirect
// URL rather than a client secret.
type PayPalGateway struct {
	base
	client Client
}

func NewPayPalGateway(client Client, logger zerolog.Logger) *PayPalGateway {
	return &PayPalGateway{
		base:   base{name: "paypal", logger: logger},
		client: client,
	}
}

func (g *PayPalGateway) BeforePayment(_ context.Context, data payment.Data) error {
	if _, ok := paypalCurrencies[data.Currency]; !ok {
		return fmt.Errorf("paypal does not accept %s: %w", data.Currency, domainErrors.ErrUnsupportedCurrency)
	}
	return nil
}

func (g *PayPalGateway) CreatePayment(ctx context.Context, data payment.Data) (*payment.Intent, error) {
	idempotencyKey, _ := data.Metadata["idempotency_key"].(string)
	intent, err := g.client.CreateIntent(ctx, IntentRequest{
		AmountCents:    data.AmountCents,
		Currency:       data.Currency,
		CustomerID:     data.CustomerID,
		IdempotencyKey: idempotencyKey,
		Metadata: map[string]any{
			"description": data.Description,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("paypal create order: %w", err)
	}
	return intent, nil
}

func (g *PayPalGateway) ConfirmPayment(ctx context.Context, intent *payment.Intent, data payment.Data) (*payment.Result, error) {
	outcome, err := g.client.ConfirmIntent(ctx, intent.ID, data.PaymentMethodID)
	if err != nil {
		return nil, fmt.Errorf("paypal capture order: %w", err)
	}

	switch outcome.Status {
	case ConfirmSucceeded:
		return payment.Succeeded(outcome.TransactionID, intent.ID), nil
	case ConfirmRequiresAction:
		return payment.ActionRequired(intent.ID, &payment.NextAction{
			Kind:        "redirect",
			RedirectURL: outcome.ActionURL,
		}), nil
	case ConfirmDeclined:
		return payment.Declined(intent.ID, outcome.DeclineReason), nil
	default:
		return nil, fmt.Errorf("paypal: unexpected confirm status %q", outcome.Status)
	}
}
