package errors_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	domainErrors "github.com/taskner/marketplace/internal/domain/errors"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"gateway timeout", domainErrors.ErrGatewayTimeout, true},
		{"gateway unavailable", domainErrors.ErrGatewayUnavailable, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped timeout", fmt.Errorf("confirm: %w", domainErrors.ErrGatewayTimeout), true},
		{"decline", domainErrors.ErrPaymentDeclined, false},
		{"unsupported currency", domainErrors.ErrUnsupportedCurrency, false},
		{"config error", domainErrors.ErrGatewayNotConfigured, false},
		{"plain error", stderrors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domainErrors.IsTransient(tt.err))
		})
	}
}

func TestIsDeclined(t *testing.T) {
	assert.True(t, domainErrors.IsDeclined(domainErrors.ErrPaymentDeclined))
	assert.True(t, domainErrors.IsDeclined(fmt.Errorf("eur: %w", domainErrors.ErrUnsupportedCurrency)))
	assert.False(t, domainErrors.IsDeclined(domainErrors.ErrGatewayTimeout))
}

func TestDomainError_Unwrap(t *testing.T) {
	inner := domainErrors.ErrGatewayUnavailable
	err := domainErrors.NewDomainError("gateway_down", "confirm failed", inner)

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "confirm failed")

	var de *domainErrors.DomainError
	assert.ErrorAs(t, error(err), &de)
	assert.Equal(t, "gateway_down", de.Code)
}

func TestValidationError(t *testing.T) {
	err := domainErrors.NewValidationError("currency", "must be 3 letters")
	assert.Contains(t, err.Error(), "currency")
	assert.Contains(t, err.Error(), "must be 3 letters")
}
