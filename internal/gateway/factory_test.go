package gateway

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/taskner/marketplace/internal/domain/errors"
	"github.com/taskner/marketplace/internal/infrastructure/observability"
)

func newTestFactory(t *testing.T, gateways ...Gateway) *Factory {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)
	reporter := observability.NewReporter(zerolog.Nop(), metrics)
	return NewFactory(DefaultBreakerSettings(), zerolog.Nop(), reporter, metrics, gateways...)
}

func bothGateways() []Gateway {
	logger := zerolog.Nop()
	return []Gateway{
		NewStripeGateway(NewSimulatedClient("stripe", WithLatency(0)), logger),
		NewPayPalGateway(NewSimulatedClient("paypal", WithLatency(0)), logger),
	}
}

func TestFactory_ForName(t *testing.T) {
	f := newTestFactory(t, bothGateways()...)

	p, err := f.ForName("stripe")
	require.NoError(t, err)
	assert.Equal(t, "stripe", p.GatewayName())

	p, err = f.ForName("paypal")
	require.NoError(t, err)
	assert.Equal(t, "paypal", p.GatewayName())
}

func TestFactory_ForName_Unconfigured(t *testing.T) {
	f := newTestFactory(t, bothGateways()...)

	_, err := f.ForName("adyen")
	assert.ErrorIs(t, err, domainErrors.ErrGatewayNotConfigured)
}

func TestFactory_BestFit_Preference(t *testing.T) {
	f := newTestFactory(t, bothGateways()...)

	tests := []struct {
		currency string
		want     string
	}{
		{"USD", "stripe"},
		{"GBP", "stripe"},
		{"EUR", "paypal"},
		{"BRL", "paypal"},
		{"JPY", "stripe"}, // unlisted currencies default to stripe
	}
	for _, tt := range tests {
		p, err := f.BestFit(tt.currency, "")
		require.NoError(t, err, tt.currency)
		assert.Equal(t, tt.want, p.GatewayName(), "currency %s", tt.currency)
	}
}

func TestFactory_BestFit_FallsBackWhenPreferredMissing(t *testing.T) {
	// Only stripe configured: EUR prefers paypal but must fall back.
	f := newTestFactory(t, NewStripeGateway(NewSimulatedClient("stripe", WithLatency(0)), zerolog.Nop()))

	p, err := f.BestFit("EUR", "DE")
	require.NoError(t, err)
	assert.Equal(t, "stripe", p.GatewayName())
}

func TestFactory_BestFit_NothingConfigured(t *testing.T) {
	f := newTestFactory(t)

	_, err := f.BestFit("USD", "US")
	assert.ErrorIs(t, err, domainErrors.ErrGatewayNotConfigured)
}
