package gateway

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	domainErrors "github.com/taskner/marketplace/internal/domain/errors"
	"github.com/taskner/marketplace/internal/infrastructure/observability"
)

// currencyPreference maps currencies to the gateway that handles them
// best. Currencies not listed default to stripe; if the preferred gateway
// is not configured the factory falls back to any other configured one.
var currencyPreference = map[string]string{
	"USD": "stripe",
	"GBP": "stripe",
	"EUR": "paypal",
	"BRL": "paypal",
	"MXN": "paypal",
}

const defaultGateway = "stripe"

// BreakerSettings tunes the per-gateway circuit breakers.
type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
	}
}

// Factory selects a payment processor by explicit gateway name or by
// best fit for a currency/country pair. Every registered gateway is
// wrapped in its own circuit breaker.
type Factory struct {
	processors map[string]*Processor
	settings   BreakerSettings
	logger     zerolog.Logger
	reporter   *observability.Reporter
	metrics    *observability.Metrics
}

func NewFactory(
	settings BreakerSettings,
	logger zerolog.Logger,
	reporter *observability.Reporter,
	metrics *observability.Metrics,
	gateways ...Gateway,
) *Factory {
	f := &Factory{
		processors: make(map[string]*Processor),
		settings:   settings,
		logger:     logger,
		reporter:   reporter,
		metrics:    metrics,
	}
	for _, gw := range gateways {
		f.Register(gw)
	}
	return f
}

func (f *Factory) Register(gw Gateway) {
	name := gw.Name()
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: f.settings.MaxRequests,
		Interval:    f.settings.Interval,
		Timeout:     f.settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warn().
				Str("gateway", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			if f.metrics != nil {
				f.metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			}
		},
	})
	f.processors[name] = NewProcessor(gw, breaker, f.logger, f.reporter, f.metrics)
}

// ForName returns the processor for an explicitly requested gateway.
// An unconfigured gateway is a fatal configuration error, never retried.
func (f *Factory) ForName(name string) (*Processor, error) {
	p, ok := f.processors[name]
	if !ok {
		return nil, fmt.Errorf("gateway %q: %w", name, domainErrors.ErrGatewayNotConfigured)
	}
	return p, nil
}

// BestFit picks the preferred gateway for a currency/country pair,
// falling back to any other configured gateway when the preferred one is
// missing.
func (f *Factory) BestFit(currency, country string) (*Processor, error) {
	preferred, ok := currencyPreference[currency]
	if !ok {
		preferred = defaultGateway
	}
	if p, ok := f.processors[preferred]; ok {
		return p, nil
	}

	// Deterministic fallback order keeps selection stable across calls.
	names := make([]string, 0, len(f.processors))
	for name := range f.processors {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		f.logger.Debug().
			Str("currency", currency).
			Str("country", country).
			Str("preferred", preferred).
			Str("selected", names[0]).
			Msg("preferred gateway unconfigured, falling back")
		return f.processors[names[0]], nil
	}

	return nil, fmt.Errorf("no gateway for currency %s: %w", currency, domainErrors.ErrGatewayNotConfigured)
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
