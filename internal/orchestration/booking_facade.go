package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskner/marketplace/internal/domain/booking"
	"github.com/taskner/marketplace/internal/domain/payment"
	"github.com/taskner/marketplace/internal/infrastructure/observability"
	"github.com/taskner/marketplace/pkg/cache"
	"github.com/taskner/marketplace/pkg/intercept"
)

const bookingCachePrefix = "booking"

// CreateBookingRequest is the input for CreateBookingWithPayment. Payment
// is optional: without it the booking is created and left pending.
type CreateBookingRequest struct {
	RequesterID uuid.UUID           `json:"requesterId"`
	ProviderID  uuid.UUID           `json:"providerId"`
	ServiceType booking.ServiceType `json:"serviceType"`
	ServiceID   uuid.UUID           `json:"serviceId"`
	ScheduledAt time.Time           `json:"scheduledAt"`
	Notes       string              `json:"notes,omitempty"`
	Payment     *payment.Data       `json:"payment,omitempty"`
}

// BookingFacadeResult is the envelope every CreateBookingWithPayment call
// resolves to. The booking is present whenever it was created, even on a
// failed payment.
type BookingFacadeResult struct {
	Success bool                 `json:"success"`
	Booking *booking.Booking     `json:"booking,omitempty"`
	Payment *PaymentFacadeResult `json:"payment,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// BookingFacade coordinates booking creation with the payment facade and
// drives the booking's status from the payment outcome.
type BookingFacade struct {
	bookings BookingService
	payments PaymentOrchestrator
	notifier NotificationService
	store    cache.Store
	cacheTTL time.Duration
	logger   zerolog.Logger
	reporter *observability.Reporter
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewBookingFacade(
	bookings BookingService,
	payments PaymentOrchestrator,
	notifier NotificationService,
	store cache.Store,
	cacheTTL time.Duration,
	logger zerolog.Logger,
	reporter *observability.Reporter,
	metrics *observability.Metrics,
) *BookingFacade {
	return &BookingFacade{
		bookings: bookings,
		payments: payments,
		notifier: notifier,
		store:    store,
		cacheTTL: cacheTTL,
		logger:   logger,
		reporter: reporter,
		metrics:  metrics,
		now:      time.Now,
	}
}

// CreateBookingWithPayment creates the booking first, unconditionally,
// then runs the payment (if any) and moves the booking to its terminal
// state: confirmed on capture, failed on a reported or unexpected payment
// failure, pending while customer action is outstanding. Both parties are
// notified best-effort on every paid path.
func (f *BookingFacade) CreateBookingWithPayment(ctx context.Context, req CreateBookingRequest) *BookingFacadeResult {
	handler := intercept.Chain(f.createWithPayment,
		intercept.Logging(f.logger, f.reporter,
			intercept.Identity{Component: "BookingFacade", Method: "CreateBookingWithPayment"},
			intercept.LoggingOptions{
				LogArgs:         true,
				SensitiveFields: []string{"paymentMethodId"},
			}),
		intercept.Validation(f.reporter, f.bookingRules()...),
	)

	raw, err := handler(ctx, []any{req})
	if err != nil {
		return &BookingFacadeResult{Success: false, Error: err.Error()}
	}
	return raw.(*BookingFacadeResult)
}

func (f *BookingFacade) createWithPayment(ctx context.Context, args []any) (any, error) {
	req := args[0].(CreateBookingRequest)

	b, err := f.bookings.CreateBooking(ctx, booking.CreateSpec{
		RequesterID: req.RequesterID,
		ProviderID:  req.ProviderID,
		ServiceType: req.ServiceType,
		ServiceID:   req.ServiceID,
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
	})
	if err != nil {
		return &BookingFacadeResult{Success: false, Error: "booking creation failed: " + err.Error()}, nil
	}

	if req.Payment == nil {
		f.countBooking(b.Status)
		return &BookingFacadeResult{Success: true, Booking: b}, nil
	}

	data := req.Payment.WithMetadata("booking_id", b.ID.String())
	pres := f.runPayment(ctx, data)

	var result *BookingFacadeResult
	switch {
	case pres.RequiresAction:
		// The booking was created pending; it stays pending until the
		// customer completes the gateway action out of band.
		result = &BookingFacadeResult{Success: true, Booking: b, Payment: pres}
	case pres.Success:
		f.setStatus(ctx, b, booking.StatusConfirmed)
		result = &BookingFacadeResult{Success: true, Booking: b, Payment: pres}
	default:
		f.setStatus(ctx, b, booking.StatusFailed)
		result = &BookingFacadeResult{
			Success: false,
			Booking: b,
			Payment: pres,
			Error:   "payment failed: " + pres.Error,
		}
	}

	f.countBooking(b.Status)
	f.notifyParties(ctx, b, pres)
	return result, nil
}

// runPayment shields the facade from an unexpected panic in the payment
// step, distinct from a reported failure envelope.
func (f *BookingFacade) runPayment(ctx context.Context, data payment.Data) (pres *PaymentFacadeResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("payment step panicked: %v", r)
			f.reporter.Capture(ctx, err, map[string]string{
				"component": "BookingFacade",
				"method":    "CreateBookingWithPayment",
			})
			pres = &PaymentFacadeResult{Success: false, Error: err.Error()}
		}
	}()
	return f.payments.ProcessPayment(ctx, data)
}

// setStatus moves the booking and invalidates its cached reads. A failed
// update is reported, never fatal: the payment outcome already happened
// and the envelope must still reflect it.
func (f *BookingFacade) setStatus(ctx context.Context, b *booking.Booking, status booking.Status) {
	update := intercept.Chain(
		func(ctx context.Context, args []any) (any, error) {
			if err := b.Transition(status); err != nil {
				return nil, err
			}
			return nil, f.bookings.UpdateBookingStatus(ctx, b.ID, status)
		},
		intercept.CacheInvalidate(f.store, bookingKeyPattern(b.ID), f.logger),
	)
	if _, err := update(ctx, nil); err != nil {
		f.reporter.Capture(ctx, err, map[string]string{
			"component": "BookingFacade",
			"method":    "CreateBookingWithPayment",
			"step":      "status_update",
			"status":    string(status),
		})
	}
}

// GetBooking reads a booking through the cache-aside path. Entries expire
// after the configured TTL and are cleared eagerly on status updates.
func (f *BookingFacade) GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	handler := intercept.Chain(
		func(ctx context.Context, args []any) (any, error) {
			return f.bookings.GetBooking(ctx, args[0].(uuid.UUID))
		},
		intercept.CacheAside(f.store, bookingCachePrefix, intercept.CacheOptions{
			TTL: f.cacheTTL,
			Decode: func(data []byte) (any, error) {
				var b booking.Booking
				if err := json.Unmarshal(data, &b); err != nil {
					return nil, err
				}
				return &b, nil
			},
		}, f.logger),
	)

	raw, err := handler(ctx, []any{id})
	if err != nil {
		return nil, err
	}
	return raw.(*booking.Booking), nil
}

func (f *BookingFacade) notifyParties(ctx context.Context, b *booking.Booking, pres *PaymentFacadeResult) {
	kind := "booking_payment_failed"
	switch {
	case pres.RequiresAction:
		kind = "booking_payment_pending"
	case pres.Success:
		kind = "booking_confirmed"
	}

	for _, recipient := range []uuid.UUID{b.RequesterID, b.ProviderID} {
		if err := f.notifier.SendNotification(ctx, Notification{
			RecipientID: recipient.String(),
			Kind:        kind,
			Title:       "Booking update",
			Body:        fmt.Sprintf("Your %s booking is %s.", b.ServiceType, b.Status),
			Metadata:    map[string]any{"bookingId": b.ID.String()},
		}); err != nil {
			f.logger.Warn().Err(err).
				Str("recipient", recipient.String()).
				Str("kind", kind).
				Msg("booking notification failed")
		}
	}
}

func (f *BookingFacade) countBooking(status booking.Status) {
	if f.metrics != nil {
		f.metrics.BookingsTotal.WithLabelValues(string(status)).Inc()
	}
}

func (f *BookingFacade) bookingRules() []intercept.Rule {
	return []intercept.Rule{
		intercept.Custom(0, "requesterId", func(v any) (any, error) {
			r := v.(CreateBookingRequest)
			if r.RequesterID == uuid.Nil {
				return nil, errors.New("must be a valid id")
			}
			return r, nil
		}),
		intercept.Custom(0, "providerId", func(v any) (any, error) {
			r := v.(CreateBookingRequest)
			if r.ProviderID == uuid.Nil {
				return nil, errors.New("must be a valid id")
			}
			return r, nil
		}),
		intercept.Custom(0, "serviceId", func(v any) (any, error) {
			r := v.(CreateBookingRequest)
			if r.ServiceID == uuid.Nil {
				return nil, errors.New("must be a valid id")
			}
			return r, nil
		}),
		intercept.Custom(0, "serviceType", func(v any) (any, error) {
			r := v.(CreateBookingRequest)
			if !r.ServiceType.IsValid() {
				return nil, fmt.Errorf("unknown service type %q", r.ServiceType)
			}
			return r, nil
		}),
		intercept.Custom(0, "scheduledAt", func(v any) (any, error) {
			r := v.(CreateBookingRequest)
			if !r.ScheduledAt.After(f.now()) {
				return nil, errors.New("must be in the future")
			}
			return r, nil
		}),
	}
}

func bookingKeyPattern(id uuid.UUID) string {
	return bookingCachePrefix + ":*" + id.String() + "*"
}
