package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskner/marketplace/internal/domain/booking"
	"github.com/taskner/marketplace/internal/domain/payment"
	"github.com/taskner/marketplace/internal/orchestration"
)

// PaymentData returns valid payment input for a cleaning booking. Tests
// mutate the copy to produce the invalid variants they need.
func PaymentData() payment.Data {
	return payment.Data{
		AmountCents:     12500,
		Currency:        "USD",
		CustomerID:      "cus_" + uuid.NewString()[:8],
		PaymentMethodID: "pm_" + uuid.NewString()[:8],
		PayerID:         uuid.NewString(),
		BeneficiaryID:   uuid.NewString(),
		ServiceType:     string(booking.ServiceCleaning),
		ServiceID:       uuid.NewString(),
		Description:     "Two-bedroom deep clean",
	}
}

// BookingRequest returns a valid request scheduled a day out, without
// payment data attached.
func BookingRequest() orchestration.CreateBookingRequest {
	return orchestration.CreateBookingRequest{
		RequesterID: uuid.New(),
		ProviderID:  uuid.New(),
		ServiceType: booking.ServiceCleaning,
		ServiceID:   uuid.New(),
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Notes:       "Gate code 4821",
	}
}

// PendingBooking returns a stored booking in the pending state.
func PendingBooking() *booking.Booking {
	now := time.Now()
	return &booking.Booking{
		ID:          uuid.New(),
		RequesterID: uuid.New(),
		ProviderID:  uuid.New(),
		ServiceType: booking.ServiceCleaning,
		ServiceID:   uuid.New(),
		ScheduledAt: now.Add(24 * time.Hour),
		Status:      booking.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
