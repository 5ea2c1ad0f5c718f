package controller

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskner/marketplace/internal/domain/booking"
	"github.com/taskner/marketplace/internal/domain/payment"
	"github.com/taskner/marketplace/internal/orchestration"
)

// --- Request DTOs ---
// DTOs carry HTTP/JSON concerns (string IDs, validation tags); controllers
// convert them to domain inputs before calling the facades.

// PaymentRequest is the JSON shape of a payment.
type PaymentRequest struct {
	AmountCents     int64             `json:"amount_cents" validate:"required,gt=0"`
	Currency        string            `json:"currency" validate:"required,len=3"`
	CustomerID      string            `json:"customer_id" validate:"required"`
	PaymentMethodID string            `json:"payment_method_id" validate:"required"`
	PayerID         string            `json:"payer_id" validate:"required"`
	BeneficiaryID   string            `json:"beneficiary_id" validate:"required"`
	ServiceType     string            `json:"service_type" validate:"required"`
	ServiceID       string            `json:"service_id" validate:"required"`
	Description     string            `json:"description,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

func (r PaymentRequest) toDomain() payment.Data {
	var meta map[string]any
	if len(r.Metadata) > 0 {
		meta = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			meta[k] = v
		}
	}
	return payment.Data{
		AmountCents:     r.AmountCents,
		Currency:        r.Currency,
		CustomerID:      r.CustomerID,
		PaymentMethodID: r.PaymentMethodID,
		PayerID:         r.PayerID,
		BeneficiaryID:   r.BeneficiaryID,
		ServiceType:     r.ServiceType,
		ServiceID:       r.ServiceID,
		Description:     r.Description,
		Metadata:        meta,
	}
}

// CreateBookingRequest is the JSON shape of a booking, with an optional
// inline payment.
type CreateBookingRequest struct {
	RequesterID string          `json:"requester_id" validate:"required,uuid"`
	ProviderID  string          `json:"provider_id" validate:"required,uuid"`
	ServiceType string          `json:"service_type" validate:"required"`
	ServiceID   string          `json:"service_id" validate:"required,uuid"`
	ScheduledAt time.Time       `json:"scheduled_at" validate:"required"`
	Notes       string          `json:"notes,omitempty"`
	Payment     *PaymentRequest `json:"payment,omitempty"`
}

func (r CreateBookingRequest) toDomain() orchestration.CreateBookingRequest {
	req := orchestration.CreateBookingRequest{
		RequesterID: parseUUID(r.RequesterID),
		ProviderID:  parseUUID(r.ProviderID),
		ServiceType: booking.ServiceType(r.ServiceType),
		ServiceID:   parseUUID(r.ServiceID),
		ScheduledAt: r.ScheduledAt,
		Notes:       r.Notes,
	}
	if r.Payment != nil {
		data := r.Payment.toDomain()
		req.Payment = &data
	}
	return req
}

// parseUUID is only reached after the uuid validation tag passed; a zero
// value on a malformed ID is rejected again by the facade.
func parseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// --- Response DTOs ---

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
