// Package orchestration chains the payment pipeline and the collaborator
// services into single logical operations with explicit partial-failure
// semantics.
package orchestration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskner/marketplace/internal/domain/booking"
)

// BookingService owns booking persistence. It lives outside this core.
type BookingService interface {
	CreateBooking(ctx context.Context, spec booking.CreateSpec) (*booking.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status booking.Status) error
	GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
}

// Transaction is the internal ledger record of a captured payment.
type Transaction struct {
	ID                   uuid.UUID `json:"id"`
	AmountCents          int64     `json:"amountCents"`
	Currency             string    `json:"currency"`
	PayerID              string    `json:"payerId"`
	BeneficiaryID        string    `json:"beneficiaryId"`
	GatewayTransactionID string    `json:"gatewayTransactionId"`
	PaymentIntentID      string    `json:"paymentIntentId"`
	ServiceType          string    `json:"serviceType"`
	ServiceID            string    `json:"serviceId"`
	CreatedAt            time.Time `json:"createdAt"`
}

// TransactionSpec is the input for recording a transaction.
type TransactionSpec struct {
	AmountCents          int64
	Currency             string
	PayerID              string
	BeneficiaryID        string
	GatewayTransactionID string
	PaymentIntentID      string
	ServiceType          string
	ServiceID            string
}

type TransactionService interface {
	CreateTransaction(ctx context.Context, spec TransactionSpec) (*Transaction, error)
}

// Invoice is the billing document issued for a transaction.
type Invoice struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transactionId"`
	AmountCents   int64     `json:"amountCents"`
	Currency      string    `json:"currency"`
	CustomerID    string    `json:"customerId"`
	Description   string    `json:"description,omitempty"`
	IssuedAt      time.Time `json:"issuedAt"`
}

type InvoiceSpec struct {
	TransactionID uuid.UUID
	AmountCents   int64
	Currency      string
	CustomerID    string
	Description   string
}

type InvoiceService interface {
	CreateInvoice(ctx context.Context, spec InvoiceSpec) (*Invoice, error)
}

// Notification is a fire-and-forget message to a marketplace user.
// Delivery reliability is the notification service's concern.
type Notification struct {
	RecipientID string         `json:"recipientId"`
	Kind        string         `json:"kind"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type NotificationService interface {
	SendNotification(ctx context.Context, n Notification) error
}
