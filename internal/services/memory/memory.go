// Package memory provides process-local implementations of the
// collaborator service contracts. They back single-node and development
// deployments; production points the facades at the real services.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskner/marketplace/internal/domain/booking"
	domainErrors "github.com/taskner/marketplace/internal/domain/errors"
	"github.com/taskner/marketplace/internal/orchestration"
)

type BookingService struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*booking.Booking
}

func NewBookingService() *BookingService {
	return &BookingService{bookings: make(map[uuid.UUID]*booking.Booking)}
}

func (s *BookingService) CreateBooking(_ context.Context, spec booking.CreateSpec) (*booking.Booking, error) {
	if !spec.ServiceType.IsValid() {
		return nil, domainErrors.ErrInvalidServiceType
	}
	now := time.Now()
	b := &booking.Booking{
		ID:          uuid.New(),
		RequesterID: spec.RequesterID,
		ProviderID:  spec.ProviderID,
		ServiceType: spec.ServiceType,
		ServiceID:   spec.ServiceID,
		ScheduledAt: spec.ScheduledAt,
		Status:      booking.StatusPending,
		Notes:       spec.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.bookings[b.ID] = b
	s.mu.Unlock()
	return b, nil
}

func (s *BookingService) UpdateBookingStatus(_ context.Context, id uuid.UUID, status booking.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domainErrors.ErrBookingNotFound
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	return nil
}

func (s *BookingService) GetBooking(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, domainErrors.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

type TransactionService struct {
	mu           sync.Mutex
	transactions map[uuid.UUID]*orchestration.Transaction
}

func NewTransactionService() *TransactionService {
	return &TransactionService{transactions: make(map[uuid.UUID]*orchestration.Transaction)}
}

func (s *TransactionService) CreateTransaction(_ context.Context, spec orchestration.TransactionSpec) (*orchestration.Transaction, error) {
	tx := &orchestration.Transaction{
		ID:                   uuid.New(),
		AmountCents:          spec.AmountCents,
		Currency:             spec.Currency,
		PayerID:              spec.PayerID,
		BeneficiaryID:        spec.BeneficiaryID,
		GatewayTransactionID: spec.GatewayTransactionID,
		PaymentIntentID:      spec.PaymentIntentID,
		ServiceType:          spec.ServiceType,
		ServiceID:            spec.ServiceID,
		CreatedAt:            time.Now(),
	}
	s.mu.Lock()
	s.transactions[tx.ID] = tx
	s.mu.Unlock()
	return tx, nil
}

type InvoiceService struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*orchestration.Invoice
}

func NewInvoiceService() *InvoiceService {
	return &InvoiceService{invoices: make(map[uuid.UUID]*orchestration.Invoice)}
}

func (s *InvoiceService) CreateInvoice(_ context.Context, spec orchestration.InvoiceSpec) (*orchestration.Invoice, error) {
	inv := &orchestration.Invoice{
		ID:            uuid.New(),
		TransactionID: spec.TransactionID,
		AmountCents:   spec.AmountCents,
		Currency:      spec.Currency,
		CustomerID:    spec.CustomerID,
		Description:   spec.Description,
		IssuedAt:      time.Now(),
	}
	s.mu.Lock()
	s.invoices[inv.ID] = inv
	s.mu.Unlock()
	return inv, nil
}

// LogNotifier is the no-Redis notification fallback: delivery is a log
// line, nothing more.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n *LogNotifier) SendNotification(_ context.Context, notification orchestration.Notification) error {
	n.Logger.Info().
		Str("kind", notification.Kind).
		Str("recipient", notification.RecipientID).
		Str("title", notification.Title).
		Msg("notification dispatched")
	return nil
}
