// Package testutil provides in-memory doubles for the orchestration
// collaborator services. Every method records its calls and can be
// overridden per test via its XxxFunc field.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskner/marketplace/internal/domain/booking"
	domainErrors "github.com/taskner/marketplace/internal/domain/errors"
	"github.com/taskner/marketplace/internal/orchestration"
)

// --- Booking Service Mock ---

type MockBookingService struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*booking.Booking

	CreateCalls []booking.CreateSpec
	StatusCalls []booking.Status
	GetCalls    int

	CreateBookingFunc       func(ctx context.Context, spec booking.CreateSpec) (*booking.Booking, error)
	UpdateBookingStatusFunc func(ctx context.Context, id uuid.UUID, status booking.Status) error
	GetBookingFunc          func(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
}

func NewMockBookingService() *MockBookingService {
	return &MockBookingService{bookings: make(map[uuid.UUID]*booking.Booking)}
}

func (m *MockBookingService) CreateBooking(ctx context.Context, spec booking.CreateSpec) (*booking.Booking, error) {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, spec)
	m.mu.Unlock()
	if m.CreateBookingFunc != nil {
		return m.CreateBookingFunc(ctx, spec)
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
	m.mu.Lock()
	m.bookings[b.ID] = b
	m.mu.Unlock()
	return b, nil
}

func (m *MockBookingService) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status booking.Status) error {
	m.mu.Lock()
	m.StatusCalls = append(m.StatusCalls, status)
	m.mu.Unlock()
	if m.UpdateBookingStatusFunc != nil {
		return m.UpdateBookingStatusFunc(ctx, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return domainErrors.ErrBookingNotFound
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	return nil
}

func (m *MockBookingService) GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	m.mu.Lock()
	m.GetCalls++
	m.mu.Unlock()
	if m.GetBookingFunc != nil {
		return m.GetBookingFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, domainErrors.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

// Seed stores a booking directly, bypassing CreateBooking.
func (m *MockBookingService) Seed(b *booking.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
}

// --- Transaction Service Mock ---

type MockTransactionService struct {
	mu    sync.Mutex
	Specs []orchestration.TransactionSpec

	CreateTransactionFunc func(ctx context.Context, spec orchestration.TransactionSpec) (*orchestration.Transaction, error)
}

func NewMockTransactionService() *MockTransactionService {
	return &MockTransactionService{}
}

func (m *MockTransactionService) CreateTransaction(ctx context.Context, spec orchestration.TransactionSpec) (*orchestration.Transaction, error) {
	m.mu.Lock()
	m.Specs = append(m.Specs, spec)
	m.mu.Unlock()
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, spec)
	}
	return &orchestration.Transaction{
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
	}, nil
}

// --- Invoice Service Mock ---

type MockInvoiceService struct {
	mu    sync.Mutex
	Specs []orchestration.InvoiceSpec

	CreateInvoiceFunc func(ctx context.Context, spec orchestration.InvoiceSpec) (*orchestration.Invoice, error)
}

func NewMockInvoiceService() *MockInvoiceService {
	return &MockInvoiceService{}
}

func (m *MockInvoiceService) CreateInvoice(ctx context.Context, spec orchestration.InvoiceSpec) (*orchestration.Invoice, error) {
	m.mu.Lock()
	m.Specs = append(m.Specs, spec)
	m.mu.Unlock()
	if m.CreateInvoiceFunc != nil {
		return m.CreateInvoiceFunc(ctx, spec)
	}
	return &orchestration.Invoice{
		ID:            uuid.New(),
		TransactionID: spec.TransactionID,
		AmountCents:   spec.AmountCents,
		Currency:      spec.Currency,
		CustomerID:    spec.CustomerID,
		Description:   spec.Description,
		IssuedAt:      time.Now(),
	}, nil
}

// --- Notification Service Mock ---

type MockNotificationService struct {
	mu   sync.Mutex
	Sent []orchestration.Notification

	SendNotificationFunc func(ctx context.Context, n orchestration.Notification) error
}

func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (m *MockNotificationService) SendNotification(ctx context.Context, n orchestration.Notification) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, n)
	m.mu.Unlock()
	if m.SendNotificationFunc != nil {
		return m.SendNotificationFunc(ctx, n)
	}
	return nil
}

// SentKinds lists the notification kinds in dispatch order.
func (m *MockNotificationService) SentKinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]string, len(m.Sent))
	for i, n := range m.Sent {
		kinds[i] = n.Kind
	}
	return kinds
}
