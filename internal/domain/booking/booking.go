package booking

import (
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/taskner/marketplace/internal/domain/errors"
)

// Status is the booking state relevant to payment orchestration. Upstream
// states (drafts, reschedules) live in the booking service.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ServiceType enumerates the marketplace service categories.
type ServiceType string

const (
	ServiceCleaning   ServiceType = "cleaning"
	ServicePlumbing   ServiceType = "plumbing"
	ServiceElectrical ServiceType = "electrical"
	ServiceMoving     ServiceType = "moving"
	ServiceTutoring   ServiceType = "tutoring"
	ServiceGardening  ServiceType = "gardening"
)

var validServiceTypes = map[ServiceType]struct{}{
	ServiceCleaning:   {},
	ServicePlumbing:   {},
	ServiceElectrical: {},
	ServiceMoving:     {},
	ServiceTutoring:   {},
	ServiceGardening:  {},
}

func (s ServiceType) IsValid() bool {
	_, ok := validServiceTypes[s]
	return ok
}

// Booking is a service appointment between a requester and a provider.
type Booking struct {
	ID          uuid.UUID      `json:"id"`
	RequesterID uuid.UUID      `json:"requesterId"`
	ProviderID  uuid.UUID      `json:"providerId"`
	ServiceType ServiceType    `json:"serviceType"`
	ServiceID   uuid.UUID      `json:"serviceId"`
	ScheduledAt time.Time      `json:"scheduledAt"`
	Status      Status         `json:"status"`
	Notes       string         `json:"notes,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// CreateSpec is the input for creating a booking via the booking service.
type CreateSpec struct {
	RequesterID uuid.UUID
	ProviderID  uuid.UUID
	ServiceType ServiceType
	ServiceID   uuid.UUID
	ScheduledAt time.Time
	Notes       string
}

// CanTransitionTo checks the status machine. A booking leaves the pending
// state exactly once, after a payment attempt concludes.
func (b *Booking) CanTransitionTo(next Status) bool {
	allowed := map[Status][]Status{
		StatusPending:   {StatusConfirmed, StatusFailed, StatusCancelled},
		StatusConfirmed: {StatusCompleted, StatusCancelled},
		StatusFailed:    {StatusPending},
	}
	for _, s := range allowed[b.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// Transition moves the booking to next, rejecting illegal transitions.
func (b *Booking) Transition(next Status) error {
	if b.Status == next {
		return nil
	}
	if !b.CanTransitionTo(next) {
		return domainErrors.NewDomainError(
			"invalid_transition",
			"cannot move booking from "+string(b.Status)+" to "+string(next),
			domainErrors.ErrInvalidStateTransition,
		)
	}
	b.Status = next
	b.UpdatedAt = time.Now()
	return nil
}
