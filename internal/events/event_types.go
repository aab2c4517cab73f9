package events

import (
	"time"

	"github.com/spec-kit/tourism-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventBookingCreated         EventType = "booking.created"
	EventBookingStatusChanged   EventType = "booking.status_changed"
	EventPasswordResetRequested EventType = "account.password_reset_requested"
)

// Valid reports whether t is one of the published event types.
func (t EventType) Valid() bool {
	switch t {
	case EventBookingCreated, EventBookingStatusChanged, EventPasswordResetRequested:
		return true
	}
	return false
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	AggregateID string    `json:"aggregateId"`
	ActorID     string    `json:"actorId,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     any       `json:"payload"`
}

// BookingCreatedPayload carries what the confirmation email needs.
type BookingCreatedPayload struct {
	Booking  *domain.Booking
	Customer *domain.Account
	Tour     *domain.TourPackage
}

// BookingStatusChangedPayload payload.
type BookingStatusChangedPayload struct {
	Reference string               `json:"reference"`
	OldStatus domain.BookingStatus `json:"oldStatus"`
	NewStatus domain.BookingStatus `json:"newStatus"`
}

// PasswordResetRequestedPayload payload.
type PasswordResetRequestedPayload struct {
	Account *domain.Account
	Token   string
}
