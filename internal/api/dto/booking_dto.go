package dto

import "github.com/spec-kit/tourism-service/internal/domain"

// TravelerCountsRequest is the party composition of a booking.
type TravelerCountsRequest struct {
	Adults   int `json:"adults" validate:"min=1"`
	Children int `json:"children" validate:"min=0"`
	Infants  int `json:"infants" validate:"min=0"`
}

// CreateBookingRequest payload.
type CreateBookingRequest struct {
	TourPackageID     string                   `json:"tourPackageId" validate:"required,uuid"`
	DepartureDate     string                   `json:"departureDate" validate:"required"`
	NumberOfTravelers TravelerCountsRequest    `json:"numberOfTravelers" validate:"required"`
	Travelers         []domain.Traveler        `json:"travelers"`
	RoomConfiguration domain.RoomConfiguration `json:"roomConfiguration"`
	SpecialRequests   string                   `json:"specialRequests" validate:"max=2000"`
}

// UpdateBookingStatusRequest payload.
type UpdateBookingStatusRequest struct {
	Status domain.BookingStatus `json:"status" validate:"required"`
}

// AssignAgentRequest payload.
type AssignAgentRequest struct {
	AgentID string `json:"agentId" validate:"required,uuid"`
}

// NoteRequest appends a note to a booking or customer.
type NoteRequest struct {
	Note string `json:"note" validate:"required,max=2000"`
	Type string `json:"type" validate:"omitempty,max=50"`
}
