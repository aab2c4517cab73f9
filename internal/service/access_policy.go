package service

import (
	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/repository"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

// applyBookingScope narrows a booking listing to what the actor may see.
// Explicit filters supplied by the caller are kept and combined with the scope.
func applyBookingScope(actor *domain.Account, filter *repository.BookingFilter) error {
	switch actor.Role {
	case domain.RoleCustomer:
		id := actor.ID
		filter.CustomerID = &id
	case domain.RoleAgent:
		id := actor.ID
		filter.AssignedAgentID = &id
	case domain.RoleAdmin, domain.RoleManager, domain.RoleFinance:
	default:
		return apperrors.NewForbidden("Access denied. Insufficient permissions.")
	}
	return nil
}

// canViewBooking applies the same scope to a single booking. Roles other than
// customer and agent see every booking.
func canViewBooking(actor *domain.Account, booking *domain.Booking) bool {
	switch actor.Role {
	case domain.RoleCustomer:
		return booking.CustomerID == actor.ID
	case domain.RoleAgent:
		return booking.AssignedTo(actor.ID)
	default:
		return true
	}
}

// canMutateBooking reports whether the actor may change status or add notes.
func canMutateBooking(actor *domain.Account, booking *domain.Booking) bool {
	if actor.Role == domain.RoleAgent {
		return booking.AssignedTo(actor.ID)
	}
	return true
}
