package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tourism-service/internal/api/dto"
	"github.com/spec-kit/tourism-service/internal/auth"
	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/service"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

const bookingNotFound = "Booking not found"

// BookingHandler exposes booking endpoints.
type BookingHandler struct {
	bookings *service.BookingService
}

// NewBookingHandler constructs handler.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Create handles POST /api/bookings.
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	account, err := auth.MustAccount(c)
	if err != nil {
		return err
	}
	var req dto.CreateBookingRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	departure, err := dto.ParseDate(req.DepartureDate)
	if err != nil {
		return apperrors.NewValidationError("Validation failed", []apperrors.FieldError{
			{Field: "departureDate", Message: "departureDate must be a valid date"},
		})
	}

	booking, err := h.bookings.CreateBooking(c.UserContext(), account, service.CreateBookingInput{
		TourPackageID: req.TourPackageID,
		DepartureDate: departure,
		Travelers: domain.TravelerCounts{
			Adults:   req.NumberOfTravelers.Adults,
			Children: req.NumberOfTravelers.Children,
			Infants:  req.NumberOfTravelers.Infants,
		},
		TravelerDetails:   req.Travelers,
		RoomConfiguration: req.RoomConfiguration,
		SpecialRequests:   req.SpecialRequests,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Booking created successfully",
		"booking": booking,
	})
}

// Mine handles GET /api/bookings/my-bookings.
func (h *BookingHandler) Mine(c *fiber.Ctx) error {
	account, err := auth.MustAccount(c)
	if err != nil {
		return err
	}
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	bookings, pagination, err := h.bookings.ListMine(c.UserContext(), account, service.BookingListFilter{PageRequest: page})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"bookings": bookings, "pagination": pagination})
}

// List handles GET /api/bookings within the caller's scope.
func (h *BookingHandler) List(c *fiber.Ctx) error {
	account, err := auth.MustAccount(c)
	if err != nil {
		return err
	}

	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	filter := service.BookingListFilter{
		Search:      queryString(c, "search"),
		PageRequest: page,
	}
	if v := queryString(c, "status"); v != "" {
		status := domain.BookingStatus(v)
		filter.Status = &status
	}
	if v := queryString(c, "paymentStatus"); v != "" {
		status := domain.PaymentStatus(v)
		filter.PaymentStatus = &status
	}
	if filter.DepartureFrom, err = queryDate(c, "dateFrom"); err != nil {
		return err
	}
	if filter.DepartureTo, err = queryDate(c, "dateTo"); err != nil {
		return err
	}

	bookings, pagination, err := h.bookings.ListAll(c.UserContext(), account, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"bookings": bookings, "pagination": pagination})
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c *fiber.Ctx) error {
	account, err := auth.MustAccount(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, bookingNotFound)
	if err != nil {
		return err
	}
	booking, err := h.bookings.GetBooking(c.UserContext(), account, id)
	if err != nil {
		return err
	}
	return c.JSON(booking)
}

// UpdateStatus handles PATCH /api/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
	account, err := auth.MustAccount(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, bookingNotFound)
	if err != nil {
		return err
	}
	var req dto.UpdateBookingStatusRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	booking, err := h.bookings.UpdateStatus(c.UserContext(), account, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Booking status updated successfully",
		"booking": booking,
	})
}

// AssignAgent handles PATCH /api/bookings/:id/assign.
func (h *BookingHandler) AssignAgent(c *fiber.Ctx) error {
	id, err := pathID(c, bookingNotFound)
	if err != nil {
		return err
	}
	var req dto.AssignAgentRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	booking, err := h.bookings.AssignAgent(c.UserContext(), id, req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Agent assigned successfully",
		"booking": booking,
	})
}

// AddNote handles POST /api/bookings/:id/notes.
func (h *BookingHandler) AddNote(c *fiber.Ctx) error {
	account, err := auth.MustAccount(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, bookingNotFound)
	if err != nil {
		return err
	}
	var req dto.NoteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	notes, err := h.bookings.AppendNote(c.UserContext(), account, id, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Note added successfully",
		"notes":   notes,
	})
}
