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

const customerNotFound = "Customer not found"

// CRMHandler exposes customer relationship endpoints.
type CRMHandler struct {
	crm *service.CRMService
}

// NewCRMHandler constructs handler.
func NewCRMHandler(crm *service.CRMService) *CRMHandler {
	return &CRMHandler{crm: crm}
}

// Customers handles GET /api/crm/customers.
func (h *CRMHandler) Customers(c *fiber.Ctx) error {
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	filter := service.CustomerListFilter{
		Search:      queryString(c, "search"),
		Country:     queryString(c, "country"),
		PageRequest: page,
	}
	if v := queryString(c, "bookingStatus"); v != "" {
		status := domain.BookingStatus(v)
		filter.BookingStatus = &status
	}
	days, err := queryInt(c, "lastLoginDays")
	if err != nil {
		return err
	}
	if days != nil {
		filter.LastLoginDays = *days
	}

	customers, pagination, err := h.crm.ListCustomers(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"customers": customers, "pagination": pagination})
}

// Customer handles GET /api/crm/customers/:id.
func (h *CRMHandler) Customer(c *fiber.Ctx) error {
	id, err := pathID(c, customerNotFound)
	if err != nil {
		return err
	}
	detail, err := h.crm.CustomerDetail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

// AddNote handles POST /api/crm/customers/:id/notes.
func (h *CRMHandler) AddNote(c *fiber.Ctx) error {
	account, err := auth.MustAccount(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, customerNotFound)
	if err != nil {
		return err
	}
	var req dto.NoteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	notes, err := h.crm.AddCustomerNote(c.UserContext(), account, id, req.Note, req.Type)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Note added successfully",
		"notes":   notes,
	})
}

// Segments handles GET /api/crm/segments/overview.
func (h *CRMHandler) Segments(c *fiber.Ctx) error {
	overview, err := h.crm.Segments(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(overview)
}

// CreateCampaign handles POST /api/crm/campaigns.
func (h *CRMHandler) CreateCampaign(c *fiber.Ctx) error {
	account, err := auth.MustAccount(c)
	if err != nil {
		return err
	}
	var req dto.CampaignRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	input := service.CampaignInput{
		Name:          req.Name,
		Type:          req.Type,
		Subject:       req.Subject,
		Message:       req.Message,
		TargetSegment: req.TargetSegment,
	}
	if req.ScheduledDate != "" {
		scheduled, err := dto.ParseDate(req.ScheduledDate)
		if err != nil {
			return apperrors.NewValidationError("Validation failed", []apperrors.FieldError{
				{Field: "scheduledDate", Message: "scheduledDate must be a valid date"},
			})
		}
		input.ScheduledDate = &scheduled
	}

	campaign, err := h.crm.CreateCampaign(c.UserContext(), account, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":  "Campaign created successfully",
		"campaign": campaign,
	})
}
