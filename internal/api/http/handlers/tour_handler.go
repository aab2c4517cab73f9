package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/tourism-service/internal/api/dto"
	"github.com/spec-kit/tourism-service/internal/auth"
	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/service"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

const tourNotFound = "Tour package not found"

// TourHandler exposes the tour catalog.
type TourHandler struct {
	tours *service.TourService
}

// NewTourHandler constructs handler.
func NewTourHandler(tours *service.TourService) *TourHandler {
	return &TourHandler{tours: tours}
}

// List handles GET /api/tours.
func (h *TourHandler) List(c *fiber.Ctx) error {
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	filter := service.TourListFilter{
		Search:      queryString(c, "search"),
		Sort:        queryString(c, "sort"),
		PageRequest: page,
	}
	if v := queryString(c, "category"); v != "" {
		category := domain.TourCategory(v)
		filter.Category = &category
	}
	if v := queryString(c, "circuit"); v != "" {
		circuit := domain.Circuit(v)
		filter.Circuit = &circuit
	}
	if filter.MinPrice, err = queryDecimal(c, "minPrice"); err != nil {
		return err
	}
	if filter.MaxPrice, err = queryDecimal(c, "maxPrice"); err != nil {
		return err
	}
	if filter.DurationDays, err = queryInt(c, "duration"); err != nil {
		return err
	}
	if filter.Featured, err = queryBool(c, "featured"); err != nil {
		return err
	}

	tours, pagination, err := h.tours.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tours": tours, "pagination": pagination})
}

// Featured handles GET /api/tours/featured/list.
func (h *TourHandler) Featured(c *fiber.Ctx) error {
	tours, err := h.tours.Featured(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(tours)
}

// GetBySlug handles GET /api/tours/slug/:slug.
func (h *TourHandler) GetBySlug(c *fiber.Ctx) error {
	tour, err := h.tours.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(tour)
}

// Get handles GET /api/tours/:id.
func (h *TourHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, tourNotFound)
	if err != nil {
		return err
	}
	tour, err := h.tours.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(tour)
}

// Create handles POST /api/tours. Packages are active unless the payload
// says otherwise.
func (h *TourHandler) Create(c *fiber.Ctx) error {
	account, err := auth.MustAccount(c)
	if err != nil {
		return err
	}

	tour := domain.TourPackage{IsActive: true}
	if err := json.Unmarshal(c.Body(), &tour); err != nil {
		return apperrors.NewValidationError("Invalid JSON payload", nil)
	}
	tour.ID = ""
	tour.Reviews = domain.Reviews{}

	created, err := h.tours.Create(c.UserContext(), account, &tour)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Tour package created successfully",
		"tour":    created,
	})
}

// Update handles PUT /api/tours/:id with a whitelisted patch.
func (h *TourHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, tourNotFound)
	if err != nil {
		return err
	}
	patch, err := dto.DecodePatch(c.Body(), dto.TourUpdateFields)
	if err != nil {
		return err
	}

	tour, err := h.tours.Update(c.UserContext(), id, func(t *domain.TourPackage) error {
		return patch.ApplyTo(t)
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Tour package updated successfully",
		"tour":    tour,
	})
}

// Delete handles DELETE /api/tours/:id.
func (h *TourHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, tourNotFound)
	if err != nil {
		return err
	}
	if err := h.tours.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Tour package deleted successfully"})
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := queryString(c, key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, invalidQuery(key, "must be a number")
	}
	return &d, nil
}
