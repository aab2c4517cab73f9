package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tourism-service/internal/api/dto"
	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/service"
)

const userNotFound = "User not found"

// UserHandler exposes account administration for staff.
type UserHandler struct {
	accounts *service.AccountService
}

// NewUserHandler constructs handler.
func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// List handles GET /api/users.
func (h *UserHandler) List(c *fiber.Ctx) error {
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	filter := service.AccountListFilter{
		Search:      queryString(c, "search"),
		PageRequest: page,
	}
	if v := queryString(c, "role"); v != "" {
		role := domain.Role(v)
		filter.Role = &role
	}
	if filter.IsActive, err = queryBool(c, "isActive"); err != nil {
		return err
	}

	users, pagination, err := h.accounts.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": users, "pagination": pagination})
}

// Get handles GET /api/users/:id.
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, userNotFound)
	if err != nil {
		return err
	}
	user, err := h.accounts.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// Create handles POST /api/users.
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.Create(c.UserContext(), service.CreateAccountInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		Phone:       req.Phone,
		Country:     req.Country,
		IsActive:    req.IsActive,
		Preferences: req.Preferences,
		Profile:     req.Profile,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    user,
	})
}

// Update handles PUT /api/users/:id with a whitelisted patch.
func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, userNotFound)
	if err != nil {
		return err
	}
	patch, err := dto.DecodePatch(c.Body(), dto.UserUpdateFields)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := patch.Decode(&req); err != nil {
		return err
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	user, err := h.accounts.Update(c.UserContext(), id, service.AccountUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Role:        req.Role,
		Phone:       req.Phone,
		Country:     req.Country,
		IsActive:    req.IsActive,
		Preferences: req.Preferences,
		Profile:     req.Profile,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"user":    user,
	})
}

// Deactivate handles PATCH /api/users/:id/deactivate.
func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	return h.setActive(c, false, "User deactivated successfully")
}

// Activate handles PATCH /api/users/:id/activate.
func (h *UserHandler) Activate(c *fiber.Ctx) error {
	return h.setActive(c, true, "User activated successfully")
}

func (h *UserHandler) setActive(c *fiber.Ctx, active bool, message string) error {
	id, err := pathID(c, userNotFound)
	if err != nil {
		return err
	}
	if _, err := h.accounts.SetActive(c.UserContext(), id, active); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": message})
}

// Stats handles GET /api/users/stats/overview.
func (h *UserHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.accounts.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
