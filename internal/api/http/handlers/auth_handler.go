package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tourism-service/internal/api/dto"
	"github.com/spec-kit/tourism-service/internal/auth"
	"github.com/spec-kit/tourism-service/internal/service"
)

// AuthHandler exposes registration, login and self-service account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/auth/register. The route runs the optional auth
// middleware so an admin may register staff.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	caller, _ := auth.AccountFromContext(c)
	result, err := h.auth.Register(c.UserContext(), caller, service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		Phone:     req.Phone,
		Country:   req.Country,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.AuthResponse{
		Message:   "User registered successfully",
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.NewUserResponse(result.Account, false),
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.AuthResponse{
		Message:   "Login successful",
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.NewUserResponse(result.Account, true),
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	account, err := auth.MustAccount(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(account, true)})
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	account, err := auth.MustAccount(c)
	if err != nil {
		return err
	}

	patch, err := dto.DecodePatch(c.Body(), dto.ProfileUpdateFields)
	if err != nil {
		return err
	}
	var req dto.ProfileUpdateRequest
	if err := patch.Decode(&req); err != nil {
		return err
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	updated, err := h.auth.UpdateProfile(c.UserContext(), account.ID, service.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Country:     req.Country,
		Preferences: req.Preferences,
		Profile:     req.Profile,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    dto.NewUserResponse(updated, true),
	})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	account, err := auth.MustAccount(c)
	if err != nil {
		return err
	}
	var req dto.PasswordChangeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), account.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// ForgotPassword handles POST /api/auth/forgot-password. The response is the
// same whether or not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "If an account exists for this email, a password reset link has been sent"})
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.auth.ResetPassword(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password has been reset successfully"})
}
