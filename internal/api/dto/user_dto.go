package dto

import (
	"time"

	"github.com/spec-kit/tourism-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	FirstName string      `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string      `json:"lastName" validate:"required,min=2,max=50"`
	Email     string      `json:"email" validate:"required,email"`
	Password  string      `json:"password" validate:"required,min=6"`
	Role      domain.Role `json:"role" validate:"omitempty,oneof=admin manager agent customer hr finance marketing"`
	Phone     string      `json:"phone"`
	Country   string      `json:"country"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdateRequest is decoded from a whitelisted patch.
type ProfileUpdateRequest struct {
	FirstName   *string                  `json:"firstName" validate:"omitempty,min=2,max=50"`
	LastName    *string                  `json:"lastName" validate:"omitempty,min=2,max=50"`
	Phone       *string                  `json:"phone"`
	Country     *string                  `json:"country"`
	Preferences *domain.PreferencesPatch `json:"preferences"`
	Profile     *domain.ProfilePatch     `json:"profile"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// ForgotPasswordRequest payload for initiating reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest payload for confirming reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// UserResponse is the account projection returned by auth endpoints.
type UserResponse struct {
	ID          string              `json:"id"`
	FirstName   string              `json:"firstName"`
	LastName    string              `json:"lastName"`
	Email       string              `json:"email"`
	Role        domain.Role         `json:"role"`
	Preferences *domain.Preferences `json:"preferences,omitempty"`
	Profile     *domain.Profile     `json:"profile,omitempty"`
	LastLogin   *time.Time          `json:"lastLogin,omitempty"`
}

// AuthResponse standard response for register and login.
type AuthResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// NewUserResponse projects an account. Preferences and profile are included
// only when detailed is set.
func NewUserResponse(account *domain.Account, detailed bool) UserResponse {
	resp := UserResponse{
		ID:        account.ID,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Email:     account.Email,
		Role:      account.Role,
		LastLogin: account.LastLogin,
	}
	if detailed {
		prefs := account.Preferences
		profile := account.Profile
		resp.Preferences = &prefs
		resp.Profile = &profile
	}
	return resp
}
