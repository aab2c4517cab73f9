package dto

import "github.com/spec-kit/tourism-service/internal/domain"

// CreateUserRequest is an administrative account creation.
type CreateUserRequest struct {
	FirstName   string                   `json:"firstName" validate:"required,min=2,max=50"`
	LastName    string                   `json:"lastName" validate:"required,min=2,max=50"`
	Email       string                   `json:"email" validate:"required,email"`
	Password    string                   `json:"password" validate:"required,min=6"`
	Role        domain.Role              `json:"role" validate:"omitempty,oneof=admin manager agent customer hr finance marketing"`
	Phone       string                   `json:"phone"`
	Country     string                   `json:"country"`
	IsActive    *bool                    `json:"isActive"`
	Preferences *domain.PreferencesPatch `json:"preferences"`
	Profile     *domain.ProfilePatch     `json:"profile"`
}

// UpdateUserRequest is decoded from a whitelisted patch.
type UpdateUserRequest struct {
	FirstName   *string                  `json:"firstName" validate:"omitempty,min=2,max=50"`
	LastName    *string                  `json:"lastName" validate:"omitempty,min=2,max=50"`
	Email       *string                  `json:"email" validate:"omitempty,email"`
	Role        *domain.Role             `json:"role" validate:"omitempty,oneof=admin manager agent customer hr finance marketing"`
	Phone       *string                  `json:"phone"`
	Country     *string                  `json:"country"`
	IsActive    *bool                    `json:"isActive"`
	Preferences *domain.PreferencesPatch `json:"preferences"`
	Profile     *domain.ProfilePatch     `json:"profile"`
}
