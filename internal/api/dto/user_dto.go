package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/townhall-portal/internal/domain"
	"github.com/spec-kit/townhall-portal/internal/validation"
)

// ProfileFields are the identity fields shared by registration and request intake.
type ProfileFields struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// ToProfile trims every field and normalizes the email.
func (p ProfileFields) ToProfile() domain.Profile {
	return domain.Profile{
		FirstName:  strings.TrimSpace(p.FirstName),
		MiddleName: strings.TrimSpace(p.MiddleName),
		LastName:   strings.TrimSpace(p.LastName),
		NationalID: strings.TrimSpace(p.NationalID),
		Phone:      strings.TrimSpace(p.Phone),
		Email:      validation.NormalizeEmail(p.Email),
	}
}

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	ProfileFields
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest starts a reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest redeems a reset token.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// PasswordChangeRequest replaces the caller's password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// MessageResponse is the plain acknowledgement envelope.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// LoginResponse standard response for login.
type LoginResponse struct {
	Success   bool                 `json:"success"`
	User      domain.PublicProfile `json:"user"`
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expiresAt"`
}

// ProfileResponse wraps the caller's profile.
type ProfileResponse struct {
	Success bool                 `json:"success"`
	User    domain.PublicProfile `json:"user"`
}
