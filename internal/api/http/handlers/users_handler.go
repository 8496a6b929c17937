package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/townhall-portal/internal/api/dto"
	"github.com/spec-kit/townhall-portal/internal/auth"
	"github.com/spec-kit/townhall-portal/internal/domain"
	"github.com/spec-kit/townhall-portal/internal/service"
	"github.com/spec-kit/townhall-portal/internal/validation"
	apperrors "github.com/spec-kit/townhall-portal/pkg/util/errorutil"
)

const (
	msgRegistered     = "User registered successfully!"
	msgGuestUpgraded  = "Account registered successfully! (Guest account upgraded)"
	msgResetRequested = "If the address belongs to an account, a reset link has been sent."
	msgPasswordSet    = "Password updated."
)

// AccountRegistrar creates or upgrades accounts.
type AccountRegistrar interface {
	Register(ctx context.Context, in service.RegistrationInput) (*service.RegistrationResult, error)
}

// Authenticator covers login and password flows.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
}

// UsersHandler exposes account endpoints for citizens.
type UsersHandler struct {
	accounts AccountRegistrar
	auth     Authenticator
}

// NewUsersHandler constructs handler.
func NewUsersHandler(accounts AccountRegistrar, authService Authenticator) *UsersHandler {
	return &UsersHandler{accounts: accounts, auth: authService}
}

// Register handles POST /api/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	profile := req.ToProfile()

	v := validation.New()
	v.Profile(profile)
	v.Password("password", req.Password)
	if err := v.Err(); err != nil {
		return err
	}

	res, err := h.accounts.Register(c.UserContext(), service.RegistrationInput{Profile: profile, Password: req.Password})
	if err != nil {
		return translateError(err)
	}

	if res.Outcome == service.OutcomeUpgraded {
		return c.Status(http.StatusOK).JSON(dto.MessageResponse{Success: true, Message: msgGuestUpgraded})
	}
	return c.Status(http.StatusCreated).JSON(dto.MessageResponse{Success: true, Message: msgRegistered})
}

// Login handles POST /api/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	v := validation.New()
	v.Required("email", req.Email)
	v.Required("password", req.Password)
	if err := v.Err(); err != nil {
		return err
	}

	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return translateError(err)
	}

	return c.JSON(dto.LoginResponse{
		Success:   true,
		User:      res.User.Public(),
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	})
}

// Me handles GET /api/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.ProfileResponse{Success: true, User: user.Public()})
}

// RequestPasswordReset handles POST /api/password/reset/request.
func (h *UsersHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	v := validation.New()
	v.Email("email", validation.NormalizeEmail(req.Email))
	if err := v.Err(); err != nil {
		return err
	}

	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return translateError(err)
	}
	return c.Status(http.StatusAccepted).JSON(dto.MessageResponse{Success: true, Message: msgResetRequested})
}

// ConfirmPasswordReset handles POST /api/password/reset/confirm.
func (h *UsersHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	v := validation.New()
	v.Required("token", req.Token)
	v.Password("password", req.Password)
	if err := v.Err(); err != nil {
		return err
	}

	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.Password); err != nil {
		return translateError(err)
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: msgPasswordSet})
}

// ChangePassword handles POST /api/password/change.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	v := validation.New()
	v.Required("currentPassword", req.CurrentPassword)
	v.Password("newPassword", req.NewPassword)
	if err := v.Err(); err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.UserContext(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return translateError(err)
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: msgPasswordSet})
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal.User, nil
}
