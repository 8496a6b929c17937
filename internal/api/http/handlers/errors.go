package handlers

import (
	"errors"
	"math"

	"github.com/spec-kit/townhall-portal/internal/service"
	apperrors "github.com/spec-kit/townhall-portal/pkg/util/errorutil"
)

// translateError maps service outcomes onto DomainErrors. Store failures and anything
// unrecognised become a generic internal error, keeping the cause for logging only.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var locked *service.AccountLockedError
	var invalid *service.InvalidCredentialsError
	var domainErr *apperrors.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.As(err, &locked):
		return apperrors.NewAccountLocked(int(math.Ceil(locked.RetryAfter.Seconds())))
	case errors.As(err, &invalid):
		return apperrors.NewInvalidCredentials(invalid.RemainingAttempts)
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewInvalidCredentials(0)
	case errors.Is(err, service.ErrConflict):
		return apperrors.NewConflict("User already exists!", nil)
	case errors.Is(err, service.ErrInvalidResetToken):
		return apperrors.NewValidationError(service.ErrInvalidResetToken.Error(), nil)
	default:
		return apperrors.NewInternalError(err)
	}
}
