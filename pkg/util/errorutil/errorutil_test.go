package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	conflict := NewConflict("user already exists", nil)
	wrapped := fmt.Errorf("register: %w", conflict)
	de := ToDomainError(wrapped)
	assert.Equal(t, "CONFLICT", de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)

	internal := ToDomainError(errors.New("connection refused"))
	assert.Equal(t, "INTERNAL_ERROR", internal.Code)
	assert.Equal(t, "internal server error", internal.Message)
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
}

func TestNewInvalidCredentials(t *testing.T) {
	de := ToDomainError(NewInvalidCredentials(3))
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
	assert.Equal(t, InvalidCredentialsMessage, de.Message)
	assert.Equal(t, 3, de.Details["remaining_attempts"])

	assert.Nil(t, ToDomainError(NewInvalidCredentials(0)).Details)
}

func TestNewAccountLocked(t *testing.T) {
	de := ToDomainError(NewAccountLocked(600))
	assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
	assert.Equal(t, "ACCOUNT_LOCKED", de.Code)
	assert.Equal(t, 600, de.Details["retry_after_seconds"])
}
