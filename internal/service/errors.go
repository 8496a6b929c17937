package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConflict means a registered user already owns the email or national id.
	ErrConflict = errors.New("user already exists")
	// ErrInvalidCredentials covers unknown identifiers, guest accounts and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked means the identifier is inside its lock window.
	ErrAccountLocked = errors.New("account locked")
	// ErrInvalidResetToken covers unknown, expired and already used reset tokens.
	ErrInvalidResetToken = errors.New("invalid or expired token")
)

// InvalidCredentialsError matches ErrInvalidCredentials and reports attempts left before a lock.
type InvalidCredentialsError struct {
	RemainingAttempts int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("%s (%d attempts remaining)", ErrInvalidCredentials, e.RemainingAttempts)
}

func (e *InvalidCredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// AccountLockedError matches ErrAccountLocked.
type AccountLockedError struct {
	Until      time.Time
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("%s until %s", ErrAccountLocked, e.Until.Format(time.RFC3339))
}

func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
