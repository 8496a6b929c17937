package events

import (
	"time"

	"github.com/spec-kit/townhall-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered      EventType = "account_registered"
	EventAccountUpgraded        EventType = "account_upgraded"
	EventRequestSubmitted       EventType = "request_submitted"
	EventAccountLocked          EventType = "account_locked"
	EventPasswordResetRequested EventType = "password_reset_requested"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AccountPayload accompanies account_registered and account_upgraded.
type AccountPayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// RequestSubmittedPayload payload.
type RequestSubmittedPayload struct {
	RequestID    int64                  `json:"request_id"`
	TrackingCode string                 `json:"tracking_code"`
	UserID       int64                  `json:"user_id"`
	Email        string                 `json:"email"`
	Category     domain.RequestCategory `json:"category"`
	Subcategory  string                 `json:"subcategory"`
	GuestCreated bool                   `json:"guest_created"`
}

// AccountLockedPayload payload.
type AccountLockedPayload struct {
	Identifier  string    `json:"identifier"`
	Failures    int       `json:"failures"`
	LockedUntil time.Time `json:"locked_until"`
}

// PasswordResetRequestedPayload carries the secret token for out-of-band delivery only.
type PasswordResetRequestedPayload struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
