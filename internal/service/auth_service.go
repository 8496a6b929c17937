package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/townhall-portal/internal/auth"
	"github.com/spec-kit/townhall-portal/internal/config"
	"github.com/spec-kit/townhall-portal/internal/domain"
	"github.com/spec-kit/townhall-portal/internal/events"
	"github.com/spec-kit/townhall-portal/internal/lockout"
	"github.com/spec-kit/townhall-portal/internal/observability"
	"github.com/spec-kit/townhall-portal/internal/repository"
	"github.com/spec-kit/townhall-portal/internal/validation"
)

// dummyPassword is hashed once so unknown and guest identifiers cost one bcrypt compare,
// the same as a real account.
const dummyPassword = "townhall-portal-timing-equalizer"

// LoginResult is returned on successful authentication.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates login, lockout and password flows.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	hasher     auth.Hasher
	tokens     *auth.TokenManager
	tracker    lockout.Tracker
	threshold  int
	resetTTL   time.Duration
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Hasher            auth.Hasher
	Tokens            *auth.TokenManager
	Tracker           lockout.Tracker
	Dispatcher        events.Dispatcher
	Metrics           *observability.Metrics
	Logger            *zap.Logger
	// Now overrides the clock. It must agree with the tracker's clock.
	Now func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	threshold := cfg.Lockout.Threshold
	if threshold < 1 {
		threshold = lockout.DefaultPolicy().Threshold
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		tracker:    deps.Tracker,
		threshold:  threshold,
		resetTTL:   cfg.Auth.PasswordResetTTL(),
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        now,
	}
}

// Login authenticates by email. A locked identifier is rejected before the store is
// touched. Unknown emails, guest accounts and wrong passwords all count as failures and
// surface as the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	identifier := validation.NormalizeEmail(email)

	status, err := s.tracker.Status(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("lockout status: %w", err)
	}
	if now := s.now(); status.IsLockedAt(now) {
		s.metrics.RecordLogin(observability.LoginLocked)
		return nil, &AccountLockedError{Until: status.LockedUntil, RetryAfter: status.RetryAfter(now)}
	}

	user, err := s.users.FindByEmail(ctx, identifier)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var credential string
	var registered bool
	if user != nil {
		credential, registered = user.Credential()
	}
	if !registered {
		_, _ = s.hasher.Verify(password, s.dummyCredential())
		return nil, s.recordFailure(ctx, identifier)
	}

	ok, err := s.hasher.Verify(password, credential)
	if err != nil {
		return nil, fmt.Errorf("verify credential for user %d: %w", user.ID, err)
	}
	if !ok {
		return nil, s.recordFailure(ctx, identifier)
	}

	// A concurrent streak may have engaged the lock while the password was being verified.
	after, err := s.tracker.RecordSuccess(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("lockout reset: %w", err)
	}
	if now := s.now(); after.IsLockedAt(now) {
		s.metrics.RecordLogin(observability.LoginLocked)
		return nil, &AccountLockedError{Until: after.LockedUntil, RetryAfter: after.RetryAfter(now)}
	}
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Profile.Email)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin(observability.LoginSuccess)
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, identifier string) error {
	status, err := s.tracker.RecordFailure(ctx, identifier)
	if err != nil {
		return fmt.Errorf("lockout record: %w", err)
	}

	now := s.now()
	if !status.IsLockedAt(now) {
		s.metrics.RecordLogin(observability.LoginInvalid)
		return &InvalidCredentialsError{RemainingAttempts: status.RemainingAttempts(s.threshold)}
	}

	s.metrics.RecordLogin(observability.LoginLocked)
	s.metrics.RecordLockout()
	s.logger.Warn("login identifier locked",
		zap.String("identifier", identifier),
		zap.Int("failures", status.Failures),
		zap.Time("locked_until", status.LockedUntil))
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type: events.EventAccountLocked,
			Payload: events.AccountLockedPayload{
				Identifier:  identifier,
				Failures:    status.Failures,
				LockedUntil: status.LockedUntil,
			},
		})
	}
	return &AccountLockedError{Until: status.LockedUntil, RetryAfter: status.RetryAfter(now)}
}

func (s *AuthService) dummyCredential() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Error("dummy credential hash failed", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// Profile returns an active registered user by id.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsGuest() || !user.Active {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// RequestPasswordReset issues a reset token for a registered email. Unknown and guest
// emails succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, validation.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.IsGuest() {
		return nil
	}

	token := &domain.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type: events.EventPasswordResetRequested,
			Payload: events.PasswordResetRequestedPayload{
				UserID:    user.ID,
				Email:     user.Profile.Email,
				Token:     token.Token,
				ExpiresAt: token.ExpiresAt,
			},
		})
	}
	return nil
}

// ConfirmPasswordReset redeems a token, replaces the credential and clears any lockout.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return err
	}
	if !token.UsableAt(s.now()) {
		return ErrInvalidResetToken
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return err
	}
	credential, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	// Claim the token first so two concurrent confirmations cannot both succeed.
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if err := s.users.UpdateCredential(ctx, user.ID, credential); err != nil {
		return err
	}
	if err := s.tracker.Reset(ctx, validation.NormalizeEmail(user.Profile.Email)); err != nil {
		s.logger.Warn("lockout reset after password reset failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	credential, ok := user.Credential()
	if !ok {
		return ErrInvalidCredentials
	}
	match, err := s.hasher.Verify(currentPassword, credential)
	if err != nil {
		return err
	}
	if !match {
		return ErrInvalidCredentials
	}

	next, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdateCredential(ctx, user.ID, next)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}
