package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/townhall-portal/internal/auth"
	"github.com/spec-kit/townhall-portal/internal/domain"
	"github.com/spec-kit/townhall-portal/internal/events"
	"github.com/spec-kit/townhall-portal/internal/observability"
	"github.com/spec-kit/townhall-portal/internal/repository"
)

// RegisterOutcome tells a brand-new account apart from an upgraded guest.
type RegisterOutcome string

const (
	OutcomeCreated  RegisterOutcome = "created"
	OutcomeUpgraded RegisterOutcome = "upgraded"
)

// RegistrationInput is a validated registration form.
type RegistrationInput struct {
	Profile  domain.Profile
	Password string
}

// RegistrationResult describes a successful registration.
type RegistrationResult struct {
	Outcome RegisterOutcome
	UserID  int64
}

// AccountService reconciles registrations with existing guest and registered users.
type AccountService struct {
	users      repository.UserRepository
	hasher     auth.Hasher
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// AccountDependencies bundles collaborators for the account service.
type AccountDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     auth.Hasher
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		users:      deps.UserRepo,
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Register creates a new account, upgrades a matching guest, or reports ErrConflict.
// It performs at most one write. A uniqueness violation from the store is treated as
// ErrConflict even when the preceding lookup found nothing.
func (s *AccountService) Register(ctx context.Context, in RegistrationInput) (*RegistrationResult, error) {
	credential, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmailOrNationalID(ctx, in.Profile.Email, in.Profile.NationalID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return s.create(ctx, in.Profile, credential)
	case err != nil:
		return nil, err
	}

	switch existing.Account.(type) {
	case domain.Guest:
		return s.upgrade(ctx, existing, in.Profile, credential)
	case domain.Registered:
		return nil, s.conflict(in.Profile.Email, nil)
	default:
		return nil, fmt.Errorf("user %d: unknown account state %T", existing.ID, existing.Account)
	}
}

func (s *AccountService) create(ctx context.Context, profile domain.Profile, credential string) (*RegistrationResult, error) {
	user, err := s.users.InsertRegistered(ctx, profile, credential)
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, s.conflict(profile.Email, err)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAccount(string(OutcomeCreated))
	s.publish(ctx, events.EventAccountRegistered, user.ID, user.Profile.Email)
	return &RegistrationResult{Outcome: OutcomeCreated, UserID: user.ID}, nil
}

func (s *AccountService) upgrade(ctx context.Context, guest *domain.User, profile domain.Profile, credential string) (*RegistrationResult, error) {
	err := s.users.UpgradeGuestToRegistered(ctx, guest.ID, profile, credential)
	switch {
	case errors.Is(err, repository.ErrDuplicateKey):
		return nil, s.conflict(profile.Email, err)
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("guest %d vanished during upgrade: %w", guest.ID, err)
	case err != nil:
		return nil, err
	}

	s.metrics.RecordAccount(string(OutcomeUpgraded))
	s.publish(ctx, events.EventAccountUpgraded, guest.ID, guest.Profile.Email)
	return &RegistrationResult{Outcome: OutcomeUpgraded, UserID: guest.ID}, nil
}

func (s *AccountService) conflict(email string, cause error) error {
	s.metrics.RecordAccount("conflict")
	if cause != nil {
		s.logger.Info("registration raced with another write", zap.String("email", email), zap.Error(cause))
		return fmt.Errorf("%w: %v", ErrConflict, cause)
	}
	return ErrConflict
}

func (s *AccountService) publish(ctx context.Context, eventType events.EventType, userID int64, email string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:    eventType,
		Payload: events.AccountPayload{UserID: userID, Email: email},
	})
}
