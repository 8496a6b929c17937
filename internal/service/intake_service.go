package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/townhall-portal/internal/domain"
	"github.com/spec-kit/townhall-portal/internal/events"
	"github.com/spec-kit/townhall-portal/internal/observability"
	"github.com/spec-kit/townhall-portal/internal/repository"
)

// SubmissionInput is a validated service request form. No password is involved.
type SubmissionInput struct {
	Profile     domain.Profile
	Category    domain.RequestCategory
	Subcategory string
	Description string
}

// SubmissionResult describes a recorded request.
type SubmissionResult struct {
	RequestID    int64
	TrackingCode string
	UserID       int64
	GuestCreated bool
}

// IntakeService records service requests, minting guest users for unknown submitters.
type IntakeService struct {
	users      repository.UserRepository
	requests   repository.RequestRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// IntakeDependencies bundles collaborators for the intake service.
type IntakeDependencies struct {
	UserRepo    repository.UserRepository
	RequestRepo repository.RequestRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeService{
		users:      deps.UserRepo,
		requests:   deps.RequestRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// SubmitRequest resolves the submitter by email or national id, creating a guest when
// nobody matches, and stores the request under that user.
func (s *IntakeService) SubmitRequest(ctx context.Context, in SubmissionInput) (*SubmissionResult, error) {
	user, created, err := s.resolveUser(ctx, in.Profile)
	if err != nil {
		return nil, err
	}

	req := &domain.ServiceRequest{
		UserID:      user.ID,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.requests.Insert(ctx, req); err != nil {
		return nil, err
	}

	s.metrics.RecordRequestSubmitted(string(req.Category), created)
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type: events.EventRequestSubmitted,
			Payload: events.RequestSubmittedPayload{
				RequestID:    req.ID,
				TrackingCode: req.TrackingCode(),
				UserID:       user.ID,
				Email:        user.Profile.Email,
				Category:     req.Category,
				Subcategory:  req.Subcategory,
				GuestCreated: created,
			},
		})
	}

	return &SubmissionResult{
		RequestID:    req.ID,
		TrackingCode: req.TrackingCode(),
		UserID:       user.ID,
		GuestCreated: created,
	}, nil
}

// resolveUser is lookup-or-create. When a concurrent submission inserts the same guest
// first, the unique constraint fires and the row it created is used instead.
func (s *IntakeService) resolveUser(ctx context.Context, profile domain.Profile) (*domain.User, bool, error) {
	user, err := s.users.FindByEmailOrNationalID(ctx, profile.Email, profile.NationalID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	user, err = s.users.InsertGuest(ctx, profile)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, repository.ErrDuplicateKey) {
		return nil, false, err
	}

	s.logger.Info("guest insert raced; reusing existing user", zap.String("email", profile.Email))
	user, lookupErr := s.users.FindByEmailOrNationalID(ctx, profile.Email, profile.NationalID)
	if lookupErr != nil {
		return nil, false, lookupErr
	}
	return user, false, nil
}

// ListForUser returns the user's requests ordered by id.
func (s *IntakeService) ListForUser(ctx context.Context, userID int64) ([]domain.ServiceRequest, error) {
	return s.requests.ListByUser(ctx, userID)
}
