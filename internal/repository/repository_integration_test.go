//go:build integration

package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/spec-kit/townhall-portal/internal/domain"
	"github.com/spec-kit/townhall-portal/internal/repository"
	"github.com/spec-kit/townhall-portal/internal/testutil/containers"
)

type RepositorySuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	users    repository.UserRepository
	requests repository.RequestRepository
	resets   repository.PasswordResetRepository
}

func TestRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.pg = containers.NewPostgres(s.T())
	s.users = repository.NewUserRepository(s.pg.Pool)
	s.requests = repository.NewRequestRepository(s.pg.Pool)
	s.resets = repository.NewPasswordResetRepository(s.pg.Pool)
}

func (s *RepositorySuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background()))
}

func profile() domain.Profile {
	return domain.Profile{
		FirstName:  "JAN",
		LastName:   "KOWALSKI",
		NationalID: "44051401359",
		Email:      "jan@example.pl",
	}
}

func (s *RepositorySuite) TestGuestRoundTrip() {
	ctx := context.Background()
	guest, err := s.users.InsertGuest(ctx, profile())
	s.Require().NoError(err)
	s.Positive(guest.ID)

	found, err := s.users.FindByEmailOrNationalID(ctx, "nobody@example.pl", "44051401359")
	s.Require().NoError(err)
	s.Equal(guest.ID, found.ID)
	s.True(found.IsGuest())
	s.False(found.Active)
	s.Empty(found.Profile.MiddleName)
	s.Empty(found.Profile.Phone)
}

func (s *RepositorySuite) TestFindMissing() {
	_, err := s.users.FindByEmail(context.Background(), "nobody@example.pl")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *RepositorySuite) TestDuplicateEmailAndNationalID() {
	ctx := context.Background()
	_, err := s.users.InsertRegistered(ctx, profile(), "hash")
	s.Require().NoError(err)

	sameEmail := profile()
	sameEmail.NationalID = "02070803628"
	_, err = s.users.InsertGuest(ctx, sameEmail)
	s.ErrorIs(err, repository.ErrDuplicateKey)

	samePESEL := profile()
	samePESEL.Email = "other@example.pl"
	_, err = s.users.InsertRegistered(ctx, samePESEL, "hash")
	s.ErrorIs(err, repository.ErrDuplicateKey)
}

func (s *RepositorySuite) TestConcurrentInsertsOneWins() {
	ctx := context.Background()
	const n = 8

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.users.InsertRegistered(ctx, profile(), "hash")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, repository.ErrDuplicateKey):
			dup++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, ok)
	s.Equal(n-1, dup)
}

func (s *RepositorySuite) TestUpgradeGuestOnlyOnce() {
	ctx := context.Background()
	guest, err := s.users.InsertGuest(ctx, profile())
	s.Require().NoError(err)

	in := profile()
	in.FirstName = "JANEK"
	in.MiddleName = "PIOTR"
	in.Phone = "600700800"
	s.Require().NoError(s.users.UpgradeGuestToRegistered(ctx, guest.ID, in, "first"))

	err = s.users.UpgradeGuestToRegistered(ctx, guest.ID, in, "second")
	s.ErrorIs(err, repository.ErrDuplicateKey)

	user, err := s.users.GetByID(ctx, guest.ID)
	s.Require().NoError(err)
	credential, ok := user.Credential()
	s.True(ok)
	s.Equal("first", credential)
	s.True(user.Active)
	s.Equal("JANEK", user.Profile.FirstName)
	s.Equal("600700800", user.Profile.Phone)
	s.Empty(user.Profile.MiddleName)

	err = s.users.UpgradeGuestToRegistered(ctx, 9999, in, "x")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *RepositorySuite) TestRequestsSequentialAndForeignKey() {
	ctx := context.Background()
	guest, err := s.users.InsertGuest(ctx, profile())
	s.Require().NoError(err)

	for i := range 2 {
		req := &domain.ServiceRequest{UserID: guest.ID, Category: domain.RequestCategoryID, Subcategory: "Lost ID", Description: "gone"}
		s.Require().NoError(s.requests.Insert(ctx, req))
		s.Equal(int64(i+1), req.ID)
		s.False(req.SubmittedAt.IsZero())
	}

	list, err := s.requests.ListByUser(ctx, guest.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("REQ-1", list[0].TrackingCode())
	s.Equal("REQ-2", list[1].TrackingCode())

	err = s.requests.Insert(ctx, &domain.ServiceRequest{UserID: 9999, Category: domain.RequestCategoryGeneral, Subcategory: "Fees", Description: "x"})
	s.ErrorIs(err, repository.ErrForeignKeyViolation)
}

func (s *RepositorySuite) TestPasswordResetTokenSingleUse() {
	ctx := context.Background()
	user, err := s.users.InsertRegistered(ctx, profile(), "hash")
	s.Require().NoError(err)

	token := &domain.PasswordResetToken{UserID: user.ID, Token: "tok-1", ExpiresAt: time.Now().Add(time.Hour)}
	s.Require().NoError(s.resets.Create(ctx, token))
	s.NotEmpty(token.ID)

	stored, err := s.resets.GetByToken(ctx, "tok-1")
	s.Require().NoError(err)
	s.True(stored.UsableAt(time.Now()))

	s.Require().NoError(s.resets.MarkUsed(ctx, stored.ID))
	s.ErrorIs(s.resets.MarkUsed(ctx, stored.ID), repository.ErrNotFound)

	_, err = s.resets.GetByToken(ctx, "missing")
	s.ErrorIs(err, repository.ErrNotFound)
}
