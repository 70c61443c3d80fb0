//go:build integration

package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"turfwars/internal/club/models"

	id "turfwars/pkg/domain"
	"turfwars/pkg/platform/sentinel"
	"turfwars/pkg/testutil/containers"
)

type ClubPostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *Postgres
}

func TestClubPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ClubPostgresStoreSuite))
}

func (s *ClubPostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.postgres.DB)
}

func (s *ClubPostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "clubs"))
}

func newPostgresClub(name string) *models.Club {
	founderID := id.NewUserID()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Club{
		ID:             id.NewClubID(),
		Name:           name,
		Tag:            "TEST",
		FounderID:      founderID,
		Officers:       []id.UserID{},
		Members:        []id.UserID{founderID},
		MemberCount:    1,
		TotalPower:     5,
		IsRecruiting:   true,
		MinLevelToJoin: 1,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *ClubPostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()

	club := newPostgresClub("Night Owls " + uuid.NewString())
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, club))

	found, err := s.store.FindByID(ctx, club.ID)
	s.Require().NoError(err)
	s.Equal(club.Name, found.Name)
	s.Equal(club.FounderID, found.FounderID)
	s.Equal(club.Members, found.Members)
	s.Equal(int64(1), found.Version)

	_, err = s.store.FindByID(ctx, id.NewClubID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentCreateSameName verifies that the name_key index lets exactly
// one of many racing creations through.
func (s *ClubPostgresStoreSuite) TestConcurrentCreateSameName() {
	ctx := context.Background()
	name := "Contested " + uuid.NewString()
	const goroutines = 20

	var wg sync.WaitGroup
	var created, conflicted atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.CreateIfNameAvailable(ctx, newPostgresClub(name))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyExists):
				conflicted.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load(), "exactly one create should win")
	s.Equal(int32(goroutines-1), conflicted.Load())
}

func (s *ClubPostgresStoreSuite) TestNameUniquenessIsCaseInsensitive() {
	ctx := context.Background()

	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, newPostgresClub("Harbour Kings")))

	err := s.store.CreateIfNameAvailable(ctx, newPostgresClub("HARBOUR KINGS"))
	s.ErrorIs(err, sentinel.ErrAlreadyExists)
}

func (s *ClubPostgresStoreSuite) TestUpdateIfVersion() {
	ctx := context.Background()

	club := newPostgresClub("Versioned " + uuid.NewString())
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, club))

	s.Run("matching version bumps the token", func() {
		club.Wins = 3
		s.Require().NoError(s.store.UpdateIfVersion(ctx, club, 1))
		s.Equal(int64(2), club.Version)

		found, err := s.store.FindByID(ctx, club.ID)
		s.Require().NoError(err)
		s.Equal(3, found.Wins)
		s.Equal(int64(2), found.Version)
	})

	s.Run("stale version is rejected", func() {
		err := s.store.UpdateIfVersion(ctx, club, 1)
		s.ErrorIs(err, sentinel.ErrVersionMismatch)
	})

	s.Run("missing club reports not found", func() {
		ghost := newPostgresClub("Ghost " + uuid.NewString())
		err := s.store.UpdateIfVersion(ctx, ghost, 1)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rename onto a taken name is rejected", func() {
		other := newPostgresClub("Taken " + uuid.NewString())
		s.Require().NoError(s.store.CreateIfNameAvailable(ctx, other))

		club.Name = other.Name
		err := s.store.UpdateIfVersion(ctx, club, club.Version)
		s.ErrorIs(err, sentinel.ErrAlreadyExists)
	})
}

// TestConcurrentVersionedUpdates hammers one row; every successful write must
// consume a distinct version.
func (s *ClubPostgresStoreSuite) TestConcurrentVersionedUpdates() {
	ctx := context.Background()

	club := newPostgresClub("Hammered " + uuid.NewString())
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, club))

	const goroutines = 10
	var wg sync.WaitGroup
	var succeeded atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			copied, err := s.store.FindByID(ctx, club.ID)
			if err != nil {
				return
			}
			copied.TotalPower++
			if err := s.store.UpdateIfVersion(ctx, copied, copied.Version); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	found, err := s.store.FindByID(ctx, club.ID)
	s.Require().NoError(err)
	s.GreaterOrEqual(succeeded.Load(), int32(1))
	s.Equal(int64(1)+int64(succeeded.Load()), found.Version)
	s.Equal(5+int(succeeded.Load()), found.TotalPower)
}

func (s *ClubPostgresStoreSuite) TestDeleteFreesName() {
	ctx := context.Background()

	club := newPostgresClub("Disbanded " + uuid.NewString())
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, club))
	s.Require().NoError(s.store.Delete(ctx, club.ID))

	_, err := s.store.FindByID(ctx, club.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.NoError(s.store.CreateIfNameAvailable(ctx, newPostgresClub(club.Name)))
	s.NoError(s.store.Delete(ctx, id.NewClubID()), "deleting an absent club is a no-op")
}

func (s *ClubPostgresStoreSuite) TestList() {
	ctx := context.Background()

	open := newPostgresClub("Alpha Lounge")
	open.MinLevelToJoin = 3
	closed := newPostgresClub("Beta Bar")
	closed.IsRecruiting = false
	elite := newPostgresClub("Gamma Grill")
	elite.MinLevelToJoin = 20

	for _, club := range []*models.Club{elite, closed, open} {
		s.Require().NoError(s.store.CreateIfNameAvailable(ctx, club))
	}

	s.Run("orders by name", func() {
		listed, err := s.store.List(ctx, Filter{})
		s.Require().NoError(err)
		s.Require().Len(listed, 3)
		s.Equal("Alpha Lounge", listed[0].Name)
		s.Equal("Beta Bar", listed[1].Name)
		s.Equal("Gamma Grill", listed[2].Name)
	})

	s.Run("recruiting filter drops closed clubs", func() {
		listed, err := s.store.List(ctx, Filter{RecruitingOnly: true})
		s.Require().NoError(err)
		s.Require().Len(listed, 2)
		for _, club := range listed {
			s.True(club.IsRecruiting)
		}
	})

	s.Run("max min level filter drops elite clubs", func() {
		listed, err := s.store.List(ctx, Filter{MaxMinLevel: 5})
		s.Require().NoError(err)
		s.Require().Len(listed, 2)
	})

	s.Run("limit caps the page", func() {
		listed, err := s.store.List(ctx, Filter{Limit: 1})
		s.Require().NoError(err)
		s.Require().Len(listed, 1)
		s.Equal("Alpha Lounge", listed[0].Name)
	})
}
