package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"turfwars/internal/territory/models"

	id "turfwars/pkg/domain"
	"turfwars/pkg/platform/sentinel"
)

type TerritoryMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
}

func TestTerritoryMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(TerritoryMemoryStoreSuite))
}

func (s *TerritoryMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *TerritoryMemoryStoreSuite) newTerritory(name string) *models.Territory {
	return &models.Territory{
		ID:        id.NewTerritoryID(),
		Name:      name,
		Defenders: []models.Defender{},
	}
}

func (s *TerritoryMemoryStoreSuite) TestPutAndFind() {
	ctx := context.Background()

	s.Run("put defaults version to one", func() {
		territory := s.newTerritory("Riverside Diner")
		s.Require().NoError(s.store.Put(ctx, territory))

		found, err := s.store.FindByID(ctx, territory.ID)
		s.Require().NoError(err)
		s.Equal(int64(1), found.Version)
	})

	s.Run("missing territory is not found", func() {
		_, err := s.store.FindByID(ctx, id.NewTerritoryID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("reads return copies", func() {
		territory := s.newTerritory("Copy Cafe")
		s.Require().NoError(s.store.Put(ctx, territory))

		found, err := s.store.FindByID(ctx, territory.ID)
		s.Require().NoError(err)
		found.Defenders = append(found.Defenders, models.Defender{UserID: id.NewUserID(), Level: 5})

		again, err := s.store.FindByID(ctx, territory.ID)
		s.Require().NoError(err)
		s.Empty(again.Defenders)
	})
}

func (s *TerritoryMemoryStoreSuite) TestUpdateIfVersion() {
	ctx := context.Background()

	s.Run("matching version persists and bumps", func() {
		territory := s.newTerritory("Old Mill Brewery")
		s.Require().NoError(s.store.Put(ctx, territory))

		territory.ApplyClaim(id.NewClubID(), "Night Owls", "", models.Defender{UserID: id.NewUserID(), Level: 8}, time.Now())
		s.Require().NoError(s.store.UpdateIfVersion(ctx, territory, 1))
		s.Equal(int64(2), territory.Version)

		found, err := s.store.FindByID(ctx, territory.ID)
		s.Require().NoError(err)
		s.True(found.IsControlled())
		s.Equal(8, found.ControlStrength)
	})

	s.Run("stale version is rejected", func() {
		territory := s.newTerritory("Corner Arcade")
		s.Require().NoError(s.store.Put(ctx, territory))
		s.Require().NoError(s.store.UpdateIfVersion(ctx, territory, 1))

		err := s.store.UpdateIfVersion(ctx, territory, 1)
		s.ErrorIs(err, sentinel.ErrVersionMismatch)
	})
}

func (s *TerritoryMemoryStoreSuite) TestList() {
	ctx := context.Background()
	clubID := id.NewClubID()

	controlled := s.newTerritory("Harbour Lights")
	controlled.ApplyClaim(clubID, "Night Owls", "", models.Defender{UserID: id.NewUserID(), Level: 5}, time.Now())
	free := s.newTerritory("Summit Gym")
	other := s.newTerritory("Riverside Diner")
	other.ApplyClaim(id.NewClubID(), "Raiders", "", models.Defender{UserID: id.NewUserID(), Level: 5}, time.Now())
	for _, territory := range []*models.Territory{controlled, free, other} {
		s.Require().NoError(s.store.Put(ctx, territory))
	}

	s.Run("controlled filter", func() {
		yes := true
		territories, err := s.store.List(ctx, Filter{Controlled: &yes})
		s.Require().NoError(err)
		s.Len(territories, 2)

		no := false
		territories, err = s.store.List(ctx, Filter{Controlled: &no})
		s.Require().NoError(err)
		s.Require().Len(territories, 1)
		s.Equal("Summit Gym", territories[0].Name)
	})

	s.Run("club filter", func() {
		territories, err := s.store.List(ctx, Filter{ClubID: clubID})
		s.Require().NoError(err)
		s.Require().Len(territories, 1)
		s.Equal("Harbour Lights", territories[0].Name)
	})

	s.Run("limit with name ordering", func() {
		territories, err := s.store.List(ctx, Filter{Limit: 2})
		s.Require().NoError(err)
		s.Require().Len(territories, 2)
		s.Equal("Harbour Lights", territories[0].Name)
		s.Equal("Riverside Diner", territories[1].Name)
	})
}
