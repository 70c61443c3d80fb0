//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"turfwars/internal/territory/models"

	id "turfwars/pkg/domain"
	"turfwars/pkg/platform/sentinel"
	"turfwars/pkg/testutil/containers"
)

type TerritoryPostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *Postgres
}

func TestTerritoryPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(TerritoryPostgresStoreSuite))
}

func (s *TerritoryPostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.postgres.DB)
}

func (s *TerritoryPostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "territories"))
}

func newPostgresTerritory(name string) *models.Territory {
	return &models.Territory{
		ID:        id.NewTerritoryID(),
		Name:      name,
		Address:   "1 Dock Road",
		Latitude:  51.5,
		Longitude: -0.1,
		Rating:    4.2,
		Defenders: []models.Defender{},
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *TerritoryPostgresStoreSuite) TestPutAndFind() {
	ctx := context.Background()

	territory := newPostgresTerritory("Harbour Lights")
	s.Require().NoError(s.store.Put(ctx, territory))
	s.Equal(int64(1), territory.Version, "Put defaults the version token")

	found, err := s.store.FindByID(ctx, territory.ID)
	s.Require().NoError(err)
	s.Equal("Harbour Lights", found.Name)
	s.False(found.IsControlled())
	s.Empty(found.Defenders)

	_, err = s.store.FindByID(ctx, id.NewTerritoryID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestPutKeepsControlState re-importing place data must not clobber who
// controls the territory.
func (s *TerritoryPostgresStoreSuite) TestPutKeepsControlState() {
	ctx := context.Background()

	territory := newPostgresTerritory("Riverside Diner")
	s.Require().NoError(s.store.Put(ctx, territory))

	clubID := id.NewClubID()
	territory.ControllingClubID = clubID
	territory.ControllingClubName = "Night Owls"
	territory.Defenders = []models.Defender{{UserID: id.NewUserID(), Username: "ada", Level: 8}}
	territory.ControlStrength = 8
	s.Require().NoError(s.store.UpdateIfVersion(ctx, territory, 1))

	refreshed := newPostgresTerritory("Riverside Diner (renovated)")
	refreshed.ID = territory.ID
	refreshed.Rating = 4.8
	s.Require().NoError(s.store.Put(ctx, refreshed))

	found, err := s.store.FindByID(ctx, territory.ID)
	s.Require().NoError(err)
	s.Equal("Riverside Diner (renovated)", found.Name)
	s.Equal(4.8, found.Rating)
	s.Equal(clubID, found.ControllingClubID)
	s.Equal("Night Owls", found.ControllingClubName)
	s.Len(found.Defenders, 1)
	s.Equal(8, found.ControlStrength)
}

func (s *TerritoryPostgresStoreSuite) TestUpdateIfVersion() {
	ctx := context.Background()

	territory := newPostgresTerritory("Corner Cafe")
	s.Require().NoError(s.store.Put(ctx, territory))

	s.Run("matching version bumps the token", func() {
		territory.TotalBattles = 1
		s.Require().NoError(s.store.UpdateIfVersion(ctx, territory, 1))
		s.Equal(int64(2), territory.Version)
	})

	s.Run("stale version is rejected", func() {
		err := s.store.UpdateIfVersion(ctx, territory, 1)
		s.ErrorIs(err, sentinel.ErrVersionMismatch)
	})

	s.Run("missing territory reports not found", func() {
		ghost := newPostgresTerritory("Ghost Pier")
		ghost.Version = 1
		err := s.store.UpdateIfVersion(ctx, ghost, 1)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *TerritoryPostgresStoreSuite) TestDefendersRoundTrip() {
	ctx := context.Background()

	territory := newPostgresTerritory("Observatory")
	territory.Defenders = []models.Defender{
		{UserID: id.NewUserID(), Username: "grace", Level: 9},
		{UserID: id.NewUserID(), Username: "linus", Level: 7},
	}
	territory.ControlStrength = 16
	s.Require().NoError(s.store.Put(ctx, territory))

	found, err := s.store.FindByID(ctx, territory.ID)
	s.Require().NoError(err)
	s.Equal(territory.Defenders, found.Defenders)
	s.Equal(16, found.ControlStrength)
}

func (s *TerritoryPostgresStoreSuite) TestList() {
	ctx := context.Background()

	clubID := id.NewClubID()
	held := newPostgresTerritory("Arcade")
	held.ControllingClubID = clubID
	held.ControllingClubName = "Night Owls"
	rivalHeld := newPostgresTerritory("Bowling Alley")
	rivalHeld.ControllingClubID = id.NewClubID()
	free := newPostgresTerritory("Car Park")

	for _, territory := range []*models.Territory{free, rivalHeld, held} {
		s.Require().NoError(s.store.Put(ctx, territory))
	}

	s.Run("orders by name", func() {
		listed, err := s.store.List(ctx, Filter{})
		s.Require().NoError(err)
		s.Require().Len(listed, 3)
		s.Equal("Arcade", listed[0].Name)
	})

	s.Run("controlled filter", func() {
		controlled := true
		listed, err := s.store.List(ctx, Filter{Controlled: &controlled})
		s.Require().NoError(err)
		s.Len(listed, 2)

		controlled = false
		listed, err = s.store.List(ctx, Filter{Controlled: &controlled})
		s.Require().NoError(err)
		s.Require().Len(listed, 1)
		s.Equal("Car Park", listed[0].Name)
	})

	s.Run("club filter", func() {
		listed, err := s.store.List(ctx, Filter{ClubID: clubID})
		s.Require().NoError(err)
		s.Require().Len(listed, 1)
		s.Equal("Arcade", listed[0].Name)
	})

	s.Run("limit caps the page", func() {
		listed, err := s.store.List(ctx, Filter{Limit: 2})
		s.Require().NoError(err)
		s.Len(listed, 2)
	})
}
