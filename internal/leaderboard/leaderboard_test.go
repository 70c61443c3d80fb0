package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"turfwars/internal/club/models"
	"turfwars/internal/club/store"

	id "turfwars/pkg/domain"
)

type LeaderboardSuite struct {
	suite.Suite
	clubs *store.InMemory
}

func TestLeaderboardSuite(t *testing.T) {
	suite.Run(t, new(LeaderboardSuite))
}

func (s *LeaderboardSuite) SetupTest() {
	s.clubs = store.NewInMemory()
}

func (s *LeaderboardSuite) seedClub(name string, territories, power int) *models.Club {
	club, err := models.NewClub(id.NewClubID(), id.NewUserID(), power, models.CreateClubInput{Name: name}, time.Now())
	s.Require().NoError(err)
	club.TerritoriesControlled = territories
	s.Require().NoError(s.clubs.CreateIfNameAvailable(context.Background(), club))
	return club
}

func (s *LeaderboardSuite) TestTop() {
	ctx := context.Background()

	s.Run("orders by territories then power then name", func() {
		s.seedClub("Gamma", 2, 10)
		s.seedClub("Alpha", 5, 3)
		s.seedClub("Beta", 2, 30)
		s.seedClub("Delta", 2, 10)

		p := New(s.clubs, 0)
		entries, err := p.Top(ctx, 0)
		s.Require().NoError(err)
		s.Require().Len(entries, 4)

		s.Equal("Alpha", entries[0].Name)
		s.Equal(1, entries[0].Rank)
		s.Equal("Beta", entries[1].Name)
		s.Equal("Delta", entries[2].Name)
		s.Equal("Gamma", entries[3].Name)
		s.Equal(4, entries[3].Rank)
	})

	s.Run("limit caps the board", func() {
		p := New(s.clubs, 0)
		entries, err := p.Top(ctx, 2)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		s.Equal("Alpha", entries[0].Name)
	})
}

func (s *LeaderboardSuite) TestCache() {
	ctx := context.Background()
	s.seedClub("Alpha", 5, 3)

	p := New(s.clubs, time.Minute)
	entries, err := p.Top(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)

	// New standings inside the TTL are not visible yet.
	s.seedClub("Beta", 9, 3)
	entries, err = p.Top(ctx, 10)
	s.Require().NoError(err)
	s.Len(entries, 1)

	// Zero TTL recomputes every call.
	fresh := New(s.clubs, 0)
	entries, err = fresh.Top(ctx, 10)
	s.Require().NoError(err)
	s.Len(entries, 2)
}
