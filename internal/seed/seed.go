// Package seed loads a small demo world for local development.
package seed

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	territorymodels "turfwars/internal/territory/models"
	territorystore "turfwars/internal/territory/store"
	"turfwars/internal/user"

	id "turfwars/pkg/domain"
)

// demoUsers use fixed IDs so dev tokens stay valid across restarts.
var demoUsers = []*user.User{
	{ID: mustUserID("7c9e6679-7425-40de-944b-e07fc1f90ae1"), Username: "ada", Avatar: "🦾", Level: 12},
	{ID: mustUserID("7c9e6679-7425-40de-944b-e07fc1f90ae2"), Username: "grace", Avatar: "🐞", Level: 9},
	{ID: mustUserID("7c9e6679-7425-40de-944b-e07fc1f90ae3"), Username: "linus", Avatar: "🐧", Level: 7},
	{ID: mustUserID("7c9e6679-7425-40de-944b-e07fc1f90ae4"), Username: "margaret", Avatar: "🚀", Level: 15},
}

var demoTerritories = []*territorymodels.Territory{
	{ID: mustTerritoryID("3f2504e0-4f89-41d3-9a0c-0305e82c0001"), Name: "Riverside Diner", Address: "12 Quay St", Latitude: 51.5072, Longitude: -0.1276, Rating: 4.4},
	{ID: mustTerritoryID("3f2504e0-4f89-41d3-9a0c-0305e82c0002"), Name: "Old Mill Brewery", Address: "7 Granary Ln", Latitude: 51.5101, Longitude: -0.1180, Rating: 4.7},
	{ID: mustTerritoryID("3f2504e0-4f89-41d3-9a0c-0305e82c0003"), Name: "Corner Arcade", Address: "44 King's Rd", Latitude: 51.4900, Longitude: -0.1400, Rating: 4.1},
	{ID: mustTerritoryID("3f2504e0-4f89-41d3-9a0c-0305e82c0004"), Name: "Harbour Lights Cafe", Address: "3 Pier Approach", Latitude: 51.5030, Longitude: -0.1150, Rating: 4.9},
	{ID: mustTerritoryID("3f2504e0-4f89-41d3-9a0c-0305e82c0005"), Name: "Summit Climbing Gym", Address: "90 Hillcrest Ave", Latitude: 51.5200, Longitude: -0.1050, Rating: 4.5},
}

// Signer mints dev tokens so seeded users are usable immediately.
type Signer interface {
	Sign(userID id.UserID, level int) (string, error)
}

// Demo loads the demo users and territories. Territories go through Put, so
// re-seeding an existing world refreshes descriptive fields without touching
// control state.
func Demo(ctx context.Context, users *user.InMemory, territories territorystore.Store, signer Signer, logger *slog.Logger) error {
	for _, u := range demoUsers {
		users.Put(u)
		if signer != nil {
			token, err := signer.Sign(u.ID, u.Level)
			if err != nil {
				return err
			}
			logger.InfoContext(ctx, "seeded demo user",
				"username", u.Username, "user_id", u.ID.String(), "token", token)
		}
	}

	now := time.Now()
	for _, t := range demoTerritories {
		t.Defenders = []territorymodels.Defender{}
		t.UpdatedAt = now
		if err := territories.Put(ctx, t); err != nil {
			return err
		}
	}
	logger.InfoContext(ctx, "demo world seeded",
		"users", len(demoUsers), "territories", len(demoTerritories))
	return nil
}

func mustUserID(s string) id.UserID {
	return id.UserID(uuid.MustParse(s))
}

func mustTerritoryID(s string) id.TerritoryID {
	return id.TerritoryID(uuid.MustParse(s))
}
