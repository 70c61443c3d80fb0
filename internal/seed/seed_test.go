package seed

import (
	"context"
	"log/slog"
	"testing"

	"turfwars/internal/platform/token"
	territorystore "turfwars/internal/territory/store"
	"turfwars/internal/user"

	"turfwars/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestDemo(t *testing.T) {
	testutil.Given(t, "an empty dev world", func(t *testing.T) {
		ctx := context.Background()
		users := user.NewInMemory()
		territories := territorystore.NewInMemory()
		validator := token.NewValidator("test-signing-key")

		testutil.When(t, "seeding the demo data", func(t *testing.T) {
			if err := Demo(ctx, users, territories, validator, discardLogger()); err != nil {
				t.Fatalf("seed demo: %v", err)
			}

			testutil.Then(t, "every demo user resolves with a valid token", func(t *testing.T) {
				for _, seeded := range demoUsers {
					u, err := users.GetUser(ctx, seeded.ID)
					if err != nil {
						t.Fatalf("get user %s: %v", seeded.Username, err)
					}
					if u.HasClub() {
						t.Fatalf("demo user %s should start without a club", u.Username)
					}

					tok, err := validator.Sign(u.ID, u.Level)
					if err != nil {
						t.Fatalf("sign token: %v", err)
					}
					claims, err := validator.ValidateToken(tok)
					if err != nil {
						t.Fatalf("validate token: %v", err)
					}
					if claims.UserID != u.ID || claims.Level != u.Level {
						t.Fatalf("token claims mismatch for %s", u.Username)
					}
				}
			})

			testutil.Then(t, "every demo territory starts unclaimed", func(t *testing.T) {
				listed, err := territories.List(ctx, territorystore.Filter{})
				if err != nil {
					t.Fatalf("list territories: %v", err)
				}
				if len(listed) != len(demoTerritories) {
					t.Fatalf("expected %d territories, got %d", len(demoTerritories), len(listed))
				}
				for _, territory := range listed {
					if territory.IsControlled() {
						t.Fatalf("territory %s should start unclaimed", territory.Name)
					}
				}
			})
		})

		testutil.When(t, "seeding again", func(t *testing.T) {
			if err := Demo(ctx, users, territories, validator, discardLogger()); err != nil {
				t.Fatalf("re-seed demo: %v", err)
			}

			testutil.Then(t, "the world is not duplicated", func(t *testing.T) {
				listed, err := territories.List(ctx, territorystore.Filter{})
				if err != nil {
					t.Fatalf("list territories: %v", err)
				}
				if len(listed) != len(demoTerritories) {
					t.Fatalf("expected %d territories, got %d", len(demoTerritories), len(listed))
				}
			})
		})
	})
}
