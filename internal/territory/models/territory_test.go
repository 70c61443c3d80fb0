package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "turfwars/pkg/domain"
	dErrors "turfwars/pkg/domain-errors"
)

func unclaimed() *Territory {
	return &Territory{
		ID:        id.NewTerritoryID(),
		Name:      "Riverside Diner",
		Defenders: []Defender{},
		Version:   1,
	}
}

func TestClaim(t *testing.T) {
	clubID := id.NewClubID()
	now := time.Now()

	t.Run("claim takes ownership with claimant as first defender", func(t *testing.T) {
		territory := unclaimed()
		require.NoError(t, territory.CanClaim())

		territory.ApplyClaim(clubID, "Night Owls", "#112233", Defender{UserID: id.NewUserID(), Username: "ada", Level: 8}, now)

		assert.True(t, territory.IsControlled())
		assert.True(t, territory.ControlledBy(clubID))
		assert.Equal(t, "Night Owls", territory.ControllingClubName)
		assert.Len(t, territory.Defenders, 1)
		assert.Equal(t, 8, territory.ControlStrength)
	})

	t.Run("controlled territory cannot be claimed", func(t *testing.T) {
		territory := unclaimed()
		territory.ApplyClaim(clubID, "Night Owls", "", Defender{UserID: id.NewUserID(), Level: 5}, now)

		err := territory.CanClaim()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func TestDefenders(t *testing.T) {
	clubID := id.NewClubID()
	now := time.Now()

	t.Run("strength is the sum of defender levels", func(t *testing.T) {
		territory := unclaimed()
		territory.ApplyClaim(clubID, "Night Owls", "", Defender{UserID: id.NewUserID(), Level: 8}, now)
		territory.ApplyDefender(Defender{UserID: id.NewUserID(), Level: 5}, now)
		territory.ApplyDefender(Defender{UserID: id.NewUserID(), Level: 3}, now)

		assert.Equal(t, 16, territory.ControlStrength)
	})

	t.Run("duplicate defender is rejected", func(t *testing.T) {
		territory := unclaimed()
		userID := id.NewUserID()
		territory.ApplyClaim(clubID, "Night Owls", "", Defender{UserID: userID, Level: 8}, now)

		err := territory.CanAddDefender(userID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("roster caps at the maximum", func(t *testing.T) {
		territory := unclaimed()
		territory.ApplyClaim(clubID, "Night Owls", "", Defender{UserID: id.NewUserID(), Level: 1}, now)
		for i := 1; i < MaxDefenders; i++ {
			userID := id.NewUserID()
			require.NoError(t, territory.CanAddDefender(userID))
			territory.ApplyDefender(Defender{UserID: userID, Level: 1}, now)
		}

		err := territory.CanAddDefender(id.NewUserID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCapacity))
	})
}

func TestTransfer(t *testing.T) {
	now := time.Now()

	t.Run("transfer resets roster to the attacker", func(t *testing.T) {
		territory := unclaimed()
		defenderClub := id.NewClubID()
		territory.ApplyClaim(defenderClub, "Holders", "", Defender{UserID: id.NewUserID(), Level: 8}, now)
		territory.ApplyDefender(Defender{UserID: id.NewUserID(), Level: 5}, now)

		attackerClub := id.NewClubID()
		territory.ApplyTransfer(attackerClub, "Raiders", "#ff0000", Defender{UserID: id.NewUserID(), Username: "grace", Level: 9}, now)

		assert.True(t, territory.ControlledBy(attackerClub))
		assert.Equal(t, "Raiders", territory.ControllingClubName)
		assert.Len(t, territory.Defenders, 1)
		assert.Equal(t, 9, territory.ControlStrength)
	})

	t.Run("battle counter only moves on record", func(t *testing.T) {
		territory := unclaimed()
		territory.ApplyClaim(id.NewClubID(), "Holders", "", Defender{UserID: id.NewUserID(), Level: 8}, now)
		assert.Equal(t, 0, territory.TotalBattles)

		territory.RecordBattle(now)
		territory.RecordBattle(now)
		assert.Equal(t, 2, territory.TotalBattles)
	})
}
