package models

import (
	"time"

	id "turfwars/pkg/domain"
	dErrors "turfwars/pkg/domain-errors"
)

// MaxDefenders caps the defender roster per territory.
const MaxDefenders = 5

// Defender is one roster entry contributing to control strength.
type Defender struct {
	UserID   id.UserID `json:"user_id"`
	Username string    `json:"username"`
	Level    int       `json:"level"`
}

// Territory is the aggregate root for one contestable location.
//
// The descriptive fields (name, address, coordinates, rating) come from the
// external place source and are read-only here.
//
// Invariants:
//   - ControllingClubID is non-nil exactly when Defenders is non-empty
//   - len(Defenders) <= MaxDefenders
//   - ControlStrength equals the sum of defender levels (0 when unclaimed)
//   - TotalBattles only ever increases, and only on resolved challenges
type Territory struct {
	ID        id.TerritoryID `json:"id"`
	Name      string         `json:"name"`
	Address   string         `json:"address"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Rating    float64        `json:"rating"`

	ControllingClubID    id.ClubID `json:"controlling_club_id"`
	ControllingClubName  string    `json:"controlling_club_name,omitempty"`
	ControllingClubColor string    `json:"controlling_club_color,omitempty"`

	Defenders       []Defender `json:"defenders"`
	ControlStrength int        `json:"control_strength"`
	TotalBattles    int        `json:"total_battles"`

	// Version is the optimistic-concurrency token for claim, challenge,
	// and defend writes.
	Version int64 `json:"-"`

	UpdatedAt time.Time `json:"updated_at"`
}

// IsControlled reports whether any club holds the territory.
func (t *Territory) IsControlled() bool {
	return !t.ControllingClubID.IsNil()
}

// ControlledBy reports whether the given club holds the territory.
func (t *Territory) ControlledBy(clubID id.ClubID) bool {
	return t.ControllingClubID == clubID
}

// HasDefender reports whether the user is already on the roster.
func (t *Territory) HasDefender(userID id.UserID) bool {
	for _, d := range t.Defenders {
		if d.UserID == userID {
			return true
		}
	}
	return false
}

// CanClaim checks the territory is open for a claim.
func (t *Territory) CanClaim() error {
	if t.IsControlled() {
		return dErrors.New(dErrors.CodeConflict, "territory is already controlled")
	}
	return nil
}

// ApplyClaim hands the unclaimed territory to the club with the claimant as
// its first defender. Call CanClaim first.
func (t *Territory) ApplyClaim(clubID id.ClubID, clubName, clubColor string, first Defender, now time.Time) {
	t.ControllingClubID = clubID
	t.ControllingClubName = clubName
	t.ControllingClubColor = clubColor
	t.Defenders = []Defender{first}
	t.recomputeStrength()
	t.UpdatedAt = now
}

// CanAddDefender checks roster membership and capacity.
func (t *Territory) CanAddDefender(userID id.UserID) error {
	if t.HasDefender(userID) {
		return dErrors.New(dErrors.CodeConflict, "already defending this territory")
	}
	if len(t.Defenders) >= MaxDefenders {
		return dErrors.Newf(dErrors.CodeCapacity, "defender roster is full (%d)", MaxDefenders)
	}
	return nil
}

// ApplyDefender appends the defender and recomputes control strength.
// Call CanAddDefender first.
func (t *Territory) ApplyDefender(d Defender, now time.Time) {
	t.Defenders = append(t.Defenders, d)
	t.recomputeStrength()
	t.UpdatedAt = now
}

// ApplyTransfer reassigns ownership to the winning club, resetting the
// roster to the attacker alone.
func (t *Territory) ApplyTransfer(clubID id.ClubID, clubName, clubColor string, attacker Defender, now time.Time) {
	t.ControllingClubID = clubID
	t.ControllingClubName = clubName
	t.ControllingClubColor = clubColor
	t.Defenders = []Defender{attacker}
	t.recomputeStrength()
	t.UpdatedAt = now
}

// RecordBattle bumps the resolved-challenge counter. Claims do not count.
func (t *Territory) RecordBattle(now time.Time) {
	t.TotalBattles++
	t.UpdatedAt = now
}

// recomputeStrength rederives ControlStrength from the roster. Called on
// every roster change so the aggregate can never drift.
func (t *Territory) recomputeStrength() {
	sum := 0
	for _, d := range t.Defenders {
		sum += d.Level
	}
	t.ControlStrength = sum
}
