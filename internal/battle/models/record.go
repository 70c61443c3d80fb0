package models

import (
	"time"

	id "turfwars/pkg/domain"
)

// BattleRecord is one append-only log entry per resolved challenge. Records
// are never mutated or deleted and the core never reads them for its own
// logic; they exist for audit and analytics.
type BattleRecord struct {
	ID               id.BattleID    `json:"id"`
	TerritoryID      id.TerritoryID `json:"territory_id"`
	AttackerClubID   id.ClubID      `json:"attacker_club_id"`
	AttackerUserID   id.UserID      `json:"attacker_user_id"`
	DefenderClubID   id.ClubID      `json:"defender_club_id"`
	AttackerPower    int            `json:"attacker_power"`
	DefenderStrength int            `json:"defender_strength"`
	Victory          bool           `json:"victory"`
	CreatedAt        time.Time      `json:"created_at"`
}
