// Package domain holds the typed identifiers shared across modules.
//
// IDs are distinct uuid wrappers so the compiler rejects cross-entity mixups
// (passing a ClubID where a TerritoryID is expected fails to compile).
package domain

import (
	"github.com/google/uuid"

	dErrors "turfwars/pkg/domain-errors"
)

type (
	// UserID identifies a caller in the external profile store.
	UserID uuid.UUID
	// ClubID identifies a club aggregate.
	ClubID uuid.UUID
	// TerritoryID identifies a territory aggregate. It is stable and tied to
	// an external place reference supplied at import time.
	TerritoryID uuid.UUID
	// BattleID identifies one immutable battle record.
	BattleID uuid.UUID
)

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id cannot be nil")
	}
	return u, nil
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

// ParseClubID validates and returns a ClubID.
func ParseClubID(s string) (ClubID, error) {
	u, err := parseUUID(s, "club")
	return ClubID(u), err
}

// ParseTerritoryID validates and returns a TerritoryID.
func ParseTerritoryID(s string) (TerritoryID, error) {
	u, err := parseUUID(s, "territory")
	return TerritoryID(u), err
}

func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id ClubID) String() string      { return uuid.UUID(id).String() }
func (id TerritoryID) String() string { return uuid.UUID(id).String() }
func (id BattleID) String() string    { return uuid.UUID(id).String() }

// The wrappers are defined types, not aliases, so uuid.UUID's text marshaling
// is not promoted; without these methods encoding/json would render IDs as
// 16-element byte arrays.

func (id UserID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id ClubID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id TerritoryID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id BattleID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *ClubID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = ClubID(u)
	return nil
}

func (id *TerritoryID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = TerritoryID(u)
	return nil
}

func (id *BattleID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = BattleID(u)
	return nil
}

func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ClubID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id TerritoryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id BattleID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewClubID returns a fresh random ClubID.
func NewClubID() ClubID { return ClubID(uuid.New()) }

// NewTerritoryID returns a fresh random TerritoryID.
func NewTerritoryID() TerritoryID { return TerritoryID(uuid.New()) }

// NewBattleID returns a fresh random BattleID.
func NewBattleID() BattleID { return BattleID(uuid.New()) }
