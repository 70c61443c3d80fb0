// Package user is the narrow port to the external profile store. The core
// reads caller profiles and writes club references through it but does not
// own user lifecycle.
package user

import (
	"context"

	id "turfwars/pkg/domain"
)

// Role is the caller's role within their club, mirrored onto the profile so
// other subsystems can display it without loading the club.
type Role string

const (
	RoleFounder Role = "founder"
	RoleOfficer Role = "officer"
	RoleMember  Role = "member"
)

// User is the slice of the external profile this core consumes.
type User struct {
	ID       id.UserID
	Username string
	Avatar   string
	Level    int

	// ClubID is nil while the user has no club; ClubRole is empty then.
	ClubID   id.ClubID
	ClubRole Role
}

// HasClub reports whether the profile currently references a club.
func (u *User) HasClub() bool {
	return !u.ClubID.IsNil()
}

// Directory is the interface the external profile store exposes to this
// core. Implementations return sentinel.ErrNotFound for unknown users.
//
// SetUserClub is conditional: linking a profile that already references a
// different club returns sentinel.ErrAlreadyExists. Role changes within the
// current club succeed. That makes "one club per user" hold under concurrent
// joins instead of relying on a check-then-act read.
type Directory interface {
	GetUser(ctx context.Context, userID id.UserID) (*User, error)
	SetUserClub(ctx context.Context, userID id.UserID, clubID id.ClubID, role Role) error
	ClearUserClub(ctx context.Context, userID id.UserID) error
}
