package models

import (
	"strings"
	"time"

	id "turfwars/pkg/domain"
	dErrors "turfwars/pkg/domain-errors"
)

// Role is a member's standing inside a club.
type Role string

const (
	RoleFounder Role = "founder"
	RoleOfficer Role = "officer"
	RoleMember  Role = "member"
)

// Club is the aggregate root for a persistent team.
//
// Invariants:
//   - Name is unique across clubs (case-insensitive), at least 3 characters
//   - Tag is at most 5 characters, stored uppercase
//   - FounderID is always present in Members
//   - Officers is a subset of Members and never contains FounderID
//   - MemberCount always equals len(Members)
//   - TotalPower is the sum of member levels, maintained incrementally
//   - MinLevelToJoin is at least 1
//
// A user belongs to at most one club at a time; that side of the invariant is
// enforced at the service layer against the external profile store, since the
// club document cannot see other clubs' member sets.
type Club struct {
	ID          id.ClubID `json:"id"`
	Name        string    `json:"name"`
	Tag         string    `json:"tag"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Emblem      string    `json:"emblem"`

	FounderID id.UserID   `json:"founder_id"`
	Officers  []id.UserID `json:"officers"`
	Members   []id.UserID `json:"members"`

	MemberCount int `json:"member_count"`
	TotalPower  int `json:"total_power"`

	TerritoriesControlled int `json:"territories_controlled"`
	Wins                  int `json:"wins"`
	Losses                int `json:"losses"`

	IsRecruiting   bool `json:"is_recruiting"`
	MinLevelToJoin int  `json:"min_level_to_join"`

	// Version is the optimistic-concurrency token; stores reject writes
	// whose expected version no longer matches.
	Version int64 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateClubInput carries the caller-supplied fields for club creation.
type CreateClubInput struct {
	Name           string
	Tag            string
	Description    string
	Color          string
	MinLevelToJoin int
}

const (
	minNameLen = 3
	maxNameLen = 64
	maxTagLen  = 5
)

// NewClub validates input and constructs a club with the founder as its sole
// member.
func NewClub(clubID id.ClubID, founderID id.UserID, founderLevel int, in CreateClubInput, now time.Time) (*Club, error) {
	name := strings.TrimSpace(in.Name)
	if len(name) < minNameLen {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "club name must be at least %d characters", minNameLen)
	}
	if len(name) > maxNameLen {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "club name must be at most %d characters", maxNameLen)
	}
	tag := strings.ToUpper(strings.TrimSpace(in.Tag))
	if len(tag) > maxTagLen {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "club tag must be at most %d characters", maxTagLen)
	}
	minLevel := in.MinLevelToJoin
	if minLevel < 1 {
		minLevel = 1
	}

	return &Club{
		ID:             clubID,
		Name:           name,
		Tag:            tag,
		Description:    in.Description,
		Color:          in.Color,
		FounderID:      founderID,
		Officers:       []id.UserID{},
		Members:        []id.UserID{founderID},
		MemberCount:    1,
		TotalPower:     founderLevel,
		IsRecruiting:   true,
		MinLevelToJoin: minLevel,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsMember reports whether the user is in the member set.
func (c *Club) IsMember(userID id.UserID) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// IsOfficer reports whether the user is in the officer set.
func (c *Club) IsOfficer(userID id.UserID) bool {
	for _, o := range c.Officers {
		if o == userID {
			return true
		}
	}
	return false
}

// RoleOf returns the user's role, or "" for non-members.
func (c *Club) RoleOf(userID id.UserID) Role {
	switch {
	case userID == c.FounderID:
		return RoleFounder
	case c.IsOfficer(userID):
		return RoleOfficer
	case c.IsMember(userID):
		return RoleMember
	default:
		return ""
	}
}

// CanAdmit checks join eligibility against recruiting state and level gate.
// The "caller already has a club" check happens at the service layer.
func (c *Club) CanAdmit(level int) error {
	if !c.IsRecruiting {
		return dErrors.New(dErrors.CodeForbidden, "club is not recruiting")
	}
	if level < c.MinLevelToJoin {
		return dErrors.Newf(dErrors.CodeForbidden, "level %d required to join", c.MinLevelToJoin)
	}
	return nil
}

// ApplyJoin admits the user, maintaining the derived aggregates.
// Call CanAdmit first.
func (c *Club) ApplyJoin(userID id.UserID, level int, now time.Time) {
	c.Members = append(c.Members, userID)
	c.MemberCount = len(c.Members)
	c.TotalPower += level
	c.UpdatedAt = now
}

// ApplyLeave removes the user from the member and officer sets, maintaining
// the derived aggregates. Founder succession is a separate step
// (PromoteSuccessor) so callers control ordering.
func (c *Club) ApplyLeave(userID id.UserID, level int, now time.Time) {
	c.Members = removeID(c.Members, userID)
	c.Officers = removeID(c.Officers, userID)
	c.MemberCount = len(c.Members)
	c.TotalPower -= level
	c.UpdatedAt = now
}

// IsSoleMember reports whether the user is the only remaining member.
func (c *Club) IsSoleMember(userID id.UserID) bool {
	return len(c.Members) == 1 && c.Members[0] == userID
}

// Successor picks the replacement founder after the current founder leaves:
// the first officer, else the first remaining non-founder member. Returns a
// nil ID when nobody remains.
func (c *Club) Successor() id.UserID {
	if len(c.Officers) > 0 {
		return c.Officers[0]
	}
	for _, m := range c.Members {
		if m != c.FounderID {
			return m
		}
	}
	return id.UserID{}
}

// PromoteSuccessor installs the new founder, removing them from the officer
// set if present.
func (c *Club) PromoteSuccessor(successor id.UserID, now time.Time) {
	c.FounderID = successor
	c.Officers = removeID(c.Officers, successor)
	c.UpdatedAt = now
}

func removeID(ids []id.UserID, target id.UserID) []id.UserID {
	out := ids[:0]
	for _, v := range ids {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
