package models

import (
	"strings"
	"time"

	dErrors "turfwars/pkg/domain-errors"
)

// Field names a patchable club setting.
type Field string

const (
	FieldName           Field = "name"
	FieldTag            Field = "tag"
	FieldDescription    Field = "description"
	FieldColor          Field = "color"
	FieldEmblem         Field = "emblem"
	FieldIsRecruiting   Field = "is_recruiting"
	FieldMinLevelToJoin Field = "min_level_to_join"
)

// capabilities is the explicit role → allowed-field table for updateClub.
// Keeping the policy in data makes it auditable and testable in isolation.
var capabilities = map[Role]map[Field]bool{
	RoleFounder: {
		FieldName:           true,
		FieldTag:            true,
		FieldDescription:    true,
		FieldColor:          true,
		FieldEmblem:         true,
		FieldIsRecruiting:   true,
		FieldMinLevelToJoin: true,
	},
	RoleOfficer: {
		FieldDescription:  true,
		FieldIsRecruiting: true,
	},
}

// CanEdit reports whether the role may change the field.
func CanEdit(role Role, field Field) bool {
	return capabilities[role][field]
}

// UpdatePatch is a partial update; nil pointers mean "leave unchanged".
type UpdatePatch struct {
	Name           *string `json:"name"`
	Tag            *string `json:"tag"`
	Description    *string `json:"description"`
	Color          *string `json:"color"`
	Emblem         *string `json:"emblem"`
	IsRecruiting   *bool   `json:"is_recruiting"`
	MinLevelToJoin *int    `json:"min_level_to_join"`
}

// FilterForRole drops fields the role may not edit. Disallowed fields are
// silently discarded rather than rejected, preserving the upstream contract.
func (p UpdatePatch) FilterForRole(role Role) UpdatePatch {
	out := UpdatePatch{}
	if p.Name != nil && CanEdit(role, FieldName) {
		out.Name = p.Name
	}
	if p.Tag != nil && CanEdit(role, FieldTag) {
		out.Tag = p.Tag
	}
	if p.Description != nil && CanEdit(role, FieldDescription) {
		out.Description = p.Description
	}
	if p.Color != nil && CanEdit(role, FieldColor) {
		out.Color = p.Color
	}
	if p.Emblem != nil && CanEdit(role, FieldEmblem) {
		out.Emblem = p.Emblem
	}
	if p.IsRecruiting != nil && CanEdit(role, FieldIsRecruiting) {
		out.IsRecruiting = p.IsRecruiting
	}
	if p.MinLevelToJoin != nil && CanEdit(role, FieldMinLevelToJoin) {
		out.MinLevelToJoin = p.MinLevelToJoin
	}
	return out
}

// Apply validates and applies the patch to the club.
func (c *Club) Apply(p UpdatePatch, now time.Time) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if len(name) < minNameLen || len(name) > maxNameLen {
			return dErrors.Newf(dErrors.CodeInvalidInput, "club name must be %d-%d characters", minNameLen, maxNameLen)
		}
		c.Name = name
	}
	if p.Tag != nil {
		tag := strings.ToUpper(strings.TrimSpace(*p.Tag))
		if len(tag) > maxTagLen {
			return dErrors.Newf(dErrors.CodeInvalidInput, "club tag must be at most %d characters", maxTagLen)
		}
		c.Tag = tag
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Emblem != nil {
		c.Emblem = *p.Emblem
	}
	if p.IsRecruiting != nil {
		c.IsRecruiting = *p.IsRecruiting
	}
	if p.MinLevelToJoin != nil {
		if *p.MinLevelToJoin < 1 {
			return dErrors.New(dErrors.CodeInvalidInput, "min level to join must be at least 1")
		}
		c.MinLevelToJoin = *p.MinLevelToJoin
	}
	c.UpdatedAt = now
	return nil
}
