package handler

import (
	"strings"

	"turfwars/internal/club/models"

	dErrors "turfwars/pkg/domain-errors"
)

// CreateClubRequest is the HTTP request body for POST /clubs.
type CreateClubRequest struct {
	Name           string `json:"name"`
	Tag            string `json:"tag"`
	Description    string `json:"description"`
	Color          string `json:"color"`
	MinLevelToJoin int    `json:"min_level_to_join"`
}

// Validate checks the caller-supplied fields. Length and casing rules live in
// the model; the handler only rejects what it can see without domain state.
func (r *CreateClubRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if r.MinLevelToJoin < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "min_level_to_join must not be negative")
	}
	return nil
}

// Input maps the request onto the domain create input.
func (r *CreateClubRequest) Input() models.CreateClubInput {
	return models.CreateClubInput{
		Name:           r.Name,
		Tag:            r.Tag,
		Description:    r.Description,
		Color:          r.Color,
		MinLevelToJoin: r.MinLevelToJoin,
	}
}

// UpdateClubRequest is the HTTP request body for PATCH /clubs/{clubID}.
// Absent fields stay nil and are left unchanged.
type UpdateClubRequest struct {
	models.UpdatePatch
}

// Validate rejects empty patches. Field-level validation happens in the model
// after the caller's role has filtered the patch.
func (r *UpdateClubRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	p := r.UpdatePatch
	if p.Name == nil && p.Tag == nil && p.Description == nil && p.Color == nil &&
		p.Emblem == nil && p.IsRecruiting == nil && p.MinLevelToJoin == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one field is required")
	}
	return nil
}
