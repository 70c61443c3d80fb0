package models

import (
	id "turfwars/pkg/domain"
)

// Member is the display projection one roster entry resolves to: club role
// plus the profile fields clients render.
type Member struct {
	UserID   id.UserID `json:"user_id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar,omitempty"`
	Level    int       `json:"level"`
	Role     Role      `json:"role"`
}
