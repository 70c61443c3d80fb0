// Package store persists club aggregates. Implementations return
// pkg/platform/sentinel errors; services translate them into domain errors.
package store

import (
	"context"

	"turfwars/internal/club/models"

	id "turfwars/pkg/domain"
)

// Filter narrows List results.
type Filter struct {
	// RecruitingOnly keeps only clubs with open recruiting.
	RecruitingOnly bool
	// MaxMinLevel keeps clubs a player of this level could join; 0 disables.
	MaxMinLevel int
	// Limit caps the result count; 0 means no cap.
	Limit int
}

// Store is the club persistence port.
//
// CreateIfNameAvailable enforces case-insensitive name uniqueness and returns
// sentinel.ErrAlreadyExists when the name is taken. UpdateIfVersion is the
// optimistic-concurrency write: it persists the club and bumps its version
// only while the stored version still equals expectedVersion, returning
// sentinel.ErrVersionMismatch otherwise.
type Store interface {
	CreateIfNameAvailable(ctx context.Context, club *models.Club) error
	FindByID(ctx context.Context, clubID id.ClubID) (*models.Club, error)
	UpdateIfVersion(ctx context.Context, club *models.Club, expectedVersion int64) error
	Delete(ctx context.Context, clubID id.ClubID) error
	List(ctx context.Context, filter Filter) ([]*models.Club, error)
}
