// Package store persists territory aggregates. Implementations return
// pkg/platform/sentinel errors; services translate them into domain errors.
package store

import (
	"context"

	"turfwars/internal/territory/models"

	id "turfwars/pkg/domain"
)

// Filter narrows List results.
type Filter struct {
	// Controlled keeps only controlled (true) or unclaimed (false)
	// territories; nil keeps both.
	Controlled *bool
	// ClubID keeps territories held by one club.
	ClubID id.ClubID
	// Limit caps the result count; 0 means no cap.
	Limit int
}

// Store is the territory persistence port. UpdateIfVersion is the
// optimistic-concurrency write backing claim, defend, and challenge.
type Store interface {
	Put(ctx context.Context, territory *models.Territory) error
	FindByID(ctx context.Context, territoryID id.TerritoryID) (*models.Territory, error)
	UpdateIfVersion(ctx context.Context, territory *models.Territory, expectedVersion int64) error
	List(ctx context.Context, filter Filter) ([]*models.Territory, error)
}
