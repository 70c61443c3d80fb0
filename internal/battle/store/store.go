// Package store persists the append-only battle log.
package store

import (
	"context"

	"turfwars/internal/battle/models"

	id "turfwars/pkg/domain"
)

// Store is the battle-log persistence port. Append-only: there is no update
// or delete.
type Store interface {
	Append(ctx context.Context, record *models.BattleRecord) error
	ListByTerritory(ctx context.Context, territoryID id.TerritoryID, limit int) ([]*models.BattleRecord, error)
}
