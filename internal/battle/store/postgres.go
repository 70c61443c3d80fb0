package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"turfwars/internal/battle/models"

	id "turfwars/pkg/domain"
	txcontext "turfwars/pkg/platform/tx"
)

// Postgres implements Store over database/sql. Appends issued inside a
// tx.Runner callback join that transaction, so a battle record commits with
// the ownership transfer it documents.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wires the store to a database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts one immutable record.
func (s *Postgres) Append(ctx context.Context, record *models.BattleRecord) error {
	query := `
		INSERT INTO battle_records (id, territory_id, attacker_club_id, attacker_user_id,
			defender_club_id, attacker_power, defender_strength, victory, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(record.ID), uuid.UUID(record.TerritoryID),
		uuid.UUID(record.AttackerClubID), uuid.UUID(record.AttackerUserID),
		uuid.UUID(record.DefenderClubID),
		record.AttackerPower, record.DefenderStrength, record.Victory, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert battle record: %w", err)
	}
	return nil
}

// ListByTerritory returns the territory's records newest first.
func (s *Postgres) ListByTerritory(ctx context.Context, territoryID id.TerritoryID, limit int) ([]*models.BattleRecord, error) {
	query := `
		SELECT id, territory_id, attacker_club_id, attacker_user_id,
			defender_club_id, attacker_power, defender_strength, victory, created_at
		FROM battle_records
		WHERE territory_id = $1
		ORDER BY created_at DESC
	`
	args := []any{uuid.UUID(territoryID)}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list battle records: %w", err)
	}
	defer rows.Close()

	var out []*models.BattleRecord
	for rows.Next() {
		var (
			record      models.BattleRecord
			recordID    uuid.UUID
			terrID      uuid.UUID
			attClubID   uuid.UUID
			attUserID   uuid.UUID
			defClubID   uuid.UUID
		)
		err := rows.Scan(&recordID, &terrID, &attClubID, &attUserID, &defClubID,
			&record.AttackerPower, &record.DefenderStrength, &record.Victory, &record.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan battle record: %w", err)
		}
		record.ID = id.BattleID(recordID)
		record.TerritoryID = id.TerritoryID(terrID)
		record.AttackerClubID = id.ClubID(attClubID)
		record.AttackerUserID = id.UserID(attUserID)
		record.DefenderClubID = id.ClubID(defClubID)
		out = append(out, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list battle records rows: %w", err)
	}
	return out, nil
}
