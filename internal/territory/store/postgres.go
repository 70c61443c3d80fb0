package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"turfwars/internal/territory/models"

	id "turfwars/pkg/domain"
	"turfwars/pkg/platform/sentinel"
	txcontext "turfwars/pkg/platform/tx"
)

// Postgres implements Store over database/sql. The defender roster is a
// JSONB column; it is small (at most 5 entries) and always read and written
// as a unit.
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
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const territoryColumns = `id, name, address, latitude, longitude, rating,
	controlling_club_id, controlling_club_name, controlling_club_color,
	defenders, control_strength, total_battles, version, updated_at`

// Put inserts or replaces a territory (place importer / seeder path).
func (s *Postgres) Put(ctx context.Context, territory *models.Territory) error {
	if territory.Version == 0 {
		territory.Version = 1
	}
	defenders, err := json.Marshal(territory.Defenders)
	if err != nil {
		return fmt.Errorf("marshal defenders: %w", err)
	}
	query := `
		INSERT INTO territories (` + territoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, address = EXCLUDED.address,
			latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
			rating = EXCLUDED.rating
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(territory.ID), territory.Name, territory.Address,
		territory.Latitude, territory.Longitude, territory.Rating,
		nullableClubID(territory.ControllingClubID),
		territory.ControllingClubName, territory.ControllingClubColor,
		defenders, territory.ControlStrength, territory.TotalBattles,
		territory.Version, territory.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put territory: %w", err)
	}
	return nil
}

// FindByID loads one territory.
func (s *Postgres) FindByID(ctx context.Context, territoryID id.TerritoryID) (*models.Territory, error) {
	query := `SELECT ` + territoryColumns + ` FROM territories WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(territoryID))
	territory, err := scanTerritory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select territory: %w", err)
	}
	return territory, nil
}

// UpdateIfVersion writes the territory conditionally on its version token.
func (s *Postgres) UpdateIfVersion(ctx context.Context, territory *models.Territory, expectedVersion int64) error {
	defenders, err := json.Marshal(territory.Defenders)
	if err != nil {
		return fmt.Errorf("marshal defenders: %w", err)
	}
	query := `
		UPDATE territories SET
			controlling_club_id = $2, controlling_club_name = $3, controlling_club_color = $4,
			defenders = $5, control_strength = $6, total_battles = $7,
			version = version + 1, updated_at = $8
		WHERE id = $1 AND version = $9
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(territory.ID),
		nullableClubID(territory.ControllingClubID),
		territory.ControllingClubName, territory.ControllingClubColor,
		defenders, territory.ControlStrength, territory.TotalBattles,
		territory.UpdatedAt, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update territory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update territory rows affected: %w", err)
	}
	if affected == 0 {
		if _, findErr := s.FindByID(ctx, territory.ID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionMismatch
	}
	territory.Version = expectedVersion + 1
	return nil
}

// List returns territories matching the filter ordered by name.
func (s *Postgres) List(ctx context.Context, filter Filter) ([]*models.Territory, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Controlled != nil {
		if *filter.Controlled {
			conds = append(conds, "controlling_club_id IS NOT NULL")
		} else {
			conds = append(conds, "controlling_club_id IS NULL")
		}
	}
	if !filter.ClubID.IsNil() {
		args = append(args, uuid.UUID(filter.ClubID))
		conds = append(conds, fmt.Sprintf("controlling_club_id = $%d", len(args)))
	}
	query := `SELECT ` + territoryColumns + ` FROM territories`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list territories: %w", err)
	}
	defer rows.Close()

	var out []*models.Territory
	for rows.Next() {
		territory, err := scanTerritory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan territory: %w", err)
		}
		out = append(out, territory)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list territories rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTerritory(row rowScanner) (*models.Territory, error) {
	var (
		territory   models.Territory
		territoryID uuid.UUID
		clubID      uuid.NullUUID
		defenders   []byte
	)
	err := row.Scan(
		&territoryID, &territory.Name, &territory.Address,
		&territory.Latitude, &territory.Longitude, &territory.Rating,
		&clubID, &territory.ControllingClubName, &territory.ControllingClubColor,
		&defenders, &territory.ControlStrength, &territory.TotalBattles,
		&territory.Version, &territory.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	territory.ID = id.TerritoryID(territoryID)
	if clubID.Valid {
		territory.ControllingClubID = id.ClubID(clubID.UUID)
	}
	if err := json.Unmarshal(defenders, &territory.Defenders); err != nil {
		return nil, fmt.Errorf("unmarshal defenders: %w", err)
	}
	return &territory, nil
}

func nullableClubID(clubID id.ClubID) uuid.NullUUID {
	return uuid.NullUUID{UUID: uuid.UUID(clubID), Valid: !clubID.IsNil()}
}
