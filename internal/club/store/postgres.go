package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"turfwars/internal/club/models"

	id "turfwars/pkg/domain"
	"turfwars/pkg/platform/sentinel"
	txcontext "turfwars/pkg/platform/tx"
)

// Postgres implements Store over database/sql. Writes issued inside a
// tx.Runner callback join that transaction via the context.
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

const clubColumns = `id, name, tag, description, color, emblem, founder_id,
	officers, members, member_count, total_power, territories_controlled,
	wins, losses, is_recruiting, min_level_to_join, version, created_at, updated_at`

// CreateIfNameAvailable inserts the club; the unique name_key index enforces
// case-insensitive uniqueness under concurrency.
func (s *Postgres) CreateIfNameAvailable(ctx context.Context, club *models.Club) error {
	query := `
		INSERT INTO clubs (` + clubColumns + `, name_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (name_key) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(club.ID), club.Name, club.Tag, club.Description, club.Color, club.Emblem,
		uuid.UUID(club.FounderID), pq.Array(idsToStrings(club.Officers)), pq.Array(idsToStrings(club.Members)),
		club.MemberCount, club.TotalPower, club.TerritoriesControlled,
		club.Wins, club.Losses, club.IsRecruiting, club.MinLevelToJoin,
		club.Version, club.CreatedAt, club.UpdatedAt,
		nameKey(club.Name),
	)
	if err != nil {
		return fmt.Errorf("insert club: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert club rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyExists
	}
	return nil
}

// FindByID loads one club.
func (s *Postgres) FindByID(ctx context.Context, clubID id.ClubID) (*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(clubID))
	club, err := scanClub(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select club: %w", err)
	}
	return club, nil
}

// UpdateIfVersion writes the club conditionally on its version token.
func (s *Postgres) UpdateIfVersion(ctx context.Context, club *models.Club, expectedVersion int64) error {
	query := `
		UPDATE clubs SET
			name = $2, name_key = $3, tag = $4, description = $5, color = $6, emblem = $7,
			founder_id = $8, officers = $9, members = $10,
			member_count = $11, total_power = $12, territories_controlled = $13,
			wins = $14, losses = $15, is_recruiting = $16, min_level_to_join = $17,
			version = version + 1, updated_at = $18
		WHERE id = $1 AND version = $19
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(club.ID), club.Name, nameKey(club.Name), club.Tag, club.Description, club.Color, club.Emblem,
		uuid.UUID(club.FounderID), pq.Array(idsToStrings(club.Officers)), pq.Array(idsToStrings(club.Members)),
		club.MemberCount, club.TotalPower, club.TerritoriesControlled,
		club.Wins, club.Losses, club.IsRecruiting, club.MinLevelToJoin,
		club.UpdatedAt, expectedVersion,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("update club: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update club rows affected: %w", err)
	}
	if affected == 0 {
		if _, findErr := s.FindByID(ctx, club.ID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionMismatch
	}
	club.Version = expectedVersion + 1
	return nil
}

// Delete removes the club; deleting an absent club is a no-op.
func (s *Postgres) Delete(ctx context.Context, clubID id.ClubID) error {
	_, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM clubs WHERE id = $1`, uuid.UUID(clubID))
	if err != nil {
		return fmt.Errorf("delete club: %w", err)
	}
	return nil
}

// List returns clubs matching the filter ordered by name.
func (s *Postgres) List(ctx context.Context, filter Filter) ([]*models.Club, error) {
	var (
		conds []string
		args  []any
	)
	if filter.RecruitingOnly {
		conds = append(conds, "is_recruiting = TRUE")
	}
	if filter.MaxMinLevel > 0 {
		args = append(args, filter.MaxMinLevel)
		conds = append(conds, fmt.Sprintf("min_level_to_join <= $%d", len(args)))
	}
	query := `SELECT ` + clubColumns + ` FROM clubs`
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
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	defer rows.Close()

	var out []*models.Club
	for rows.Next() {
		club, err := scanClub(rows)
		if err != nil {
			return nil, fmt.Errorf("scan club: %w", err)
		}
		out = append(out, club)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list clubs rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClub(row rowScanner) (*models.Club, error) {
	var (
		club       models.Club
		clubID     uuid.UUID
		founderID  uuid.UUID
		officers   pq.StringArray
		members    pq.StringArray
	)
	err := row.Scan(
		&clubID, &club.Name, &club.Tag, &club.Description, &club.Color, &club.Emblem,
		&founderID, &officers, &members,
		&club.MemberCount, &club.TotalPower, &club.TerritoriesControlled,
		&club.Wins, &club.Losses, &club.IsRecruiting, &club.MinLevelToJoin,
		&club.Version, &club.CreatedAt, &club.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	club.ID = id.ClubID(clubID)
	club.FounderID = id.UserID(founderID)
	if club.Officers, err = stringsToIDs(officers); err != nil {
		return nil, err
	}
	if club.Members, err = stringsToIDs(members); err != nil {
		return nil, err
	}
	return &club, nil
}

func idsToStrings(ids []id.UserID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

func stringsToIDs(in []string) ([]id.UserID, error) {
	out := make([]id.UserID, len(in))
	for i, s := range in {
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse member id %q: %w", s, err)
		}
		out[i] = id.UserID(u)
	}
	return out, nil
}
