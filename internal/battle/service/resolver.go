// Package service resolves challenges: the stochastic combat action that can
// transfer territory ownership between clubs.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"turfwars/internal/battle/dice"
	battlemetrics "turfwars/internal/battle/metrics"
	"turfwars/internal/battle/models"
	battlestore "turfwars/internal/battle/store"
	clubstore "turfwars/internal/club/store"
	"turfwars/internal/platform/lock"
	territorymodels "turfwars/internal/territory/models"
	territoryservice "turfwars/internal/territory/service"
	territorystore "turfwars/internal/territory/store"
	"turfwars/internal/user"

	id "turfwars/pkg/domain"
	dErrors "turfwars/pkg/domain-errors"
	"turfwars/pkg/platform/retry"
	"turfwars/pkg/platform/sentinel"
	"turfwars/pkg/platform/tx"
	"turfwars/pkg/requestcontext"
)

// Publisher receives every resolved battle for the analytics stream.
type Publisher interface {
	Publish(ctx context.Context, record *models.BattleRecord)
}

// Result is the caller-visible outcome of a challenge.
type Result struct {
	Victory      bool   `json:"victory"`
	Message      string `json:"message"`
	AttackerRoll int    `json:"attacker_roll"`
	DefenseRoll  int    `json:"defense_roll"`
}

// Resolver computes challenge outcomes and applies the resulting transfer.
// A victory spans three aggregates (territory, attacker club, defender club)
// plus the battle log; all four commit through one tx.Runner boundary.
type Resolver struct {
	territories territorystore.Store
	clubs       clubstore.Store
	records     battlestore.Store
	users       user.Directory
	runner      tx.Runner
	locks       lock.Manager
	publisher   Publisher

	roll   dice.RollFunc
	bounds dice.Bounds

	logger  *slog.Logger
	metrics *battlemetrics.Metrics
	tracer  trace.Tracer

	retryAttempts int
	retryBackoff  time.Duration
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithMetrics attaches the battle module metrics.
func WithMetrics(m *battlemetrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithPublisher attaches the battle-event publisher.
func WithPublisher(p Publisher) Option {
	return func(r *Resolver) { r.publisher = p }
}

// WithBounds overrides the roll windows.
func WithBounds(b dice.Bounds) Option {
	return func(r *Resolver) { r.bounds = b }
}

// WithRollFunc overrides the random source. Tests pass fixed rolls.
func WithRollFunc(roll dice.RollFunc) Option {
	return func(r *Resolver) { r.roll = roll }
}

// WithRetry overrides the optimistic-concurrency retry policy.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(r *Resolver) {
		r.retryAttempts = attempts
		r.retryBackoff = backoff
	}
}

// New creates a challenge resolver. The default random source is seeded from
// crypto/rand.
func New(
	territories territorystore.Store,
	clubs clubstore.Store,
	records battlestore.Store,
	users user.Directory,
	runner tx.Runner,
	locks lock.Manager,
	opts ...Option,
) (*Resolver, error) {
	seed, err := dice.NewSeed()
	if err != nil {
		return nil, err
	}
	r := &Resolver{
		territories:   territories,
		clubs:         clubs,
		records:       records,
		users:         users,
		runner:        runner,
		locks:         locks,
		publisher:     noopPublisher{},
		roll:          dice.NewRoller(seed).Roll,
		bounds:        dice.DefaultBounds,
		logger:        slog.Default(),
		tracer:        otel.Tracer("turfwars/battle"),
		retryAttempts: 3,
		retryBackoff:  25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, *models.BattleRecord) {}

// Challenge resolves one combat action against a controlled territory.
//
// Validation failures return before any write. On victory the ownership
// transfer, both clubs' counters, the territory's battle counter, and the
// battle record commit as one atomic unit; on defeat only the counters and
// the record change. Lost version races retry with backoff, then surface as
// Conflict.
func (r *Resolver) Challenge(ctx context.Context, userID id.UserID, territoryID id.TerritoryID) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "battle.Challenge",
		trace.WithAttributes(
			attribute.String("territory.id", territoryID.String()),
			attribute.String("user.id", userID.String()),
		))
	defer span.End()
	start := time.Now()

	u, err := r.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.HasClub() {
		return nil, dErrors.New(dErrors.CodeForbidden, "you must be in a club to challenge a territory")
	}

	token, ok, err := r.locks.Acquire(ctx, territoryservice.LockKey(territoryID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "territory lock unavailable")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeConflict, "territory is being contested, please retry")
	}
	defer func() {
		if relErr := r.locks.Release(context.WithoutCancel(ctx), territoryservice.LockKey(territoryID), token); relErr != nil {
			r.logger.WarnContext(ctx, "failed to release territory lock",
				"territory_id", territoryID.String(), "error", relErr.Error())
		}
	}()

	var (
		result *Result
		record *models.BattleRecord
	)
	err = retry.Do(ctx, r.retryAttempts, r.retryBackoff, func(ctx context.Context) error {
		return r.runner.RunInTx(ctx, func(ctx context.Context) error {
			res, rec, err := r.resolve(ctx, u, territoryID)
			if err != nil {
				return err
			}
			result = res
			record = rec
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, retry.ErrRetryable) {
			return nil, dErrors.New(dErrors.CodeConflict, "concurrent update, please retry")
		}
		return nil, err
	}

	r.publisher.Publish(ctx, record)
	if r.metrics != nil {
		r.metrics.ObserveChallenge(result.Victory, start)
	}
	span.SetAttributes(attribute.Bool("battle.victory", result.Victory))
	r.logger.InfoContext(ctx, "challenge resolved",
		"territory_id", territoryID.String(),
		"attacker_user_id", userID.String(),
		"victory", result.Victory,
		"attacker_roll", result.AttackerRoll,
		"defense_roll", result.DefenseRoll,
	)
	return result, nil
}

// resolve runs one attempt entirely inside the transaction boundary.
func (r *Resolver) resolve(ctx context.Context, u *user.User, territoryID id.TerritoryID) (*Result, *models.BattleRecord, error) {
	territory, err := r.territories.FindByID(ctx, territoryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "territory not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load territory")
	}
	if !territory.IsControlled() {
		return nil, nil, dErrors.New(dErrors.CodeInvalidState, "territory is unclaimed, claim it instead")
	}
	if territory.ControlledBy(u.ClubID) {
		return nil, nil, dErrors.New(dErrors.CodeInvalidState, "your club already controls this territory")
	}

	attacker, err := r.clubs.FindByID(ctx, u.ClubID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "club not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attacking club")
	}

	defenderID := territory.ControllingClubID
	defender, err := r.clubs.FindByID(ctx, defenderID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load defending club")
	}
	// A nil defender means the controlling club disbanded after claiming;
	// the transfer still proceeds and only its counters are skipped.

	rolls, err := dice.Resolve(u.Level, territory.ControlStrength, r.bounds, r.roll)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "invalid battle configuration")
	}

	now := requestcontext.Now(ctx)
	record := &models.BattleRecord{
		ID:               id.NewBattleID(),
		TerritoryID:      territory.ID,
		AttackerClubID:   attacker.ID,
		AttackerUserID:   u.ID,
		DefenderClubID:   defenderID,
		AttackerPower:    rolls.AttackerRoll,
		DefenderStrength: rolls.DefenseRoll,
		Victory:          rolls.Victory,
		CreatedAt:        now,
	}

	var message string
	if rolls.Victory {
		territory.ApplyTransfer(attacker.ID, attacker.Name, attacker.Color, territorymodels.Defender{
			UserID:   u.ID,
			Username: u.Username,
			Level:    u.Level,
		}, now)
		territory.RecordBattle(now)
		if err := r.territories.UpdateIfVersion(ctx, territory, territory.Version); err != nil {
			return nil, nil, markVersionErr(err, "territory")
		}

		attacker.TerritoriesControlled++
		attacker.Wins++
		attacker.UpdatedAt = now
		if err := r.clubs.UpdateIfVersion(ctx, attacker, attacker.Version); err != nil {
			return nil, nil, markVersionErr(err, "club")
		}
		if defender != nil {
			defender.TerritoriesControlled--
			defender.Losses++
			defender.UpdatedAt = now
			if err := r.clubs.UpdateIfVersion(ctx, defender, defender.Version); err != nil {
				return nil, nil, markVersionErr(err, "club")
			}
		}
		message = "victory! " + attacker.Name + " now controls " + territory.Name
	} else {
		territory.RecordBattle(now)
		if err := r.territories.UpdateIfVersion(ctx, territory, territory.Version); err != nil {
			return nil, nil, markVersionErr(err, "territory")
		}

		attacker.Losses++
		attacker.UpdatedAt = now
		if err := r.clubs.UpdateIfVersion(ctx, attacker, attacker.Version); err != nil {
			return nil, nil, markVersionErr(err, "club")
		}
		if defender != nil {
			defender.Wins++
			defender.UpdatedAt = now
			if err := r.clubs.UpdateIfVersion(ctx, defender, defender.Version); err != nil {
				return nil, nil, markVersionErr(err, "club")
			}
		}
		message = "defeat, " + territory.Name + " holds"
	}

	if err := r.records.Append(ctx, record); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append battle record")
	}

	return &Result{
		Victory:      rolls.Victory,
		Message:      message,
		AttackerRoll: rolls.AttackerRoll,
		DefenseRoll:  rolls.DefenseRoll,
	}, record, nil
}

// History returns the territory's battle log, newest first. Audit read path;
// challenge resolution never reads it.
func (r *Resolver) History(ctx context.Context, territoryID id.TerritoryID, limit int) ([]*models.BattleRecord, error) {
	if _, err := r.territories.FindByID(ctx, territoryID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "territory not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load territory")
	}
	records, err := r.records.ListByTerritory(ctx, territoryID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list battle records")
	}
	return records, nil
}

func (r *Resolver) getUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	u, err := r.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user profile")
	}
	return u, nil
}

func markVersionErr(err error, what string) error {
	if errors.Is(err, sentinel.ErrVersionMismatch) {
		return retry.Mark(err)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update "+what)
}
