// Package service owns territory control state: claims on unclaimed
// territories and the capacity-bounded defender roster.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	clubstore "turfwars/internal/club/store"
	"turfwars/internal/platform/lock"
	territorymetrics "turfwars/internal/territory/metrics"
	"turfwars/internal/territory/models"
	"turfwars/internal/territory/store"
	"turfwars/internal/user"

	id "turfwars/pkg/domain"
	dErrors "turfwars/pkg/domain-errors"
	"turfwars/pkg/platform/retry"
	"turfwars/pkg/platform/sentinel"
	"turfwars/pkg/platform/tx"
	"turfwars/pkg/requestcontext"
)

// Service applies claim and defend actions. Claims span the territory and
// the claiming club's counter, so they commit through the shared tx.Runner;
// both paths serialize per territory with the keyed lock plus
// version-conditional writes.
type Service struct {
	territories store.Store
	clubs       clubstore.Store
	users       user.Directory
	runner      tx.Runner
	locks       lock.Manager
	logger      *slog.Logger
	metrics     *territorymetrics.Metrics

	retryAttempts int
	retryBackoff  time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches the territory module metrics.
func WithMetrics(m *territorymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRetry overrides the optimistic-concurrency retry policy.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		s.retryAttempts = attempts
		s.retryBackoff = backoff
	}
}

// New creates a territory service.
func New(territories store.Store, clubs clubstore.Store, users user.Directory, runner tx.Runner, locks lock.Manager, opts ...Option) *Service {
	s := &Service{
		territories:   territories,
		clubs:         clubs,
		users:         users,
		runner:        runner,
		locks:         locks,
		logger:        slog.Default(),
		retryAttempts: 3,
		retryBackoff:  25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LockKey names the lock guarding one territory's write paths. The battle
// resolver shares it so claims and challenges serialize against each other.
func LockKey(territoryID id.TerritoryID) string {
	return "territory:" + territoryID.String()
}

// Claim takes ownership of an unclaimed territory for the caller's club.
// The territory ownership and the club's territory counter commit together.
func (s *Service) Claim(ctx context.Context, userID id.UserID, territoryID id.TerritoryID) (string, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if !u.HasClub() {
		return "", dErrors.New(dErrors.CodeForbidden, "you must be in a club to claim territory")
	}

	token, ok, err := s.locks.Acquire(ctx, LockKey(territoryID))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "territory lock unavailable")
	}
	if !ok {
		return "", dErrors.New(dErrors.CodeConflict, "territory is being contested, please retry")
	}
	defer func() {
		if relErr := s.locks.Release(context.WithoutCancel(ctx), LockKey(territoryID), token); relErr != nil {
			s.logger.WarnContext(ctx, "failed to release territory lock",
				"territory_id", territoryID.String(), "error", relErr.Error())
		}
	}()

	var territoryName, clubName string
	err = retry.Do(ctx, s.retryAttempts, s.retryBackoff, func(ctx context.Context) error {
		return s.runner.RunInTx(ctx, func(ctx context.Context) error {
			territory, err := s.territories.FindByID(ctx, territoryID)
			if err != nil {
				return s.translateTerritoryErr(err)
			}
			if err := territory.CanClaim(); err != nil {
				return err
			}

			club, err := s.clubs.FindByID(ctx, u.ClubID)
			if err != nil {
				return s.translateClubErr(err)
			}

			now := requestcontext.Now(ctx)
			territory.ApplyClaim(club.ID, club.Name, club.Color, models.Defender{
				UserID:   userID,
				Username: u.Username,
				Level:    u.Level,
			}, now)
			if err := s.territories.UpdateIfVersion(ctx, territory, territory.Version); err != nil {
				return markVersionErr(err, "territory")
			}

			club.TerritoriesControlled++
			club.UpdatedAt = now
			if err := s.clubs.UpdateIfVersion(ctx, club, club.Version); err != nil {
				return markVersionErr(err, "club")
			}

			territoryName = territory.Name
			clubName = club.Name
			return nil
		})
	})
	if err != nil {
		return "", exhausted(err)
	}

	if s.metrics != nil {
		s.metrics.Claimed.Inc()
	}
	s.logger.InfoContext(ctx, "territory claimed",
		"territory_id", territoryID.String(), "club_id", u.ClubID.String(), "user_id", userID.String())
	return "claimed " + territoryName + " for " + clubName, nil
}

// AddDefender appends the caller to their club's territory roster and
// recomputes control strength.
func (s *Service) AddDefender(ctx context.Context, userID id.UserID, territoryID id.TerritoryID) (string, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}

	var territoryName string
	err = retry.Do(ctx, s.retryAttempts, s.retryBackoff, func(ctx context.Context) error {
		territory, err := s.territories.FindByID(ctx, territoryID)
		if err != nil {
			return s.translateTerritoryErr(err)
		}
		if !u.HasClub() || !territory.ControlledBy(u.ClubID) {
			return dErrors.New(dErrors.CodeForbidden, "your club does not control this territory")
		}
		if err := territory.CanAddDefender(userID); err != nil {
			return err
		}

		territory.ApplyDefender(models.Defender{
			UserID:   userID,
			Username: u.Username,
			Level:    u.Level,
		}, requestcontext.Now(ctx))
		if err := s.territories.UpdateIfVersion(ctx, territory, territory.Version); err != nil {
			return markVersionErr(err, "territory")
		}
		territoryName = territory.Name
		return nil
	})
	if err != nil {
		return "", exhausted(err)
	}

	if s.metrics != nil {
		s.metrics.DefendersAdded.Inc()
	}
	return "now defending " + territoryName, nil
}

// Get loads one territory.
func (s *Service) Get(ctx context.Context, territoryID id.TerritoryID) (*models.Territory, error) {
	territory, err := s.territories.FindByID(ctx, territoryID)
	if err != nil {
		return nil, s.translateTerritoryErr(err)
	}
	return territory, nil
}

// List returns territories matching the filter. Pure read, no locking.
func (s *Service) List(ctx context.Context, filter store.Filter) ([]*models.Territory, error) {
	territories, err := s.territories.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list territories")
	}
	return territories, nil
}

func (s *Service) getUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user profile")
	}
	return u, nil
}

func (s *Service) translateTerritoryErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "territory not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load territory")
}

func (s *Service) translateClubErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "club not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load club")
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

func exhausted(err error) error {
	if errors.Is(err, retry.ErrRetryable) {
		return dErrors.New(dErrors.CodeConflict, "concurrent update, please retry")
	}
	return err
}
