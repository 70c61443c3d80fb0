// Package service orchestrates club lifecycle: creation, membership,
// founder succession, and permission-gated settings updates.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	clubmetrics "turfwars/internal/club/metrics"
	"turfwars/internal/club/models"
	"turfwars/internal/club/store"
	"turfwars/internal/user"

	id "turfwars/pkg/domain"
	dErrors "turfwars/pkg/domain-errors"
	"turfwars/pkg/platform/retry"
	"turfwars/pkg/platform/sentinel"
	"turfwars/pkg/platform/tx"
	"turfwars/pkg/requestcontext"
)

// Service coordinates club aggregates with the external profile store. The
// user-side club reference and the club's member set commit through the
// shared tx.Runner so neither can land without the other; per-club
// serialization comes from version-conditional writes retried with backoff.
type Service struct {
	clubs   store.Store
	users   user.Directory
	runner  tx.Runner
	logger  *slog.Logger
	metrics *clubmetrics.Metrics

	retryAttempts int
	retryBackoff  time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches the club module metrics.
func WithMetrics(m *clubmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRetry overrides the optimistic-concurrency retry policy.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		s.retryAttempts = attempts
		s.retryBackoff = backoff
	}
}

// New creates a club service.
func New(clubs store.Store, users user.Directory, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		clubs:         clubs,
		users:         users,
		runner:        runner,
		logger:        slog.Default(),
		retryAttempts: 3,
		retryBackoff:  25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates input, stores the new club with the founder as its sole
// member, and points the founder's profile at it.
func (s *Service) Create(ctx context.Context, founderID id.UserID, in models.CreateClubInput) (*models.Club, error) {
	founder, err := s.getUser(ctx, founderID)
	if err != nil {
		return nil, err
	}
	if founder.HasClub() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "you are already a member of a club")
	}

	club, err := models.NewClub(id.NewClubID(), founderID, founder.Level, in, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.clubs.CreateIfNameAvailable(ctx, club); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				return dErrors.New(dErrors.CodeConflict, "club name is already taken")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create club")
		}
		return s.linkProfile(ctx, founderID, club.ID, user.RoleFounder)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ClubsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "club created",
		"club_id", club.ID.String(), "founder_id", founderID.String())
	return club, nil
}

// Join admits the caller into the club, maintaining member count and total
// power, and points the caller's profile at the club.
func (s *Service) Join(ctx context.Context, userID id.UserID, clubID id.ClubID) (string, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.HasClub() {
		return "", dErrors.New(dErrors.CodeInvalidState, "you are already a member of a club")
	}

	var clubName string
	err = retry.Do(ctx, s.retryAttempts, s.retryBackoff, func(ctx context.Context) error {
		return s.runner.RunInTx(ctx, func(ctx context.Context) error {
			club, err := s.clubs.FindByID(ctx, clubID)
			if err != nil {
				return s.translateClubErr(err)
			}
			if err := club.CanAdmit(u.Level); err != nil {
				return err
			}
			if club.IsMember(userID) {
				return dErrors.New(dErrors.CodeConflict, "already a member of this club")
			}

			club.ApplyJoin(userID, u.Level, requestcontext.Now(ctx))
			if err := s.clubs.UpdateIfVersion(ctx, club, club.Version); err != nil {
				return s.markVersionErr(err)
			}
			if err := s.linkProfile(ctx, userID, clubID, user.RoleMember); err != nil {
				return err
			}
			clubName = club.Name
			return nil
		})
	})
	if err != nil {
		return "", s.exhausted(err)
	}

	if s.metrics != nil {
		s.metrics.MembersJoined.Inc()
	}
	s.logger.InfoContext(ctx, "member joined club",
		"club_id", clubID.String(), "user_id", userID.String())
	return "joined " + clubName, nil
}

// Leave removes the caller from their club. A founder leaving a multi-member
// club hands off to the first officer, else any remaining member; the last
// member leaving disbands the club entirely.
func (s *Service) Leave(ctx context.Context, userID id.UserID) (string, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if !u.HasClub() {
		return "", dErrors.New(dErrors.CodeInvalidState, "you are not a member of any club")
	}
	clubID := u.ClubID

	var (
		disbanded bool
		successor id.UserID
	)
	err = retry.Do(ctx, s.retryAttempts, s.retryBackoff, func(ctx context.Context) error {
		disbanded = false
		successor = id.UserID{}

		return s.runner.RunInTx(ctx, func(ctx context.Context) error {
			club, err := s.clubs.FindByID(ctx, clubID)
			if err != nil {
				return s.translateClubErr(err)
			}
			if !club.IsMember(userID) {
				return dErrors.New(dErrors.CodeInvalidState, "you are not a member of this club")
			}

			now := requestcontext.Now(ctx)
			if club.FounderID == userID && club.IsSoleMember(userID) {
				if err := s.clubs.Delete(ctx, club.ID); err != nil {
					return dErrors.Wrap(err, dErrors.CodeInternal, "failed to disband club")
				}
				disbanded = true
			} else {
				wasFounder := club.FounderID == userID
				club.ApplyLeave(userID, u.Level, now)
				if wasFounder {
					successor = club.Successor()
					club.PromoteSuccessor(successor, now)
				}
				if err := s.clubs.UpdateIfVersion(ctx, club, club.Version); err != nil {
					return s.markVersionErr(err)
				}
			}

			if !successor.IsNil() {
				// Same-club role change, so the conditional profile write
				// cannot conflict.
				if err := s.users.SetUserClub(ctx, successor, clubID, user.RoleFounder); err != nil {
					s.logger.ErrorContext(ctx, "failed to update successor profile",
						"club_id", clubID.String(), "user_id", successor.String(), "error", err.Error())
				}
			}
			if err := s.users.ClearUserClub(ctx, userID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear member profile")
			}
			return nil
		})
	})
	if err != nil {
		return "", s.exhausted(err)
	}

	if s.metrics != nil {
		s.metrics.MembersLeft.Inc()
		if disbanded {
			s.metrics.ClubsDisbanded.Inc()
		}
	}
	if disbanded {
		s.logger.InfoContext(ctx, "club disbanded", "club_id", clubID.String())
		return "left and disbanded the club", nil
	}
	return "left the club", nil
}

// Update applies a permission-gated patch. Fields outside the caller's
// capability set are silently dropped; see the capability table in models.
func (s *Service) Update(ctx context.Context, callerID id.UserID, clubID id.ClubID, patch models.UpdatePatch) (*models.Club, error) {
	var updated *models.Club
	err := retry.Do(ctx, s.retryAttempts, s.retryBackoff, func(ctx context.Context) error {
		club, err := s.clubs.FindByID(ctx, clubID)
		if err != nil {
			return s.translateClubErr(err)
		}

		role := club.RoleOf(callerID)
		if role != models.RoleFounder && role != models.RoleOfficer {
			return dErrors.New(dErrors.CodeForbidden, "only the founder or officers can update the club")
		}

		if err := club.Apply(patch.FilterForRole(role), requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.clubs.UpdateIfVersion(ctx, club, club.Version); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				return dErrors.New(dErrors.CodeConflict, "club name is already taken")
			}
			return s.markVersionErr(err)
		}
		updated = club
		return nil
	})
	if err != nil {
		return nil, s.exhausted(err)
	}
	return updated, nil
}

// Get loads one club.
func (s *Service) Get(ctx context.Context, clubID id.ClubID) (*models.Club, error) {
	club, err := s.clubs.FindByID(ctx, clubID)
	if err != nil {
		return nil, s.translateClubErr(err)
	}
	return club, nil
}

// List returns clubs matching the filter.
func (s *Service) List(ctx context.Context, filter store.Filter) ([]*models.Club, error) {
	clubs, err := s.clubs.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clubs")
	}
	return clubs, nil
}

// Members resolves the roster for display: founder first, then officers,
// then members, each group ordered by descending level.
func (s *Service) Members(ctx context.Context, clubID id.ClubID) ([]models.Member, error) {
	club, err := s.clubs.FindByID(ctx, clubID)
	if err != nil {
		return nil, s.translateClubErr(err)
	}

	var founder []models.Member
	var officers, members []models.Member
	for _, memberID := range club.Members {
		profile, err := s.users.GetUser(ctx, memberID)
		if err != nil {
			// A missing profile is the external store's drift, not ours.
			s.logger.WarnContext(ctx, "member profile missing",
				"club_id", clubID.String(), "user_id", memberID.String())
			continue
		}
		m := models.Member{
			UserID:   memberID,
			Username: profile.Username,
			Avatar:   profile.Avatar,
			Level:    profile.Level,
			Role:     club.RoleOf(memberID),
		}
		switch m.Role {
		case models.RoleFounder:
			founder = append(founder, m)
		case models.RoleOfficer:
			officers = append(officers, m)
		default:
			members = append(members, m)
		}
	}
	sortByLevelDesc(officers)
	sortByLevelDesc(members)

	out := make([]models.Member, 0, len(founder)+len(officers)+len(members))
	out = append(out, founder...)
	out = append(out, officers...)
	out = append(out, members...)
	return out, nil
}

func sortByLevelDesc(members []models.Member) {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Level > members[j].Level
	})
}

// linkProfile points the profile at the club inside the transaction
// boundary. A profile that raced into a different club first fails the
// write, and the rollback undoes the club-side change with it.
func (s *Service) linkProfile(ctx context.Context, userID id.UserID, clubID id.ClubID, role user.Role) error {
	if err := s.users.SetUserClub(ctx, userID, clubID, role); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return dErrors.New(dErrors.CodeInvalidState, "you are already a member of a club")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to link member profile")
	}
	return nil
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

func (s *Service) translateClubErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "club not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load club")
}

// markVersionErr flags lost optimistic-concurrency races for retry and wraps
// everything else as internal.
func (s *Service) markVersionErr(err error) error {
	if errors.Is(err, sentinel.ErrVersionMismatch) {
		return retry.Mark(err)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "club not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update club")
}

// exhausted converts spent retryable errors into the Conflict the caller is
// expected to handle by re-fetching and retrying manually.
func (s *Service) exhausted(err error) error {
	if errors.Is(err, retry.ErrRetryable) {
		return dErrors.New(dErrors.CodeConflict, "concurrent update, please retry")
	}
	return err
}
