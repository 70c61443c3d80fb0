package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"turfwars/internal/club/models"

	id "turfwars/pkg/domain"
	"turfwars/pkg/platform/sentinel"
)

// InMemory is the development and test implementation of Store. All reads
// and writes copy the aggregate so callers never share the stored value.
type InMemory struct {
	mu     sync.RWMutex
	clubs  map[id.ClubID]*models.Club
	byName map[string]id.ClubID
}

// NewInMemory creates an empty club store.
func NewInMemory() *InMemory {
	return &InMemory{
		clubs:  make(map[id.ClubID]*models.Club),
		byName: make(map[string]id.ClubID),
	}
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func copyClub(c *models.Club) *models.Club {
	cp := *c
	cp.Officers = append([]id.UserID(nil), c.Officers...)
	cp.Members = append([]id.UserID(nil), c.Members...)
	return &cp
}

// CreateIfNameAvailable stores the club unless its name is already taken.
func (s *InMemory) CreateIfNameAvailable(_ context.Context, club *models.Club) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := nameKey(club.Name)
	if _, taken := s.byName[key]; taken {
		return sentinel.ErrAlreadyExists
	}
	s.clubs[club.ID] = copyClub(club)
	s.byName[key] = club.ID
	return nil
}

// FindByID returns a copy of the club.
func (s *InMemory) FindByID(_ context.Context, clubID id.ClubID) (*models.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clubs[clubID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyClub(c), nil
}

// UpdateIfVersion persists the club only while the stored version matches.
// A name change re-checks uniqueness against other clubs.
func (s *InMemory) UpdateIfVersion(_ context.Context, club *models.Club, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.clubs[club.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrVersionMismatch
	}

	newKey := nameKey(club.Name)
	oldKey := nameKey(current.Name)
	if newKey != oldKey {
		if owner, taken := s.byName[newKey]; taken && owner != club.ID {
			return sentinel.ErrAlreadyExists
		}
		delete(s.byName, oldKey)
		s.byName[newKey] = club.ID
	}

	stored := copyClub(club)
	stored.Version = expectedVersion + 1
	s.clubs[club.ID] = stored
	club.Version = stored.Version
	return nil
}

// Delete removes the club. Missing clubs are not an error; a racing disband
// already achieved the caller's goal.
func (s *InMemory) Delete(_ context.Context, clubID id.ClubID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clubs[clubID]
	if !ok {
		return nil
	}
	delete(s.byName, nameKey(c.Name))
	delete(s.clubs, clubID)
	return nil
}

type memorySnapshot struct {
	clubs  map[id.ClubID]*models.Club
	byName map[string]id.ClubID
}

// Snapshot captures the store state for transactional rollback. Stored
// aggregates are replaced on write, never mutated in place, so copying the
// maps is sufficient.
func (s *InMemory) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &memorySnapshot{
		clubs:  make(map[id.ClubID]*models.Club, len(s.clubs)),
		byName: make(map[string]id.ClubID, len(s.byName)),
	}
	for k, v := range s.clubs {
		snap.clubs[k] = v
	}
	for k, v := range s.byName {
		snap.byName[k] = v
	}
	return snap
}

// Restore reinstates a state captured by Snapshot.
func (s *InMemory) Restore(snapshot any) {
	snap, ok := snapshot.(*memorySnapshot)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clubs = snap.clubs
	s.byName = snap.byName
}

// List returns clubs matching the filter, ordered by name for stable output.
func (s *InMemory) List(_ context.Context, filter Filter) ([]*models.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Club, 0, len(s.clubs))
	for _, c := range s.clubs {
		if filter.RecruitingOnly && !c.IsRecruiting {
			continue
		}
		if filter.MaxMinLevel > 0 && c.MinLevelToJoin > filter.MaxMinLevel {
			continue
		}
		out = append(out, copyClub(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
