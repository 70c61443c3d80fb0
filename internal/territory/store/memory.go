package store

import (
	"context"
	"sort"
	"sync"

	"turfwars/internal/territory/models"

	id "turfwars/pkg/domain"
	"turfwars/pkg/platform/sentinel"
)

// InMemory is the development and test implementation of Store.
type InMemory struct {
	mu          sync.RWMutex
	territories map[id.TerritoryID]*models.Territory
}

// NewInMemory creates an empty territory store.
func NewInMemory() *InMemory {
	return &InMemory{territories: make(map[id.TerritoryID]*models.Territory)}
}

func copyTerritory(t *models.Territory) *models.Territory {
	cp := *t
	cp.Defenders = append([]models.Defender(nil), t.Defenders...)
	return &cp
}

// Put stores or replaces a territory. Used by the place importer and seeder;
// runtime mutations go through UpdateIfVersion.
func (s *InMemory) Put(_ context.Context, territory *models.Territory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if territory.Version == 0 {
		territory.Version = 1
	}
	s.territories[territory.ID] = copyTerritory(territory)
	return nil
}

// FindByID returns a copy of the territory.
func (s *InMemory) FindByID(_ context.Context, territoryID id.TerritoryID) (*models.Territory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.territories[territoryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyTerritory(t), nil
}

// UpdateIfVersion persists the territory only while the stored version
// matches.
func (s *InMemory) UpdateIfVersion(_ context.Context, territory *models.Territory, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.territories[territory.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrVersionMismatch
	}

	stored := copyTerritory(territory)
	stored.Version = expectedVersion + 1
	s.territories[territory.ID] = stored
	territory.Version = stored.Version
	return nil
}

// Snapshot captures the store state for transactional rollback. Stored
// aggregates are replaced on write, never mutated in place, so copying the
// map is sufficient.
func (s *InMemory) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[id.TerritoryID]*models.Territory, len(s.territories))
	for k, v := range s.territories {
		snap[k] = v
	}
	return snap
}

// Restore reinstates a state captured by Snapshot.
func (s *InMemory) Restore(snapshot any) {
	snap, ok := snapshot.(map[id.TerritoryID]*models.Territory)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.territories = snap
}

// List returns territories matching the filter, ordered by name.
func (s *InMemory) List(_ context.Context, filter Filter) ([]*models.Territory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Territory, 0, len(s.territories))
	for _, t := range s.territories {
		if filter.Controlled != nil && t.IsControlled() != *filter.Controlled {
			continue
		}
		if !filter.ClubID.IsNil() && !t.ControlledBy(filter.ClubID) {
			continue
		}
		out = append(out, copyTerritory(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
