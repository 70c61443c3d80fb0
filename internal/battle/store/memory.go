package store

import (
	"context"
	"sync"

	"turfwars/internal/battle/models"

	id "turfwars/pkg/domain"
)

// InMemory is the development and test implementation of Store.
type InMemory struct {
	mu      sync.RWMutex
	records []*models.BattleRecord
}

// NewInMemory creates an empty battle log.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Append adds one immutable record.
func (s *InMemory) Append(_ context.Context, record *models.BattleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.records = append(s.records, &cp)
	return nil
}

// ListByTerritory returns the territory's records newest first.
func (s *InMemory) ListByTerritory(_ context.Context, territoryID id.TerritoryID, limit int) ([]*models.BattleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.BattleRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].TerritoryID != territoryID {
			continue
		}
		cp := *s.records[i]
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Snapshot captures the log length for transactional rollback; the log is
// append-only, so Restore only needs to truncate.
func (s *InMemory) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Restore truncates the log back to a length captured by Snapshot.
func (s *InMemory) Restore(snapshot any) {
	n, ok := snapshot.(int)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= len(s.records) {
		s.records = s.records[:n]
	}
}

// Len reports the total number of records. Test helper.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
