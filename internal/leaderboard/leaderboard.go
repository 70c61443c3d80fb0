// Package leaderboard ranks clubs by territorial control. It is a read-only
// projection over the club store; ranks are computed on demand, never stored.
package leaderboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	clubstore "turfwars/internal/club/store"

	dErrors "turfwars/pkg/domain-errors"
)

// DefaultLimit caps the leaderboard size when the caller does not.
const DefaultLimit = 50

// Entry is one ranked row.
type Entry struct {
	Rank                  int    `json:"rank"`
	ClubID                string `json:"club_id"`
	Name                  string `json:"name"`
	Tag                   string `json:"tag"`
	Color                 string `json:"color"`
	MemberCount           int    `json:"member_count"`
	TotalPower            int    `json:"total_power"`
	TerritoriesControlled int    `json:"territories_controlled"`
	Wins                  int    `json:"wins"`
	Losses                int    `json:"losses"`
}

// Projection computes ranked standings. Concurrent requests for the same
// window share one store scan via singleflight, and results are reused for a
// short TTL since standings only move on resolved battles and claims.
type Projection struct {
	clubs clubstore.Store
	ttl   time.Duration

	group singleflight.Group

	mu        sync.Mutex
	cached    []Entry
	cachedAt  time.Time
	cachedLim int
}

// New creates a leaderboard projection with the given cache TTL. A zero TTL
// disables caching; every call recomputes.
func New(clubs clubstore.Store, ttl time.Duration) *Projection {
	return &Projection{clubs: clubs, ttl: ttl}
}

// Top returns the top clubs ordered by territories controlled, breaking ties
// on total power and then on name. Tied ranks are distinct positions, not
// shared numbers.
func (p *Projection) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}

	if entries, ok := p.fresh(limit); ok {
		return entries, nil
	}

	v, err, _ := p.group.Do("top", func() (any, error) {
		return p.compute(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	entries := v.([]Entry)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (p *Projection) fresh(limit int) ([]Entry, bool) {
	if p.ttl <= 0 {
		return nil, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if time.Since(p.cachedAt) > p.ttl || limit > p.cachedLim {
		return nil, false
	}
	if len(p.cached) > limit {
		return p.cached[:limit], true
	}
	return p.cached, true
}

func (p *Projection) compute(ctx context.Context, limit int) ([]Entry, error) {
	clubs, err := p.clubs.List(ctx, clubstore.Filter{})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load clubs for leaderboard")
	}

	sort.SliceStable(clubs, func(i, j int) bool {
		if clubs[i].TerritoriesControlled != clubs[j].TerritoriesControlled {
			return clubs[i].TerritoriesControlled > clubs[j].TerritoriesControlled
		}
		if clubs[i].TotalPower != clubs[j].TotalPower {
			return clubs[i].TotalPower > clubs[j].TotalPower
		}
		return clubs[i].Name < clubs[j].Name
	})

	if len(clubs) > limit {
		clubs = clubs[:limit]
	}
	entries := make([]Entry, 0, len(clubs))
	for i, c := range clubs {
		entries = append(entries, Entry{
			Rank:                  i + 1,
			ClubID:                c.ID.String(),
			Name:                  c.Name,
			Tag:                   c.Tag,
			Color:                 c.Color,
			MemberCount:           c.MemberCount,
			TotalPower:            c.TotalPower,
			TerritoriesControlled: c.TerritoriesControlled,
			Wins:                  c.Wins,
			Losses:                c.Losses,
		})
	}

	if p.ttl > 0 {
		p.mu.Lock()
		p.cached = entries
		p.cachedAt = time.Now()
		p.cachedLim = limit
		p.mu.Unlock()
	}
	return entries, nil
}
