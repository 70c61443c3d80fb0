package user

import (
	"context"
	"sync"

	id "turfwars/pkg/domain"
	"turfwars/pkg/platform/sentinel"
)

// InMemory backs dev mode and tests. Production deployments adapt the real
// profile-store client to Directory instead.
type InMemory struct {
	mu    sync.RWMutex
	users map[id.UserID]*User
}

// NewInMemory creates an empty directory.
func NewInMemory() *InMemory {
	return &InMemory{users: make(map[id.UserID]*User)}
}

// Put registers or replaces a profile. Seeding/test helper.
func (d *InMemory) Put(u *User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *u
	d.users[u.ID] = &cp
}

// GetUser returns a copy of the profile.
func (d *InMemory) GetUser(_ context.Context, userID id.UserID) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// SetUserClub points the profile at a club with the given role. The write is
// conditional: a profile already referencing a different club returns
// sentinel.ErrAlreadyExists, so concurrent joins cannot link one user to two
// clubs. Role changes within the current club pass through.
func (d *InMemory) SetUserClub(_ context.Context, userID id.UserID, clubID id.ClubID, role Role) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if u.HasClub() && u.ClubID != clubID {
		return sentinel.ErrAlreadyExists
	}
	cp := *u
	cp.ClubID = clubID
	cp.ClubRole = role
	d.users[userID] = &cp
	return nil
}

// ClearUserClub removes the profile's club reference.
func (d *InMemory) ClearUserClub(_ context.Context, userID id.UserID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	cp := *u
	cp.ClubID = id.ClubID{}
	cp.ClubRole = ""
	d.users[userID] = &cp
	return nil
}

// Snapshot captures the directory state for transactional rollback. Stored
// profiles are replaced on write, never mutated in place, so copying the map
// is sufficient.
func (d *InMemory) Snapshot() any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := make(map[id.UserID]*User, len(d.users))
	for k, v := range d.users {
		snap[k] = v
	}
	return snap
}

// Restore reinstates a state captured by Snapshot.
func (d *InMemory) Restore(snapshot any) {
	snap, ok := snapshot.(map[id.UserID]*User)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = snap
}
