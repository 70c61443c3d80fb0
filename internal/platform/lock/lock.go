// Package lock provides per-key mutual exclusion for the territory write
// paths. Deployments with redis share one lock space across replicas; the
// in-process manager covers single-node and test setups with the same
// acquire/release contract.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager acquires and releases named locks. Acquire returns ok=false when
// the lock is held by someone else after all retries.
type Manager interface {
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// InProcess implements Manager with a process-local table. Tokens guard
// against releasing a lock a different caller re-acquired.
type InProcess struct {
	mu      sync.Mutex
	held    map[string]string
	retries int
	backoff time.Duration
}

// NewInProcess builds a process-local lock manager.
func NewInProcess(retries int, backoff time.Duration) *InProcess {
	return &InProcess{
		held:    make(map[string]string),
		retries: retries,
		backoff: backoff,
	}
}

// Acquire attempts to take the lock, retrying with a fixed backoff.
func (l *InProcess) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	for attempt := 0; ; attempt++ {
		l.mu.Lock()
		if _, taken := l.held[key]; !taken {
			l.held[key] = token
			l.mu.Unlock()
			return token, true, nil
		}
		l.mu.Unlock()

		if attempt >= l.retries {
			return "", false, nil
		}
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-time.After(l.backoff):
		}
	}
}

// Release frees the lock if the token still owns it.
func (l *InProcess) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}
