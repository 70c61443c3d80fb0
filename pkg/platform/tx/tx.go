// Package tx provides the transactional boundary stores and services share.
//
// Services call Runner.RunInTx around multi-record mutations; SQL stores pick
// the transaction out of the context so every write inside the callback lands
// in the same database transaction.
package tx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Runner runs a function inside a single atomic commit boundary.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLRunner implements Runner over database/sql transactions.
type SQLRunner struct {
	db *sql.DB
}

// NewSQLRunner wraps a database handle in a Runner.
func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

// RunInTx begins a transaction, injects it into the context, and commits if
// fn succeeds. Any error rolls the whole transaction back.
func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(WithTx(ctx, dbTx)); err != nil {
		if rbErr := dbTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Snapshotter is implemented by in-memory stores that can capture their
// state and reinstate it. The MemoryRunner uses it to undo partial writes
// when a callback fails.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

// MemoryRunner implements Runner for in-memory stores. Callbacks serialize
// behind one mutex, and every registered store is snapshotted on entry and
// restored when the callback errors, so a failed multi-record mutation never
// leaves partial state behind. Mutations of registered stores must go
// through RunInTx; reads may bypass it.
type MemoryRunner struct {
	mu     sync.Mutex
	stores []Snapshotter
}

// NewMemoryRunner returns a process-local Runner that rolls the given stores
// back when a callback fails.
func NewMemoryRunner(stores ...Snapshotter) *MemoryRunner {
	return &MemoryRunner{stores: stores}
}

// RunInTx serializes fn against every other RunInTx call and restores the
// registered stores when fn returns an error.
func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshots := make([]any, len(r.stores))
	for i, s := range r.stores {
		snapshots[i] = s.Snapshot()
	}
	if err := fn(ctx); err != nil {
		for i, s := range r.stores {
			s.Restore(snapshots[i])
		}
		return err
	}
	return nil
}
