package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterStore struct {
	value int
}

func (c *counterStore) Snapshot() any        { return c.value }
func (c *counterStore) Restore(snapshot any) { c.value = snapshot.(int) }

func TestMemoryRunnerCommitKeepsWrites(t *testing.T) {
	a, b := &counterStore{value: 1}, &counterStore{value: 10}
	runner := NewMemoryRunner(a, b)

	err := runner.RunInTx(context.Background(), func(context.Context) error {
		a.value = 2
		b.value = 20
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, a.value)
	assert.Equal(t, 20, b.value)
}

func TestMemoryRunnerFailureRestoresAllStores(t *testing.T) {
	a, b := &counterStore{value: 1}, &counterStore{value: 10}
	runner := NewMemoryRunner(a, b)

	boom := errors.New("boom")
	err := runner.RunInTx(context.Background(), func(context.Context) error {
		a.value = 2
		b.value = 20
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.value)
	assert.Equal(t, 10, b.value)
}

func TestMemoryRunnerFailedRunLeavesNextRunClean(t *testing.T) {
	store := &counterStore{value: 1}
	runner := NewMemoryRunner(store)

	_ = runner.RunInTx(context.Background(), func(context.Context) error {
		store.value = 99
		return errors.New("first run fails")
	})

	err := runner.RunInTx(context.Background(), func(context.Context) error {
		assert.Equal(t, 1, store.value)
		store.value++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, store.value)
}

func TestMemoryRunnerCanceledContext(t *testing.T) {
	store := &counterStore{value: 1}
	runner := NewMemoryRunner(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := runner.RunInTx(ctx, func(context.Context) error {
		ran = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
	assert.Equal(t, 1, store.value)
}
