package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turfwars/internal/battle/models"

	id "turfwars/pkg/domain"
)

type fakeSink struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (f *fakeSink) Produce(_ context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func newRecord() *models.BattleRecord {
	return &models.BattleRecord{
		ID:               id.NewBattleID(),
		TerritoryID:      id.NewTerritoryID(),
		AttackerClubID:   id.NewClubID(),
		AttackerUserID:   id.NewUserID(),
		DefenderClubID:   id.NewClubID(),
		AttackerPower:    14,
		DefenderStrength: 9,
		Victory:          true,
		CreatedAt:        time.Now().UTC(),
	}
}

func TestPublisherDeliversEvents(t *testing.T) {
	sink := &fakeSink{}
	p := New(sink, 8, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	record := newRecord()
	p.Publish(ctx, record)

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	var event Event
	require.NoError(t, json.Unmarshal(sink.payloads[0], &event))
	assert.Equal(t, record.ID.String(), event.ID)
	assert.Equal(t, record.TerritoryID.String(), event.TerritoryID)
	assert.True(t, event.Victory)
	assert.Equal(t, 14, event.AttackerPower)

	cancel()
	<-done
}

func TestPublishDropsWhenFull(t *testing.T) {
	// No worker draining, so the buffer fills and overflow is dropped rather
	// than blocking the caller.
	p := New(&fakeSink{}, 1, slog.Default())
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		p.Publish(ctx, newRecord())
		p.Publish(ctx, newRecord())
		p.Publish(ctx, newRecord())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}
}

func TestRunSurvivesSinkErrors(t *testing.T) {
	sink := &fakeSink{err: assert.AnError}
	p := New(sink, 8, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	p.Publish(ctx, newRecord())
	sinkHealthy := func() {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		sink.err = nil
	}
	time.Sleep(20 * time.Millisecond)
	sinkHealthy()
	p.Publish(ctx, newRecord())

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
