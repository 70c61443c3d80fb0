// Package publisher streams resolved battles to kafka for the analytics
// pipeline. Delivery is best-effort: the battle log in the store is the
// durable record, and a full buffer drops the event rather than slowing or
// failing a challenge.
package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"turfwars/internal/battle/models"
)

// Event is the JSON payload published per resolved battle.
type Event struct {
	ID               string    `json:"id"`
	TerritoryID      string    `json:"territory_id"`
	AttackerClubID   string    `json:"attacker_club_id"`
	AttackerUserID   string    `json:"attacker_user_id"`
	DefenderClubID   string    `json:"defender_club_id"`
	AttackerPower    int       `json:"attacker_power"`
	DefenderStrength int       `json:"defender_strength"`
	Victory          bool      `json:"victory"`
	Timestamp        time.Time `json:"timestamp"`
}

// FromRecord maps a stored battle record onto the wire payload.
func FromRecord(r *models.BattleRecord) Event {
	return Event{
		ID:               r.ID.String(),
		TerritoryID:      r.TerritoryID.String(),
		AttackerClubID:   r.AttackerClubID.String(),
		AttackerUserID:   r.AttackerUserID.String(),
		DefenderClubID:   r.DefenderClubID.String(),
		AttackerPower:    r.AttackerPower,
		DefenderStrength: r.DefenderStrength,
		Victory:          r.Victory,
		Timestamp:        r.CreatedAt,
	}
}

// Sink delivers one encoded event to the transport.
type Sink interface {
	Produce(ctx context.Context, payload []byte) error
}

// Publisher buffers battle records and drains them to the sink from a
// background worker.
type Publisher struct {
	inbox  chan *models.BattleRecord
	sink   Sink
	logger *slog.Logger
}

// New creates a publisher with the given buffer size.
func New(sink Sink, buffer int, logger *slog.Logger) *Publisher {
	if buffer < 1 {
		buffer = 64
	}
	return &Publisher{
		inbox:  make(chan *models.BattleRecord, buffer),
		sink:   sink,
		logger: logger,
	}
}

// Publish enqueues a record without blocking. A full buffer drops the event;
// the stored battle log remains the source of truth.
func (p *Publisher) Publish(ctx context.Context, record *models.BattleRecord) {
	select {
	case p.inbox <- record:
	default:
		p.logger.WarnContext(ctx, "battle event buffer full, dropping event",
			"battle_id", record.ID.String())
	}
}

// Run drains the inbox until the context is canceled. Sink failures are
// logged and skipped so one bad broker never wedges the worker.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case record := <-p.inbox:
			payload, err := json.Marshal(FromRecord(record))
			if err != nil {
				p.logger.ErrorContext(ctx, "failed to encode battle event",
					"battle_id", record.ID.String(), "error", err.Error())
				continue
			}
			if err := p.sink.Produce(ctx, payload); err != nil {
				p.logger.ErrorContext(ctx, "failed to publish battle event",
					"battle_id", record.ID.String(), "error", err.Error())
			}
		}
	}
}

// Noop satisfies the battle service's publisher dependency when kafka is not
// configured.
type Noop struct{}

// Publish discards the record.
func (Noop) Publish(context.Context, *models.BattleRecord) {}
