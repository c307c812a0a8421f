package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Ticker broadcasts countdown frames to rooms with a live clock. The
// session's deadline stays authoritative; ticks only correct client
// drift between events.
type Ticker struct {
	hub      *Hub
	mirror   *Mirror
	clk      clockwork.Clock
	interval time.Duration
}

func NewTicker(hub *Hub, mirror *Mirror, clk clockwork.Clock, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Ticker{hub: hub, mirror: mirror, clk: clk, interval: interval}
}

// Run ticks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	ticker := t.clk.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.tick()
		}
	}
}

func (t *Ticker) tick() {
	now := t.clk.Now()
	for _, draftID := range t.hub.ActiveDrafts() {
		state := t.mirror.State(draftID)
		if state == nil || state.Status != "IN_PROGRESS" {
			continue
		}

		payload := TimerTickPayload{
			TimeRemainingSec: state.TimeRemainingSec(now),
			ServerTime:       now.UTC(),
		}
		switch {
		case state.Nomination != nil:
			payload.TeamID = state.Nomination.NominatedBy
		case state.OnTheClock != nil:
			payload.TeamID = state.OnTheClock.TeamID
			payload.OverallPick = state.OnTheClock.OverallPick
		default:
			continue
		}

		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal timer tick")
			continue
		}
		t.hub.Broadcast(draftID, newEvent(uuid.New().String(), draftID.String(), TypeTimerTick, data))
	}
}
