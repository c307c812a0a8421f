package gateway

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairwaylabs/clubhouse/go/internal/draft/events"
)

// DraftState is the gateway's read model of one draft, rebuilt from the
// event stream. It backs the state sync frame and the timer ticks; the
// session actor stays authoritative for every decision.
type DraftState struct {
	DraftID        string           `json:"draft_id"`
	DraftType      string           `json:"draft_type,omitempty"`
	Status         string           `json:"status"`
	TotalPicks     int              `json:"total_picks"`
	CompletedPicks int              `json:"completed_picks"`
	OnTheClock     *TurnState       `json:"on_the_clock,omitempty"`
	Nomination     *NominationState `json:"nomination,omitempty"`
	GradedPicks    int              `json:"graded_picks"`
	GradesFinal    bool             `json:"grades_final"`
	StartedAt      *time.Time       `json:"started_at,omitempty"`
	PausedAt       *time.Time       `json:"paused_at,omitempty"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

// TurnState is the snake turn currently on the clock.
type TurnState struct {
	TeamID         string    `json:"team_id"`
	Round          int       `json:"round"`
	Pick           int       `json:"pick"`
	OverallPick    int       `json:"overall_pick"`
	StartedAt      time.Time `json:"started_at"`
	TimeoutAt      time.Time `json:"timeout_at"`
	TimePerPickSec int       `json:"time_per_pick_sec"`
}

// NominationState is the open auction lot, including the running high
// bid and the anti-snipe deadline as of the last event.
type NominationState struct {
	PlayerID    string    `json:"player_id"`
	NominatedBy string    `json:"nominated_by"`
	StartingBid int       `json:"starting_bid"`
	HighBidder  string    `json:"high_bidder,omitempty"`
	HighBid     int       `json:"high_bid,omitempty"`
	OpenedAt    time.Time `json:"opened_at"`
	Deadline    time.Time `json:"deadline"`
}

// TimeRemainingSec returns the seconds left on whichever clock is live,
// the snake turn or the bid window. Zero when nothing is on the clock.
func (s *DraftState) TimeRemainingSec(now time.Time) int {
	var deadline time.Time
	switch {
	case s.Nomination != nil:
		deadline = s.Nomination.Deadline
	case s.OnTheClock != nil:
		deadline = s.OnTheClock.TimeoutAt
	default:
		return 0
	}
	remaining := int(deadline.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Mirror holds the per-draft read models.
type Mirror struct {
	mu     sync.RWMutex
	states map[uuid.UUID]*DraftState
}

func NewMirror() *Mirror {
	return &Mirror{states: make(map[uuid.UUID]*DraftState)}
}

// State returns a copy of one draft's read model, or nil when the
// mirror has seen no events for it.
func (m *Mirror) State(draftID uuid.UUID) *DraftState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[draftID]
	if !ok {
		return nil
	}
	copied := *s
	if s.OnTheClock != nil {
		turn := *s.OnTheClock
		copied.OnTheClock = &turn
	}
	if s.Nomination != nil {
		nom := *s.Nomination
		copied.Nomination = &nom
	}
	return &copied
}

// Remove drops one draft's read model.
func (m *Mirror) Remove(draftID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, draftID)
}

// Apply folds one event into the draft's read model.
func (m *Mirror) Apply(event *Event) error {
	draftID, err := uuid.Parse(event.DraftID)
	if err != nil {
		return fmt.Errorf("parse draft id: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[draftID]
	if !ok {
		state = &DraftState{DraftID: event.DraftID, Status: "SCHEDULED"}
		m.states[draftID] = state
	}
	return state.apply(event)
}

func (s *DraftState) apply(event *Event) error {
	switch event.Type {
	case events.TypeDraftStarted:
		var p events.DraftStartedPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return err
		}
		s.Status = "IN_PROGRESS"
		s.DraftType = p.DraftType
		s.TotalPicks = p.TotalPicks
		s.StartedAt = &p.StartedAt

	case events.TypePickStarted:
		var p events.PickStartedPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return err
		}
		s.OnTheClock = &TurnState{
			TeamID:         p.TeamID,
			Round:          p.Round,
			Pick:           p.Pick,
			OverallPick:    p.OverallPick,
			StartedAt:      p.StartedAt,
			TimeoutAt:      p.TimeoutAt,
			TimePerPickSec: p.TimePerPickSec,
		}

	case events.TypePickMade:
		s.CompletedPicks++
		s.OnTheClock = nil
		s.Nomination = nil

	case events.TypeNominationOpened:
		var p events.NominationOpenedPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return err
		}
		s.Nomination = &NominationState{
			PlayerID:    p.PlayerID,
			NominatedBy: p.NominatedBy,
			StartingBid: p.StartingBid,
			OpenedAt:    p.OpenedAt,
			Deadline:    p.Deadline,
		}

	case events.TypeBidPlaced:
		var p events.BidPlacedPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return err
		}
		// Bids can outrun a stale mirror after a reconnect; tolerate a
		// bid for a lot the mirror never saw open.
		if s.Nomination == nil {
			s.Nomination = &NominationState{PlayerID: p.PlayerID}
		}
		s.Nomination.HighBidder = p.TeamID
		s.Nomination.HighBid = p.Amount
		s.Nomination.Deadline = p.Deadline

	case events.TypeNominationPassed:
		s.Nomination = nil

	case events.TypeDraftPaused:
		var p events.DraftPausedPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return err
		}
		s.Status = "PAUSED"
		s.PausedAt = &p.PausedAt

	case events.TypeDraftResumed:
		var p events.DraftResumedPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return err
		}
		s.Status = "IN_PROGRESS"
		s.PausedAt = nil
		if s.OnTheClock != nil {
			s.OnTheClock.TimeoutAt = p.TimeoutAt
		}
		if s.Nomination != nil && p.TimeoutAt.After(s.Nomination.Deadline) {
			s.Nomination.Deadline = p.TimeoutAt
		}

	case events.TypeDraftCompleted:
		var p events.DraftCompletedPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return err
		}
		s.Status = "COMPLETED"
		s.CompletedAt = &p.CompletedAt
		s.OnTheClock = nil
		s.Nomination = nil

	case events.TypeDraftCancelled:
		s.Status = "CANCELLED"
		s.OnTheClock = nil
		s.Nomination = nil

	case events.TypeGradesUpdated:
		var p events.GradesUpdatedPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return err
		}
		s.GradedPicks = p.GradedPicks
		s.GradesFinal = p.Final
	}
	return nil
}
