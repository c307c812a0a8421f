package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fairwaylabs/clubhouse/go/internal/draft/events"
)

func applyEvent(t *testing.T, m *Mirror, draftID uuid.UUID, eventType string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	ev := newEvent(uuid.New().String(), draftID.String(), eventType, data)
	if err := m.Apply(ev); err != nil {
		t.Fatalf("apply %s: %v", eventType, err)
	}
}

func TestMirror_SnakeFlow(t *testing.T) {
	m := NewMirror()
	draftID := uuid.New()
	teamID := uuid.New().String()
	started := time.Now().UTC()
	deadline := started.Add(30 * time.Second)

	applyEvent(t, m, draftID, events.TypeDraftStarted, events.DraftStartedPayload{
		DraftID:     draftID.String(),
		DraftType:   "SNAKE",
		StartedAt:   started,
		TotalRounds: 4,
		TotalPicks:  32,
	})
	applyEvent(t, m, draftID, events.TypePickStarted, events.PickStartedPayload{
		TeamID:         teamID,
		Round:          1,
		Pick:           1,
		OverallPick:    1,
		StartedAt:      started,
		TimeoutAt:      deadline,
		TimePerPickSec: 30,
	})

	state := m.State(draftID)
	if state == nil {
		t.Fatal("expected state after events")
	}
	if state.Status != "IN_PROGRESS" || state.TotalPicks != 32 {
		t.Fatalf("unexpected state: %+v", state)
	}
	if state.OnTheClock == nil || state.OnTheClock.TeamID != teamID {
		t.Fatalf("expected team %s on the clock, got %+v", teamID, state.OnTheClock)
	}
	if got := state.TimeRemainingSec(started.Add(10 * time.Second)); got != 20 {
		t.Fatalf("time remaining: got %d, want 20", got)
	}

	applyEvent(t, m, draftID, events.TypePickMade, events.PickMadePayload{
		PickID:      uuid.New().String(),
		TeamID:      teamID,
		PlayerID:    uuid.New().String(),
		Round:       1,
		Pick:        1,
		OverallPick: 1,
		MadeAt:      started.Add(12 * time.Second),
	})

	state = m.State(draftID)
	if state.CompletedPicks != 1 {
		t.Fatalf("completed picks: got %d, want 1", state.CompletedPicks)
	}
	if state.OnTheClock != nil {
		t.Fatal("pick made should clear the clock")
	}
}

func TestMirror_AuctionBidUpdatesDeadline(t *testing.T) {
	m := NewMirror()
	draftID := uuid.New()
	playerID := uuid.New().String()
	nominator := uuid.New().String()
	bidder := uuid.New().String()
	opened := time.Now().UTC()

	applyEvent(t, m, draftID, events.TypeDraftStarted, events.DraftStartedPayload{
		DraftID:   draftID.String(),
		DraftType: "AUCTION",
		StartedAt: opened,
	})
	applyEvent(t, m, draftID, events.TypeNominationOpened, events.NominationOpenedPayload{
		PlayerID:    playerID,
		NominatedBy: nominator,
		StartingBid: 1,
		OpenedAt:    opened,
		Deadline:    opened.Add(30 * time.Second),
	})
	// Late bid renews the deadline.
	applyEvent(t, m, draftID, events.TypeBidPlaced, events.BidPlacedPayload{
		PlayerID: playerID,
		TeamID:   bidder,
		Amount:   7,
		PlacedAt: opened.Add(25 * time.Second),
		Deadline: opened.Add(35 * time.Second),
	})

	state := m.State(draftID)
	nom := state.Nomination
	if nom == nil {
		t.Fatal("expected open nomination")
	}
	if nom.HighBidder != bidder || nom.HighBid != 7 {
		t.Fatalf("high bid: got %s at %d", nom.HighBidder, nom.HighBid)
	}
	if !nom.Deadline.Equal(opened.Add(35 * time.Second)) {
		t.Fatalf("deadline not renewed: %v", nom.Deadline)
	}

	applyEvent(t, m, draftID, events.TypePickMade, events.PickMadePayload{
		PickID:   uuid.New().String(),
		TeamID:   bidder,
		PlayerID: playerID,
	})
	if m.State(draftID).Nomination != nil {
		t.Fatal("awarded lot should clear the nomination")
	}
}

func TestMirror_PauseResumeAndCompletion(t *testing.T) {
	m := NewMirror()
	draftID := uuid.New()
	now := time.Now().UTC()

	applyEvent(t, m, draftID, events.TypeDraftStarted, events.DraftStartedPayload{
		DraftID: draftID.String(), DraftType: "SNAKE", StartedAt: now,
	})
	applyEvent(t, m, draftID, events.TypePickStarted, events.PickStartedPayload{
		TeamID: uuid.New().String(), Round: 1, Pick: 1, OverallPick: 1,
		StartedAt: now, TimeoutAt: now.Add(30 * time.Second), TimePerPickSec: 30,
	})
	applyEvent(t, m, draftID, events.TypeDraftPaused, events.DraftPausedPayload{
		DraftID: draftID.String(), PausedAt: now.Add(10 * time.Second),
	})

	state := m.State(draftID)
	if state.Status != "PAUSED" || state.PausedAt == nil {
		t.Fatalf("expected paused state, got %+v", state)
	}

	resumedDeadline := now.Add(2 * time.Minute)
	applyEvent(t, m, draftID, events.TypeDraftResumed, events.DraftResumedPayload{
		DraftID: draftID.String(), ResumedAt: now.Add(90 * time.Second), TimeoutAt: resumedDeadline,
	})

	state = m.State(draftID)
	if state.Status != "IN_PROGRESS" || state.PausedAt != nil {
		t.Fatalf("expected resumed state, got %+v", state)
	}
	if !state.OnTheClock.TimeoutAt.Equal(resumedDeadline) {
		t.Fatalf("resume should move the turn deadline, got %v", state.OnTheClock.TimeoutAt)
	}

	applyEvent(t, m, draftID, events.TypeGradesUpdated, events.GradesUpdatedPayload{
		DraftID: draftID.String(), GradedPicks: 8, Final: true,
	})
	applyEvent(t, m, draftID, events.TypeDraftCompleted, events.DraftCompletedPayload{
		DraftID: draftID.String(), CompletedAt: now.Add(time.Hour),
	})

	state = m.State(draftID)
	if state.Status != "COMPLETED" || state.OnTheClock != nil {
		t.Fatalf("expected completed state, got %+v", state)
	}
	if state.GradedPicks != 8 || !state.GradesFinal {
		t.Fatalf("grades not mirrored: %+v", state)
	}

	m.Remove(draftID)
	if m.State(draftID) != nil {
		t.Fatal("removed draft should have no state")
	}
}
