package events

import (
	"time"
)

// Event payload types that are shared between the session, outbox, and
// gateway packages.

// Event type names as they appear on the wire and in the outbox table.
const (
	TypeDraftStarted     = "DraftStarted"
	TypeDraftPaused      = "DraftPaused"
	TypeDraftResumed     = "DraftResumed"
	TypeDraftCompleted   = "DraftCompleted"
	TypeDraftCancelled   = "DraftCancelled"
	TypePickStarted      = "PickStarted"
	TypePickMade         = "PickMade"
	TypeNominationOpened = "NominationOpened"
	TypeNominationPassed = "NominationPassed"
	TypeBidPlaced        = "BidPlaced"
	TypeGradesUpdated    = "GradesUpdated"
)

// PickStartedPayload is the payload for a PickStarted event
type PickStartedPayload struct {
	TeamID         string    `json:"team_id"`
	Round          int       `json:"round"`
	Pick           int       `json:"pick"`
	OverallPick    int       `json:"overall_pick"`
	StartedAt      time.Time `json:"started_at"`
	TimeoutAt      time.Time `json:"timeout_at"`
	TimePerPickSec int       `json:"time_per_pick_sec"`
}

// PickMadePayload is the payload for a PickMade event
type PickMadePayload struct {
	PickID      string    `json:"pick_id"`
	TeamID      string    `json:"team_id"`
	PlayerID    string    `json:"player_id"`
	Round       int       `json:"round"`
	Pick        int       `json:"pick"`
	OverallPick int       `json:"overall_pick"`
	AutoPick    bool      `json:"auto_pick"`
	Price       *int      `json:"price,omitempty"`
	MadeAt      time.Time `json:"made_at"`
}

// NominationOpenedPayload is the payload for a NominationOpened event
type NominationOpenedPayload struct {
	PlayerID    string    `json:"player_id"`
	NominatedBy string    `json:"nominated_by"`
	StartingBid int       `json:"starting_bid"`
	OpenedAt    time.Time `json:"opened_at"`
	Deadline    time.Time `json:"deadline"`
}

// NominationPassedPayload is the payload for a NominationPassed event,
// emitted when a bid window closes with no valid bid.
type NominationPassedPayload struct {
	PlayerID string    `json:"player_id"`
	PassedAt time.Time `json:"passed_at"`
}

// BidPlacedPayload is the payload for a BidPlaced event
type BidPlacedPayload struct {
	PlayerID string    `json:"player_id"`
	TeamID   string    `json:"team_id"`
	Amount   int       `json:"amount"`
	PlacedAt time.Time `json:"placed_at"`
	Deadline time.Time `json:"deadline"`
}

// DraftStartedPayload is the payload for a DraftStarted event
type DraftStartedPayload struct {
	DraftID     string    `json:"draft_id"`
	DraftType   string    `json:"draft_type"`
	StartedAt   time.Time `json:"started_at"`
	TotalRounds int       `json:"total_rounds"`
	TotalPicks  int       `json:"total_picks"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event
type DraftCompletedPayload struct {
	DraftID     string    `json:"draft_id"`
	CompletedAt time.Time `json:"completed_at"`
	Duration    string    `json:"duration"`
	TotalPicks  int       `json:"total_picks"`
}

// DraftCancelledPayload is the payload for a DraftCancelled event
type DraftCancelledPayload struct {
	DraftID     string    `json:"draft_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason"`
}

// DraftPausedPayload is the payload for a DraftPaused event
type DraftPausedPayload struct {
	DraftID   string        `json:"draft_id"`
	PausedAt  time.Time     `json:"paused_at"`
	Reason    string        `json:"reason"`
	Remaining time.Duration `json:"remaining_ns"`
}

// DraftResumedPayload is the payload for a DraftResumed event
type DraftResumedPayload struct {
	DraftID   string    `json:"draft_id"`
	ResumedAt time.Time `json:"resumed_at"`
	TimeoutAt time.Time `json:"timeout_at"`
}

// GradesUpdatedPayload is the payload for a GradesUpdated event, emitted
// after each graded pick and once more at completion.
type GradesUpdatedPayload struct {
	DraftID     string    `json:"draft_id"`
	PickID      string    `json:"pick_id,omitempty"`
	GradedPicks int       `json:"graded_picks"`
	Final       bool      `json:"final"`
	UpdatedAt   time.Time `json:"updated_at"`
}
