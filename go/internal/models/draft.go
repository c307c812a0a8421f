package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftType defines the type of draft.
type DraftType string

const (
	DraftTypeSnake   DraftType = "SNAKE"
	DraftTypeAuction DraftType = "AUCTION"
)

// DraftStatus defines the status of a draft.
type DraftStatus string

const (
	DraftStatusScheduled  DraftStatus = "SCHEDULED"
	DraftStatusInProgress DraftStatus = "IN_PROGRESS"
	DraftStatusPaused     DraftStatus = "PAUSED"
	DraftStatusCompleted  DraftStatus = "COMPLETED"
	DraftStatusCancelled  DraftStatus = "CANCELLED"
)

// DraftSettings holds JSONB configuration for drafts.
type DraftSettings struct {
	Rounds             int         `json:"rounds"`
	TimePerPickSec     int         `json:"time_per_pick_sec"`
	DraftOrder         []uuid.UUID `json:"draft_order,omitempty"`
	ThirdRoundReversal bool        `json:"third_round_reversal,omitempty"`
	BudgetPerTeam      *int        `json:"budget_per_team,omitempty"`    // auction
	BidWindowSec       *int        `json:"bid_window_sec,omitempty"`     // auction
	BidRenewalSec      *int        `json:"bid_renewal_sec,omitempty"`    // auction anti-snipe
	MaxBidWindowSec    *int        `json:"max_bid_window_sec,omitempty"` // auction
}

// Draft represents a draft instance. Once completed it is never mutated
// again; the pick log plus the final settings are the canonical record.
type Draft struct {
	ID          uuid.UUID     `json:"id"`
	LeagueID    uuid.UUID     `json:"league_id"`
	DraftType   DraftType     `json:"draft_type"`
	Status      DraftStatus   `json:"status"`
	Settings    DraftSettings `json:"settings"`
	ScheduledAt *time.Time    `json:"scheduled_at,omitempty"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
