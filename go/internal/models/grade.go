package models

import (
	"github.com/google/uuid"
)

// PickTag is the qualitative label attached to a graded pick.
type PickTag string

const (
	PickTagSteal    PickTag = "STEAL"
	PickTagPanic    PickTag = "PANIC"
	PickTagReach    PickTag = "REACH"
	PickTagPlan     PickTag = "PLAN"
	PickTagValue    PickTag = "VALUE"
	PickTagFallback PickTag = "FALLBACK"
)

// PickGrade is the derived quality grade for a single pick. Never mutated
// after computation; recomputing from the pick log yields the same value.
type PickGrade struct {
	PickID      uuid.UUID `json:"pick_id"`
	OverallPick int       `json:"overall_pick"`
	Round       int       `json:"round"`
	TeamID      uuid.UUID `json:"team_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	AdpDiff     int       `json:"adp_diff"`
	Score       int       `json:"score"`
	Grade       string    `json:"grade"`
	Tag         PickTag   `json:"tag"`
}

// TeamGrade aggregates a team's pick grades into a report card.
type TeamGrade struct {
	TeamID       uuid.UUID   `json:"team_id"`
	OverallScore float64     `json:"overall_score"`
	OverallGrade string      `json:"overall_grade"`
	BestPick     *PickGrade  `json:"best_pick,omitempty"`
	WorstPick    *PickGrade  `json:"worst_pick,omitempty"`
	TotalValue   int         `json:"total_value"`
	Sleepers     []PickGrade `json:"sleepers,omitempty"`
	Reaches      []PickGrade `json:"reaches,omitempty"`
}

// BoardPickDeviation compares one actual pick against the team's
// pre-draft ranked board.
type BoardPickDeviation struct {
	OverallPick int       `json:"overall_pick"`
	PlayerID    uuid.UUID `json:"player_id"`
	BoardRank   int       `json:"board_rank,omitempty"`
	Deviation   int       `json:"deviation"`
	WasOnBoard  bool      `json:"was_on_board"`
}

// BoardComparison is the full board-vs-picks report for one team.
type BoardComparison struct {
	TeamID    uuid.UUID            `json:"team_id"`
	Picks     []BoardPickDeviation `json:"picks"`
	Undrafted []uuid.UUID          `json:"undrafted"`
}
