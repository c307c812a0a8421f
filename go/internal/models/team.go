package models

import (
	"github.com/google/uuid"
)

// Team represents a fantasy team participating in a draft.
// DraftPosition is the team's slot in the round-one order.
// Budget fields are only meaningful for auction drafts; RemainingBudget is
// mutated exclusively by the auction arbiter when a bid is awarded.
type Team struct {
	ID              uuid.UUID `json:"id"`
	LeagueID        uuid.UUID `json:"league_id"`
	Name            string    `json:"name"`
	DraftPosition   int       `json:"draft_position"`
	StartingBudget  int       `json:"starting_budget,omitempty"`
	RemainingBudget int       `json:"remaining_budget,omitempty"`
}
