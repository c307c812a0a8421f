package models

import (
	"time"

	"github.com/google/uuid"
)

// Pick represents a single resolved pick in a draft. Created exactly once
// when a turn resolves (explicit selection, queue fallback, or winning bid)
// and immutable afterwards. The ordered sequence of picks is the canonical
// draft history.
type Pick struct {
	ID          uuid.UUID `json:"id"`
	DraftID     uuid.UUID `json:"draft_id"`
	Round       int       `json:"round"`
	Pick        int       `json:"pick"`         // pick number in the round
	OverallPick int       `json:"overall_pick"` // pick number overall
	TeamID      uuid.UUID `json:"team_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	PickedAt    time.Time `json:"picked_at"`
	AutoPick    bool      `json:"auto_pick"`
	Price       *int      `json:"price,omitempty"` // auction winning bid
}
