package models

import (
	"time"

	"github.com/google/uuid"
)

// Bid is an accepted auction bid. Superseded bids are discarded; only the
// current high bid survives on the nomination.
type Bid struct {
	PlayerID uuid.UUID `json:"player_id"`
	TeamID   uuid.UUID `json:"team_id"`
	Amount   int       `json:"amount"`
	PlacedAt time.Time `json:"placed_at"`
}

// Nomination is the serializable view of the player currently under bid.
type Nomination struct {
	PlayerID    uuid.UUID   `json:"player_id"`
	NominatedBy uuid.UUID   `json:"nominated_by"`
	HighBid     Bid         `json:"high_bid"`
	OpenedAt    time.Time   `json:"opened_at"`
	Deadline    time.Time   `json:"deadline"`
	Passed      []uuid.UUID `json:"passed,omitempty"`
}
