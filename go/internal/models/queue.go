package models

import (
	"github.com/google/uuid"
)

// TeamQueue is a team's pre-ranked personal queue, consulted by the queue
// resolver when that team's turn times out. Mutated only by its owner.
type TeamQueue struct {
	TeamID    uuid.UUID   `json:"team_id"`
	PlayerIDs []uuid.UUID `json:"player_ids"`
}
