package models

import (
	"github.com/google/uuid"
)

// Player represents a draftable player supplied by the external ranking
// source. Rank doubles as the ADP proxy used by the grading engine.
// The draft engine never mutates players; it only marks them drafted in
// its own ledger.
type Player struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Rank     int       `json:"rank"`
	Position string    `json:"position"`
	Tour     string    `json:"tour"`
}
