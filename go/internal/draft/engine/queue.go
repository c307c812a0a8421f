package engine

import (
	"github.com/google/uuid"
)

// ResolveQueue picks the auto-pick target for a timed-out turn: the first
// still-available player in the team's queue, falling back to the highest
// ranked available player overall when the queue is empty or exhausted.
// The fallback means this path never stalls the draft while any undrafted
// player remains.
func ResolveQueue(queue []uuid.UUID, available func(uuid.UUID) bool, bestAvailable func() (uuid.UUID, bool)) (playerID uuid.UUID, fromQueue bool, err error) {
	for _, id := range queue {
		if available(id) {
			return id, true, nil
		}
	}
	best, ok := bestAvailable()
	if !ok {
		return uuid.Nil, false, ErrNoPlayersLeft
	}
	return best, false, nil
}
