package grading

import (
	"github.com/google/uuid"

	"github.com/fairwaylabs/clubhouse/go/internal/models"
)

// CompareBoard reports how far a team's actual picks strayed from its
// pre-draft ranked board. Deviation is the pick's ordinal within the
// team's own picks minus the player's board rank, so a positive number
// means the player went later than the board said. A pure function over
// (board, picks); the live view and the recap call the same thing.
func CompareBoard(teamID uuid.UUID, board []uuid.UUID, picks []models.Pick) models.BoardComparison {
	boardRank := make(map[uuid.UUID]int, len(board))
	for i, id := range board {
		boardRank[id] = i + 1
	}

	cmp := models.BoardComparison{TeamID: teamID}
	drafted := make(map[uuid.UUID]bool)
	position := 0
	for _, p := range picks {
		if p.TeamID != teamID {
			continue
		}
		position++
		drafted[p.PlayerID] = true
		dev := models.BoardPickDeviation{
			OverallPick: p.OverallPick,
			PlayerID:    p.PlayerID,
		}
		if rank, ok := boardRank[p.PlayerID]; ok {
			dev.BoardRank = rank
			dev.Deviation = position - rank
			dev.WasOnBoard = true
		}
		cmp.Picks = append(cmp.Picks, dev)
	}

	for _, id := range board {
		if !drafted[id] {
			cmp.Undrafted = append(cmp.Undrafted, id)
		}
	}
	return cmp
}
