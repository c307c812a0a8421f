package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fairwaylabs/clubhouse/go/internal/draft/engine"
	"github.com/fairwaylabs/clubhouse/go/internal/draft/grading"
	"github.com/fairwaylabs/clubhouse/go/internal/models"
)

// ReplayResult is the state rebuilt from a persisted pick log.
type ReplayResult struct {
	Ledger     *engine.Ledger
	Grader     *grading.Grader
	PickGrades []models.PickGrade
}

// Replay rebuilds ledger state and grades from the canonical pick log.
// It feeds picks through the same grader the live path uses, so a recap
// always matches what was shown during the draft. Replay halts with an
// error on the first inconsistency rather than guessing; a corrupt log is
// a bug upstream, not something to repair here.
func Replay(draft models.Draft, teams []models.Team, players []models.Player, queues map[uuid.UUID][]uuid.UUID, picks []models.Pick) (*ReplayResult, error) {
	settings := draft.Settings
	ledger := engine.NewLedger(teams, settings.Rounds, settings.BudgetPerTeam)

	ranks := make(map[uuid.UUID]int, len(players))
	for _, p := range players {
		ranks[p.ID] = p.Rank
	}
	grader := grading.NewGrader(ranks, queues)

	var seq *engine.Sequencer
	if draft.DraftType == models.DraftTypeSnake {
		var err error
		seq, err = engine.NewSequencer(draft.DraftType, settings.DraftOrder, settings.Rounds, settings.ThirdRoundReversal)
		if err != nil {
			return nil, fmt.Errorf("replay draft %s: %w", draft.ID, err)
		}
	}

	for i, pick := range picks {
		if seq != nil {
			turn, ok := seq.OnTheClock()
			if !ok {
				return nil, fmt.Errorf("replay draft %s: pick %d past end of draft", draft.ID, i+1)
			}
			if turn.TeamID != pick.TeamID {
				return nil, fmt.Errorf("replay draft %s: pick %d made by %s, expected %s on the clock",
					draft.ID, i+1, pick.TeamID, turn.TeamID)
			}
		}
		if err := ledger.Record(pick); err != nil {
			return nil, fmt.Errorf("replay draft %s: pick %d: %w", draft.ID, i+1, err)
		}
		if seq != nil {
			seq.Advance()
		}
		grader.Add(pick)
	}

	return &ReplayResult{
		Ledger:     ledger,
		Grader:     grader,
		PickGrades: grader.PickGrades(),
	}, nil
}
