package engine

import (
	"fmt"

	"github.com/fairwaylabs/clubhouse/go/internal/models"
	"github.com/google/uuid"
)

// Ledger tracks which players are taken, by whom, and (auction mode) each
// team's remaining budget. It is the single authority for availability and
// budget invariants; the session actor is its only writer.
type Ledger struct {
	rounds      int
	auction     bool
	draftedBy   map[uuid.UUID]uuid.UUID
	picksByTeam map[uuid.UUID]int
	budgets     map[uuid.UUID]int
	picks       []models.Pick
	nextOverall int
}

// NewLedger builds a ledger for the given teams. budgetPerTeam is nil for
// snake drafts.
func NewLedger(teams []models.Team, rounds int, budgetPerTeam *int) *Ledger {
	l := &Ledger{
		rounds:      rounds,
		auction:     budgetPerTeam != nil,
		draftedBy:   make(map[uuid.UUID]uuid.UUID),
		picksByTeam: make(map[uuid.UUID]int),
		budgets:     make(map[uuid.UUID]int),
		nextOverall: 1,
	}
	for _, t := range teams {
		l.picksByTeam[t.ID] = 0
		if budgetPerTeam != nil {
			l.budgets[t.ID] = *budgetPerTeam
		}
	}
	return l
}

// Available reports whether a player is still undrafted.
func (l *Ledger) Available(playerID uuid.UUID) bool {
	_, taken := l.draftedBy[playerID]
	return !taken
}

// PicksMade returns the number of picks recorded so far.
func (l *Ledger) PicksMade() int {
	return len(l.picks)
}

// NextOverall returns the overall number the next pick must carry.
func (l *Ledger) NextOverall() int {
	return l.nextOverall
}

// SlotsUnfilled returns the open roster slots for a team.
func (l *Ledger) SlotsUnfilled(teamID uuid.UUID) int {
	return l.rounds - l.picksByTeam[teamID]
}

// RosterFull reports whether a team has drafted a full roster.
func (l *Ledger) RosterFull(teamID uuid.UUID) bool {
	return l.SlotsUnfilled(teamID) <= 0
}

// Reserve is the budget a team must hold back: at least $1 per remaining
// roster slot other than the one currently being bid on.
func (l *Ledger) Reserve(teamID uuid.UUID) int {
	r := l.SlotsUnfilled(teamID) - 1
	if r < 0 {
		return 0
	}
	return r
}

// MaxBid returns the largest bid a team may place without bidding away its
// ability to fill the rest of its roster.
func (l *Ledger) MaxBid(teamID uuid.UUID) int {
	return l.budgets[teamID] - l.Reserve(teamID)
}

// RemainingBudget returns a team's remaining auction budget.
func (l *Ledger) RemainingBudget(teamID uuid.UUID) int {
	return l.budgets[teamID]
}

// Record appends a resolved pick to the ledger, enforcing the session
// invariants: one pick per player, gapless strictly increasing overall
// numbers, no picks past a full roster, and (auction) a budget that never
// drops below the reserve for the remaining slots.
func (l *Ledger) Record(pick models.Pick) error {
	if _, taken := l.draftedBy[pick.PlayerID]; taken {
		return fmt.Errorf("%w: player %s", ErrPlayerUnavailable, pick.PlayerID)
	}
	if pick.OverallPick != l.nextOverall {
		return fmt.Errorf("pick log corrupt: got overall %d, want %d", pick.OverallPick, l.nextOverall)
	}
	if l.RosterFull(pick.TeamID) {
		return fmt.Errorf("team %s roster already full", pick.TeamID)
	}
	if l.auction {
		if pick.Price == nil {
			return fmt.Errorf("auction pick %d missing price", pick.OverallPick)
		}
		if *pick.Price > l.MaxBid(pick.TeamID) {
			return fmt.Errorf("%w: price %d exceeds max bid %d", ErrBidOverBudget, *pick.Price, l.MaxBid(pick.TeamID))
		}
		l.budgets[pick.TeamID] -= *pick.Price
	}
	l.draftedBy[pick.PlayerID] = pick.TeamID
	l.picksByTeam[pick.TeamID]++
	l.picks = append(l.picks, pick)
	l.nextOverall++
	return nil
}

// Picks returns the ordered pick history.
func (l *Ledger) Picks() []models.Pick {
	return l.picks
}

// TeamPicks returns the ordered picks made by one team.
func (l *Ledger) TeamPicks(teamID uuid.UUID) []models.Pick {
	var out []models.Pick
	for _, p := range l.picks {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out
}

// DraftedBy returns the team that drafted a player, if any.
func (l *Ledger) DraftedBy(playerID uuid.UUID) (uuid.UUID, bool) {
	teamID, ok := l.draftedBy[playerID]
	return teamID, ok
}
