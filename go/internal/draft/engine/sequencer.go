package engine

import (
	"fmt"

	"github.com/fairwaylabs/clubhouse/go/internal/models"
	"github.com/google/uuid"
)

// Turn identifies the slot currently on the clock. For snake drafts the
// slot is a pick turn; for auction drafts it is a nomination turn and
// OverallPick is assigned by the ledger when the winning bid resolves.
type Turn struct {
	TeamID      uuid.UUID
	Round       int
	Pick        int // 1-indexed slot within the round
	OverallPick int // snake only; 0 for auction nomination turns
}

// Sequencer deterministically answers "whose turn, which round, which
// overall pick number" and advances that state. It is not safe for
// concurrent use; the session actor owns it.
type Sequencer struct {
	mode               models.DraftType
	order              []uuid.UUID
	rounds             int
	thirdRoundReversal bool

	round       int
	idx         int // cursor into the current round's order
	pickInRound int
	overall     int // next overall pick number (snake)
	filled      map[uuid.UUID]bool
	done        bool
}

// NewSequencer builds a sequencer over the round-one draft order.
// For snake drafts even rounds reverse direction; with third-round
// reversal every round from three onward is reversed as well. Auction
// drafts use the same pattern to decide who nominates next.
func NewSequencer(mode models.DraftType, order []uuid.UUID, rounds int, thirdRoundReversal bool) (*Sequencer, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("draft order is empty")
	}
	if rounds <= 0 {
		return nil, fmt.Errorf("rounds must be greater than 0")
	}
	return &Sequencer{
		mode:               mode,
		order:              order,
		rounds:             rounds,
		thirdRoundReversal: thirdRoundReversal,
		round:              1,
		overall:            1,
		filled:             make(map[uuid.UUID]bool),
	}, nil
}

// roundOrder returns the team order for the given round.
func (s *Sequencer) roundOrder(round int) []uuid.UUID {
	reversed := round%2 == 0
	if s.thirdRoundReversal && round >= 3 {
		reversed = true
	}
	if !reversed {
		return s.order
	}
	out := make([]uuid.UUID, len(s.order))
	for i, teamID := range s.order {
		out[len(s.order)-1-i] = teamID
	}
	return out
}

// skipFilled moves the cursor past teams with full rosters, rolling over
// rounds as needed. Skipping keeps the alternating pattern intact for the
// remaining teams.
func (s *Sequencer) skipFilled() {
	for !s.done {
		ro := s.roundOrder(s.round)
		for s.idx < len(ro) && s.filled[ro[s.idx]] {
			s.idx++
		}
		if s.idx < len(ro) {
			return
		}
		s.round++
		s.idx = 0
		s.pickInRound = 0
		if s.mode == models.DraftTypeAuction {
			// Auction rounds count nomination passes and can exceed the
			// roster size because unsold nominations consume no slot.
			if len(s.filled) == len(s.order) {
				s.done = true
			}
			continue
		}
		if s.round > s.rounds {
			s.done = true
		}
	}
}

// OnTheClock returns the current turn. ok is false once every slot has
// been consumed.
func (s *Sequencer) OnTheClock() (Turn, bool) {
	s.skipFilled()
	if s.done {
		return Turn{}, false
	}
	ro := s.roundOrder(s.round)
	t := Turn{
		TeamID: ro[s.idx],
		Round:  s.round,
		Pick:   s.pickInRound + 1,
	}
	if s.mode != models.DraftTypeAuction {
		t.OverallPick = s.overall
	}
	return t, true
}

// Validate rejects an attempt by teamID to act when it is not on the
// clock.
func (s *Sequencer) Validate(teamID uuid.UUID) error {
	turn, ok := s.OnTheClock()
	if !ok {
		return ErrDraftComplete
	}
	if turn.TeamID != teamID {
		return fmt.Errorf("%w: on the clock is %s", ErrOutOfTurn, turn.TeamID)
	}
	return nil
}

// Advance consumes the current turn: a completed pick for snake drafts, a
// finished nomination (sold or returned to the pool) for auctions.
func (s *Sequencer) Advance() {
	s.skipFilled()
	if s.done {
		return
	}
	s.idx++
	s.pickInRound++
	if s.mode != models.DraftTypeAuction {
		s.overall++
	}
	s.skipFilled()
}

// MarkFilled removes a team from all future turn computations once its
// roster is full.
func (s *Sequencer) MarkFilled(teamID uuid.UUID) {
	s.filled[teamID] = true
}

// Round returns the current round number.
func (s *Sequencer) Round() int {
	s.skipFilled()
	return s.round
}

// NominationsRemaining reports how many teams still nominate in the
// current auction round.
func (s *Sequencer) NominationsRemaining() int {
	s.skipFilled()
	if s.done {
		return 0
	}
	ro := s.roundOrder(s.round)
	remaining := 0
	for i := s.idx; i < len(ro); i++ {
		if !s.filled[ro[i]] {
			remaining++
		}
	}
	return remaining
}

// Done reports whether every turn has been consumed.
func (s *Sequencer) Done() bool {
	s.skipFilled()
	return s.done
}
