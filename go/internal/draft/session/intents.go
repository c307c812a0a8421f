package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fairwaylabs/clubhouse/go/internal/draft/engine"
	"github.com/fairwaylabs/clubhouse/go/internal/models"
)

// ErrSessionClosed is returned when an intent arrives after the session's
// actor loop has exited.
var ErrSessionClosed = errors.New("draft session closed")

// intent is one unit of work for the session actor. The closure runs on
// the actor goroutine with exclusive access to all session state; the
// result travels back on reply.
type intent struct {
	fn    func(ctx context.Context) error
	reply chan error
}

// do posts fn to the actor mailbox and waits for it to run.
func (s *Session) do(ctx context.Context, fn func(ctx context.Context) error) error {
	in := intent{fn: fn, reply: make(chan error, 1)}
	select {
	case s.intents <- in:
	case <-s.closed:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-in.reply:
		return err
	case <-s.closed:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start moves a scheduled draft to IN_PROGRESS and puts the first team on
// the clock.
func (s *Session) Start(ctx context.Context) error {
	return s.do(ctx, s.start)
}

// Pause freezes the draft and the remaining turn time.
func (s *Session) Pause(ctx context.Context, reason string) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.pause(ctx, reason)
	})
}

// Resume re-opens a paused draft with exactly the turn time left at pause.
func (s *Session) Resume(ctx context.Context) error {
	return s.do(ctx, s.resume)
}

// Cancel abandons a draft that has not completed.
func (s *Session) Cancel(ctx context.Context, reason string) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.cancel(ctx, reason)
	})
}

// MakePick records an explicit selection by the team on the clock.
func (s *Session) MakePick(ctx context.Context, teamID, playerID uuid.UUID) (models.Pick, error) {
	var pick models.Pick
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		pick, err = s.makePick(ctx, teamID, playerID)
		return err
	})
	return pick, err
}

// Nominate opens an auction nomination for the team on the clock.
func (s *Session) Nominate(ctx context.Context, teamID, playerID uuid.UUID, startingBid int) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.nominate(ctx, teamID, playerID, startingBid)
	})
}

// PlaceBid bids on the open nomination.
func (s *Session) PlaceBid(ctx context.Context, teamID uuid.UUID, amount int) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.placeBid(ctx, teamID, amount)
	})
}

// PassBid records that a team is out of the open nomination. Passing is
// informational; the window still runs to its deadline.
func (s *Session) PassBid(ctx context.Context, teamID uuid.UUID) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.passBid(ctx, teamID)
	})
}

// ForceTimeout is the commissioner override: the current turn closes as
// if its deadline had elapsed.
func (s *Session) ForceTimeout(ctx context.Context) error {
	return s.do(ctx, s.forceTimeout)
}

// SetQueue replaces a team's personal queue. Only future auto-picks see
// the change; grades keep using the snapshot taken at draft start.
func (s *Session) SetQueue(ctx context.Context, teamID uuid.UUID, players []uuid.UUID) error {
	return s.do(ctx, func(ctx context.Context) error {
		return s.setQueue(teamID, players)
	})
}

// Snapshot is a point-in-time view of the session for queries and the
// gateway state mirror.
type Snapshot struct {
	Draft      models.Draft       `json:"draft"`
	OnTheClock *engine.Turn       `json:"on_the_clock,omitempty"`
	Deadline   *time.Time         `json:"deadline,omitempty"`
	Nomination *models.Nomination `json:"nomination,omitempty"`
	Picks      []models.Pick      `json:"picks"`
	Budgets    map[uuid.UUID]int  `json:"budgets,omitempty"`
	PickGrades []models.PickGrade `json:"pick_grades,omitempty"`
}

// Snapshot returns the session's current state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func(ctx context.Context) error {
		snap = s.snapshot()
		return nil
	})
	return snap, err
}

// TeamGrades returns every team's report card, best score first.
func (s *Session) TeamGrades(ctx context.Context) ([]models.TeamGrade, error) {
	var grades []models.TeamGrade
	err := s.do(ctx, func(ctx context.Context) error {
		if s.grader == nil {
			return fmt.Errorf("%w: draft has not started", engine.ErrInvalidPhase)
		}
		grades = s.grader.TeamGrades()
		return nil
	})
	return grades, err
}

// BoardComparison compares a team's picks against its pre-draft queue.
func (s *Session) BoardComparison(ctx context.Context, teamID uuid.UUID) (models.BoardComparison, error) {
	var cmp models.BoardComparison
	err := s.do(ctx, func(ctx context.Context) error {
		cmp = s.boardComparison(teamID)
		return nil
	})
	return cmp, err
}
