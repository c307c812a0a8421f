package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/fairwaylabs/clubhouse/go/internal/draft/clock"
	"github.com/fairwaylabs/clubhouse/go/internal/draft/engine"
	"github.com/fairwaylabs/clubhouse/go/internal/draft/events"
	"github.com/fairwaylabs/clubhouse/go/internal/draft/grading"
	"github.com/fairwaylabs/clubhouse/go/internal/models"
)

// Store persists the pick log and draft status transitions.
type Store interface {
	AppendPick(ctx context.Context, pick models.Pick) error
	UpdateDraftStatus(ctx context.Context, draft models.Draft) error
}

// Emitter hands domain events to the outbox.
type Emitter interface {
	Emit(ctx context.Context, draftID uuid.UUID, eventType string, payload any) error
}

// Config assembles everything a session needs before it starts.
type Config struct {
	Draft   models.Draft
	Teams   []models.Team
	Players []models.Player
	Queues  map[uuid.UUID][]uuid.UUID
	Clock   clockwork.Clock
	Store   Store
	Emitter Emitter
}

// Session is the authoritative state machine for one draft. A single
// goroutine (Run) owns all mutable state; external callers talk to it
// through intents, and clock timeouts arrive through the same mailbox
// discipline so that every state change is serialized. A timeout whose
// sequence number no longer matches the latest armed deadline means the
// turn already closed and is dropped.
type Session struct {
	draft models.Draft
	teams map[uuid.UUID]models.Team
	board []models.Player // sorted by rank ascending
	ranks map[uuid.UUID]int

	seq    *engine.Sequencer
	ledger *engine.Ledger
	arb    *engine.Arbiter
	grader *grading.Grader

	queues        map[uuid.UUID][]uuid.UUID
	queueSnapshot map[uuid.UUID][]uuid.UUID

	pickTime   time.Duration
	auctionCfg engine.AuctionConfig
	nomTurn    engine.Turn // turn that opened the live nomination
	pausedAt   time.Time

	wall     clockwork.Clock
	clk      *clock.Clock
	timeouts chan clock.Timeout
	intents  chan intent
	closed   chan struct{}

	store Store
	emit  Emitter
}

// New builds a session from its config. The draft must carry a valid
// order and settings; Run must be called before any intent is accepted.
func New(cfg Config) (*Session, error) {
	settings := cfg.Draft.Settings
	if settings.Rounds <= 0 {
		return nil, fmt.Errorf("draft %s: rounds must be greater than 0", cfg.Draft.ID)
	}
	if len(settings.DraftOrder) == 0 {
		return nil, fmt.Errorf("draft %s: empty draft order", cfg.Draft.ID)
	}
	if cfg.Draft.DraftType == models.DraftTypeAuction && settings.BudgetPerTeam == nil {
		return nil, fmt.Errorf("draft %s: auction draft missing budget", cfg.Draft.ID)
	}

	seq, err := engine.NewSequencer(cfg.Draft.DraftType, settings.DraftOrder, settings.Rounds, settings.ThirdRoundReversal)
	if err != nil {
		return nil, fmt.Errorf("draft %s: %w", cfg.Draft.ID, err)
	}

	wall := cfg.Clock
	if wall == nil {
		wall = clockwork.NewRealClock()
	}

	s := &Session{
		draft:    cfg.Draft,
		teams:    make(map[uuid.UUID]models.Team, len(cfg.Teams)),
		ranks:    make(map[uuid.UUID]int, len(cfg.Players)),
		seq:      seq,
		ledger:   engine.NewLedger(cfg.Teams, settings.Rounds, settings.BudgetPerTeam),
		queues:   make(map[uuid.UUID][]uuid.UUID),
		pickTime: time.Duration(settings.TimePerPickSec) * time.Second,
		wall:     wall,
		timeouts: make(chan clock.Timeout, 4),
		intents:  make(chan intent),
		closed:   make(chan struct{}),
		store:    cfg.Store,
		emit:     cfg.Emitter,
	}
	s.clk = clock.New(wall, cfg.Draft.ID, s.timeouts)

	for _, t := range cfg.Teams {
		s.teams[t.ID] = t
	}
	s.board = append([]models.Player(nil), cfg.Players...)
	sort.Slice(s.board, func(i, j int) bool { return s.board[i].Rank < s.board[j].Rank })
	for _, p := range s.board {
		s.ranks[p.ID] = p.Rank
	}
	for teamID, q := range cfg.Queues {
		s.queues[teamID] = append([]uuid.UUID(nil), q...)
	}

	if cfg.Draft.DraftType == models.DraftTypeAuction {
		s.auctionCfg = auctionConfig(settings)
		s.arb = engine.NewArbiter(s.auctionCfg, s.ledger)
	}
	return s, nil
}

func auctionConfig(settings models.DraftSettings) engine.AuctionConfig {
	cfg := engine.DefaultAuctionConfig()
	if settings.BidWindowSec != nil {
		cfg.BidWindow = time.Duration(*settings.BidWindowSec) * time.Second
	}
	if settings.BidRenewalSec != nil {
		cfg.Renewal = time.Duration(*settings.BidRenewalSec) * time.Second
	}
	if settings.MaxBidWindowSec != nil {
		cfg.MaxWindow = time.Duration(*settings.MaxBidWindowSec) * time.Second
	}
	return cfg
}

// Run drives the actor loop until ctx is cancelled. All intents and
// timeouts are processed here, one at a time.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.closed)
	defer s.clk.Cancel()

	log.Info().
		Str("draft_id", s.draft.ID.String()).
		Str("draft_type", string(s.draft.DraftType)).
		Int("teams", len(s.teams)).
		Msg("draft session running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-s.intents:
			in.reply <- in.fn(ctx)
		case to := <-s.timeouts:
			s.handleTimeout(ctx, to)
		}
	}
}

// ----- lifecycle -----

func (s *Session) start(ctx context.Context) error {
	if s.draft.Status != models.DraftStatusScheduled {
		return fmt.Errorf("%w: cannot start draft in status %s", engine.ErrInvalidPhase, s.draft.Status)
	}

	// Grades are computed against the queues as they stood at start, so
	// mid-draft queue edits cannot change how earlier picks grade.
	s.queueSnapshot = make(map[uuid.UUID][]uuid.UUID, len(s.queues))
	for teamID, q := range s.queues {
		s.queueSnapshot[teamID] = append([]uuid.UUID(nil), q...)
	}
	s.grader = grading.NewGrader(s.ranks, s.queueSnapshot)

	now := s.wall.Now()
	s.draft.Status = models.DraftStatusInProgress
	s.draft.StartedAt = &now
	s.persistStatus(ctx)

	s.emitEvent(ctx, events.TypeDraftStarted, events.DraftStartedPayload{
		DraftID:     s.draft.ID.String(),
		DraftType:   string(s.draft.DraftType),
		StartedAt:   now,
		TotalRounds: s.draft.Settings.Rounds,
		TotalPicks:  s.draft.Settings.Rounds * len(s.teams),
	})

	s.openNextTurn(ctx)
	return nil
}

func (s *Session) pause(ctx context.Context, reason string) error {
	if s.draft.Status != models.DraftStatusInProgress {
		return fmt.Errorf("%w: cannot pause draft in status %s", engine.ErrInvalidPhase, s.draft.Status)
	}
	s.clk.Pause()
	s.pausedAt = s.wall.Now()
	s.draft.Status = models.DraftStatusPaused
	s.persistStatus(ctx)

	s.emitEvent(ctx, events.TypeDraftPaused, events.DraftPausedPayload{
		DraftID:   s.draft.ID.String(),
		PausedAt:  s.pausedAt,
		Reason:    reason,
		Remaining: s.clk.Remaining(),
	})
	return nil
}

func (s *Session) resume(ctx context.Context) error {
	if s.draft.Status != models.DraftStatusPaused {
		return fmt.Errorf("%w: cannot resume draft in status %s", engine.ErrInvalidPhase, s.draft.Status)
	}
	now := s.wall.Now()
	if s.arb != nil {
		// Time spent paused must not count against an open bid window.
		s.arb.ShiftDeadlines(now.Sub(s.pausedAt))
	}
	remaining := s.clk.Remaining()
	if _, ok := s.clk.Resume(); !ok {
		s.clk.ArmFor(remaining)
	}
	s.draft.Status = models.DraftStatusInProgress
	s.persistStatus(ctx)

	s.emitEvent(ctx, events.TypeDraftResumed, events.DraftResumedPayload{
		DraftID:   s.draft.ID.String(),
		ResumedAt: now,
		TimeoutAt: now.Add(remaining),
	})
	return nil
}

func (s *Session) cancel(ctx context.Context, reason string) error {
	switch s.draft.Status {
	case models.DraftStatusCompleted, models.DraftStatusCancelled:
		return fmt.Errorf("%w: draft already %s", engine.ErrInvalidPhase, s.draft.Status)
	}
	s.clk.Cancel()
	now := s.wall.Now()
	s.draft.Status = models.DraftStatusCancelled
	s.persistStatus(ctx)

	s.emitEvent(ctx, events.TypeDraftCancelled, events.DraftCancelledPayload{
		DraftID:     s.draft.ID.String(),
		CancelledAt: now,
		Reason:      reason,
	})
	return nil
}

func (s *Session) complete(ctx context.Context) {
	s.clk.Cancel()
	now := s.wall.Now()
	s.draft.Status = models.DraftStatusCompleted
	s.draft.CompletedAt = &now
	s.persistStatus(ctx)

	duration := ""
	if s.draft.StartedAt != nil {
		duration = now.Sub(*s.draft.StartedAt).String()
	}
	s.emitEvent(ctx, events.TypeDraftCompleted, events.DraftCompletedPayload{
		DraftID:     s.draft.ID.String(),
		CompletedAt: now,
		Duration:    duration,
		TotalPicks:  s.ledger.PicksMade(),
	})
	s.emitEvent(ctx, events.TypeGradesUpdated, events.GradesUpdatedPayload{
		DraftID:     s.draft.ID.String(),
		GradedPicks: s.ledger.PicksMade(),
		Final:       true,
		UpdatedAt:   now,
	})

	log.Info().
		Str("draft_id", s.draft.ID.String()).
		Int("total_picks", s.ledger.PicksMade()).
		Msg("draft completed")
}

// ----- turns -----

// openNextTurn arms the deadline for the next pick or nomination turn, or
// completes the draft when the sequencer has no turns left.
func (s *Session) openNextTurn(ctx context.Context) {
	if s.seq.Done() {
		s.complete(ctx)
		return
	}
	turn, _ := s.seq.OnTheClock()
	now := s.wall.Now()
	s.clk.ArmFor(s.pickTime)

	s.emitEvent(ctx, events.TypePickStarted, events.PickStartedPayload{
		TeamID:         turn.TeamID.String(),
		Round:          turn.Round,
		Pick:           turn.Pick,
		OverallPick:    turn.OverallPick,
		StartedAt:      now,
		TimeoutAt:      now.Add(s.pickTime),
		TimePerPickSec: int(s.pickTime / time.Second),
	})
}

func (s *Session) makePick(ctx context.Context, teamID, playerID uuid.UUID) (models.Pick, error) {
	if s.draft.Status != models.DraftStatusInProgress {
		return models.Pick{}, fmt.Errorf("%w: draft is %s", engine.ErrInvalidPhase, s.draft.Status)
	}
	if s.draft.DraftType == models.DraftTypeAuction {
		return models.Pick{}, fmt.Errorf("%w: auction picks resolve through bidding", engine.ErrInvalidPhase)
	}
	if err := s.seq.Validate(teamID); err != nil {
		return models.Pick{}, err
	}
	if !s.ledger.Available(playerID) {
		return models.Pick{}, fmt.Errorf("%w: player %s", engine.ErrPlayerUnavailable, playerID)
	}

	turn, _ := s.seq.OnTheClock()
	pick := s.resolvePick(ctx, turn, teamID, playerID, false, nil)
	s.seq.Advance()
	s.openNextTurn(ctx)
	return pick, nil
}

// resolvePick records a finished pick everywhere it needs to land: ledger,
// store, grader, outbox.
func (s *Session) resolvePick(ctx context.Context, turn engine.Turn, teamID, playerID uuid.UUID, auto bool, price *int) models.Pick {
	pick := models.Pick{
		ID:          uuid.New(),
		DraftID:     s.draft.ID,
		Round:       turn.Round,
		Pick:        turn.Pick,
		OverallPick: s.ledger.NextOverall(),
		TeamID:      teamID,
		PlayerID:    playerID,
		PickedAt:    s.wall.Now(),
		AutoPick:    auto,
		Price:       price,
	}
	if err := s.ledger.Record(pick); err != nil {
		// Callers validate before resolving; a failure here is a bug.
		log.Error().Err(err).
			Str("draft_id", s.draft.ID.String()).
			Int("overall_pick", pick.OverallPick).
			Msg("ledger rejected resolved pick")
		return pick
	}
	if s.store != nil {
		if err := s.store.AppendPick(ctx, pick); err != nil {
			log.Error().Err(err).
				Str("draft_id", s.draft.ID.String()).
				Str("pick_id", pick.ID.String()).
				Msg("failed to persist pick")
		}
	}

	grade := s.grader.Add(pick)

	s.emitEvent(ctx, events.TypePickMade, events.PickMadePayload{
		PickID:      pick.ID.String(),
		TeamID:      pick.TeamID.String(),
		PlayerID:    pick.PlayerID.String(),
		Round:       pick.Round,
		Pick:        pick.Pick,
		OverallPick: pick.OverallPick,
		AutoPick:    pick.AutoPick,
		Price:       pick.Price,
		MadeAt:      pick.PickedAt,
	})
	s.emitEvent(ctx, events.TypeGradesUpdated, events.GradesUpdatedPayload{
		DraftID:     s.draft.ID.String(),
		PickID:      pick.ID.String(),
		GradedPicks: s.ledger.PicksMade(),
		UpdatedAt:   pick.PickedAt,
	})

	log.Info().
		Str("draft_id", s.draft.ID.String()).
		Str("team_id", teamID.String()).
		Str("player_id", playerID.String()).
		Int("overall_pick", pick.OverallPick).
		Bool("auto_pick", auto).
		Str("tag", string(grade.Tag)).
		Msg("pick made")
	return pick
}

// ----- auction -----

func (s *Session) nominate(ctx context.Context, teamID, playerID uuid.UUID, startingBid int) error {
	if err := s.requireAuctionInProgress(); err != nil {
		return err
	}
	if err := s.seq.Validate(teamID); err != nil {
		return err
	}
	turn, _ := s.seq.OnTheClock()
	now := s.wall.Now()
	deadline, err := s.arb.Open(teamID, playerID, startingBid, now)
	if err != nil {
		return err
	}
	s.nomTurn = turn
	s.clk.ArmUntil(deadline)

	s.emitEvent(ctx, events.TypeNominationOpened, events.NominationOpenedPayload{
		PlayerID:    playerID.String(),
		NominatedBy: teamID.String(),
		StartingBid: startingBid,
		OpenedAt:    now,
		Deadline:    deadline,
	})
	return nil
}

func (s *Session) placeBid(ctx context.Context, teamID uuid.UUID, amount int) error {
	if err := s.requireAuctionInProgress(); err != nil {
		return err
	}
	now := s.wall.Now()
	deadline, err := s.arb.PlaceBid(teamID, amount, now)
	if err != nil {
		return err
	}
	s.clk.ArmUntil(deadline)

	nom := s.arb.Current()
	s.emitEvent(ctx, events.TypeBidPlaced, events.BidPlacedPayload{
		PlayerID: nom.PlayerID.String(),
		TeamID:   teamID.String(),
		Amount:   amount,
		PlacedAt: now,
		Deadline: deadline,
	})
	return nil
}

func (s *Session) passBid(ctx context.Context, teamID uuid.UUID) error {
	if err := s.requireAuctionInProgress(); err != nil {
		return err
	}
	return s.arb.Pass(teamID)
}

func (s *Session) requireAuctionInProgress() error {
	if s.draft.DraftType != models.DraftTypeAuction {
		return fmt.Errorf("%w: not an auction draft", engine.ErrInvalidPhase)
	}
	if s.draft.Status != models.DraftStatusInProgress {
		return fmt.Errorf("%w: draft is %s", engine.ErrInvalidPhase, s.draft.Status)
	}
	return nil
}

// closeBidWindow resolves the open nomination after its window elapses.
func (s *Session) closeBidWindow(ctx context.Context) {
	res, err := s.arb.Close()
	if err != nil {
		log.Error().Err(err).Str("draft_id", s.draft.ID.String()).Msg("bid window close without nomination")
		return
	}
	if res.Sold {
		price := res.Amount
		s.resolvePick(ctx, s.nomTurn, res.WinnerID, res.PlayerID, false, &price)
		if s.ledger.RosterFull(res.WinnerID) {
			s.seq.MarkFilled(res.WinnerID)
		}
	} else {
		s.emitEvent(ctx, events.TypeNominationPassed, events.NominationPassedPayload{
			PlayerID: res.PlayerID.String(),
			PassedAt: s.wall.Now(),
		})
	}
	s.seq.Advance()
	s.openNextTurn(ctx)
}

// ----- timeouts -----

func (s *Session) handleTimeout(ctx context.Context, to clock.Timeout) {
	if to.Seq != s.clk.Seq() {
		// The turn this deadline guarded already closed.
		log.Debug().
			Str("draft_id", s.draft.ID.String()).
			Uint64("seq", to.Seq).
			Msg("dropping stale timeout")
		return
	}
	if s.draft.Status != models.DraftStatusInProgress {
		return
	}

	if s.arb != nil {
		if s.arb.OpenNomination() {
			s.closeBidWindow(ctx)
			return
		}
		s.autoNominate(ctx)
		return
	}
	s.autoPick(ctx)
}

// forceTimeout closes the current turn immediately, as if its deadline
// had elapsed. The clock is cancelled first so the real deadline cannot
// fire again for a turn that no longer exists.
func (s *Session) forceTimeout(ctx context.Context) error {
	if s.draft.Status != models.DraftStatusInProgress {
		return fmt.Errorf("%w: draft is %s", engine.ErrInvalidPhase, s.draft.Status)
	}
	s.clk.Cancel()
	if s.arb != nil {
		if s.arb.OpenNomination() {
			s.closeBidWindow(ctx)
		} else {
			s.autoNominate(ctx)
		}
		return nil
	}
	s.autoPick(ctx)
	return nil
}

// autoPick fills a timed-out snake turn from the team's queue, falling
// back to the best available player.
func (s *Session) autoPick(ctx context.Context) {
	turn, ok := s.seq.OnTheClock()
	if !ok {
		s.complete(ctx)
		return
	}
	playerID, fromQueue, err := engine.ResolveQueue(s.queues[turn.TeamID], s.ledger.Available, s.bestAvailable)
	if err != nil {
		log.Warn().
			Str("draft_id", s.draft.ID.String()).
			Str("team_id", turn.TeamID.String()).
			Msg("no players left for auto-pick; completing draft")
		s.complete(ctx)
		return
	}
	log.Info().
		Str("draft_id", s.draft.ID.String()).
		Str("team_id", turn.TeamID.String()).
		Bool("from_queue", fromQueue).
		Msg("turn timed out; auto-picking")

	s.resolvePick(ctx, turn, turn.TeamID, playerID, true, nil)
	s.seq.Advance()
	s.openNextTurn(ctx)
}

// autoNominate opens a nomination on behalf of a team whose nomination
// turn timed out, keeping the auction moving.
func (s *Session) autoNominate(ctx context.Context) {
	turn, ok := s.seq.OnTheClock()
	if !ok {
		s.complete(ctx)
		return
	}
	playerID, _, err := engine.ResolveQueue(s.queues[turn.TeamID], s.ledger.Available, s.bestAvailable)
	if err != nil {
		s.complete(ctx)
		return
	}
	now := s.wall.Now()
	deadline, err := s.arb.Open(turn.TeamID, playerID, s.auctionCfg.MinBid, now)
	if err != nil {
		log.Warn().Err(err).
			Str("draft_id", s.draft.ID.String()).
			Str("team_id", turn.TeamID.String()).
			Msg("auto-nomination rejected; skipping turn")
		s.seq.Advance()
		s.openNextTurn(ctx)
		return
	}
	s.nomTurn = turn
	s.clk.ArmUntil(deadline)

	s.emitEvent(ctx, events.TypeNominationOpened, events.NominationOpenedPayload{
		PlayerID:    playerID.String(),
		NominatedBy: turn.TeamID.String(),
		StartingBid: s.auctionCfg.MinBid,
		OpenedAt:    now,
		Deadline:    deadline,
	})
}

// ----- queries and helpers -----

func (s *Session) setQueue(teamID uuid.UUID, players []uuid.UUID) error {
	if _, ok := s.teams[teamID]; !ok {
		return fmt.Errorf("unknown team %s", teamID)
	}
	s.queues[teamID] = append([]uuid.UUID(nil), players...)
	return nil
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		Draft: s.draft,
		Picks: append([]models.Pick(nil), s.ledger.Picks()...),
	}
	if s.grader != nil {
		snap.PickGrades = s.grader.PickGrades()
	}
	if s.draft.Status == models.DraftStatusInProgress || s.draft.Status == models.DraftStatusPaused {
		if turn, ok := s.seq.OnTheClock(); ok {
			snap.OnTheClock = &turn
		}
		if deadline, ok := s.clk.Deadline(); ok {
			snap.Deadline = &deadline
		}
	}
	if s.arb != nil {
		snap.Nomination = s.arb.Current()
		snap.Budgets = make(map[uuid.UUID]int, len(s.teams))
		for teamID := range s.teams {
			snap.Budgets[teamID] = s.ledger.RemainingBudget(teamID)
		}
	}
	return snap
}

func (s *Session) boardComparison(teamID uuid.UUID) models.BoardComparison {
	board := s.queueSnapshot[teamID]
	if board == nil {
		board = s.queues[teamID]
	}
	return grading.CompareBoard(teamID, board, s.ledger.Picks())
}

// bestAvailable returns the highest-ranked undrafted player.
func (s *Session) bestAvailable() (uuid.UUID, bool) {
	for _, p := range s.board {
		if s.ledger.Available(p.ID) {
			return p.ID, true
		}
	}
	return uuid.Nil, false
}

func (s *Session) persistStatus(ctx context.Context) {
	s.draft.UpdatedAt = s.wall.Now()
	if s.store == nil {
		return
	}
	if err := s.store.UpdateDraftStatus(ctx, s.draft); err != nil {
		log.Error().Err(err).
			Str("draft_id", s.draft.ID.String()).
			Str("status", string(s.draft.Status)).
			Msg("failed to persist draft status")
	}
}

func (s *Session) emitEvent(ctx context.Context, eventType string, payload any) {
	if s.emit == nil {
		return
	}
	if err := s.emit.Emit(ctx, s.draft.ID, eventType, payload); err != nil {
		log.Error().Err(err).
			Str("draft_id", s.draft.ID.String()).
			Str("event_type", eventType).
			Msg("failed to emit domain event")
	}
}
