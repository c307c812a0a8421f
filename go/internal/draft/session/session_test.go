package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/fairwaylabs/clubhouse/go/internal/draft/clock"
	"github.com/fairwaylabs/clubhouse/go/internal/draft/engine"
	"github.com/fairwaylabs/clubhouse/go/internal/draft/events"
	"github.com/fairwaylabs/clubhouse/go/internal/models"
)

type memEmitter struct {
	mu     sync.Mutex
	events []string
}

func (e *memEmitter) Emit(_ context.Context, _ uuid.UUID, eventType string, _ any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, eventType)
	return nil
}

func (e *memEmitter) seen(eventType string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.events {
		if t == eventType {
			return true
		}
	}
	return false
}

type memStore struct {
	mu       sync.Mutex
	picks    []models.Pick
	statuses []models.DraftStatus
}

func (s *memStore) AppendPick(_ context.Context, pick models.Pick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.picks = append(s.picks, pick)
	return nil
}

func (s *memStore) UpdateDraftStatus(_ context.Context, draft models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, draft.Status)
	return nil
}

type fixture struct {
	session *Session
	emitter *memEmitter
	store   *memStore
	teams   []models.Team
	players []models.Player
	fake    *clockwork.FakeClock
	cancel  context.CancelFunc
}

func intPtr(v int) *int { return &v }

func newFixture(t *testing.T, draftType models.DraftType, numTeams, rounds, pickSec int, settings func(*models.DraftSettings)) *fixture {
	t.Helper()

	teams := make([]models.Team, numTeams)
	order := make([]uuid.UUID, numTeams)
	for i := range teams {
		teams[i] = models.Team{ID: uuid.New(), Name: "team", DraftPosition: i + 1}
		order[i] = teams[i].ID
	}
	players := make([]models.Player, numTeams*rounds+10)
	for i := range players {
		players[i] = models.Player{ID: uuid.New(), Rank: i + 1}
	}

	draft := models.Draft{
		ID:        uuid.New(),
		LeagueID:  uuid.New(),
		DraftType: draftType,
		Status:    models.DraftStatusScheduled,
		Settings: models.DraftSettings{
			Rounds:         rounds,
			TimePerPickSec: pickSec,
			DraftOrder:     order,
		},
	}
	if settings != nil {
		settings(&draft.Settings)
	}

	f := &fixture{
		emitter: &memEmitter{},
		store:   &memStore{},
		teams:   teams,
		players: players,
		fake:    clockwork.NewFakeClock(),
	}
	s, err := New(Config{
		Draft:   draft,
		Teams:   teams,
		Players: players,
		Clock:   f.fake,
		Store:   f.store,
		Emitter: f.emitter,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	f.session = s

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go func() { _ = s.Run(ctx) }()
	t.Cleanup(cancel)
	return f
}

func (f *fixture) waitFor(t *testing.T, desc string, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := f.session.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if cond(snap) {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
	return Snapshot{}
}

func TestSession_QueueTimeoutAutoPick(t *testing.T) {
	f := newFixture(t, models.DraftTypeSnake, 8, 6, 30, nil)
	ctx := context.Background()

	// Team 3's queue: P10 (rank 10) then P25 (rank 25).
	p10, p25 := f.players[9].ID, f.players[24].ID
	if err := f.session.SetQueue(ctx, f.teams[2].ID, []uuid.UUID{p10, p25}); err != nil {
		t.Fatalf("set queue: %v", err)
	}
	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Teams 1 and 2 pick on the clock.
	if _, err := f.session.MakePick(ctx, f.teams[0].ID, f.players[0].ID); err != nil {
		t.Fatalf("pick 1: %v", err)
	}
	if _, err := f.session.MakePick(ctx, f.teams[1].ID, f.players[1].ID); err != nil {
		t.Fatalf("pick 2: %v", err)
	}

	// Team 3's turn times out with P10 still undrafted.
	f.fake.Advance(30 * time.Second)
	snap := f.waitFor(t, "auto-pick", func(s Snapshot) bool { return len(s.Picks) == 3 })

	auto := snap.Picks[2]
	if auto.PlayerID != p10 {
		t.Fatalf("auto-pick player: got %s, want P10 %s", auto.PlayerID, p10)
	}
	if !auto.AutoPick {
		t.Fatal("timed-out pick must be marked auto")
	}
	if auto.TeamID != f.teams[2].ID {
		t.Fatalf("auto-pick team: got %s, want team 3", auto.TeamID)
	}
	if snap.OnTheClock == nil || snap.OnTheClock.TeamID != f.teams[3].ID {
		t.Fatalf("next on the clock: got %+v, want team 4", snap.OnTheClock)
	}
}

func TestSession_StaleTimeoutIsNoop(t *testing.T) {
	f := newFixture(t, models.DraftTypeSnake, 4, 2, 30, nil)
	ctx := context.Background()

	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.session.MakePick(ctx, f.teams[0].ID, f.players[0].ID); err != nil {
		t.Fatalf("pick: %v", err)
	}

	// A timeout for an already-closed turn carries a superseded sequence
	// number; delivering it must change nothing.
	f.session.timeouts <- clock.Timeout{DraftID: f.session.draft.ID, Seq: 1, FiredAt: f.fake.Now()}
	time.Sleep(50 * time.Millisecond)

	snap, err := f.session.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.OnTheClock == nil || snap.OnTheClock.TeamID != f.teams[1].ID {
		t.Fatalf("on the clock after stale timeout: got %+v, want team 2", snap.OnTheClock)
	}
	if len(snap.Picks) != 1 || snap.Picks[0].AutoPick {
		t.Fatalf("stale timeout must not create picks: %+v", snap.Picks)
	}
}

func TestSession_PauseFreezesRemainingTime(t *testing.T) {
	f := newFixture(t, models.DraftTypeSnake, 2, 2, 10, nil)
	ctx := context.Background()

	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.fake.Advance(4 * time.Second)
	if err := f.session.Pause(ctx, "commissioner"); err != nil {
		t.Fatalf("pause: %v", err)
	}

	// Picks are rejected and time does not run while paused.
	if _, err := f.session.MakePick(ctx, f.teams[0].ID, f.players[0].ID); !errors.Is(err, engine.ErrInvalidPhase) {
		t.Fatalf("pick while paused: got %v, want ErrInvalidPhase", err)
	}
	f.fake.Advance(time.Hour)
	snap := f.waitFor(t, "paused", func(s Snapshot) bool { return s.Draft.Status == models.DraftStatusPaused })
	if len(snap.Picks) != 0 {
		t.Fatalf("no picks expected while paused, got %d", len(snap.Picks))
	}

	if err := f.session.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}

	// 6 seconds were left at pause; 5 more is not enough to fire.
	f.fake.Advance(5 * time.Second)
	snap = f.waitFor(t, "still on the clock", func(s Snapshot) bool { return s.Draft.Status == models.DraftStatusInProgress })
	if len(snap.Picks) != 0 {
		t.Fatalf("deadline fired early after resume: %+v", snap.Picks)
	}

	f.fake.Advance(time.Second)
	snap = f.waitFor(t, "auto-pick after resume", func(s Snapshot) bool { return len(s.Picks) == 1 })
	if !snap.Picks[0].AutoPick {
		t.Fatal("timed-out pick must be marked auto")
	}
}

func TestSession_AuctionAwardPath(t *testing.T) {
	f := newFixture(t, models.DraftTypeAuction, 2, 2, 30, func(s *models.DraftSettings) {
		s.BudgetPerTeam = intPtr(200)
		s.BidWindowSec = intPtr(10)
		s.BidRenewalSec = intPtr(5)
		s.MaxBidWindowSec = intPtr(60)
	})
	ctx := context.Background()
	teamA, teamB := f.teams[0].ID, f.teams[1].ID
	playerX := f.players[0].ID

	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.session.Nominate(ctx, teamA, playerX, 1); err != nil {
		t.Fatalf("nominate: %v", err)
	}
	if err := f.session.PlaceBid(ctx, teamB, 5); err != nil {
		t.Fatalf("bid $5: %v", err)
	}
	if err := f.session.PlaceBid(ctx, teamA, 6); err != nil {
		t.Fatalf("bid $6: %v", err)
	}

	f.fake.Advance(10 * time.Second)
	snap := f.waitFor(t, "awarded pick", func(s Snapshot) bool { return len(s.Picks) == 1 })

	pick := snap.Picks[0]
	if pick.TeamID != teamA || pick.PlayerID != playerX {
		t.Fatalf("award: got %+v, want player X to team A", pick)
	}
	if pick.Price == nil || *pick.Price != 6 {
		t.Fatalf("award price: got %v, want 6", pick.Price)
	}
	if got := snap.Budgets[teamA]; got != 194 {
		t.Fatalf("team A budget: got %d, want 194", got)
	}
	if snap.OnTheClock == nil || snap.OnTheClock.TeamID != teamB {
		t.Fatalf("next nominator: got %+v, want team B", snap.OnTheClock)
	}
	if !f.emitter.seen(events.TypeBidPlaced) || !f.emitter.seen(events.TypeNominationOpened) {
		t.Fatal("expected NominationOpened and BidPlaced events")
	}
}

func TestSession_AuctionUnsoldReturnsToPool(t *testing.T) {
	f := newFixture(t, models.DraftTypeAuction, 2, 2, 30, func(s *models.DraftSettings) {
		s.BudgetPerTeam = intPtr(200)
		s.BidWindowSec = intPtr(10)
	})
	ctx := context.Background()
	playerX := f.players[0].ID

	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.session.Nominate(ctx, f.teams[0].ID, playerX, 5); err != nil {
		t.Fatalf("nominate: %v", err)
	}

	f.fake.Advance(10 * time.Second)
	snap := f.waitFor(t, "window closed unsold", func(s Snapshot) bool {
		return s.Nomination == nil && s.OnTheClock != nil && s.OnTheClock.TeamID == f.teams[1].ID
	})
	if len(snap.Picks) != 0 {
		t.Fatalf("unsold nomination must not create a pick: %+v", snap.Picks)
	}
	if !f.emitter.seen(events.TypeNominationPassed) {
		t.Fatal("expected a NominationPassed event")
	}

	// The player can be nominated again later.
	if err := f.session.Nominate(ctx, f.teams[1].ID, playerX, 1); err != nil {
		t.Fatalf("re-nominate unsold player: %v", err)
	}
}

func TestSession_ForceTimeoutClosesTurn(t *testing.T) {
	f := newFixture(t, models.DraftTypeSnake, 4, 2, 30, nil)
	ctx := context.Background()

	// Queue for team 1 so the forced close draws from it.
	queued := f.players[4].ID
	if err := f.session.SetQueue(ctx, f.teams[0].ID, []uuid.UUID{queued}); err != nil {
		t.Fatalf("set queue: %v", err)
	}
	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := f.session.ForceTimeout(ctx); err != nil {
		t.Fatalf("force timeout: %v", err)
	}
	snap := f.waitFor(t, "forced auto-pick", func(s Snapshot) bool { return len(s.Picks) == 1 })
	if snap.Picks[0].PlayerID != queued || !snap.Picks[0].AutoPick {
		t.Fatalf("forced pick: got %+v, want queued auto-pick", snap.Picks[0])
	}
	if snap.OnTheClock == nil || snap.OnTheClock.TeamID != f.teams[1].ID {
		t.Fatalf("next on the clock: got %+v, want team 2", snap.OnTheClock)
	}

	// The cancelled deadline for the closed turn must not fire again.
	f.fake.Advance(30 * time.Second)
	snap = f.waitFor(t, "single extra auto-pick", func(s Snapshot) bool { return len(s.Picks) == 2 })
	if snap.Picks[1].TeamID != f.teams[1].ID {
		t.Fatalf("second auto-pick team: got %s, want team 2", snap.Picks[1].TeamID)
	}

	if err := f.session.Cancel(ctx, "test over"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.session.ForceTimeout(ctx); !errors.Is(err, engine.ErrInvalidPhase) {
		t.Fatalf("force timeout after cancel: got %v, want ErrInvalidPhase", err)
	}
}

func TestSession_CompletesAndGrades(t *testing.T) {
	f := newFixture(t, models.DraftTypeSnake, 2, 1, 30, nil)
	ctx := context.Background()

	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.session.MakePick(ctx, f.teams[0].ID, f.players[0].ID); err != nil {
		t.Fatalf("pick 1: %v", err)
	}
	if _, err := f.session.MakePick(ctx, f.teams[1].ID, f.players[1].ID); err != nil {
		t.Fatalf("pick 2: %v", err)
	}

	snap := f.waitFor(t, "completion", func(s Snapshot) bool { return s.Draft.Status == models.DraftStatusCompleted })
	if snap.Draft.CompletedAt == nil {
		t.Fatal("completed draft must carry a completion timestamp")
	}
	if len(snap.PickGrades) != 2 {
		t.Fatalf("graded picks: got %d, want 2", len(snap.PickGrades))
	}
	if !f.emitter.seen(events.TypeDraftCompleted) || !f.emitter.seen(events.TypeGradesUpdated) {
		t.Fatal("expected DraftCompleted and GradesUpdated events")
	}

	grades, err := f.session.TeamGrades(ctx)
	if err != nil {
		t.Fatalf("team grades: %v", err)
	}
	if len(grades) != 2 {
		t.Fatalf("team grades: got %d teams, want 2", len(grades))
	}

	// Picks after completion are rejected.
	if _, err := f.session.MakePick(ctx, f.teams[0].ID, f.players[5].ID); !errors.Is(err, engine.ErrInvalidPhase) {
		t.Fatalf("pick after completion: got %v, want ErrInvalidPhase", err)
	}
}

func TestSession_OutOfTurnAndUnavailable(t *testing.T) {
	f := newFixture(t, models.DraftTypeSnake, 4, 2, 30, nil)
	ctx := context.Background()

	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.session.MakePick(ctx, f.teams[2].ID, f.players[0].ID); !errors.Is(err, engine.ErrOutOfTurn) {
		t.Fatalf("out of turn: got %v, want ErrOutOfTurn", err)
	}
	if _, err := f.session.MakePick(ctx, f.teams[0].ID, f.players[0].ID); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, err := f.session.MakePick(ctx, f.teams[1].ID, f.players[0].ID); !errors.Is(err, engine.ErrPlayerUnavailable) {
		t.Fatalf("drafted player: got %v, want ErrPlayerUnavailable", err)
	}
}

func TestReplay_MatchesLiveGrades(t *testing.T) {
	f := newFixture(t, models.DraftTypeSnake, 2, 2, 30, nil)
	ctx := context.Background()

	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	picksIn := []uuid.UUID{f.players[3].ID, f.players[0].ID, f.players[1].ID, f.players[7].ID}
	order := []uuid.UUID{f.teams[0].ID, f.teams[1].ID, f.teams[1].ID, f.teams[0].ID}
	for i, playerID := range picksIn {
		if _, err := f.session.MakePick(ctx, order[i], playerID); err != nil {
			t.Fatalf("pick %d: %v", i+1, err)
		}
	}
	snap := f.waitFor(t, "completion", func(s Snapshot) bool { return s.Draft.Status == models.DraftStatusCompleted })

	res, err := Replay(snap.Draft, f.teams, f.players, nil, snap.Picks)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(res.PickGrades) != len(snap.PickGrades) {
		t.Fatalf("replayed grades: got %d, want %d", len(res.PickGrades), len(snap.PickGrades))
	}
	for i := range res.PickGrades {
		if res.PickGrades[i] != snap.PickGrades[i] {
			t.Fatalf("grade %d differs: replay %+v, live %+v", i, res.PickGrades[i], snap.PickGrades[i])
		}
	}
}

func TestReplay_HaltsOnCorruptLog(t *testing.T) {
	teams := []models.Team{
		{ID: uuid.New(), DraftPosition: 1},
		{ID: uuid.New(), DraftPosition: 2},
	}
	draft := models.Draft{
		ID:        uuid.New(),
		DraftType: models.DraftTypeSnake,
		Settings: models.DraftSettings{
			Rounds:         1,
			TimePerPickSec: 30,
			DraftOrder:     []uuid.UUID{teams[0].ID, teams[1].ID},
		},
	}

	// First pick attributed to the wrong team.
	picks := []models.Pick{{
		ID:          uuid.New(),
		DraftID:     draft.ID,
		Round:       1,
		Pick:        1,
		OverallPick: 1,
		TeamID:      teams[1].ID,
		PlayerID:    uuid.New(),
		PickedAt:    time.Now(),
	}}

	if _, err := Replay(draft, teams, nil, nil, picks); err == nil {
		t.Fatal("expected replay to halt on inconsistent pick log")
	}
}
