package engine

import (
	"fmt"
	"time"

	"github.com/fairwaylabs/clubhouse/go/internal/models"
	"github.com/google/uuid"
)

// AuctionConfig holds the bid-window tuning for one draft.
type AuctionConfig struct {
	MinBid    int
	BidWindow time.Duration // initial window after nomination
	Renewal   time.Duration // anti-snipe extension per accepted bid
	MaxWindow time.Duration // hard cap measured from nomination open
}

// DefaultAuctionConfig returns the stock bid-window settings.
func DefaultAuctionConfig() AuctionConfig {
	return AuctionConfig{
		MinBid:    1,
		BidWindow: 30 * time.Second,
		Renewal:   10 * time.Second,
		MaxWindow: 120 * time.Second,
	}
}

// CloseResult is the outcome of a bid window closing.
type CloseResult struct {
	Sold     bool
	PlayerID uuid.UUID
	WinnerID uuid.UUID
	Amount   int
}

type nomination struct {
	playerID    uuid.UUID
	nominatedBy uuid.UUID
	high        int // last accepted bid; startingBid-1 until a bid lands
	highBidder  uuid.UUID
	hasBid      bool
	openedAt    time.Time
	deadline    time.Time
	maxDeadline time.Time
	passed      map[uuid.UUID]bool
	passOrder   []uuid.UUID
}

// Arbiter owns the lifecycle of one nomination from open to close. Bid
// acceptance is a compare-and-swap against the current high bid: of two
// simultaneous equal bids only the first to be sequenced through the
// session actor succeeds, the second fails the swap and is rejected with
// ErrBidTooLow.
type Arbiter struct {
	cfg    AuctionConfig
	ledger *Ledger
	nom    *nomination
}

// NewArbiter builds an arbiter over the draft's ledger.
func NewArbiter(cfg AuctionConfig, ledger *Ledger) *Arbiter {
	return &Arbiter{cfg: cfg, ledger: ledger}
}

// Open starts a nomination and returns the bid-window deadline. The caller
// validates that it is teamID's nomination turn; the arbiter validates the
// player and the starting bid. The starting bid is the minimum acceptable
// first bid, not itself a bid: a window that closes with no bids returns
// the player to the pool.
func (a *Arbiter) Open(teamID, playerID uuid.UUID, startingBid int, now time.Time) (time.Time, error) {
	if a.nom != nil {
		return time.Time{}, ErrNominationOpen
	}
	if !a.ledger.Available(playerID) {
		return time.Time{}, fmt.Errorf("%w: player %s", ErrPlayerUnavailable, playerID)
	}
	if startingBid < a.cfg.MinBid {
		return time.Time{}, fmt.Errorf("%w: starting bid below minimum %d", ErrInvalidBid, a.cfg.MinBid)
	}
	if startingBid > a.ledger.MaxBid(teamID) {
		return time.Time{}, ErrBidOverBudget
	}
	a.nom = &nomination{
		playerID:    playerID,
		nominatedBy: teamID,
		high:        startingBid - 1,
		openedAt:    now,
		deadline:    now.Add(a.cfg.BidWindow),
		maxDeadline: now.Add(a.cfg.MaxWindow),
		passed:      make(map[uuid.UUID]bool),
	}
	return a.nom.deadline, nil
}

// PlaceBid evaluates a bid against the open nomination and, if accepted,
// extends the window by the renewal interval up to the configured cap.
// The returned deadline is the window to re-arm the clock with.
func (a *Arbiter) PlaceBid(teamID uuid.UUID, amount int, now time.Time) (time.Time, error) {
	if a.nom == nil {
		return time.Time{}, ErrNoNomination
	}
	if now.After(a.nom.deadline) {
		return time.Time{}, ErrBidWindowClosed
	}
	if a.ledger.RosterFull(teamID) {
		return time.Time{}, fmt.Errorf("%w: roster already full", ErrInvalidBid)
	}
	if amount <= a.nom.high {
		return time.Time{}, ErrBidTooLow
	}
	if amount > a.ledger.MaxBid(teamID) {
		return time.Time{}, ErrBidOverBudget
	}

	a.nom.high = amount
	a.nom.highBidder = teamID
	a.nom.hasBid = true

	renewed := now.Add(a.cfg.Renewal)
	if renewed.After(a.nom.deadline) {
		a.nom.deadline = renewed
	}
	if a.nom.deadline.After(a.nom.maxDeadline) {
		a.nom.deadline = a.nom.maxDeadline
	}
	return a.nom.deadline, nil
}

// Pass records that a team has bowed out of the current nomination. It
// never blocks others from continuing to bid and a passed team may still
// bid again.
func (a *Arbiter) Pass(teamID uuid.UUID) error {
	if a.nom == nil {
		return ErrNoNomination
	}
	if !a.nom.passed[teamID] {
		a.nom.passed[teamID] = true
		a.nom.passOrder = append(a.nom.passOrder, teamID)
	}
	return nil
}

// Close resolves the open nomination when its window elapses. A sold
// result awards the player to the high bidder at the high-bid amount; an
// unsold nomination returns the player to the pool without consuming a
// roster slot.
func (a *Arbiter) Close() (CloseResult, error) {
	if a.nom == nil {
		return CloseResult{}, ErrNoNomination
	}
	res := CloseResult{
		Sold:     a.nom.hasBid,
		PlayerID: a.nom.playerID,
		WinnerID: a.nom.highBidder,
		Amount:   a.nom.high,
	}
	a.nom = nil
	return res, nil
}

// ShiftDeadlines moves the open nomination's window and cap forward by d.
// Called when a paused draft resumes so the time spent paused does not
// count against the bid window.
func (a *Arbiter) ShiftDeadlines(d time.Duration) {
	if a.nom == nil {
		return
	}
	a.nom.deadline = a.nom.deadline.Add(d)
	a.nom.maxDeadline = a.nom.maxDeadline.Add(d)
}

// Deadline returns the current bid-window deadline.
func (a *Arbiter) Deadline() (time.Time, bool) {
	if a.nom == nil {
		return time.Time{}, false
	}
	return a.nom.deadline, true
}

// Open reports whether a nomination is in flight.
func (a *Arbiter) OpenNomination() bool {
	return a.nom != nil
}

// Current returns the serializable view of the open nomination, or nil.
func (a *Arbiter) Current() *models.Nomination {
	if a.nom == nil {
		return nil
	}
	n := &models.Nomination{
		PlayerID:    a.nom.playerID,
		NominatedBy: a.nom.nominatedBy,
		OpenedAt:    a.nom.openedAt,
		Deadline:    a.nom.deadline,
		Passed:      append([]uuid.UUID(nil), a.nom.passOrder...),
	}
	if a.nom.hasBid {
		n.HighBid = models.Bid{
			PlayerID: a.nom.playerID,
			TeamID:   a.nom.highBidder,
			Amount:   a.nom.high,
		}
	}
	return n
}
