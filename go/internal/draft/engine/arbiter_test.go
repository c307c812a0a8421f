package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newAuctionFixture(t *testing.T, teams int, rounds, budget int) (*Arbiter, *Ledger, []uuid.UUID) {
	t.Helper()
	ts := makeTeams(teams)
	l := NewLedger(ts, rounds, intPtr(budget))
	ids := make([]uuid.UUID, teams)
	for i, tm := range ts {
		ids[i] = tm.ID
	}
	return NewArbiter(DefaultAuctionConfig(), l), l, ids
}

func TestArbiter_NominateBidOutbidAward(t *testing.T) {
	arb, ledger, teams := newAuctionFixture(t, 2, 3, 200)
	teamA, teamB := teams[0], teams[1]
	player := uuid.New()
	now := time.Now()

	if _, err := arb.Open(teamA, player, 1, now); err != nil {
		t.Fatalf("nominate: %v", err)
	}
	if _, err := arb.PlaceBid(teamB, 5, now.Add(time.Second)); err != nil {
		t.Fatalf("bid $5: %v", err)
	}
	if _, err := arb.PlaceBid(teamA, 6, now.Add(2*time.Second)); err != nil {
		t.Fatalf("bid $6: %v", err)
	}

	res, err := arb.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !res.Sold || res.WinnerID != teamA || res.Amount != 6 {
		t.Fatalf("close result: got %+v, want sold to teamA at $6", res)
	}
	_ = ledger
}

func TestArbiter_EqualBidLosesCAS(t *testing.T) {
	arb, _, teams := newAuctionFixture(t, 3, 3, 200)
	player := uuid.New()
	now := time.Now()

	if _, err := arb.Open(teams[0], player, 1, now); err != nil {
		t.Fatalf("nominate: %v", err)
	}
	if _, err := arb.PlaceBid(teams[1], 10, now.Add(time.Second)); err != nil {
		t.Fatalf("first $10 bid: %v", err)
	}
	// Second $10 arrives in the same tick; the high bid already moved.
	if _, err := arb.PlaceBid(teams[2], 10, now.Add(time.Second)); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("want ErrBidTooLow, got %v", err)
	}
	if !errors.Is(ErrBidTooLow, ErrInvalidBid) {
		t.Fatal("ErrBidTooLow must classify as ErrInvalidBid")
	}
}

func TestArbiter_UnsoldReturnsToPool(t *testing.T) {
	arb, ledger, teams := newAuctionFixture(t, 2, 3, 200)
	player := uuid.New()

	if _, err := arb.Open(teams[0], player, 1, time.Now()); err != nil {
		t.Fatalf("nominate: %v", err)
	}
	res, err := arb.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if res.Sold {
		t.Fatal("nomination with no bids must not sell")
	}
	if !ledger.Available(player) {
		t.Fatal("unsold player must remain available")
	}
}

func TestArbiter_BidValidation(t *testing.T) {
	cases := []struct {
		name    string
		amount  int
		at      time.Duration
		wantErr error
	}{
		{name: "below starting bid", amount: 4, at: time.Second, wantErr: ErrBidTooLow},
		{name: "over reserve-adjusted budget", amount: 9, at: time.Second, wantErr: ErrBidOverBudget},
		{name: "after window closed", amount: 6, at: time.Hour, wantErr: ErrBidWindowClosed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Budget 10, 3 roster slots: max bid is 8.
			arb, _, teams := newAuctionFixture(t, 2, 3, 10)
			now := time.Now()
			if _, err := arb.Open(teams[0], uuid.New(), 5, now); err != nil {
				t.Fatalf("nominate: %v", err)
			}
			_, err := arb.PlaceBid(teams[1], tc.amount, now.Add(tc.at))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
			if !errors.Is(err, ErrInvalidBid) {
				t.Fatalf("%v must classify as ErrInvalidBid", err)
			}
		})
	}
}

func TestArbiter_AntiSnipeRenewalCapped(t *testing.T) {
	cfg := AuctionConfig{
		MinBid:    1,
		BidWindow: 10 * time.Second,
		Renewal:   10 * time.Second,
		MaxWindow: 25 * time.Second,
	}
	ts := makeTeams(2)
	ledger := NewLedger(ts, 3, intPtr(200))
	arb := NewArbiter(cfg, ledger)
	now := time.Now()

	deadline, err := arb.Open(ts[0].ID, uuid.New(), 1, now)
	if err != nil {
		t.Fatalf("nominate: %v", err)
	}
	if want := now.Add(10 * time.Second); !deadline.Equal(want) {
		t.Fatalf("initial deadline: got %v, want %v", deadline, want)
	}

	// A bid near the deadline extends the window.
	deadline, err = arb.PlaceBid(ts[1].ID, 2, now.Add(9*time.Second))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if want := now.Add(19 * time.Second); !deadline.Equal(want) {
		t.Fatalf("renewed deadline: got %v, want %v", deadline, want)
	}

	// A later bid would extend past the cap; the cap wins.
	deadline, err = arb.PlaceBid(ts[0].ID, 3, now.Add(18*time.Second))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if want := now.Add(25 * time.Second); !deadline.Equal(want) {
		t.Fatalf("capped deadline: got %v, want %v", deadline, want)
	}

	// An early bid never shortens the window.
	arb2 := NewArbiter(cfg, ledger)
	deadline, err = arb2.Open(ts[0].ID, uuid.New(), 1, now)
	if err != nil {
		t.Fatalf("nominate: %v", err)
	}
	deadline, err = arb2.PlaceBid(ts[1].ID, 2, now.Add(time.Second))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if want := now.Add(11 * time.Second); !deadline.Equal(want) {
		t.Fatalf("early-bid deadline: got %v, want %v", deadline, want)
	}
}

func TestArbiter_PassIsRecordedNotBlocking(t *testing.T) {
	arb, _, teams := newAuctionFixture(t, 3, 3, 200)
	now := time.Now()

	if _, err := arb.Open(teams[0], uuid.New(), 1, now); err != nil {
		t.Fatalf("nominate: %v", err)
	}
	if err := arb.Pass(teams[1]); err != nil {
		t.Fatalf("pass: %v", err)
	}
	// Passing never blocks further bidding, even for the passer.
	if _, err := arb.PlaceBid(teams[1], 3, now.Add(time.Second)); err != nil {
		t.Fatalf("bid after pass: %v", err)
	}
	nom := arb.Current()
	if nom == nil || len(nom.Passed) != 1 || nom.Passed[0] != teams[1] {
		t.Fatalf("pass not recorded on nomination view: %+v", nom)
	}
}
