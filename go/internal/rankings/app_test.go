package rankings

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/fairwaylabs/clubhouse/go/internal/models"
)

type fakeRankRepo struct {
	players map[uuid.UUID]models.Player
}

func newFakeRankRepo() *fakeRankRepo {
	return &fakeRankRepo{players: make(map[uuid.UUID]models.Player)}
}

func (f *fakeRankRepo) UpsertPlayer(_ context.Context, player models.Player) (bool, error) {
	_, exists := f.players[player.ID]
	f.players[player.ID] = player
	return !exists, nil
}

func (f *fakeRankRepo) GetPlayer(_ context.Context, id uuid.UUID) (*models.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return &p, nil
}

func (f *fakeRankRepo) ListByTour(_ context.Context, tour string) ([]models.Player, error) {
	var out []models.Player
	for _, p := range f.players {
		if p.Tour == tour {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeFeed struct {
	entries []FeedPlayer
}

func (f *fakeFeed) GetRankings(string) ([]FeedPlayer, error) {
	return f.entries, nil
}

func TestSyncFromFeed(t *testing.T) {
	repo := newFakeRankRepo()
	feed := &fakeFeed{entries: []FeedPlayer{
		{ExternalID: "p1", Name: "First Player", Rank: 1, Position: "F"},
		{ExternalID: "p2", Name: "Second Player", Rank: 2, Position: "D"},
		{ExternalID: "bad", Name: "", Rank: 3},
	}}
	app := NewApp(repo, feed)

	result, err := app.SyncFromFeed(context.Background(), "pga")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Created != 2 || result.Updated != 0 || len(result.Errors) != 1 {
		t.Fatalf("first sync: %+v", result)
	}

	// A second sync with a rank change updates in place.
	feed.entries[0].Rank = 5
	result, err = app.SyncFromFeed(context.Background(), "pga")
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if result.Created != 0 || result.Updated != 2 {
		t.Fatalf("second sync: %+v", result)
	}

	p, err := app.GetPlayer(context.Background(), PlayerID("pga", "p1"))
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if p.Rank != 5 {
		t.Fatalf("rank after resync: got %d, want 5", p.Rank)
	}
}

func TestPlayerID_StablePerTour(t *testing.T) {
	if PlayerID("pga", "p1") != PlayerID("pga", "p1") {
		t.Fatal("same tour and external id must map to the same player id")
	}
	if PlayerID("pga", "p1") == PlayerID("lpga", "p1") {
		t.Fatal("different tours must map to different player ids")
	}
}
