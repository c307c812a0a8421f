package rankings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairwaylabs/clubhouse/go/internal/models"
)

// RankingsRepository defines what the app layer needs from the repository.
type RankingsRepository interface {
	UpsertPlayer(ctx context.Context, player models.Player) (bool, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	ListByTour(ctx context.Context, tour string) ([]models.Player, error)
}

// Feed defines what the app layer needs from the external rankings feed.
type Feed interface {
	GetRankings(tour string) ([]FeedPlayer, error)
}

// SyncResult summarizes one rankings sync from the external feed.
type SyncResult struct {
	TotalProcessed int     `json:"total_processed"`
	Created        int     `json:"created"`
	Updated        int     `json:"updated"`
	Errors         []error `json:"errors,omitempty"`
}

// App handles rankings business logic. The rank sheet feeds grading and
// the auto-pick best-available fallback.
type App struct {
	repo RankingsRepository
	feed Feed
}

func NewApp(repo RankingsRepository, feed Feed) *App {
	return &App{repo: repo, feed: feed}
}

// GetRankSheet returns a tour's players ordered by rank.
func (a *App) GetRankSheet(ctx context.Context, tour string) ([]models.Player, error) {
	players, err := a.repo.ListByTour(ctx, tour)
	if err != nil {
		return nil, fmt.Errorf("failed to get rank sheet: %w", err)
	}
	return players, nil
}

// GetPlayer retrieves one ranked player.
func (a *App) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	player, err := a.repo.GetPlayer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return player, nil
}

// SyncFromFeed refreshes a tour's rank sheet from the external feed.
// Player ids are derived from the feed's stable external ids, so repeated
// syncs update rows in place.
func (a *App) SyncFromFeed(ctx context.Context, tour string) (*SyncResult, error) {
	if a.feed == nil {
		return nil, fmt.Errorf("no rankings feed configured")
	}
	entries, err := a.feed.GetRankings(tour)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rankings feed: %w", err)
	}

	result := &SyncResult{}
	for _, entry := range entries {
		result.TotalProcessed++
		if entry.Name == "" || entry.Rank <= 0 {
			result.Errors = append(result.Errors, fmt.Errorf("invalid feed entry %q rank %d", entry.Name, entry.Rank))
			continue
		}
		player := models.Player{
			ID:       PlayerID(tour, entry.ExternalID),
			FullName: entry.Name,
			Rank:     entry.Rank,
			Position: entry.Position,
			Tour:     tour,
		}
		created, err := a.repo.UpsertPlayer(ctx, player)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	log.Info().
		Str("tour", tour).
		Int("processed", result.TotalProcessed).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("errors", len(result.Errors)).
		Msg("rankings sync complete")
	return result, nil
}

// PlayerID derives a stable player id from the feed's external id.
func PlayerID(tour, externalID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(tour+"/"+externalID))
}
