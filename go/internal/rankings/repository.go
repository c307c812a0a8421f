package rankings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairwaylabs/clubhouse/go/internal/models"
)

// ErrPlayerNotFound is returned when a player id matches no row.
var ErrPlayerNotFound = errors.New("player not found")

// Repository stores the player rank sheet.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertPlayer inserts or refreshes one ranked player. Returns true when a
// new row was created.
func (r *Repository) UpsertPlayer(ctx context.Context, player models.Player) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO player_rankings (id, full_name, rank, position, tour)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET full_name = EXCLUDED.full_name, rank = EXCLUDED.rank, position = EXCLUDED.position`,
		player.ID, player.FullName, player.Rank, player.Position, player.Tour,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert player %s: %w", player.FullName, err)
	}
	return tag.String() == "INSERT 0 1", nil
}

func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var p models.Player
	err := r.pool.QueryRow(ctx, `
		SELECT id, full_name, rank, position, tour
		FROM player_rankings
		WHERE id = $1`, id,
	).Scan(&p.ID, &p.FullName, &p.Rank, &p.Position, &p.Tour)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}

// ListByTour returns a tour's full rank sheet, best rank first.
func (r *Repository) ListByTour(ctx context.Context, tour string) ([]models.Player, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, full_name, rank, position, tour
		FROM player_rankings
		WHERE tour = $1
		ORDER BY rank`, tour)
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.FullName, &p.Rank, &p.Position, &p.Tour); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rankings: %w", err)
	}
	return players, nil
}
