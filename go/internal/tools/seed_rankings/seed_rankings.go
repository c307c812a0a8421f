package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairwaylabs/clubhouse/go/internal/dbconfig"
	"github.com/fairwaylabs/clubhouse/go/internal/rankings"
)

// RankedPlayer matches the rankings JSON layout.
type RankedPlayer struct {
	ExternalID string `json:"id"`
	FullName   string `json:"name"`
	Rank       int    `json:"rank"`
	Position   string `json:"position"`
}

func main() {
	ctx := context.Background()

	path := "go/internal/assets/rankings.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	tour := os.Getenv("RANKINGS_TOUR")
	if tour == "" {
		tour = "pga"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}
	var players []RankedPlayer
	if err := json.Unmarshal(data, &players); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal rankings: %v\n", err)
		os.Exit(1)
	}

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	total, inserted, updated, errs := len(players), 0, 0, 0
	for _, p := range players {
		tag, err := pool.Exec(ctx, `
            INSERT INTO player_rankings (id, full_name, rank, position, tour)
            VALUES ($1,$2,$3,$4,$5)
            ON CONFLICT (id)
            DO UPDATE SET full_name = EXCLUDED.full_name, rank = EXCLUDED.rank, position = EXCLUDED.position
        `, rankings.PlayerID(tour, p.ExternalID), p.FullName, p.Rank, p.Position, tour)
		if err != nil {
			errs++
			continue
		}
		if tag.String() == "INSERT 0 1" {
			inserted++
		} else {
			updated++
		}
	}
	fmt.Printf(
		"Rankings seed: tour=%s total=%d inserted=%d updated=%d errors=%d\n",
		tour, total, inserted, updated, errs,
	)
}
