package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairwaylabs/clubhouse/go/internal/models"
)

// ErrDraftNotFound is returned when a draft id matches no row.
var ErrDraftNotFound = errors.New("draft not found")

// DraftRepository stores drafts, their append-only pick logs, and team
// queues on Postgres. The pick log is the canonical draft history; rows
// are inserted once and never updated.
type DraftRepository struct {
	pool *pgxpool.Pool
}

func NewDraftRepository(pool *pgxpool.Pool) *DraftRepository {
	return &DraftRepository{pool: pool}
}

func (r *DraftRepository) CreateDraft(ctx context.Context, draft models.Draft) error {
	settings, err := json.Marshal(draft.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal draft settings: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO drafts (id, league_id, draft_type, status, settings, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())`,
		draft.ID, draft.LeagueID, draft.DraftType, draft.Status, settings, draft.ScheduledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}
	return nil
}

func (r *DraftRepository) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	var (
		draft    models.Draft
		settings []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, league_id, draft_type, status, settings, scheduled_at, started_at, completed_at, created_at, updated_at
		FROM drafts
		WHERE id = $1`, id,
	).Scan(
		&draft.ID, &draft.LeagueID, &draft.DraftType, &draft.Status, &settings,
		&draft.ScheduledAt, &draft.StartedAt, &draft.CompletedAt, &draft.CreatedAt, &draft.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	if err := json.Unmarshal(settings, &draft.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft settings: %w", err)
	}
	return &draft, nil
}

// UpdateDraftStatus persists a status transition and its timestamps.
func (r *DraftRepository) UpdateDraftStatus(ctx context.Context, draft models.Draft) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE drafts
		SET status = $2, started_at = $3, completed_at = $4, updated_at = now()
		WHERE id = $1`,
		draft.ID, draft.Status, draft.StartedAt, draft.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update draft status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, draft.ID)
	}
	return nil
}

// AppendPick inserts one resolved pick. The unique constraints on
// (draft_id, overall_pick) and (draft_id, player_id) back up the
// session's in-memory invariants.
func (r *DraftRepository) AppendPick(ctx context.Context, pick models.Pick) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO draft_picks (id, draft_id, round, pick, overall_pick, team_id, player_id, picked_at, auto_pick, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		pick.ID, pick.DraftID, pick.Round, pick.Pick, pick.OverallPick,
		pick.TeamID, pick.PlayerID, pick.PickedAt, pick.AutoPick, pick.Price,
	)
	if err != nil {
		return fmt.Errorf("failed to append pick %d: %w", pick.OverallPick, err)
	}
	return nil
}

// ListPicks returns a draft's full pick log in overall order.
func (r *DraftRepository) ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error) {
	return r.listPicks(ctx, draftID, 0, 0)
}

// ListPicksAfter pages through the pick log: picks with overall number
// greater than afterOverall, up to limit rows. A zero limit means no cap.
func (r *DraftRepository) ListPicksAfter(ctx context.Context, draftID uuid.UUID, afterOverall, limit int) ([]models.Pick, error) {
	return r.listPicks(ctx, draftID, afterOverall, limit)
}

func (r *DraftRepository) listPicks(ctx context.Context, draftID uuid.UUID, afterOverall, limit int) ([]models.Pick, error) {
	query := `
		SELECT id, draft_id, round, pick, overall_pick, team_id, player_id, picked_at, auto_pick, price
		FROM draft_picks
		WHERE draft_id = $1 AND overall_pick > $2
		ORDER BY overall_pick`
	args := []any{draftID, afterOverall}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()

	var picks []models.Pick
	for rows.Next() {
		var p models.Pick
		if err := rows.Scan(
			&p.ID, &p.DraftID, &p.Round, &p.Pick, &p.OverallPick,
			&p.TeamID, &p.PlayerID, &p.PickedAt, &p.AutoPick, &p.Price,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate picks: %w", err)
	}
	return picks, nil
}

func (r *DraftRepository) CreateTeam(ctx context.Context, team models.Team) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO teams (id, league_id, name, draft_position, starting_budget)
		VALUES ($1, $2, $3, $4, $5)`,
		team.ID, team.LeagueID, team.Name, team.DraftPosition, team.StartingBudget,
	)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// ListTeamsByLeague returns a league's teams in draft-position order.
func (r *DraftRepository) ListTeamsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Team, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, league_id, name, draft_position, starting_budget
		FROM teams
		WHERE league_id = $1
		ORDER BY draft_position`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.LeagueID, &t.Name, &t.DraftPosition, &t.StartingBudget); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}
	return teams, nil
}

// SaveQueue upserts a team's personal queue for a draft.
func (r *DraftRepository) SaveQueue(ctx context.Context, draftID, teamID uuid.UUID, players []uuid.UUID) error {
	body, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("failed to marshal queue: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO team_queues (draft_id, team_id, player_ids, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (draft_id, team_id)
		DO UPDATE SET player_ids = EXCLUDED.player_ids, updated_at = now()`,
		draftID, teamID, body,
	)
	if err != nil {
		return fmt.Errorf("failed to save queue: %w", err)
	}
	return nil
}

// ListQueues returns every team's queue for a draft.
func (r *DraftRepository) ListQueues(ctx context.Context, draftID uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT team_id, player_ids
		FROM team_queues
		WHERE draft_id = $1`, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}
	defer rows.Close()

	queues := make(map[uuid.UUID][]uuid.UUID)
	for rows.Next() {
		var (
			teamID uuid.UUID
			body   []byte
		)
		if err := rows.Scan(&teamID, &body); err != nil {
			return nil, fmt.Errorf("failed to scan queue: %w", err)
		}
		var players []uuid.UUID
		if err := json.Unmarshal(body, &players); err != nil {
			return nil, fmt.Errorf("failed to unmarshal queue for team %s: %w", teamID, err)
		}
		queues[teamID] = players
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queues: %w", err)
	}
	return queues, nil
}
