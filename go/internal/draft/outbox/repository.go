package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const (
	insertEventSQL = `
		INSERT INTO draft_outbox (id, draft_id, event_type, payload)
		VALUES ($1, $2, $3, $4)`

	fetchUnsentSQL = `
		SELECT id, draft_id, event_type, payload, created_at
		FROM draft_outbox
		WHERE sent_at IS NULL
		ORDER BY created_at
		LIMIT $1`

	fetchByIDSQL = `
		SELECT id, draft_id, event_type, payload, created_at
		FROM draft_outbox
		WHERE id = $1 AND sent_at IS NULL`

	markSentSQL = `
		UPDATE draft_outbox
		SET sent_at = now()
		WHERE id = $1 AND sent_at IS NULL`
)

// Repository persists outbox rows. Inserts ride the same connection pool
// as the state changes they describe; a draft_outbox trigger NOTIFYs the
// listener with the new row's id.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) InsertEvent(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) error {
	body := pqtype.NullRawMessage{RawMessage: payload, Valid: len(payload) > 0}
	if _, err := r.db.ExecContext(ctx, insertEventSQL, uuid.New(), draftID, eventType, body); err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}

func (r *Repository) FetchUnsent(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, fetchUnsentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox rows: %w", err)
	}
	return events, nil
}

func (r *Repository) FetchByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error) {
	row := r.db.QueryRowContext(ctx, fetchByIDSQL, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("outbox event %s not found or already sent", id)
		}
		return nil, err
	}
	return &event, nil
}

func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, markSentSQL, id); err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (OutboxEvent, error) {
	var (
		event OutboxEvent
		body  pqtype.NullRawMessage
	)
	if err := row.Scan(&event.ID, &event.DraftID, &event.EventType, &body, &event.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OutboxEvent{}, err
		}
		return OutboxEvent{}, fmt.Errorf("failed to scan outbox row: %w", err)
	}
	if body.Valid {
		event.Payload = body.RawMessage
	}
	return event, nil
}
