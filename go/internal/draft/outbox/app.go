package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OutboxRepository defines what the app layer needs from the repository.
type OutboxRepository interface {
	InsertEvent(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) error
	FetchUnsent(ctx context.Context, limit int32) ([]OutboxEvent, error)
	FetchByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// App handles outbox business logic. It is the session's event sink: Emit
// marshals a payload and records it for publication.
type App struct {
	repo OutboxRepository
}

func NewApp(repo OutboxRepository) *App {
	return &App{repo: repo}
}

// Emit records a domain event in the outbox.
func (a *App) Emit(ctx context.Context, draftID uuid.UUID, eventType string, payload any) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	if err := a.repo.InsertEvent(ctx, draftID, eventType, body); err != nil {
		return fmt.Errorf("failed to insert %s event: %w", eventType, err)
	}

	log.Info().
		Str("draft_id", draftID.String()).
		Str("event_type", eventType).
		Msg("outbox event inserted")
	return nil
}

// FetchUnsentEvents fetches unsent outbox events, oldest first.
func (a *App) FetchUnsentEvents(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}
	events, err := a.repo.FetchUnsent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent events: %w", err)
	}
	if len(events) > 0 {
		log.Debug().Int("count", len(events)).Msg("fetched unsent outbox events")
	}
	return events, nil
}

// MarkEventSent marks an outbox event as sent.
func (a *App) MarkEventSent(ctx context.Context, eventID uuid.UUID) error {
	if err := a.repo.MarkSent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to mark event as sent: %w", err)
	}
	log.Debug().Str("event_id", eventID.String()).Msg("marked outbox event as sent")
	return nil
}

// GetEventByID fetches a specific unsent outbox event.
func (a *App) GetEventByID(ctx context.Context, eventID uuid.UUID) (*OutboxEvent, error) {
	event, err := a.repo.FetchByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event by ID: %w", err)
	}
	return event, nil
}
