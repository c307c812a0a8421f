package gateway

import (
	"encoding/json"
	"time"

	"github.com/fairwaylabs/clubhouse/go/internal/draft/events"
)

// Event is the frame sent to WebSocket clients. Data carries the payload
// from the events package unchanged; the gateway adds its own frame types
// on top of the session's event set.
type Event struct {
	ID        string          `json:"id"`
	DraftID   string          `json:"draft_id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Gateway-only frame types. These never pass through the outbox; the
// gateway synthesizes them for connected clients.
const (
	TypeTimerTick = "TimerTick"
	TypeStateSync = "StateSync"
)

// TimerTickPayload is a periodic countdown frame. The server deadline
// stays authoritative; ticks only keep client countdowns honest.
type TimerTickPayload struct {
	TeamID           string    `json:"team_id"`
	OverallPick      int       `json:"overall_pick,omitempty"`
	TimeRemainingSec int       `json:"time_remaining_sec"`
	ServerTime       time.Time `json:"server_time"`
}

// sessionEventTypes is the set of event types the consumer relays from
// the stream. Anything else is acked and dropped.
var sessionEventTypes = map[string]bool{
	events.TypeDraftStarted:     true,
	events.TypeDraftPaused:      true,
	events.TypeDraftResumed:     true,
	events.TypeDraftCompleted:   true,
	events.TypeDraftCancelled:   true,
	events.TypePickStarted:      true,
	events.TypePickMade:         true,
	events.TypeNominationOpened: true,
	events.TypeNominationPassed: true,
	events.TypeBidPlaced:        true,
	events.TypeGradesUpdated:    true,
}

func newEvent(id, draftID, eventType string, data json.RawMessage) *Event {
	return &Event{
		ID:        id,
		DraftID:   draftID,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
