package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Hub fans session events out to WebSocket clients, one room per draft.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*client]struct{}

	upgrader   websocket.Upgrader
	cfg        HubConfig
	broadcasts chan broadcast
}

// HubConfig holds WebSocket connection settings.
type HubConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultHubConfig returns default WebSocket settings.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development, restrict in production.
			return true
		},
	}
}

type broadcast struct {
	draftID uuid.UUID
	event   *Event
}

// client is one WebSocket connection in a draft room.
type client struct {
	id      uuid.UUID
	userID  string
	draftID uuid.UUID
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
}

func NewHub(cfg HubConfig) *Hub {
	return &Hub{
		rooms: make(map[uuid.UUID]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		cfg:        cfg,
		broadcasts: make(chan broadcast, 1000),
	}
}

// Run delivers queued broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log.Info().Msg("gateway hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway hub shutting down")
			return
		case b := <-h.broadcasts:
			h.deliver(b)
		}
	}
}

// Join upgrades an HTTP request to a WebSocket and registers the client
// in its draft room.
func (h *Hub) Join(w http.ResponseWriter, r *http.Request, userID string, draftID uuid.UUID) (*client, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade connection: %w", err)
	}

	c := &client{
		id:      uuid.New(),
		userID:  userID,
		draftID: draftID,
		conn:    conn,
		send:    make(chan []byte, 256),
		hub:     h,
	}
	h.register(c)

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("client_id", c.id.String()).
		Str("user_id", userID).
		Str("draft_id", draftID.String()).
		Msg("client joined draft room")
	return c, nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[c.draftID] == nil {
		h.rooms[c.draftID] = make(map[*client]struct{})
	}
	h.rooms[c.draftID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.draftID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.draftID)
	}
	log.Debug().
		Str("client_id", c.id.String()).
		Str("draft_id", c.draftID.String()).
		Msg("client left draft room")
}

// Broadcast queues an event for every client in a draft room. Drops the
// event with a warning when the queue is full.
func (h *Hub) Broadcast(draftID uuid.UUID, event *Event) {
	select {
	case h.broadcasts <- broadcast{draftID: draftID, event: event}:
	default:
		log.Warn().Str("draft_id", draftID.String()).Msg("broadcast queue full, dropping event")
	}
}

func (h *Hub) deliver(b broadcast) {
	h.mu.RLock()
	room, ok := h.rooms[b.draftID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	// Snapshot the room so the lock is not held while writing.
	targets := make([]*client, 0, len(room))
	for c := range room {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(b.event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			// Slow or dead client, cut it loose.
			log.Warn().
				Str("client_id", c.id.String()).
				Str("user_id", c.userID).
				Msg("client send buffer full, closing connection")
			h.unregister(c)
			c.conn.Close()
		}
	}
}

// ActiveDrafts returns the draft ids that currently have clients.
func (h *Hub) ActiveDrafts() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Stats summarizes the hub's connections.
type Stats struct {
	TotalClients int            `json:"total_clients"`
	ActiveDrafts int            `json:"active_drafts"`
	PerDraft     map[string]int `json:"per_draft"`
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stats := Stats{PerDraft: make(map[string]int, len(h.rooms))}
	for draftID, room := range h.rooms {
		stats.TotalClients += len(room)
		stats.PerDraft[draftID.String()] = len(room)
	}
	stats.ActiveDrafts = len(h.rooms)
	return stats
}

// sendEvent queues one event for this client only. Used for the state
// sync frame on connect.
func (c *client) sendEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal client event")
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("client_id", c.id.String()).Msg("client send buffer full, dropping frame")
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.unregister(c)
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("client_id", c.id.String()).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.ReadTimeout))
		return nil
	})

	for {
		// Clients speak over the HTTP API; inbound frames are drained
		// only to keep the connection alive.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("client_id", c.id.String()).Msg("unexpected websocket close")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.ReadTimeout))
	}
}
