package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrSessionNotFound is returned for intents against a draft with no live
// session.
var ErrSessionNotFound = errors.New("draft session not found")

// Manager owns the live sessions, one actor goroutine per draft.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	cancels  map[uuid.UUID]context.CancelFunc
	wg       sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		cancels:  make(map[uuid.UUID]context.CancelFunc),
	}
}

// Open builds a session from cfg and starts its actor loop. The session
// runs until Close or Shutdown.
func (m *Manager) Open(ctx context.Context, cfg Config) (*Session, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[cfg.Draft.ID]; exists {
		return nil, fmt.Errorf("draft %s already has a live session", cfg.Draft.ID)
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.sessions[cfg.Draft.ID] = s
	m.cancels[cfg.Draft.ID] = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := s.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("draft_id", cfg.Draft.ID.String()).Msg("session loop exited")
		}
	}()

	log.Info().Str("draft_id", cfg.Draft.ID.String()).Msg("session opened")
	return s, nil
}

// Get returns the live session for a draft.
func (m *Manager) Get(draftID uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[draftID]
	if !ok {
		return nil, fmt.Errorf("%w: draft %s", ErrSessionNotFound, draftID)
	}
	return s, nil
}

// Close stops and removes one session.
func (m *Manager) Close(draftID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cancel, ok := m.cancels[draftID]
	if !ok {
		return fmt.Errorf("%w: draft %s", ErrSessionNotFound, draftID)
	}
	cancel()
	delete(m.sessions, draftID)
	delete(m.cancels, draftID)
	log.Info().Str("draft_id", draftID.String()).Msg("session closed")
	return nil
}

// Shutdown stops every session and waits for the actor loops to exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for draftID, cancel := range m.cancels {
		cancel()
		delete(m.sessions, draftID)
		delete(m.cancels, draftID)
	}
	m.mu.Unlock()
	m.wg.Wait()
	log.Info().Msg("all sessions shut down")
}
