package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Service wires the hub, the stream consumer, the timer ticker, and the
// HTTP handlers into one unit the server can start.
type Service struct {
	hub      *Hub
	mirror   *Mirror
	consumer *Consumer
	ticker   *Ticker
	handler  *Handler
}

// Config holds settings for the gateway service.
type Config struct {
	Hub          HubConfig
	Consumer     ConsumerConfig
	TickInterval time.Duration
}

// DefaultConfig returns default gateway settings.
func DefaultConfig() Config {
	return Config{
		Hub:          DefaultHubConfig(),
		Consumer:     DefaultConsumerConfig(),
		TickInterval: 5 * time.Second,
	}
}

func NewService(cfg Config, sessions Sessions) (*Service, error) {
	hub := NewHub(cfg.Hub)
	mirror := NewMirror()

	consumer, err := NewConsumer(hub, mirror, cfg.Consumer)
	if err != nil {
		return nil, fmt.Errorf("create event consumer: %w", err)
	}

	return &Service{
		hub:      hub,
		mirror:   mirror,
		consumer: consumer,
		ticker:   NewTicker(hub, mirror, clockwork.NewRealClock(), cfg.TickInterval),
		handler:  NewHandler(hub, mirror, sessions),
	}, nil
}

// Start runs the gateway until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting draft gateway")

	go s.hub.Run(ctx)
	go s.ticker.Run(ctx)
	go func() {
		if err := s.consumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway event consumer failed")
		}
	}()

	<-ctx.Done()
	return s.Stop()
}

// Stop shuts the gateway down.
func (s *Service) Stop() error {
	if err := s.consumer.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop event consumer")
	}
	log.Info().Msg("draft gateway stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and API routes on mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.handler.RegisterRoutes(mux)
	log.Info().Msg("draft gateway routes registered")
}

// Stats reports the hub's connection counts.
func (s *Service) Stats() Stats {
	return s.hub.Stats()
}
