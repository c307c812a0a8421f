package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairwaylabs/clubhouse/go/internal/dbconfig"
	"github.com/fairwaylabs/clubhouse/go/internal/draft/gateway"
	"github.com/fairwaylabs/clubhouse/go/internal/draft/outbox"
	"github.com/fairwaylabs/clubhouse/go/internal/draft/repository"
	"github.com/fairwaylabs/clubhouse/go/internal/draft/session"
	"github.com/fairwaylabs/clubhouse/go/internal/rankings"
)

// Services wires the repository, outbox, session, and gateway layers.
type Services struct {
	Drafts   *repository.DraftRepository
	Rankings *rankings.App
	Outbox   *outbox.App
	Listener *outbox.Listener
	Sessions *session.Manager
	Gateway  *gateway.Service
}

func setupServices(config *Config, dbCfg dbconfig.Config, pool *pgxpool.Pool, listenerDB *sql.DB) (*Services, error) {
	// Repository layer -> app layer -> transport, same chain everywhere.
	draftRepo := repository.NewDraftRepository(pool)

	rankingsRepo := rankings.NewRepository(pool)
	var feed rankings.Feed
	if config.Rankings.FeedURL != "" {
		feed = rankings.NewFeedClient(config.Rankings.FeedURL)
	}
	rankingsApp := rankings.NewApp(rankingsRepo, feed)

	// Outbox: session events land in draft_outbox, the listener relays
	// them to JetStream, the gateway consumes them back out.
	outboxApp := outbox.NewApp(outbox.NewRepository(listenerDB))

	publisherCfg := outbox.DefaultJetStreamConfig()
	if config.Nats.URL != "" {
		publisherCfg.URL = config.Nats.URL
	}
	publisherCfg.StreamName = config.Nats.StreamName
	publisher, err := outbox.NewJetStreamPublisher(publisherCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	listenerCfg := outbox.DefaultListenerConfig()
	listenerCfg.DatabaseURL = dbCfg.DSN()
	listener, err := outbox.NewListener(outboxApp, publisher, listenerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox listener: %w", err)
	}

	sessions := session.NewManager()

	gatewayCfg := gateway.DefaultConfig()
	if config.Nats.URL != "" {
		gatewayCfg.Consumer.URL = config.Nats.URL
	}
	gatewayCfg.Consumer.StreamName = config.Nats.StreamName
	gatewayCfg.TickInterval = config.tickInterval()
	gw, err := gateway.NewService(gatewayCfg, sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	return &Services{
		Drafts:   draftRepo,
		Rankings: rankingsApp,
		Outbox:   outboxApp,
		Listener: listener,
		Sessions: sessions,
		Gateway:  gw,
	}, nil
}

// OpenDraftSession loads a draft and its teams, queues, and rank sheet
// from the database and starts its session actor.
func (s *Services) OpenDraftSession(ctx context.Context, draftID uuid.UUID, tour string) error {
	draft, err := s.Drafts.GetDraft(ctx, draftID)
	if err != nil {
		return err
	}

	teams, err := s.Drafts.ListTeamsByLeague(ctx, draft.LeagueID)
	if err != nil {
		return err
	}

	players, err := s.Rankings.GetRankSheet(ctx, tour)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		return fmt.Errorf("no rank sheet for tour %q", tour)
	}

	queues, err := s.Drafts.ListQueues(ctx, draftID)
	if err != nil {
		return err
	}

	_, err = s.Sessions.Open(ctx, session.Config{
		Draft:   *draft,
		Teams:   teams,
		Players: players,
		Queues:  queues,
		Store:   s.Drafts,
		Emitter: s.Outbox,
	})
	return err
}
