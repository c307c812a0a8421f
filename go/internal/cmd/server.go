package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/fairwaylabs/clubhouse/go/internal/models"
)

func setupServer(config *Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	registerRoutes(mux, services)
	setupHealthCheck(mux)

	handler := c.Handler(mux)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Server.Port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func registerRoutes(mux *http.ServeMux, services *Services) {
	// WebSocket rooms plus the intent and query API.
	services.Gateway.RegisterRoutes(mux)

	// Admin routes that live above the per-session API.
	mux.HandleFunc("POST /api/drafts/{id}/open", func(w http.ResponseWriter, r *http.Request) {
		draftID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid draft id", http.StatusBadRequest)
			return
		}
		var req struct {
			Tour string `json:"tour"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tour == "" {
			http.Error(w, "tour is required", http.StatusBadRequest)
			return
		}
		if err := services.OpenDraftSession(r.Context(), draftID, req.Tour); err != nil {
			log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to open draft session")
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /api/drafts/{id}/picks", func(w http.ResponseWriter, r *http.Request) {
		draftID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid draft id", http.StatusBadRequest)
			return
		}
		after, _ := strconv.Atoi(r.URL.Query().Get("after"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		picks, err := services.Drafts.ListPicksAfter(r.Context(), draftID, after, limit)
		if err != nil {
			log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to list picks")
			http.Error(w, "failed to list picks", http.StatusInternalServerError)
			return
		}
		resp := struct {
			Picks      []models.Pick `json:"picks"`
			NextCursor *int          `json:"next_cursor,omitempty"`
		}{Picks: picks}
		if len(picks) == limit {
			next := picks[len(picks)-1].OverallPick
			resp.NextCursor = &next
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error().Err(err).Msg("failed to encode picks response")
		}
	})

	mux.HandleFunc("POST /api/rankings/{tour}/sync", func(w http.ResponseWriter, r *http.Request) {
		result, err := services.Rankings.SyncFromFeed(r.Context(), r.PathValue("tour"))
		if err != nil {
			log.Error().Err(err).Msg("rankings sync failed")
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			log.Error().Err(err).Msg("failed to encode sync result")
		}
	})
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
