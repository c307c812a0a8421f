package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairwaylabs/clubhouse/go/internal/draft/engine"
	"github.com/fairwaylabs/clubhouse/go/internal/draft/session"
	"github.com/fairwaylabs/clubhouse/go/internal/models"
)

// Sessions is the slice of the session manager the gateway needs.
type Sessions interface {
	Get(draftID uuid.UUID) (*session.Session, error)
}

// Handler serves the WebSocket endpoint and the HTTP intent and query
// API. Intents go straight to the draft's session actor; the mirror only
// backs the state sync frame for connecting clients.
type Handler struct {
	hub      *Hub
	mirror   *Mirror
	sessions Sessions
}

func NewHandler(hub *Hub, mirror *Mirror, sessions Sessions) *Handler {
	return &Handler{hub: hub, mirror: mirror, sessions: sessions}
}

// RegisterRoutes registers the gateway's routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/draft", h.handleDraftSocket)
	mux.HandleFunc("GET /ws/stats", h.handleStats)

	mux.HandleFunc("POST /api/drafts/{id}/start", h.intent(h.start))
	mux.HandleFunc("POST /api/drafts/{id}/pause", h.intent(h.pause))
	mux.HandleFunc("POST /api/drafts/{id}/resume", h.intent(h.resume))
	mux.HandleFunc("POST /api/drafts/{id}/cancel", h.intent(h.cancel))
	mux.HandleFunc("POST /api/drafts/{id}/picks", h.intent(h.makePick))
	mux.HandleFunc("POST /api/drafts/{id}/nominations", h.intent(h.nominate))
	mux.HandleFunc("POST /api/drafts/{id}/bids", h.intent(h.placeBid))
	mux.HandleFunc("POST /api/drafts/{id}/passes", h.intent(h.passBid))
	mux.HandleFunc("PUT /api/drafts/{id}/teams/{teamID}/queue", h.intent(h.setQueue))
	mux.HandleFunc("POST /api/drafts/{id}/timeout", h.intent(h.forceTimeout))

	mux.HandleFunc("GET /api/drafts/{id}/state", h.intent(h.draftState))
	mux.HandleFunc("GET /api/drafts/{id}/grades", h.intent(h.teamGrades))
	mux.HandleFunc("GET /api/drafts/{id}/grades/picks", h.intent(h.pickGrades))
	mux.HandleFunc("GET /api/drafts/{id}/teams/{teamID}/board", h.intent(h.board))
}

// handleDraftSocket upgrades the request and pushes a state sync frame
// so reconnecting clients catch up before live events arrive.
func (h *Handler) handleDraftSocket(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(r.URL.Query().Get("draft_id"))
	if err != nil {
		http.Error(w, "valid draft_id is required", http.StatusBadRequest)
		return
	}

	// User identity would come from a session token in production.
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	c, err := h.hub.Join(w, r, userID, draftID)
	if err != nil {
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("websocket join failed")
		return
	}

	if state := h.mirror.State(draftID); state != nil {
		data, err := json.Marshal(state)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal state sync frame")
			return
		}
		c.sendEvent(newEvent(uuid.New().String(), draftID.String(), TypeStateSync, data))
	}
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.Stats())
}

// intent resolves the draft's session before running the handler body.
func (h *Handler) intent(fn func(w http.ResponseWriter, r *http.Request, s *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draftID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid draft id", http.StatusBadRequest)
			return
		}
		s, err := h.sessions.Get(draftID)
		if err != nil {
			writeError(w, err)
			return
		}
		fn(w, r, s)
	}
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if err := s.Start(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pause(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Pause(r.Context(), req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resume(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if err := s.Resume(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Cancel(r.Context(), req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) makePick(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req struct {
		TeamID   uuid.UUID `json:"team_id"`
		PlayerID uuid.UUID `json:"player_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pick, err := s.MakePick(r.Context(), req.TeamID, req.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pick)
}

func (h *Handler) nominate(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req struct {
		TeamID      uuid.UUID `json:"team_id"`
		PlayerID    uuid.UUID `json:"player_id"`
		StartingBid int       `json:"starting_bid"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Nominate(r.Context(), req.TeamID, req.PlayerID, req.StartingBid); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) placeBid(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req struct {
		TeamID uuid.UUID `json:"team_id"`
		Amount int       `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.PlaceBid(r.Context(), req.TeamID, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) passBid(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req struct {
		TeamID uuid.UUID `json:"team_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.PassBid(r.Context(), req.TeamID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setQueue(w http.ResponseWriter, r *http.Request, s *session.Session) {
	teamID, err := uuid.Parse(r.PathValue("teamID"))
	if err != nil {
		http.Error(w, "invalid team id", http.StatusBadRequest)
		return
	}
	var req struct {
		PlayerIDs []uuid.UUID `json:"player_ids"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.SetQueue(r.Context(), teamID, req.PlayerIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) forceTimeout(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if err := s.ForceTimeout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) draftState(w http.ResponseWriter, r *http.Request, s *session.Session) {
	snap, err := s.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) teamGrades(w http.ResponseWriter, r *http.Request, s *session.Session) {
	grades, err := s.TeamGrades(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Teams []models.TeamGrade `json:"teams"`
	}{Teams: grades})
}

func (h *Handler) pickGrades(w http.ResponseWriter, r *http.Request, s *session.Session) {
	snap, err := s.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Picks []models.PickGrade `json:"picks"`
	}{Picks: snap.PickGrades})
}

func (h *Handler) board(w http.ResponseWriter, r *http.Request, s *session.Session) {
	teamID, err := uuid.Parse(r.PathValue("teamID"))
	if err != nil {
		http.Error(w, "invalid team id", http.StatusBadRequest)
		return
	}
	cmp, err := s.BoardComparison(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps domain errors to HTTP statuses. Validation rejections
// from the engine are conflicts, not server faults.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrSessionClosed):
		status = http.StatusGone
	case errors.Is(err, engine.ErrOutOfTurn),
		errors.Is(err, engine.ErrPlayerUnavailable),
		errors.Is(err, engine.ErrInvalidBid),
		errors.Is(err, engine.ErrInvalidPhase),
		errors.Is(err, engine.ErrNoNomination),
		errors.Is(err, engine.ErrNominationOpen),
		errors.Is(err, engine.ErrDraftComplete):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("intent failed")
	}
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}
