// Package handler serves the read-only HTTP API
package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/conquestgame-go/internal/api/apierr"
	"github.com/mcoot/conquestgame-go/internal/api/response"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/protocol"
	"github.com/mcoot/conquestgame-go/internal/storage"
)

// LobbySource returns the current lobby
type LobbySource interface {
	Snapshot(ctx context.Context) (*model.Lobby, error)
}

// LiveCounter reports how many matches are running in this process
type LiveCounter interface {
	Len() int
}

// LobbyHandler serves the lobby
type LobbyHandler struct {
	lobby LobbySource
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(lobby LobbySource) *LobbyHandler {
	return &LobbyHandler{lobby: lobby}
}

// Get handles GET /api/v1/lobby
func (h *LobbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	lobby, err := h.lobby.Snapshot(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, protocol.NewLobbyView(lobby))
}

// MatchHandler serves stored match snapshots and summaries
type MatchHandler struct {
	storage storage.Storage
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(store storage.Storage) *MatchHandler {
	return &MatchHandler{storage: store}
}

// List handles GET /api/v1/matches
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	ids, err := h.storage.ListMatchIDs(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MatchListFromIDs(ids))
}

// Get handles GET /api/v1/matches/{id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.MatchID(mux.Vars(r)["id"])

	m, err := h.storage.GetMatch(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, protocol.NewStateView(m))
}

// ListSummaries handles GET /api/v1/summaries
func (h *MatchHandler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.storage.ListSummaries(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SummaryListFromModels(summaries))
}

// GetSummary handles GET /api/v1/summaries/{id}
func (h *MatchHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id := model.MatchID(mux.Vars(r)["id"])

	summary, err := h.storage.GetSummary(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, protocol.NewSummaryView(summary))
}

// HealthHandler reports liveness
type HealthHandler struct {
	live LiveCounter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(live LiveCounter) *HealthHandler {
	return &HealthHandler{live: live}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, _ *http.Request) {
	body := response.Health{Status: "ok"}
	if h.live != nil {
		body.LiveMatches = h.live.Len()
	}
	response.JSON(w, http.StatusOK, body)
}
