package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/conquestgame-go/internal/api/apierr"
	"github.com/mcoot/conquestgame-go/internal/api/handler"
	apimiddleware "github.com/mcoot/conquestgame-go/internal/api/middleware"
	"github.com/mcoot/conquestgame-go/internal/middleware"
	"github.com/mcoot/conquestgame-go/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Lobby   handler.LobbySource
	Live    handler.LiveCounter
	Storage storage.Storage
	// WebSocket serves /ws when set
	WebSocket http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewMethodNotAllowedError())
	})

	lobbyHandler := handler.NewLobbyHandler(cfg.Lobby)
	matchHandler := handler.NewMatchHandler(cfg.Storage)
	healthHandler := handler.NewHealthHandler(cfg.Live)

	r.Use(apimiddleware.Recovery(cfg.Logger))

	// The websocket route skips the logging middleware: its wrapped writer cannot be hijacked
	if cfg.WebSocket != nil {
		r.Handle("/ws", cfg.WebSocket).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/lobby", lobbyHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/matches", matchHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id}", matchHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/summaries", matchHandler.ListSummaries).Methods(http.MethodGet)
	api.HandleFunc("/summaries/{id}", matchHandler.GetSummary).Methods(http.MethodGet)

	return r
}
