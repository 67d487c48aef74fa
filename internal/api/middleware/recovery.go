package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mcoot/conquestgame-go/internal/api/apierr"
	"github.com/mcoot/conquestgame-go/internal/middleware"
)

// Recovery turns handler panics into an INTERNAL_ERROR response.
// A panicking websocket upgrade may already own the connection, so nothing is written for it.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger.With(slog.String("component", "api")), writePanic)
}

func writePanic(w http.ResponseWriter, r *http.Request, _ any) {
	if websocket.IsWebSocketUpgrade(r) {
		return
	}
	apierr.WriteError(w, apierr.NewInternalError())
}
