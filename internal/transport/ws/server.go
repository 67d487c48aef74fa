// Package ws serves the websocket endpoint and fans outbound events out to clients
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mcoot/conquestgame-go/internal/dependencies/ids"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/protocol"
)

// FrameHandler receives inbound frames and socket closures
type FrameHandler interface {
	HandleFrame(ctx context.Context, sid model.SessionID, data []byte)
	Disconnect(ctx context.Context, sid model.SessionID)
}

// Config controls which clients may connect and how fast they may send
type Config struct {
	// AllowedOrigins lists accepted Origin headers. Empty accepts any.
	AllowedOrigins []string
	// FramesPerSecond and Burst bound each client's inbound rate
	FramesPerSecond float64
	Burst           int
}

// DefaultConfig returns limits suited to interactive play
func DefaultConfig() Config {
	return Config{FramesPerSecond: 20, Burst: 40}
}

// Server upgrades HTTP requests to websocket sessions
type Server struct {
	hubs     *HubManager
	handler  FrameHandler
	ids      ids.Generator
	config   Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer creates a new Server
func NewServer(hubs *HubManager, handler FrameHandler, idGen ids.Generator, cfg Config, logger *slog.Logger) *Server {
	s := &Server{
		hubs:    hubs,
		handler: handler,
		ids:     idGen,
		config:  cfg,
		logger:  logger.With(slog.String("component", "ws-server")),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:    4 * 1024,
		WriteBufferSize:   16 * 1024,
		EnableCompression: true,
		CheckOrigin:       s.checkOrigin,
	}
	return s
}

// ServeHTTP runs one websocket session until the socket closes
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	sid := model.SessionID(s.ids.NewID())
	var limiter *rate.Limiter
	if s.config.FramesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.config.FramesPerSecond), max(1, s.config.Burst))
	}
	client := NewClient(sid, conn, limiter, s.logger)

	s.hubs.Attach(client)
	s.hubs.Join(sid, model.LobbyRoom)
	s.logger.Info("ws client connected",
		slog.String("session_id", string(sid)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.Int("total_clients", s.hubs.ClientCount()))

	go client.writePump()

	ctx := context.WithoutCancel(r.Context())
	client.readPump(func(data []byte) {
		s.handleFrame(ctx, client, data)
	})

	s.hubs.Detach(sid)
	s.handler.Disconnect(ctx, sid)
	client.Close()
	s.logger.Info("ws client disconnected",
		slog.String("session_id", string(sid)),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

func (s *Server) handleFrame(ctx context.Context, c *Client, data []byte) {
	if !c.Allow() {
		s.sendError(c, "rate limit exceeded")
		return
	}
	if isLivenessProbe(data) {
		if frame, err := protocol.Encode(protocol.TypeLivenessAck, struct{}{}); err == nil {
			c.Send(frame)
		}
		return
	}
	s.handler.HandleFrame(ctx, c.id, data)
}

func (s *Server) sendError(c *Client, message string) {
	frame, err := protocol.EncodeEvent(model.Event{
		Type:    model.EventError,
		Payload: model.ErrorPayload{Message: message},
	})
	if err != nil {
		return
	}
	c.Send(frame)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients such as the CLI send no Origin
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Host) {
			return true
		}
	}
	s.logger.Warn("ws origin rejected", slog.String("origin", origin))
	return false
}

func isLivenessProbe(data []byte) bool {
	var env struct {
		Type protocol.MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return false
	}
	return env.Type == protocol.TypeLivenessProbe
}
