package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/conquestgame-go/internal/api"
	"github.com/mcoot/conquestgame-go/internal/config"
	"github.com/mcoot/conquestgame-go/internal/dependencies/clock"
	"github.com/mcoot/conquestgame-go/internal/dependencies/ids"
	"github.com/mcoot/conquestgame-go/internal/dependencies/random"
	"github.com/mcoot/conquestgame-go/internal/engine"
	"github.com/mcoot/conquestgame-go/internal/events"
	"github.com/mcoot/conquestgame-go/internal/journal"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/services/ai"
	"github.com/mcoot/conquestgame-go/internal/services/connection"
	"github.com/mcoot/conquestgame-go/internal/services/gateway"
	"github.com/mcoot/conquestgame-go/internal/services/janitor"
	"github.com/mcoot/conquestgame-go/internal/services/lobby"
	"github.com/mcoot/conquestgame-go/internal/services/match"
	"github.com/mcoot/conquestgame-go/internal/storage"
	"github.com/mcoot/conquestgame-go/internal/storage/memory"
	redisstorage "github.com/mcoot/conquestgame-go/internal/storage/redis"
	"github.com/mcoot/conquestgame-go/internal/transport/ws"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    ids.Generator

	Tuning config.Tuning

	// Services
	Bus         *events.Bus
	Engine      *engine.Engine
	AI          *ai.Controller
	Registry    *match.Registry
	Lobby       *lobby.Controller
	Connections *connection.Manager
	Gateway     *gateway.Gateway
	Janitor     *janitor.Janitor

	// Transport
	HubManager  *ws.HubManager
	Broadcaster *ws.Broadcaster
	WebSocket   *ws.Server

	logger *slog.Logger
	// stopDelivery cancels the broadcaster subscription
	stopDelivery context.CancelFunc
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Tuning overrides the default rules and timing (optional)
	Tuning *config.Tuning
	// JournalDir enables match journals when set
	JournalDir string
	// WebSocket holds the websocket transport settings.
	// If zero value, defaults to ws.DefaultConfig()
	WebSocket ws.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	tuning := config.DefaultTuning()
	if cfg.Tuning != nil {
		tuning = *cfg.Tuning
	}
	if err := tuning.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageTypeMemory
	}

	switch storageType {
	case config.StorageTypeMemory:
		store = memory.New()
	case config.StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	var journals journal.Opener = journal.Nop{}
	if cfg.JournalDir != "" {
		dir, err := journal.NewDir(cfg.JournalDir)
		if err != nil {
			return nil, fmt.Errorf("journal dir: %w", err)
		}
		journals = dir
	}

	wsCfg := cfg.WebSocket
	if wsCfg.FramesPerSecond == 0 {
		origins := wsCfg.AllowedOrigins
		wsCfg = ws.DefaultConfig()
		wsCfg.AllowedOrigins = origins
	}

	deps := dependencies{
		store:    store,
		clock:    clock.New(),
		random:   random.New(),
		ids:      ids.New(),
		journals: journals,
		tuning:   tuning,
		ws:       wsCfg,
		logger:   logger,
	}
	return newWithDependencies(deps), nil
}

// dependencies are the swappable inputs of the wiring
type dependencies struct {
	store    storage.Storage
	clock    clock.Clock
	random   random.Random
	ids      ids.Generator
	journals journal.Opener
	tuning   config.Tuning
	ws       ws.Config
	logger   *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(d dependencies) *App {
	rules := d.tuning.Rules
	timing := d.tuning.Timing

	bus := events.NewBus(d.clock, d.logger)
	eng := engine.New(rules, d.random, d.logger)
	aiController := ai.NewController(ai.DefaultStrategies(d.random), rules, d.random, d.logger)
	registry := match.NewRegistry(
		eng, aiController, bus, d.store, d.journals, d.clock, d.random, d.ids,
		match.Timing{TickInterval: timing.TickInterval, AIJitter: timing.AIJitter},
		d.logger,
	)
	lobbyController := lobby.NewController(d.store, registry, bus, d.ids, d.clock, rules, d.logger)

	hubManager := ws.NewHubManager(d.logger)
	connections := connection.NewManager(registry, lobbyController, hubManager, bus, d.clock, timing.GracePeriod, d.logger)
	gw := gateway.New(lobbyController, connections, registry, bus, d.clock, d.logger)
	wsServer := ws.NewServer(hubManager, gw, d.ids, d.ws, d.logger)

	registry.OnRemoved(func(id model.MatchID) {
		hubManager.RemoveHub(string(id))
		connections.ForgetMatch(id)
	})

	return &App{
		Storage:     d.store,
		Clock:       d.clock,
		Random:      d.random,
		IDs:         d.ids,
		Tuning:      d.tuning,
		Bus:         bus,
		Engine:      eng,
		AI:          aiController,
		Registry:    registry,
		Lobby:       lobbyController,
		Connections: connections,
		Gateway:     gw,
		Janitor: janitor.New(registry, d.store, hubManager, d.clock,
			timing.FinishedMatchRetention, timing.SweepInterval, d.logger),
		HubManager:  hubManager,
		Broadcaster: ws.NewBroadcaster(hubManager, d.logger),
		WebSocket:   wsServer,
		logger:      d.logger,
	}
}

// Handler returns the HTTP API with the websocket endpoint mounted
func (a *App) Handler() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:    a.logger,
		Lobby:     a.Lobby,
		Live:      a.Registry,
		Storage:   a.Storage,
		WebSocket: a.WebSocket,
	})
}

// Start begins event delivery. With sweep set it also schedules the janitor.
func (a *App) Start(ctx context.Context, sweep bool) error {
	ctx, cancel := context.WithCancel(ctx)
	if err := a.Broadcaster.Run(ctx, a.Bus); err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe broadcaster: %w", err)
	}
	a.stopDelivery = cancel

	if sweep {
		if err := a.Janitor.Start(); err != nil {
			cancel()
			return err
		}
	}
	return nil
}

// Shutdown stops every match and closes the transport and storage
func (a *App) Shutdown(_ context.Context) error {
	var errs []error
	if err := a.Janitor.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("janitor: %w", err))
	}
	a.HubManager.CloseAll()
	a.Registry.StopAll()
	if a.stopDelivery != nil {
		a.stopDelivery()
	}
	if err := a.Bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event bus: %w", err))
	}
	if closer, ok := a.Storage.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
