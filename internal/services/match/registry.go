// Package match runs live matches: one goroutine per match owns its state
package match

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/mcoot/conquestgame-go/internal/dependencies/clock"
	"github.com/mcoot/conquestgame-go/internal/dependencies/ids"
	"github.com/mcoot/conquestgame-go/internal/dependencies/random"
	"github.com/mcoot/conquestgame-go/internal/engine"
	"github.com/mcoot/conquestgame-go/internal/events"
	"github.com/mcoot/conquestgame-go/internal/journal"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/services/ai"
	"github.com/mcoot/conquestgame-go/internal/storage"
)

// Registry tracks the runner of every live match
type Registry struct {
	mu        sync.RWMutex
	runners   map[model.MatchID]*Runner
	onRemoved []func(model.MatchID)

	engine    *engine.Engine
	ai        *ai.Controller
	publisher events.Publisher
	storage   storage.Storage
	journals  journal.Opener
	clock     clock.Clock
	random    random.Random
	ids       ids.Generator
	timing    Timing
	logger    *slog.Logger
}

// NewRegistry creates a new Registry
func NewRegistry(
	eng *engine.Engine,
	aiController *ai.Controller,
	publisher events.Publisher,
	store storage.Storage,
	journals journal.Opener,
	clk clock.Clock,
	rnd random.Random,
	idGen ids.Generator,
	timing Timing,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		runners:   make(map[model.MatchID]*Runner),
		engine:    eng,
		ai:        aiController,
		publisher: publisher,
		storage:   store,
		journals:  journals,
		clock:     clk,
		random:    rnd,
		ids:       idGen,
		timing:    timing,
		logger:    logger.With(slog.String("component", "match-registry")),
	}
}

// OnRemoved registers a hook called after a match is torn down
func (r *Registry) OnRemoved(fn func(model.MatchID)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRemoved = append(r.onRemoved, fn)
}

// Create builds a match from the lobby roster. The runner is returned
// un-started so callers can route sessions before the first event.
func (r *Registry) Create(ctx context.Context, roster []model.LobbyPlayer, difficulty model.Difficulty) (*Runner, error) {
	if len(roster) == 0 {
		return nil, model.ErrInsufficientPlayers
	}

	id := model.MatchID(r.ids.NewID())
	initial := r.engine.NewMatch(id, roster, difficulty, r.clock.Now())

	if err := r.storage.SaveMatch(ctx, initial); err != nil {
		r.logger.Error("failed to save match",
			slog.String("match_id", string(id)),
			slog.String("error", err.Error()))
		return nil, err
	}

	recorder, err := r.journals.Open(id)
	if err != nil {
		r.logger.Warn("journal unavailable, continuing without one",
			slog.String("match_id", string(id)),
			slog.String("error", err.Error()))
		recorder = journal.Nop{}
	}

	runner := newRunner(initial, r.engine, r.ai, r.publisher, r.storage, recorder,
		r.clock, r.random, r.timing, r.removeEmpty, r.logger)

	r.mu.Lock()
	r.runners[id] = runner
	r.mu.Unlock()

	r.logger.Info("match created",
		slog.String("match_id", string(id)),
		slog.Int("player_count", len(roster)),
		slog.Bool("has_ai", initial.HasAI))

	return runner, nil
}

// Get returns the runner of a live match
func (r *Registry) Get(id model.MatchID) (*Runner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runner, ok := r.runners[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return runner, nil
}

// List returns every live runner ordered by match ID
func (r *Registry) List() []*Runner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runners := make([]*Runner, 0, len(r.runners))
	for _, runner := range r.runners {
		runners = append(runners, runner)
	}
	sort.Slice(runners, func(i, j int) bool { return runners[i].ID() < runners[j].ID() })
	return runners
}

// FindPlayer returns the live match that has playerID on its roster
func (r *Registry) FindPlayer(playerID model.PlayerID) (*Runner, bool) {
	for _, runner := range r.List() {
		if runner.Snapshot().GetPlayer(playerID) != nil {
			return runner, true
		}
	}
	return nil, false
}

// Len returns the number of live matches
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runners)
}

// Remove stops a match and deletes its snapshot
func (r *Registry) Remove(ctx context.Context, id model.MatchID) error {
	r.mu.Lock()
	runner, ok := r.runners[id]
	if ok {
		delete(r.runners, id)
	}
	hooks := make([]func(model.MatchID), len(r.onRemoved))
	copy(hooks, r.onRemoved)
	r.mu.Unlock()

	if !ok {
		return model.ErrMatchNotFound
	}

	runner.Stop()
	if err := r.storage.DeleteMatch(ctx, id); err != nil {
		r.logger.Warn("failed to delete match snapshot",
			slog.String("match_id", string(id)),
			slog.String("error", err.Error()))
	}
	for _, hook := range hooks {
		hook(id)
	}

	r.logger.Info("match removed", slog.String("match_id", string(id)))
	return nil
}

func (r *Registry) removeEmpty(id model.MatchID) {
	_ = r.Remove(context.Background(), id)
}

// StopAll stops every runner without deleting snapshots
func (r *Registry) StopAll() {
	for _, runner := range r.List() {
		runner.Stop()
	}
}
