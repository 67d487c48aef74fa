package match

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/conquestgame-go/internal/dependencies/clock"
	"github.com/mcoot/conquestgame-go/internal/dependencies/random"
	"github.com/mcoot/conquestgame-go/internal/engine"
	"github.com/mcoot/conquestgame-go/internal/events"
	"github.com/mcoot/conquestgame-go/internal/journal"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/services/ai"
	"github.com/mcoot/conquestgame-go/internal/storage"
)

const commandBuffer = 64

// removeKind labels grace-period removals in the journal
const removeKind model.ActionKind = "RemovePlayer"

// Timing configures a runner's schedule
type Timing struct {
	TickInterval time.Duration
	// AIJitter delays each AI action by a random duration in [0, AIJitter)
	AIJitter time.Duration
}

// Runner owns one match. A single goroutine applies every human action,
// AI action, tick and connection change, so transitions never interleave.
type Runner struct {
	id        model.MatchID
	engine    *engine.Engine
	ai        *ai.Controller
	publisher events.Publisher
	storage   storage.Storage
	journal   journal.Recorder
	clock     clock.Clock
	random    random.Random
	timing    Timing
	logger    *slog.Logger

	// onEmpty is called once when no human players remain
	onEmpty func(model.MatchID)

	state    atomic.Pointer[model.Match]
	commands chan func()

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
	emptied   bool
}

func newRunner(
	initial *model.Match,
	eng *engine.Engine,
	aiController *ai.Controller,
	publisher events.Publisher,
	store storage.Storage,
	recorder journal.Recorder,
	clk clock.Clock,
	rnd random.Random,
	timing Timing,
	onEmpty func(model.MatchID),
	logger *slog.Logger,
) *Runner {
	r := &Runner{
		id:        initial.ID,
		engine:    eng,
		ai:        aiController,
		publisher: publisher,
		storage:   store,
		journal:   recorder,
		clock:     clk,
		random:    rnd,
		timing:    timing,
		onEmpty:   onEmpty,
		logger:    logger.With(slog.String("match_id", string(initial.ID))),
		commands:  make(chan func(), commandBuffer),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	r.state.Store(initial)
	return r
}

// ID returns the match ID
func (r *Runner) ID() model.MatchID {
	return r.id
}

// Snapshot returns the latest committed match state. Callers must not modify it.
func (r *Runner) Snapshot() *model.Match {
	return r.state.Load()
}

// Start places the players, announces the match and begins ticking.
// Calling Start more than once, or after Stop, does nothing.
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		go r.run()
	})
}

// Stop halts the runner and waits for it to exit
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	// A runner that never started has no loop to wait for
	r.startOnce.Do(func() { close(r.done) })
	<-r.done
}

// Done is closed once the runner has exited
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) run() {
	defer close(r.done)
	defer func() {
		if err := r.journal.Close(); err != nil {
			r.logger.Warn("failed to close journal", slog.String("error", err.Error()))
		}
	}()

	r.startMatch()

	var ticker clockwork.Ticker
	var tickC <-chan time.Time
	if r.Snapshot().IsRunning() {
		ticker = r.clock.NewTicker(r.timing.TickInterval)
		tickC = ticker.Chan()
	}
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
		}
	}
	defer stopTicker()

	for {
		select {
		case <-r.stop:
			r.logger.Info("match runner stopped")
			return
		case cmd := <-r.commands:
			cmd()
		case <-tickC:
			r.tick()
		}
		if ticker != nil && !r.Snapshot().IsRunning() {
			stopTicker()
		}
	}
}

func (r *Runner) startMatch() {
	start := model.Action{Kind: model.ActionStart}
	next, res, err := r.engine.Apply(r.Snapshot(), start)
	if err != nil {
		r.logger.Error("failed to start match", slog.String("error", err.Error()))
		return
	}
	r.commit(next, start, res)

	r.logger.Info("match started",
		slog.Int("player_count", len(next.Players)),
		slog.Bool("has_ai", next.HasAI),
		slog.String("difficulty", string(next.Difficulty)),
	)
	r.publish(model.Event{
		Type:    model.EventMatchStarted,
		Payload: model.MatchStartedPayload{State: next},
	})
	r.announceEnd(res)
}

// tick runs one economy step: accrue, let the AI act, then count down
func (r *Runner) tick() {
	if !r.Snapshot().IsRunning() {
		return
	}

	r.applyAction(model.Action{Kind: model.ActionAccrue}, "")
	if !r.Snapshot().IsRunning() {
		return
	}

	for _, a := range r.ai.Turn(r.Snapshot()) {
		r.scheduleAI(a)
	}

	r.applyAction(model.Action{Kind: model.ActionTick}, "")
}

func (r *Runner) scheduleAI(a model.Action) {
	jitterMs := int(r.timing.AIJitter / time.Millisecond)
	if jitterMs <= 0 {
		r.applyAction(a, "")
		return
	}
	delay := time.Duration(r.random.Intn(jitterMs)) * time.Millisecond
	r.clock.AfterFunc(delay, func() {
		_ = r.enqueue(context.Background(), func() { r.applyAction(a, "") })
	})
}

// applyAction runs an action through the engine and announces the outcome.
// sid is the acting session, empty for AI and server-issued actions.
func (r *Runner) applyAction(a model.Action, sid model.SessionID) {
	current := r.Snapshot()
	next, res, err := r.engine.Apply(current, a)
	if err != nil {
		r.record(current, a, journal.OutcomeRejected, err)
		if sid == "" {
			r.logger.Debug("action rejected",
				slog.String("kind", string(a.Kind)),
				slog.String("player_id", string(a.PlayerID)),
				slog.String("reason", err.Error()))
			return
		}
		r.publish(model.Event{
			Type:      model.EventActionRejected,
			Audience:  model.AudienceSession,
			SessionID: sid,
			PlayerID:  a.PlayerID,
			Payload:   model.ActionRejectedPayload{Kind: a.Kind, Reason: err.Error()},
		})
		return
	}

	if res.Ignored {
		r.record(current, a, journal.OutcomeIgnored, nil)
		if sid != "" {
			r.publish(model.Event{
				Type:      model.EventActionAccepted,
				Audience:  model.AudienceSession,
				SessionID: sid,
				PlayerID:  a.PlayerID,
				Payload:   model.ActionAcceptedPayload{Kind: a.Kind, State: current},
			})
		}
		return
	}

	r.commit(next, a, res)

	update := model.Event{
		Type:     model.EventStateUpdate,
		PlayerID: a.PlayerID,
		Payload:  model.StateUpdatePayload{Kind: a.Kind, State: next, Applied: a},
	}
	if sid != "" {
		r.publish(model.Event{
			Type:      model.EventActionAccepted,
			Audience:  model.AudienceSession,
			SessionID: sid,
			PlayerID:  a.PlayerID,
			Payload:   model.ActionAcceptedPayload{Kind: a.Kind, State: next},
		})
		update.Audience = model.AudienceRoomExcept
		update.SessionID = sid
	}
	r.publish(update)
	r.announceEnd(res)
}

// commit makes next the current snapshot and persists it
func (r *Runner) commit(next *model.Match, a model.Action, res engine.Result) {
	if res.Ended && next.EndedAt.IsZero() {
		next.EndedAt = r.clock.Now()
	}
	r.state.Store(next)
	r.record(next, a, journal.OutcomeApplied, nil)

	if err := r.storage.SaveMatch(context.Background(), next); err != nil {
		r.logger.Warn("failed to save match snapshot",
			slog.Uint64("version", next.Version),
			slog.String("error", err.Error()))
	}
	for _, id := range res.Eliminated {
		r.logger.Info("player eliminated", slog.String("player_id", string(id)))
	}
}

func (r *Runner) announceEnd(res engine.Result) {
	if !res.Ended {
		return
	}
	m := r.Snapshot()
	r.logger.Info("match over",
		slog.String("winner", string(m.Winner)),
		slog.Int("time_remaining", m.TimeRemaining))
	r.publish(model.Event{
		Type:     model.EventMatchOver,
		PlayerID: m.Winner,
		Payload:  model.MatchOverPayload{Winner: m.Winner, State: m},
	})
}

func (r *Runner) record(m *model.Match, a model.Action, outcome string, reason error) {
	if err := r.journal.Record(journal.NewEntry(r.clock.Now(), m, a, outcome, reason)); err != nil {
		r.logger.Warn("failed to journal action", slog.String("error", err.Error()))
	}
}

func (r *Runner) publish(e model.Event) {
	e.Room = string(r.id)
	e.MatchID = r.id
	if e.Audience == "" {
		e.Audience = model.AudienceRoom
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.clock.Now()
	}
	r.publisher.Publish(context.Background(), e)
}

// enqueue hands a command to the runner goroutine without waiting for it to run
func (r *Runner) enqueue(ctx context.Context, cmd func()) error {
	select {
	case <-r.stop:
		return model.ErrMatchStopped
	default:
	}
	select {
	case r.commands <- cmd:
		return nil
	case <-r.stop:
		return model.ErrMatchStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call runs fn on the runner goroutine and waits for its result
func (r *Runner) call(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	if err := r.enqueue(ctx, func() { reply <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		select {
		case err := <-reply:
			return err
		default:
			return model.ErrMatchStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit applies a player action. Acceptance or rejection is published to
// the acting session; the returned error only reports delivery failures.
func (r *Runner) Submit(ctx context.Context, a model.Action, sid model.SessionID) error {
	return r.call(ctx, func() error {
		r.applyAction(a, sid)
		return nil
	})
}

// Disconnect marks a human player as disconnected at the given time
func (r *Runner) Disconnect(ctx context.Context, playerID model.PlayerID, at time.Time) error {
	return r.call(ctx, func() error {
		current := r.Snapshot()
		p := current.GetPlayer(playerID)
		if p == nil {
			return model.ErrNotInMatch
		}
		next, err := r.engine.MarkDisconnected(current, playerID, at)
		if err != nil {
			return err
		}
		r.commitRoster(next)

		r.logger.Info("player disconnected", slog.String("player_id", string(playerID)))
		r.publish(model.Event{
			Type:     model.EventPlayerDisconnected,
			PlayerID: playerID,
			Payload:  model.PlayerDisconnectedPayload{PlayerID: playerID, Players: next.Players},
		})
		return nil
	})
}

// Rebind resumes a player on a new session. The new session receives a full
// snapshot and everyone else is told about the switch.
func (r *Runner) Rebind(ctx context.Context, playerID model.PlayerID, newSID, oldSID model.SessionID) error {
	return r.call(ctx, func() error {
		current := r.Snapshot()
		if current.GetPlayer(playerID) == nil {
			return model.ErrPlayerNotFound
		}
		next, err := r.engine.MarkConnected(current, playerID)
		if err != nil {
			return err
		}
		r.commitRoster(next)

		r.logger.Info("player rebound",
			slog.String("player_id", string(playerID)),
			slog.String("session_id", string(newSID)))
		r.publish(model.Event{
			Type:      model.EventStateSnapshot,
			Audience:  model.AudienceSession,
			SessionID: newSID,
			PlayerID:  playerID,
			Payload:   model.StateSnapshotPayload{State: next},
		})
		r.publish(model.Event{
			Type:      model.EventPlayerRebound,
			Audience:  model.AudienceRoomExcept,
			SessionID: newSID,
			PlayerID:  playerID,
			Payload: model.PlayerReboundPayload{
				OldSessionID: oldSID,
				NewSessionID: newSID,
				PlayerID:     playerID,
				Players:      next.Players,
			},
		})
		return nil
	})
}

// Prune removes a player whose grace period expired. It is a no-op, returning
// false, if the player reconnected or disconnected again since disconnectedAt.
func (r *Runner) Prune(ctx context.Context, playerID model.PlayerID, disconnectedAt time.Time) (bool, error) {
	removed := false
	err := r.call(ctx, func() error {
		current := r.Snapshot()
		p := current.GetPlayer(playerID)
		if p == nil || p.Connection.Connected || !p.Connection.DisconnectedAt.Equal(disconnectedAt) {
			return nil
		}

		next, res, err := r.engine.RemovePlayer(current, playerID)
		if err != nil {
			return err
		}
		removed = true
		r.commit(next, model.Action{Kind: removeKind, PlayerID: playerID}, res)
		r.logger.Info("player removed after grace period", slog.String("player_id", string(playerID)))

		if next.HumanCount() == 0 {
			r.markEmpty()
			return nil
		}
		r.publish(model.Event{
			Type:     model.EventPlayerRemoved,
			PlayerID: playerID,
			Payload:  model.PlayerRemovedPayload{PlayerID: playerID, Players: next.Players},
		})
		r.announceEnd(res)
		return nil
	})
	return removed, err
}

// commitRoster stores a connection-status change
func (r *Runner) commitRoster(next *model.Match) {
	r.state.Store(next)
	if err := r.storage.SaveMatch(context.Background(), next); err != nil {
		r.logger.Warn("failed to save match snapshot", slog.String("error", err.Error()))
	}
}

func (r *Runner) markEmpty() {
	if r.emptied {
		return
	}
	r.emptied = true
	r.logger.Info("match has no players left")
	if r.onEmpty != nil {
		// Teardown stops this runner, so it cannot run on the runner goroutine
		go r.onEmpty(r.id)
	}
}
