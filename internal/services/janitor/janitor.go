// Package janitor periodically archives finished matches and frees their resources
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/mcoot/conquestgame-go/internal/dependencies/clock"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/services/match"
	"github.com/mcoot/conquestgame-go/internal/storage"
)

// HubCleaner drops broadcast rooms nobody is in
type HubCleaner interface {
	CleanupEmptyHubs() int
}

// Janitor tears down matches that finished more than retention ago.
// Each one leaves a summary behind before its runner is removed.
type Janitor struct {
	registry  *match.Registry
	storage   storage.Storage
	hubs      HubCleaner
	clock     clock.Clock
	retention time.Duration
	interval  time.Duration
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// New creates a new Janitor
func New(
	registry *match.Registry,
	store storage.Storage,
	hubs HubCleaner,
	clk clock.Clock,
	retention time.Duration,
	interval time.Duration,
	logger *slog.Logger,
) *Janitor {
	return &Janitor{
		registry:  registry,
		storage:   store,
		hubs:      hubs,
		clock:     clk,
		retention: retention,
		interval:  interval,
		logger:    logger.With(slog.String("component", "janitor")),
	}
}

// Start schedules Sweep every interval
func (j *Janitor) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(func() {
			if _, err := j.Sweep(context.Background()); err != nil {
				j.logger.Error("sweep failed", slog.String("error", err.Error()))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	sched.Start()
	j.scheduler = sched
	j.logger.Info("janitor started",
		slog.Duration("interval", j.interval),
		slog.Duration("retention", j.retention))
	return nil
}

// Stop cancels the schedule and waits for a running sweep to finish
func (j *Janitor) Stop() error {
	if j.scheduler == nil {
		return nil
	}
	return j.scheduler.Shutdown()
}

// Sweep archives and removes every expired match, returning how many it removed
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	now := j.clock.Now()
	removed := 0

	for _, runner := range j.registry.List() {
		m := runner.Snapshot()
		if !m.IsGameOver || now.Sub(m.EndedAt) < j.retention {
			continue
		}

		summary := m.Summarize()
		if err := j.storage.SaveSummary(ctx, &summary); err != nil {
			return removed, fmt.Errorf("failed to save summary for %s: %w", m.ID, err)
		}
		if err := j.registry.Remove(ctx, m.ID); err != nil {
			j.logger.Warn("failed to remove match",
				slog.String("match_id", string(m.ID)),
				slog.String("error", err.Error()))
			continue
		}
		removed++
		j.logger.Info("finished match archived",
			slog.String("match_id", string(m.ID)),
			slog.String("winner", winnerLabel(m.Winner)))
	}

	if hubs := j.hubs.CleanupEmptyHubs(); hubs > 0 || removed > 0 {
		j.logger.Debug("sweep complete",
			slog.Int("matches_removed", removed),
			slog.Int("hubs_removed", hubs))
	}
	return removed, nil
}

func winnerLabel(id model.PlayerID) string {
	if id == "" {
		return "tie"
	}
	return string(id)
}
