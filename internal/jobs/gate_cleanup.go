// Package jobs runs periodic maintenance next to the HTTP server.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// EventExpirer times out gate events nobody resolved.
type EventExpirer interface {
	ExpireStaleEvents(ctx context.Context) (int, error)
}

type GateCleanup struct {
	expirer  EventExpirer
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
	logger   zerolog.Logger
}

func NewGateCleanup(expirer EventExpirer, schedule string, logger zerolog.Logger) *GateCleanup {
	return &GateCleanup{
		expirer:  expirer,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With().Str("component", "gate_cleanup").Logger(),
	}
}

// Start schedules the cleanup. An empty schedule disables it. The job stops
// when ctx is cancelled.
func (g *GateCleanup) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.schedule == "" {
		g.logger.Info().Msg("cleanup schedule not configured, skipping")
		return nil
	}
	if _, err := cron.ParseStandard(g.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", g.schedule, err)
	}
	if _, err := g.cron.AddFunc(g.schedule, func() { g.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("scheduling gate cleanup: %w", err)
	}

	g.cron.Start()
	g.running = true
	g.logger.Info().Str("schedule", g.schedule).Msg("gate cleanup scheduled")

	go func() {
		<-ctx.Done()
		g.Stop()
	}()
	return nil
}

// RunOnce expires stale events a single time.
func (g *GateCleanup) RunOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := g.expirer.ExpireStaleEvents(runCtx)
	if err != nil {
		g.logger.Error().Err(err).Msg("gate cleanup failed")
		return
	}
	g.logger.Debug().Int("expired", n).Msg("gate cleanup finished")
}

// Stop waits for a running cleanup to finish.
func (g *GateCleanup) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		<-g.cron.Stop().Done()
		g.running = false
		g.logger.Info().Msg("gate cleanup stopped")
	}
}

func (g *GateCleanup) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
