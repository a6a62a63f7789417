// Package jobs runs periodic background tasks on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EventSweeper marks past upcoming events as completed
type EventSweeper interface {
	CompletePastEvents(ctx context.Context) (int, error)
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron     *cron.Cron
	events   EventSweeper
	schedule string
	logger   zerolog.Logger
}

// NewScheduler creates a scheduler running in UTC. The schedule is a
// standard five-field cron expression and is validated here.
func NewScheduler(events EventSweeper, schedule string) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid events sweep schedule %q: %w", schedule, err)
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		events:   events,
		schedule: schedule,
		logger:   log.With().Str("component", "jobs").Logger(),
	}, nil
}

// Start registers the jobs and starts the runner. Jobs use ctx for their store calls.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.SweepEvents(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule events sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info().Str("schedule", s.schedule).Msg("scheduler started")
	return nil
}

// SweepEvents runs one events sweep
func (s *Scheduler) SweepEvents(ctx context.Context) {
	n, err := s.events.CompletePastEvents(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("events sweep failed")
		return
	}
	if n > 0 {
		s.logger.Info().Int("completed", n).Msg("events sweep completed events")
	}
}

// Stop stops the runner and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("scheduler stopped")
}
