package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ranked-tracker/internal/logger"
	"ranked-tracker/internal/riot"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner is one tracker pass
type Runner interface {
	RunOnce(ctx context.Context) (Summary, error)
}

// SchedulerOptions configures a Scheduler. RecoverKey is optional; without
// it a rejected key just fails every run until the process is restarted.
type SchedulerOptions struct {
	Schedule   string // cron spec or descriptor, e.g. "@every 10m"
	Location   *time.Location
	RecoverKey func(ctx context.Context) error
}

// Scheduler runs the tracker on a cron schedule
type Scheduler struct {
	cron       *cron.Cron
	runner     Runner
	schedule   string
	recoverKey func(ctx context.Context) error

	// Held while waiting for a replacement key so ticks don't stack up
	recovering sync.Mutex
	wg         sync.WaitGroup
	log        *logrus.Entry
}

// NewScheduler creates a scheduler for runner
func NewScheduler(runner Runner, opts SchedulerOptions) *Scheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		runner:     runner,
		schedule:   opts.Schedule,
		recoverKey: opts.RecoverKey,
		log:        logger.WithComponent("scheduler"),
	}
}

// Start schedules the tracker and runs it once right away
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule tracker: %w", err)
	}
	s.cron.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Tick(ctx)
	}()

	s.log.WithField("schedule", s.schedule).Info("Scheduler started")
	return nil
}

// Stop stops scheduling and waits for a running pass to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("Scheduler stopped")
}

// Next returns the next scheduled run, zero before Start
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Tick runs the tracker once. A rejected key triggers key recovery and, once
// a new key is in place, another pass.
func (s *Scheduler) Tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	summary, err := s.runner.RunOnce(ctx)
	switch {
	case err == nil:
		if summary.Recorded > 0 {
			s.log.WithField("recorded", summary.Recorded).Info("Pass complete")
		}
	case errors.Is(err, ErrRunInProgress):
		s.log.Debug("Previous pass still running, skipping tick")
	case errors.Is(err, context.Canceled):
	case errors.Is(err, riot.ErrKeyRejected):
		s.log.WithError(err).Error("API key rejected")
		if s.handleKeyRejected(ctx) {
			s.Tick(ctx)
		}
	default:
		s.log.WithError(err).Error("Tracker pass failed, retrying on next tick")
	}
}

// handleKeyRejected reports whether a new key was installed
func (s *Scheduler) handleKeyRejected(ctx context.Context) bool {
	if s.recoverKey == nil {
		return false
	}
	if !s.recovering.TryLock() {
		return false
	}
	defer s.recovering.Unlock()

	if err := s.recoverKey(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.WithError(err).Error("Key recovery failed")
		}
		return false
	}
	return true
}
