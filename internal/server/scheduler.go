package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler handles scheduled sync operations
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	runner   SyncRunner
	lister   IntegrationLister
	logger   *logrus.Logger
	metrics  *Metrics
	mu       sync.RWMutex
	running  bool
	lastSync *time.Time
	nextSync *time.Time
}

// NewScheduler creates a new scheduler
func NewScheduler(schedule string, runner SyncRunner, lister IntegrationLister, logger *logrus.Logger, metrics *Metrics) *Scheduler {
	cronLogger := cron.VerbosePrintfLogger(logger)
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
	)

	return &Scheduler{
		cron:     c,
		schedule: schedule,
		runner:   runner,
		lister:   lister,
		logger:   logger,
		metrics:  metrics,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	// Entries survive a stop, only register the job once
	if len(s.cron.Entries()) == 0 {
		if _, err := s.cron.AddFunc(s.schedule, s.runSync); err != nil {
			return fmt.Errorf("failed to add cron job: %w", err)
		}
	}

	s.cron.Start()
	s.running = true

	entries := s.cron.Entries()
	if len(entries) > 0 {
		nextTime := entries[0].Next
		s.nextSync = &nextTime
	}

	s.logger.Infof("Scheduler started with schedule '%s'", s.schedule)
	if s.nextSync != nil && !s.nextSync.IsZero() {
		s.logger.Infof("Next sync scheduled for: %s", s.nextSync.Format(time.RFC3339))
	}

	return nil
}

// Stop stops the scheduler and waits for a running sync to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.running = false
	s.nextSync = nil

	s.logger.Info("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// GetLastSync returns the time of the last sync operation
func (s *Scheduler) GetLastSync() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}

// GetNextSync returns the time of the next scheduled sync
func (s *Scheduler) GetNextSync() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) > 0 {
		nextTime := entries[0].Next
		return &nextTime
	}

	return s.nextSync
}

// runSync syncs every online integration, one invocation each (called by cron)
func (s *Scheduler) runSync() {
	s.logger.Info("Starting scheduled sync operation")
	ctx := context.Background()

	startTime := time.Now()
	s.mu.Lock()
	s.lastSync = &startTime
	s.mu.Unlock()

	online, err := s.lister.GetOnlineIntegrations(ctx)
	if err != nil {
		s.logger.Errorf("Scheduled sync failed to list integrations: %v", err)
		s.metrics.RecordFailedSync(err, time.Since(startTime))
		return
	}

	if len(online) == 0 {
		s.logger.Warn("Scheduled sync skipped: no online integrations available")
		return
	}

	failures := 0
	for _, target := range online {
		s.logger.Infof("Syncing integration %s", target.Alias)

		runStart := time.Now()
		diff, err := s.runner.RunSync(ctx, target.ID)
		duration := time.Since(runStart)

		if err != nil {
			failures++
			s.logger.Errorf("Scheduled sync of %s failed: %v", target.Alias, err)
			s.metrics.RecordFailedSync(err, duration)
			continue
		}
		s.metrics.RecordSync(diff, duration)
	}

	if failures > 0 {
		s.logger.Warnf("Scheduled sync completed with %d errors", failures)
	} else {
		s.logger.Infof("Scheduled sync completed successfully in %v", time.Since(startTime))
	}
}
