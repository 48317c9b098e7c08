package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"automindmap/shared/config"
	"automindmap/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Purger deletes expired rows and reports how many went.
type Purger interface {
	PurgeExpired(ctx context.Context, videoMaxAge time.Duration) (int64, error)
}

// Scheduler runs periodic store maintenance on a cron schedule.
type Scheduler struct {
	schedule   string
	videoTTL   time.Duration
	purger     Purger
	monitor    *monitoring.Monitor
	cron       *cron.Cron
	logger     *slog.Logger
	jobTimeout time.Duration
}

func New(cfg *config.Config, purger Purger, monitor *monitoring.Monitor, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")
	cronLogger := slogCronLogger{logger: logger}

	return &Scheduler{
		schedule: cfg.Maintenance.Schedule,
		videoTTL: cfg.YouTube.CacheTTL(),
		purger:   purger,
		monitor:  monitor,
		logger:   logger,
		// Prevent overlapping runs
		cron:       cron.New(cron.WithSeconds(), cron.WithLogger(cronLogger), cron.WithChain(cron.SkipIfStillRunning(cronLogger))),
		jobTimeout: 5 * time.Minute,
	}
}

// Start registers the maintenance job and blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled maintenance failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.logger.Info("scheduler started", "schedule", s.schedule)
	s.cron.Start()

	// Wait for shutdown, then let a running job finish before returning
	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// RunOnce performs a single maintenance pass and records it in the monitor.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	// Bound the run so a locked database cannot stall later ticks
	runCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	// Drop expired sessions, reset tokens and stale cached videos
	n, err := s.purger.PurgeExpired(runCtx, s.videoTTL)
	duration := time.Since(start)
	if err != nil {
		err = fmt.Errorf("maintenance run failed: %w", err)
		s.monitor.RecordMaintenance("", err, duration)
		return err
	}

	// Record successful completion
	s.monitor.RecordMaintenance(fmt.Sprintf("purged %d expired rows", n), nil, duration)
	return nil
}

// slogCronLogger routes cron's own logging through slog.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	// cron logs every wake-up at info level; keep that out of normal output
	l.logger.Debug(msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
