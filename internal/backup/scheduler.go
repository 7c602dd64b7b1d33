// Package backup runs the deferred board backups requested through the
// bridge's needs-backup flag.
//
// Every save already snapshots the boards collection before writing it. The
// flag covers the remaining case: after the last save of a session there is
// a newer state on disk than in the newest backup. The scheduler takes that
// backup periodically and once more on shutdown.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Flag is the needs-backup flag. *bridge.Local satisfies it.
type Flag interface {
	NeedsBackup() bool
	ClearNeedsBackup() bool
}

// Target takes the backup. repository.BoardRepository satisfies it.
type Target interface {
	BackupBoards(ctx context.Context)
}

// Scheduler checks the flag every interval.
type Scheduler struct {
	cron     *cron.Cron
	flag     Flag
	target   Target
	interval time.Duration
	logger   *slog.Logger
}

// New creates a stopped scheduler.
func New(flag Flag, target Target, interval time.Duration, logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cl), cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
		flag:     flag,
		target:   target,
		interval: interval,
		logger:   logger,
	}
}

// Start registers the job and starts the cron runner.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() { s.Run(context.Background()) }); err != nil {
		return fmt.Errorf("backup: scheduling %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("backup scheduler started", slog.Duration("interval", s.interval))
	return nil
}

// Run takes a backup if one was requested. It reports whether it did.
func (s *Scheduler) Run(ctx context.Context) bool {
	if !s.flag.ClearNeedsBackup() {
		return false
	}
	s.target.BackupBoards(ctx)
	s.logger.Debug("pending backup taken")
	return true
}

// Stop waits for a running job (bounded by ctx) and then takes the final
// backup if the flag is still set.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("backup job still running at shutdown")
	}
	if s.Run(ctx) {
		s.logger.Info("final backup taken at shutdown")
	}
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
