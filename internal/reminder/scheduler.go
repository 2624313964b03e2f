package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	attrs := make([]slog.Attr, 0, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			key := keysAndValues[i].(string)
			attrs = append(attrs, slog.Any(key, keysAndValues[i+1]))
		}
	}
	l.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	attrs := make([]slog.Attr, 0, len(keysAndValues)/2+1)
	attrs = append(attrs, slog.Any("error", err))
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			key := keysAndValues[i].(string)
			attrs = append(attrs, slog.Any(key, keysAndValues[i+1]))
		}
	}
	l.logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

// Scheduler fires each registered trigger once per calendar day at its local
// wall-clock time, indefinitely, until the trigger is removed. It is backed by
// a cron dispatcher configured with a seconds field and the service timezone;
// every fire runs in its own goroutine, so one user's delivery never blocks
// another user's timer. Missed fires while the process was down are dropped:
// on restart only the next future occurrence is computed.
type Scheduler struct {
	cron      *cron.Cron
	loc       *time.Location
	logger    *slog.Logger
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewScheduler creates a scheduler for the given timezone.
func NewScheduler(loc *time.Location, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger{logger: logger.With("component", "cron")}),
	)
	return &Scheduler{cron: c, loc: loc, logger: logger}
}

// Location returns the scheduler's timezone.
func (s *Scheduler) Location() *time.Location { return s.loc }

// Schedule registers a daily wake-up at the given wall-clock time. The
// returned entry ID detaches the loop via Remove. The job runs once per day;
// rescheduling for the next day happens regardless of what the job does.
func (s *Scheduler) Schedule(at TriggerTime, job func()) (cron.EntryID, error) {
	spec := fmt.Sprintf("%d %d %d * * *", at.Second, at.Minute, at.Hour)
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		s.logger.Error("failed to schedule daily job", "at", at.String(), "error", err)
		return 0, err
	}
	s.logger.Info("daily job scheduled", "at", at.String(), "id", int(id))
	return id, nil
}

// Remove detaches a schedule loop. Safe to call for IDs already removed.
func (s *Scheduler) Remove(id cron.EntryID) {
	s.cron.Remove(id)
	s.logger.Debug("daily job removed", "id", int(id))
}

// NextRun returns the next computed fire instant for the entry, or the zero
// time if the entry no longer exists.
func (s *Scheduler) NextRun(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

// Start launches the dispatcher. Idempotent.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("starting scheduler", "tz", s.loc.String())
		s.cron.Start()
	})
}

// Stop halts the dispatcher and waits for in-flight fires to complete.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping scheduler")
		<-s.cron.Stop().Done()
		s.logger.Info("scheduler stopped")
	})
}

// StopContext halts the dispatcher, bounded by the context deadline. The
// shutdown still completes in the background if the deadline expires first.
func (s *Scheduler) StopContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Stop()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop deadline exceeded, shutdown will complete in background")
		return ctx.Err()
	}
}
