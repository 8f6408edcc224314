package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TickJob processes one scheduling tick: scan, deliver, advance.
type TickJob interface {
	ProcessDueReminders(ctx context.Context, now time.Time) (int, error)
}

// Scheduler drives the tick job once per minute. Ticks that overrun are
// skipped rather than stacked; the next minute's scan picks up anything the
// slow tick left undelivered.
type Scheduler struct {
	job    TickJob
	logger *zap.Logger
	cron   *cron.Cron
}

func New(job TickJob, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		job:    job,
		logger: logger,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
	}
}

// Start begins the minute loop. It returns immediately; ticks run on the
// cron goroutine until Stop or ctx cancellation.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc("* * * * *", func() {
		tickStart := time.Now()
		sent, err := s.job.ProcessDueReminders(ctx, tickStart)
		if err != nil {
			s.logger.Error("scheduler tick failed", zap.Error(err))
			return
		}
		if sent > 0 {
			s.logger.Info("scheduler tick complete",
				zap.Int("sent", sent),
				zap.Duration("elapsed", time.Since(tickStart)))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("reminder scheduler started")
	return nil
}

// Stop halts the loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("reminder scheduler stopped")
}
