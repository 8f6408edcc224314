package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/google/uuid"
	"github.com/nudgebot/api/internal/models"
	"github.com/nudgebot/api/internal/notification"
	"github.com/nudgebot/api/internal/recurrence"
	"github.com/nudgebot/api/internal/scheduler"
	"github.com/nudgebot/api/internal/timeutil"
	"github.com/nudgebot/api/pkg/errors"
)

// maxConcurrentDeliveries bounds the per-tick fan-out so a burst of due
// reminders cannot exhaust outbound connections.
const maxConcurrentDeliveries = 8

const dueLocalLayout = "Mon, 2 Jan 2006 15:04 MST"

// DueScanner classifies the schedulable set against a tick instant.
type DueScanner interface {
	Scan(ctx context.Context, now time.Time) ([]scheduler.DueReminder, error)
}

// ReminderStore is the write side the job needs for advancement.
type ReminderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error)
	ApplyAdvance(ctx context.Context, advanced *models.Reminder, firedOccurrence time.Time) error
}

// Notifier delivers a rendered reminder to its owner.
type Notifier interface {
	SendToOwner(ctx context.Context, owner string, payload notification.Payload) error
}

// ReminderJob runs one scheduling tick: scan for due reminders, deliver each,
// then advance. Delivery strictly precedes advancement, so a failed send
// leaves the reminder due and the next tick retries it. Duplicate sends are
// possible across a crash between the two steps; duplicate advancement is
// not, the store rejects a second advance of the same occurrence.
type ReminderJob struct {
	scanner  DueScanner
	store    ReminderStore
	notifier Notifier
	logger   *zap.Logger
}

func NewReminderJob(scanner DueScanner, store ReminderStore, notifier Notifier, logger *zap.Logger) *ReminderJob {
	return &ReminderJob{
		scanner:  scanner,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// ProcessDueReminders handles every reminder due at now and returns how many
// were delivered. Called once per minute by the scheduler loop, and by the
// cron HTTP endpoint as an external fallback.
func (j *ReminderJob) ProcessDueReminders(ctx context.Context, now time.Time) (int, error) {
	due, err := j.scanner.Scan(ctx, now)
	if err != nil {
		j.logger.Error("due scan failed", zap.Error(err))
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	j.logger.Info("processing due reminders", zap.Int("due", len(due)))

	var (
		wg   sync.WaitGroup
		sem  = make(chan struct{}, maxConcurrentDeliveries)
		mu   sync.Mutex
		sent int
	)

	for _, item := range due {
		wg.Add(1)
		sem <- struct{}{}
		go func(item scheduler.DueReminder) {
			defer wg.Done()
			defer func() { <-sem }()

			if j.processOne(ctx, item, now) {
				mu.Lock()
				sent++
				mu.Unlock()
			}
		}(item)
	}
	wg.Wait()

	j.logger.Info("tick complete", zap.Int("sent", sent), zap.Int("due", len(due)))
	return sent, nil
}

// processOne delivers a single due reminder and advances it. Returns true if
// the notification went out.
func (j *ReminderJob) processOne(ctx context.Context, item scheduler.DueReminder, now time.Time) bool {
	reminder := item.Reminder

	payload := notification.Payload{
		Title:      reminder.Title,
		Body:       reminder.Body,
		ReminderID: reminder.ID,
		Recurring:  reminder.IsRecurring(),
	}
	if local, err := timeutil.Format(reminder.DueAt, item.Timezone, dueLocalLayout); err == nil {
		payload.DueLocal = local
	}

	if err := j.notifier.SendToOwner(ctx, reminder.Owner, payload); err != nil {
		// Leave the reminder untouched; the next scan retries it.
		j.logger.Warn("delivery failed, will retry next tick",
			zap.String("reminder_id", reminder.ID.String()),
			zap.Error(err))
		return false
	}

	if err := j.advance(ctx, &reminder, now, item.Timezone); err != nil {
		j.logger.Error("advance failed after delivery",
			zap.String("reminder_id", reminder.ID.String()),
			zap.Error(err))
	}
	return true
}

// advance moves the reminder past the occurrence that just fired, stepping in
// the owner's timezone so the next occurrence keeps its local wall-clock
// reading. The store write is a compare-and-swap on the fired occurrence; if
// another worker got there first the advance is recomputed from fresh state
// and tried once more.
func (j *ReminderJob) advance(ctx context.Context, reminder *models.Reminder, now time.Time, tz string) error {
	firedOccurrence := reminder.DueAt

	advanced := *reminder
	recurrence.Advance(&advanced, now, tz)

	err := j.store.ApplyAdvance(ctx, &advanced, firedOccurrence)
	if !errors.HasCode(err, errors.CodeStoreConflict) {
		return err
	}

	fresh, err := j.store.FindByID(ctx, reminder.ID)
	if err != nil {
		return err
	}
	if !fresh.Schedulable() {
		// Deleted or completed concurrently; nothing to advance.
		return nil
	}
	if fresh.DueAt.After(firedOccurrence) {
		// Another worker already advanced this occurrence.
		return nil
	}

	retried := *fresh
	recurrence.Advance(&retried, now, tz)
	if err := j.store.ApplyAdvance(ctx, &retried, fresh.DueAt); err != nil {
		if errors.HasCode(err, errors.CodeStoreConflict) {
			j.logger.Warn("advance conflicted twice, leaving for next tick",
				zap.String("reminder_id", reminder.ID.String()))
			return nil
		}
		return err
	}
	return nil
}
