package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nudgebot/api/internal/models"
	"github.com/nudgebot/api/internal/timeutil"
)

// toleranceMinutes absorbs tick jitter: the loop wakes once per minute, so an
// exact-equality check on the recurrence minute would miss firings whenever
// the wake-up drifts past the minute boundary. Due-ness is "current minute at
// or up to one past the target".
const toleranceMinutes = 1

// Store is the read side of the reminder store the scanner consumes.
type Store interface {
	ListSchedulable(ctx context.Context) ([]models.Reminder, error)
}

// TimezoneLookup resolves an owner's timezone preference.
type TimezoneLookup interface {
	Preference(ctx context.Context, owner string) string
}

// DueReminder pairs a due reminder with its owner's timezone so downstream
// delivery can render wall-clock text without another lookup.
type DueReminder struct {
	Reminder models.Reminder
	Timezone string
}

// Scanner is the per-minute sweep. Scan classifies, it never mutates:
// advancement is the caller's job after a successful delivery, so a delivery
// failure cannot silently lose an occurrence. Two scans in the same tolerance
// window, before any advancement, return the same due set.
type Scanner struct {
	store     Store
	timezones TimezoneLookup
	logger    *zap.Logger
}

func NewScanner(store Store, timezones TimezoneLookup, logger *zap.Logger) *Scanner {
	return &Scanner{store: store, timezones: timezones, logger: logger}
}

// Scan returns every reminder that should fire at now.
func (s *Scanner) Scan(ctx context.Context, now time.Time) ([]DueReminder, error) {
	reminders, err := s.store.ListSchedulable(ctx)
	if err != nil {
		return nil, err
	}

	// Owners with several reminders each resolve once per scan.
	zoneCache := make(map[string]string)
	zoneFor := func(owner string) string {
		if tz, ok := zoneCache[owner]; ok {
			return tz
		}
		tz := s.timezones.Preference(ctx, owner)
		zoneCache[owner] = tz
		return tz
	}

	var due []DueReminder
	for _, reminder := range reminders {
		if !isDue(&reminder, now) {
			continue
		}
		due = append(due, DueReminder{
			Reminder: reminder,
			Timezone: zoneFor(reminder.Owner),
		})
	}

	if len(due) > 0 {
		s.logger.Debug("scan classified due reminders",
			zap.Int("candidates", len(reminders)),
			zap.Int("due", len(due)),
			zap.Time("now", now))
	}
	return due, nil
}

// isDue classifies a single reminder against now. All recurring matching
// runs in UTC: RecurrenceMinute and RecurrenceDays are UTC-normalized at
// write time, so no timezone math is re-derived here.
func isDue(r *models.Reminder, now time.Time) bool {
	nowUTC := now.UTC()

	// One-shot: due once its instant arrives, and it stays due until
	// delivered or cleared.
	if !r.IsRecurring() {
		return !r.DueAt.After(nowUTC)
	}

	diff := (timeutil.MinuteOfDay(nowUTC) - r.RecurrenceMinute + 1440) % 1440
	if diff > toleranceMinutes {
		return false
	}

	// The instant this window's occurrence fell on. Subtracting the jitter
	// also pins the weekday/date checks to the occurrence's own day when the
	// window straddles midnight.
	occurrence := nowUTC.Truncate(time.Minute).Add(-time.Duration(diff) * time.Minute)

	// A freshly advanced reminder matches the minute but its next occurrence
	// is already ahead; it is not due again this window.
	if r.DueAt.After(occurrence) {
		return false
	}

	switch r.RecurrenceKind {
	case models.RecurrenceDaily:
		return true
	case models.RecurrenceWeekly:
		return r.RecurrenceDays.Contains(int(occurrence.Weekday()))
	case models.RecurrenceMonthly:
		return occurrence.Day() == r.DueAt.UTC().Day()
	case models.RecurrenceYearly:
		return occurrence.Day() == r.DueAt.UTC().Day() && occurrence.Month() == r.DueAt.UTC().Month()
	default:
		return false
	}
}
