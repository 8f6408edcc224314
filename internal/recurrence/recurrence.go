// Package recurrence holds the pure occurrence math for reminders: past-due
// detection, past-due adjustment, and post-firing advancement. No I/O; the
// caller persists the mutated entity.
//
// All stepping runs in the owner's civil time and converts back to UTC at the
// end, so a reminder keeps its local wall-clock reading across DST
// transitions; the UTC minute and weekday set are re-derived on every write.
package recurrence

import (
	"time"

	"github.com/nudgebot/api/internal/models"
	"github.com/nudgebot/api/internal/timeutil"
)

// IsPast reports whether the reminder's next occurrence is behind now.
func IsPast(r *models.Reminder, now time.Time) bool {
	return r.DueAt.Before(now.UTC())
}

// AdjustPastOccurrence computes the next valid occurrence strictly after now
// for a recurring reminder whose due instant has fallen into the past
// (created while the process was down, or never advanced). Stepping is civil
// in tz, so the occurrence lands on the owner's wall-clock time regardless of
// offset changes between the stale instant and now.
//
// Callers must invoke this whenever a computed due instant for a recurring
// reminder turns out to be at or before now, both at creation and after
// firing, so the scheduler never sits on a stale past instant.
func AdjustPastOccurrence(r *models.Reminder, now time.Time, tz string) time.Time {
	tz = normalizeZone(tz)
	nowUTC := now.UTC()
	cur, _ := timeutil.FromUTC(r.DueAt, tz)

	switch r.RecurrenceKind {
	case models.RecurrenceDaily:
		today, _ := timeutil.CivilDate(nowUTC, tz)
		candidate := today.At(cur.Hour, cur.Minute)
		instant, _ := timeutil.ToUTC(candidate, tz)
		for !instant.After(nowUTC) {
			candidate = candidate.AddDays(1)
			instant, _ = timeutil.ToUTC(candidate, tz)
		}
		return instant

	case models.RecurrenceWeekly:
		localDays := shiftWeekdays(r.RecurrenceDays, -utcWeekdayDelta(r.DueAt, tz))
		today, _ := timeutil.CivilDate(nowUTC, tz)
		var best time.Time
		for _, day := range localDays {
			offset := (day - int(today.Weekday()) + 7) % 7
			candidate, _ := timeutil.ToUTC(today.AddDays(offset).At(cur.Hour, cur.Minute), tz)
			// Same-day candidates whose minute already passed roll a full
			// week; never refire same-day after the fact.
			if !candidate.After(nowUTC) {
				candidate, _ = timeutil.ToUTC(today.AddDays(offset+7).At(cur.Hour, cur.Minute), tz)
			}
			if best.IsZero() || candidate.Before(best) {
				best = candidate
			}
		}
		if best.IsZero() {
			return r.DueAt
		}
		return best

	case models.RecurrenceMonthly:
		anchor := anchorDay(r, cur)
		civil := cur
		instant := r.DueAt
		for !instant.After(nowUTC) {
			civil = addMonths(civil, 1, anchor)
			instant, _ = timeutil.ToUTC(civil, tz)
		}
		return instant

	case models.RecurrenceYearly:
		anchor := anchorDay(r, cur)
		civil := cur
		instant := r.DueAt
		for !instant.After(nowUTC) {
			civil = addYears(civil, 1, anchor)
			instant, _ = timeutil.ToUTC(civil, tz)
		}
		return instant

	default:
		return r.DueAt
	}
}

// Advance transitions a reminder after a successful firing. One-shot
// reminders become sent. Recurring reminders move to the next occurrence by
// adding one recurrence unit to the current due instant read in tz, not to
// now, which preserves exact periodicity; if the computed occurrence is
// nonetheless not in the future (the reminder sat undelivered across
// occurrences), it is re-adjusted past now. A recurring reminder whose next
// occurrence exceeds the end instant completes instead of rescheduling.
//
// Weekly reminders store UTC weekdays, so the set is re-shifted for the new
// occurrence; its UTC offset from the local day can change across a
// transition even though the local weekdays do not.
func Advance(r *models.Reminder, now time.Time, tz string) {
	sent := now.UTC()

	if !r.IsRecurring() {
		r.MarkSent(sent)
		return
	}

	tz = normalizeZone(tz)
	cur, _ := timeutil.FromUTC(r.DueAt, tz)

	var (
		next      time.Time
		localDays models.IntSet
	)
	switch r.RecurrenceKind {
	case models.RecurrenceDaily:
		next, _ = timeutil.ToUTC(cur.AddDays(1), tz)
	case models.RecurrenceWeekly:
		localDays = shiftWeekdays(r.RecurrenceDays, -utcWeekdayDelta(r.DueAt, tz))
		next, _ = timeutil.ToUTC(nextWeeklyCivil(cur, localDays), tz)
	case models.RecurrenceMonthly:
		next, _ = timeutil.ToUTC(addMonths(cur, 1, anchorDay(r, cur)), tz)
	case models.RecurrenceYearly:
		next, _ = timeutil.ToUTC(addYears(cur, 1, anchorDay(r, cur)), tz)
	}

	if !next.After(sent) {
		next = AdjustPastOccurrence(r, sent, tz)
	}

	r.LastSentAt = &sent
	if r.EndAt != nil && next.After(*r.EndAt) {
		r.Complete()
		return
	}
	if r.RecurrenceKind == models.RecurrenceWeekly {
		r.RecurrenceDays = shiftWeekdays(localDays, utcWeekdayDelta(next, tz))
	}
	r.Reschedule(next)
}

// normalizeZone falls back to UTC for unresolvable identifiers. Occurrence
// math must always produce an instant; by the time a reminder is being
// advanced there is nowhere left to surface a timezone error.
func normalizeZone(tz string) string {
	if _, err := timeutil.LoadLocation(tz); err != nil {
		return "UTC"
	}
	return tz
}

// anchorDay returns the day-of-month the monthly/yearly cycle is pinned to.
// The stored anchor survives clamped short-month occurrences; zero falls back
// to the current occurrence's local day.
func anchorDay(r *models.Reminder, cur timeutil.CivilDateTime) int {
	if r.RecurrenceAnchorDay > 0 {
		return r.RecurrenceAnchorDay
	}
	return cur.Day
}

// clampDay pins day to the last day of the given month when it overflows, so
// an anchor on the 31st lands on Feb 28 rather than normalizing into March.
func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

// addMonths moves a civil value forward by whole months at the anchor day,
// clamped into each target month.
func addMonths(c timeutil.CivilDateTime, months, anchor int) timeutil.CivilDateTime {
	t := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	return timeutil.Civil(t.Year(), t.Month(), clampDay(t.Year(), t.Month(), anchor), c.Hour, c.Minute)
}

// addYears moves a civil value forward by whole years at the anchor day. Only
// a Feb 29 anchor can clamp here, and it is restored on the next leap year.
func addYears(c timeutil.CivilDateTime, years, anchor int) timeutil.CivilDateTime {
	return timeutil.Civil(c.Year+years, c.Month, clampDay(c.Year+years, c.Month, anchor), c.Hour, c.Minute)
}

// nextWeeklyCivil finds the first local weekday in the set strictly after the
// current occurrence's local weekday, wrapping to the following week. A
// firing on the last listed day of a week rolls over to the first listed day
// of the next week.
func nextWeeklyCivil(cur timeutil.CivilDateTime, days models.IntSet) timeutil.CivilDateTime {
	if len(days) == 0 {
		return cur.AddDays(7)
	}
	weekday := int(cur.Weekday())
	for offset := 1; offset <= 7; offset++ {
		if days.Contains((weekday + offset) % 7) {
			return cur.AddDays(offset)
		}
	}
	return cur.AddDays(7)
}

// utcWeekdayDelta is the signed day difference between an occurrence's UTC
// date and its local date in tz, normalized to [-1, 1]. It is the shift the
// stored UTC weekday set carries relative to the owner's local weekdays.
func utcWeekdayDelta(occurrence time.Time, tz string) int {
	civil, err := timeutil.FromUTC(occurrence, tz)
	if err != nil {
		return 0
	}
	delta := int(occurrence.UTC().Weekday()) - int(civil.Weekday())
	if delta > 1 {
		delta -= 7
	}
	if delta < -1 {
		delta += 7
	}
	return delta
}

// shiftWeekdays maps every weekday in the set by delta days, modulo the week.
func shiftWeekdays(days models.IntSet, delta int) models.IntSet {
	if delta == 0 {
		return days.Normalized()
	}
	shifted := make(models.IntSet, 0, len(days))
	for _, d := range days {
		shifted = append(shifted, ((d+delta)%7+7)%7)
	}
	return shifted.Normalized()
}
