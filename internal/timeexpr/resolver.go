package timeexpr

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nudgebot/api/internal/models"
	"github.com/nudgebot/api/internal/timeutil"
	apperrors "github.com/nudgebot/api/pkg/errors"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	// Used when the expression names a date or day but no time of day.
	defaultHour   = 9
	defaultMinute = 0
)

// Resolver turns a structured time expression plus a base instant and the
// owner's timezone into a concrete first-occurrence UTC instant and, for
// recurring expressions, the recurrence descriptor.
//
// The resolver does not reject past instants; that policy belongs to the
// caller, because "past" is defined relative to "now at evaluation time"
// which may differ from "now at parse time" under retry and latency.
type Resolver struct {
	validate *validator.Validate
	logger   *zap.Logger
}

func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{
		validate: validator.New(),
		logger:   logger,
	}
}

// Resolve evaluates expr against base in the owner's timezone. Failures are
// UNRESOLVED_TIME_EXPRESSION application errors (a "need more information"
// signal), never panics or raw parse errors.
func (r *Resolver) Resolve(expr Expression, base time.Time, tz string) (*Resolution, error) {
	if err := r.validate.Struct(expr); err != nil {
		return nil, unresolved(fmt.Sprintf("malformed expression: %v", err))
	}
	if expr.Recurrence != nil {
		if err := r.validate.Struct(*expr.Recurrence); err != nil {
			return nil, unresolved(fmt.Sprintf("malformed recurrence: %v", err))
		}
	}

	// An unresolvable timezone must not surface to the user; fall back to
	// UTC and log.
	if _, err := timeutil.LoadLocation(tz); err != nil {
		r.logger.Warn("unresolvable timezone in expression resolution, using UTC",
			zap.String("timezone", tz))
		tz = "UTC"
	}

	var (
		res *Resolution
		err error
	)
	switch expr.Kind {
	case KindSpecificDate:
		res, err = r.resolveSpecificDate(expr, base, tz)
	case KindRelativeOffset:
		res, err = r.resolveRelativeOffset(expr, base)
	case KindRelativeDay:
		res, err = r.resolveRelativeDay(expr, base, tz)
	case KindWeekday:
		res, err = r.resolveWeekday(expr, base, tz)
	case KindRecurring:
		res, err = r.resolveRecurring(expr, base, tz)
	default:
		return nil, unresolved(fmt.Sprintf("unrecognized expression kind %q", expr.Kind))
	}
	if err != nil {
		return nil, err
	}
	res.Timezone = tz
	return res, nil
}

func (r *Resolver) resolveSpecificDate(expr Expression, base time.Time, tz string) (*Resolution, error) {
	if expr.Date == "" && expr.Time == "" {
		return nil, unresolved("specific_date requires a date or a time")
	}

	hour, minute := defaultHour, defaultMinute
	if expr.Time != "" {
		var err error
		hour, minute, err = parseClock(expr.Time)
		if err != nil {
			return nil, err
		}
	}

	var civil timeutil.CivilDateTime
	if expr.Date != "" {
		parsed, err := parseDate(expr.Date)
		if err != nil {
			return nil, err
		}
		civil = parsed.At(hour, minute)
	} else {
		// Time without a date means the base instant's local date.
		today, err := timeutil.CivilDate(base, tz)
		if err != nil {
			return nil, err
		}
		civil = today.At(hour, minute)
	}

	instant, err := timeutil.ToUTC(civil, tz)
	if err != nil {
		return nil, err
	}
	return oneShot(instant), nil
}

func (r *Resolver) resolveRelativeOffset(expr Expression, base time.Time) (*Resolution, error) {
	if expr.Amount <= 0 || expr.Unit == "" {
		return nil, unresolved("relative_offset requires a positive amount and a unit")
	}

	// Elapsed duration, not a wall-clock target: plain addition on the UTC
	// timeline, no timezone math.
	var d time.Duration
	switch expr.Unit {
	case "minutes":
		d = time.Duration(expr.Amount) * time.Minute
	case "hours":
		d = time.Duration(expr.Amount) * time.Hour
	case "days":
		d = time.Duration(expr.Amount) * 24 * time.Hour
	default:
		return nil, unresolved(fmt.Sprintf("unrecognized offset unit %q", expr.Unit))
	}
	return oneShot(base.UTC().Add(d)), nil
}

func (r *Resolver) resolveRelativeDay(expr Expression, base time.Time, tz string) (*Resolution, error) {
	if expr.Day == "" {
		return nil, unresolved("relative_day requires today or tomorrow")
	}

	hour, minute := defaultHour, defaultMinute
	if expr.Time != "" {
		var err error
		hour, minute, err = parseClock(expr.Time)
		if err != nil {
			return nil, err
		}
	}

	civil, err := timeutil.CivilDate(base, tz)
	if err != nil {
		return nil, err
	}
	if expr.Day == "tomorrow" {
		civil = civil.AddDays(1)
	}

	instant, err := timeutil.ToUTC(civil.At(hour, minute), tz)
	if err != nil {
		return nil, err
	}
	return oneShot(instant), nil
}

func (r *Resolver) resolveWeekday(expr Expression, base time.Time, tz string) (*Resolution, error) {
	if expr.Weekday == nil {
		return nil, unresolved("weekday expression requires a weekday")
	}

	hour, minute := defaultHour, defaultMinute
	if expr.Time != "" {
		var err error
		hour, minute, err = parseClock(expr.Time)
		if err != nil {
			return nil, err
		}
	}

	today, err := timeutil.CivilDate(base, tz)
	if err != nil {
		return nil, err
	}

	// Strictly after today's local date: a weekday naming today rolls to
	// next week, never "today" again.
	offset := (*expr.Weekday - int(today.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}

	instant, err := timeutil.ToUTC(today.AddDays(offset).At(hour, minute), tz)
	if err != nil {
		return nil, err
	}
	return oneShot(instant), nil
}

func (r *Resolver) resolveRecurring(expr Expression, base time.Time, tz string) (*Resolution, error) {
	if expr.Recurrence == nil {
		return nil, unresolved("recurring expression requires a recurrence pattern")
	}
	pattern := *expr.Recurrence

	hour, minute := defaultHour, defaultMinute
	if expr.Time != "" {
		var err error
		hour, minute, err = parseClock(expr.Time)
		if err != nil {
			return nil, err
		}
	}

	today, err := timeutil.CivilDate(base, tz)
	if err != nil {
		return nil, err
	}

	var (
		instant   time.Time
		anchorDay int
	)
	switch pattern.Kind {
	case models.RecurrenceDaily:
		instant, err = firstFuture(today.At(hour, minute), base, tz, 1)
	case models.RecurrenceWeekly:
		if len(pattern.Days) == 0 {
			return nil, unresolved("weekly recurrence requires at least one weekday")
		}
		instant, err = firstWeeklyOccurrence(pattern.Days, today, hour, minute, base, tz)
	case models.RecurrenceMonthly, models.RecurrenceYearly:
		anchor := today
		if expr.Date != "" {
			anchor, err = parseDate(expr.Date)
			if err != nil {
				return nil, err
			}
		}
		anchorDay = anchor.Day
		instant, err = firstCalendarOccurrence(pattern.Kind, anchor.At(hour, minute), base, tz)
	default:
		return nil, unresolved(fmt.Sprintf("unrecognized recurrence kind %q", pattern.Kind))
	}
	if err != nil {
		return nil, err
	}

	res := &Resolution{
		Instant:          instant,
		Recurring:        true,
		RecurrenceKind:   pattern.Kind,
		RecurrenceMinute: timeutil.MinuteOfDay(instant),
		AnchorDay:        anchorDay,
	}

	if pattern.Kind == models.RecurrenceWeekly {
		res.RecurrenceDays = shiftDaysToUTC(pattern.Days, instant, tz)
	}

	if pattern.Until != "" {
		until, err := parseDate(pattern.Until)
		if err != nil {
			return nil, err
		}
		end, err := timeutil.ToUTC(until.At(23, 59), tz)
		if err != nil {
			return nil, err
		}
		res.EndInstant = &end
	}

	return res, nil
}

// firstFuture returns the instant for civil in tz, stepping forward by
// stepDays until it lands strictly after base.
func firstFuture(civil timeutil.CivilDateTime, base time.Time, tz string, stepDays int) (time.Time, error) {
	instant, err := timeutil.ToUTC(civil, tz)
	if err != nil {
		return time.Time{}, err
	}
	for !instant.After(base) {
		civil = civil.AddDays(stepDays)
		instant, err = timeutil.ToUTC(civil, tz)
		if err != nil {
			return time.Time{}, err
		}
	}
	return instant, nil
}

// firstWeeklyOccurrence finds the earliest instant strictly after base that
// falls on one of the local weekdays at the given local time.
func firstWeeklyOccurrence(days []int, today timeutil.CivilDateTime, hour, minute int, base time.Time, tz string) (time.Time, error) {
	var best time.Time
	for _, day := range days {
		offset := (day - int(today.Weekday()) + 7) % 7
		candidate, err := timeutil.ToUTC(today.AddDays(offset).At(hour, minute), tz)
		if err != nil {
			return time.Time{}, err
		}
		if !candidate.After(base) {
			candidate, err = timeutil.ToUTC(today.AddDays(offset+7).At(hour, minute), tz)
			if err != nil {
				return time.Time{}, err
			}
		}
		if best.IsZero() || candidate.Before(best) {
			best = candidate
		}
	}
	return best, nil
}

// firstCalendarOccurrence advances a monthly/yearly anchor until it is
// strictly after base.
func firstCalendarOccurrence(kind models.RecurrenceKind, civil timeutil.CivilDateTime, base time.Time, tz string) (time.Time, error) {
	instant, err := timeutil.ToUTC(civil, tz)
	if err != nil {
		return time.Time{}, err
	}
	for !instant.After(base) {
		anchor := time.Date(civil.Year, civil.Month, civil.Day, civil.Hour, civil.Minute, 0, 0, time.UTC)
		if kind == models.RecurrenceMonthly {
			anchor = anchor.AddDate(0, 1, 0)
		} else {
			anchor = anchor.AddDate(1, 0, 0)
		}
		civil = timeutil.Civil(anchor.Year(), anchor.Month(), anchor.Day(), civil.Hour, civil.Minute)
		instant, err = timeutil.ToUTC(civil, tz)
		if err != nil {
			return time.Time{}, err
		}
	}
	return instant, nil
}

// shiftDaysToUTC converts the user's local weekday set into the UTC weekday
// set the scanner matches against. The shift is the signed day difference
// between the occurrence's UTC date and its local date; it is the same for
// every day in the set because the recurrence minute is fixed.
func shiftDaysToUTC(localDays []int, occurrence time.Time, tz string) models.IntSet {
	civil, err := timeutil.FromUTC(occurrence, tz)
	if err != nil {
		return models.IntSet(localDays).Normalized()
	}
	delta := int(occurrence.UTC().Weekday()) - int(civil.Weekday())
	if delta > 1 {
		delta -= 7
	}
	if delta < -1 {
		delta += 7
	}

	shifted := make(models.IntSet, 0, len(localDays))
	for _, d := range localDays {
		shifted = append(shifted, ((d+delta)%7+7)%7)
	}
	return shifted.Normalized()
}

func oneShot(instant time.Time) *Resolution {
	return &Resolution{
		Instant:          instant,
		RecurrenceKind:   models.RecurrenceNone,
		RecurrenceMinute: timeutil.MinuteOfDay(instant),
	}
}

func parseDate(s string) (timeutil.CivilDateTime, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return timeutil.CivilDateTime{}, unresolved(fmt.Sprintf("invalid calendar date %q", s))
	}
	return timeutil.Civil(t.Year(), t.Month(), t.Day(), 0, 0), nil
}

func parseClock(s string) (hour, minute int, err error) {
	t, parseErr := time.Parse(clockLayout, s)
	if parseErr != nil {
		return 0, 0, unresolved(fmt.Sprintf("invalid time of day %q", s))
	}
	return t.Hour(), t.Minute(), nil
}

func unresolved(reason string) error {
	return apperrors.New(apperrors.CodeUnresolvedExpression, reason, http.StatusUnprocessableEntity)
}
