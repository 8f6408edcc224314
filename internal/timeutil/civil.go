package timeutil

import (
	"sync"
	"time"

	apperrors "github.com/nudgebot/api/pkg/errors"
)

// CivilDateTime is a wall-clock date and time-of-day with no inherent UTC
// offset. It only becomes an instant when interpreted in a timezone.
type CivilDateTime struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// Civil builds a CivilDateTime from its components.
func Civil(year int, month time.Month, day, hour, minute int) CivilDateTime {
	return CivilDateTime{Year: year, Month: month, Day: day, Hour: hour, Minute: minute}
}

// CivilDate returns the civil date of t as read in tz, with a zero time-of-day.
func CivilDate(t time.Time, tz string) (CivilDateTime, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return CivilDateTime{}, err
	}
	local := t.In(loc)
	return CivilDateTime{Year: local.Year(), Month: local.Month(), Day: local.Day()}, nil
}

// At returns a copy of c with the time-of-day replaced.
func (c CivilDateTime) At(hour, minute int) CivilDateTime {
	c.Hour = hour
	c.Minute = minute
	c.Second = 0
	return c
}

// AddDays returns a copy of c shifted by the given number of calendar days.
// Normalization is handled by the time package, so month/year boundaries and
// leap days behave as expected.
func (c CivilDateTime) AddDays(days int) CivilDateTime {
	t := time.Date(c.Year, c.Month, c.Day+days, c.Hour, c.Minute, c.Second, 0, time.UTC)
	return CivilDateTime{
		Year: t.Year(), Month: t.Month(), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(),
	}
}

// Valid reports whether c names a real calendar date and time-of-day.
// time.Date normalizes out-of-range components, so validity is checked by
// round-tripping.
func (c CivilDateTime) Valid() bool {
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 || c.Second < 0 || c.Second > 59 {
		return false
	}
	t := time.Date(c.Year, c.Month, c.Day, 0, 0, 0, 0, time.UTC)
	return t.Year() == c.Year && t.Month() == c.Month && t.Day() == c.Day
}

// Weekday returns the day of the week c falls on (0=Sunday..6=Saturday).
func (c CivilDateTime) Weekday() time.Weekday {
	return time.Date(c.Year, c.Month, c.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

var locationCache sync.Map // string -> *time.Location

// LoadLocation resolves an IANA timezone identifier, caching the result.
// Returns an INVALID_TIMEZONE application error for unresolvable names;
// callers are expected to fall back to UTC and log rather than surface it.
func LoadLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return nil, apperrors.ErrInvalidTimezone
	}
	if cached, ok := locationCache.Load(tz); ok {
		return cached.(*time.Location), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidTimezone,
			"Not a resolvable IANA timezone identifier", 400)
	}
	locationCache.Store(tz, loc)
	return loc, nil
}

// ToUTC interprets c as wall-clock time in tz and returns the equivalent UTC
// instant. IANA transition rules apply, so a civil time on a DST transition
// day maps through the real offset in effect, not a fixed one.
func ToUTC(c CivilDateTime, tz string) (time.Time, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, 0, loc).UTC(), nil
}

// FromUTC converts an instant to its civil representation in tz. Display
// only; instants, never civil values, are what gets stored.
func FromUTC(t time.Time, tz string) (CivilDateTime, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return CivilDateTime{}, err
	}
	local := t.In(loc)
	return CivilDateTime{
		Year: local.Year(), Month: local.Month(), Day: local.Day(),
		Hour: local.Hour(), Minute: local.Minute(), Second: local.Second(),
	}, nil
}

// Format renders an instant as it would read on a wall clock in tz.
func Format(t time.Time, tz, layout string) (string, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(layout), nil
}

// MinuteOfDay returns the UTC minute-since-midnight of t, in [0, 1440).
func MinuteOfDay(t time.Time) int {
	utc := t.UTC()
	return utc.Hour()*60 + utc.Minute()
}
