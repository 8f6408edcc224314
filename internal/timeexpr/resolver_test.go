package timeexpr

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nudgebot/api/internal/models"
	apperrors "github.com/nudgebot/api/pkg/errors"
)

func intPtr(v int) *int { return &v }

func newTestResolver() *Resolver {
	return NewResolver(zap.NewNop())
}

func TestResolve_SpecificDate(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	base := time.Date(2025, time.June, 16, 12, 0, 0, 0, time.UTC)

	t.Run("date and time", func(t *testing.T) {
		t.Parallel()
		res, err := r.Resolve(Expression{Kind: KindSpecificDate, Date: "2025-07-01", Time: "14:30"}, base, "Asia/Kolkata")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		want := time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC) // 14:30 IST
		if !res.Instant.Equal(want) {
			t.Errorf("Instant = %v, want %v", res.Instant, want)
		}
		if res.Recurring {
			t.Error("specific_date marked recurring")
		}
	})

	t.Run("time defaults to 09:00", func(t *testing.T) {
		t.Parallel()
		res, err := r.Resolve(Expression{Kind: KindSpecificDate, Date: "2025-07-01"}, base, "UTC")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		want := time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC)
		if !res.Instant.Equal(want) {
			t.Errorf("Instant = %v, want %v", res.Instant, want)
		}
	})

	t.Run("date defaults to base local date", func(t *testing.T) {
		t.Parallel()
		// Base 12:00 UTC is 17:30 IST, so local date is still June 16.
		res, err := r.Resolve(Expression{Kind: KindSpecificDate, Time: "20:00"}, base, "Asia/Kolkata")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		want := time.Date(2025, time.June, 16, 14, 30, 0, 0, time.UTC) // 20:00 IST
		if !res.Instant.Equal(want) {
			t.Errorf("Instant = %v, want %v", res.Instant, want)
		}
	})

	t.Run("invalid calendar date", func(t *testing.T) {
		t.Parallel()
		_, err := r.Resolve(Expression{Kind: KindSpecificDate, Date: "2025-02-29"}, base, "UTC")
		if !apperrors.HasCode(err, apperrors.CodeUnresolvedExpression) {
			t.Errorf("error = %v, want UNRESOLVED_TIME_EXPRESSION", err)
		}
	})

	t.Run("past dates are not rejected here", func(t *testing.T) {
		t.Parallel()
		// Past-instant policy belongs to the caller.
		res, err := r.Resolve(Expression{Kind: KindSpecificDate, Date: "2020-01-01", Time: "10:00"}, base, "UTC")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !res.Instant.Before(base) {
			t.Error("expected past instant to be returned untouched")
		}
	})
}

func TestResolve_RelativeOffset(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	base := time.Date(2025, time.June, 16, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		amount int
		unit   string
		want   time.Time
	}{
		{"minutes", 45, "minutes", base.Add(45 * time.Minute)},
		{"hours", 3, "hours", base.Add(3 * time.Hour)},
		{"days", 2, "days", base.Add(48 * time.Hour)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := r.Resolve(Expression{Kind: KindRelativeOffset, Amount: tt.amount, Unit: tt.unit}, base, "Asia/Kolkata")
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if !res.Instant.Equal(tt.want) {
				t.Errorf("Instant = %v, want %v", res.Instant, tt.want)
			}
		})
	}

	t.Run("missing amount", func(t *testing.T) {
		t.Parallel()
		_, err := r.Resolve(Expression{Kind: KindRelativeOffset, Unit: "hours"}, base, "UTC")
		if !apperrors.HasCode(err, apperrors.CodeUnresolvedExpression) {
			t.Errorf("error = %v, want UNRESOLVED_TIME_EXPRESSION", err)
		}
	})
}

func TestResolve_RelativeDay(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	// 21:00 UTC on June 16 is already June 17 in Kolkata; "tomorrow" must be
	// resolved against the owner's local date, not the UTC date.
	base := time.Date(2025, time.June, 16, 21, 0, 0, 0, time.UTC)

	res, err := r.Resolve(Expression{Kind: KindRelativeDay, Day: "tomorrow", Time: "08:00"}, base, "Asia/Kolkata")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	// Local date at base is June 17, so tomorrow is June 18 08:00 IST.
	want := time.Date(2025, time.June, 18, 2, 30, 0, 0, time.UTC)
	if !res.Instant.Equal(want) {
		t.Errorf("Instant = %v, want %v", res.Instant, want)
	}
}

func TestResolve_Weekday(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	// June 16 2025 is a Monday.
	base := time.Date(2025, time.June, 16, 6, 0, 0, 0, time.UTC)

	t.Run("future weekday this week", func(t *testing.T) {
		t.Parallel()
		res, err := r.Resolve(Expression{Kind: KindWeekday, Weekday: intPtr(3), Time: "10:00"}, base, "UTC")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		want := time.Date(2025, time.June, 18, 10, 0, 0, 0, time.UTC) // Wednesday
		if !res.Instant.Equal(want) {
			t.Errorf("Instant = %v, want %v", res.Instant, want)
		}
	})

	t.Run("same weekday rolls to next week", func(t *testing.T) {
		t.Parallel()
		// Monday named on a Monday is never today, even if the time is
		// still ahead.
		res, err := r.Resolve(Expression{Kind: KindWeekday, Weekday: intPtr(1), Time: "23:00"}, base, "UTC")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		want := time.Date(2025, time.June, 23, 23, 0, 0, 0, time.UTC)
		if !res.Instant.Equal(want) {
			t.Errorf("Instant = %v, want %v", res.Instant, want)
		}
	})
}

func TestResolve_RecurringWeekly_Kolkata(t *testing.T) {
	t.Parallel()

	// "Remind me every Monday at 10am", owner in Asia/Kolkata: first due
	// instant is next Monday 04:30 UTC, minute 270, UTC days [1].
	r := newTestResolver()
	base := time.Date(2025, time.June, 11, 12, 0, 0, 0, time.UTC) // a Wednesday

	res, err := r.Resolve(Expression{
		Kind: KindRecurring,
		Time: "10:00",
		Recurrence: &RecurrencePattern{
			Kind: models.RecurrenceWeekly,
			Days: []int{1},
		},
	}, base, "Asia/Kolkata")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := time.Date(2025, time.June, 16, 4, 30, 0, 0, time.UTC)
	if !res.Instant.Equal(want) {
		t.Errorf("Instant = %v, want %v", res.Instant, want)
	}
	if !res.Recurring || res.RecurrenceKind != models.RecurrenceWeekly {
		t.Errorf("recurrence = %v/%s", res.Recurring, res.RecurrenceKind)
	}
	if res.RecurrenceMinute != 270 {
		t.Errorf("RecurrenceMinute = %d, want 270", res.RecurrenceMinute)
	}
	if len(res.RecurrenceDays) != 1 || res.RecurrenceDays[0] != 1 {
		t.Errorf("RecurrenceDays = %v, want [1]", res.RecurrenceDays)
	}
}

func TestResolve_RecurringWeekly_DateLineShift(t *testing.T) {
	t.Parallel()

	// Monday 08:00 in Auckland is Sunday 20:00 UTC (NZST, UTC+12): the UTC
	// weekday set must shift to Sunday for the scanner to match.
	r := newTestResolver()
	base := time.Date(2025, time.June, 11, 12, 0, 0, 0, time.UTC)

	res, err := r.Resolve(Expression{
		Kind: KindRecurring,
		Time: "08:00",
		Recurrence: &RecurrencePattern{
			Kind: models.RecurrenceWeekly,
			Days: []int{1},
		},
	}, base, "Pacific/Auckland")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if got := res.Instant.UTC().Weekday(); got != time.Sunday {
		t.Errorf("occurrence UTC weekday = %s, want Sunday", got)
	}
	if len(res.RecurrenceDays) != 1 || res.RecurrenceDays[0] != 0 {
		t.Errorf("RecurrenceDays = %v, want [0] (UTC Sunday)", res.RecurrenceDays)
	}
	if res.RecurrenceMinute != 20*60 {
		t.Errorf("RecurrenceMinute = %d, want %d", res.RecurrenceMinute, 20*60)
	}
}

func TestResolve_RecurringDaily(t *testing.T) {
	t.Parallel()

	r := newTestResolver()

	t.Run("time still ahead today", func(t *testing.T) {
		t.Parallel()
		base := time.Date(2025, time.June, 16, 2, 0, 0, 0, time.UTC)
		res, err := r.Resolve(Expression{
			Kind:       KindRecurring,
			Time:       "09:00",
			Recurrence: &RecurrencePattern{Kind: models.RecurrenceDaily},
		}, base, "UTC")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		want := time.Date(2025, time.June, 16, 9, 0, 0, 0, time.UTC)
		if !res.Instant.Equal(want) {
			t.Errorf("Instant = %v, want %v", res.Instant, want)
		}
	})

	t.Run("time already passed today", func(t *testing.T) {
		t.Parallel()
		base := time.Date(2025, time.June, 16, 9, 30, 0, 0, time.UTC)
		res, err := r.Resolve(Expression{
			Kind:       KindRecurring,
			Time:       "09:00",
			Recurrence: &RecurrencePattern{Kind: models.RecurrenceDaily},
		}, base, "UTC")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		want := time.Date(2025, time.June, 17, 9, 0, 0, 0, time.UTC)
		if !res.Instant.Equal(want) {
			t.Errorf("Instant = %v, want %v", res.Instant, want)
		}
	})
}

func TestResolve_RecurringDaily_DSTBoundary(t *testing.T) {
	t.Parallel()

	// A daily 09:00 reminder in America/New_York across the 2025 spring
	// forward (March 9): 09:00 EST is 14:00 UTC before the transition and
	// 13:00 UTC (EDT) after. The UTC minute is expected to shift by the
	// offset delta; the local reading stays 09:00.
	r := newTestResolver()

	before, err := r.Resolve(Expression{
		Kind:       KindRecurring,
		Time:       "09:00",
		Recurrence: &RecurrencePattern{Kind: models.RecurrenceDaily},
	}, time.Date(2025, time.March, 8, 1, 0, 0, 0, time.UTC), "America/New_York")
	if err != nil {
		t.Fatalf("Resolve() before transition error = %v", err)
	}
	if before.RecurrenceMinute != 14*60 {
		t.Errorf("pre-DST RecurrenceMinute = %d, want %d (09:00 EST)", before.RecurrenceMinute, 14*60)
	}

	after, err := r.Resolve(Expression{
		Kind:       KindRecurring,
		Time:       "09:00",
		Recurrence: &RecurrencePattern{Kind: models.RecurrenceDaily},
	}, time.Date(2025, time.March, 10, 1, 0, 0, 0, time.UTC), "America/New_York")
	if err != nil {
		t.Fatalf("Resolve() after transition error = %v", err)
	}
	if after.RecurrenceMinute != 13*60 {
		t.Errorf("post-DST RecurrenceMinute = %d, want %d (09:00 EDT)", after.RecurrenceMinute, 13*60)
	}

	if shift := before.RecurrenceMinute - after.RecurrenceMinute; shift != 60 {
		t.Errorf("UTC minute shift across spring forward = %d, want 60", shift)
	}
}

func TestResolve_RecurringWithUntil(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	base := time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)

	res, err := r.Resolve(Expression{
		Kind: KindRecurring,
		Time: "09:00",
		Recurrence: &RecurrencePattern{
			Kind:  models.RecurrenceDaily,
			Until: "2025-06-30",
		},
	}, base, "UTC")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.EndInstant == nil {
		t.Fatal("EndInstant not set")
	}
	want := time.Date(2025, time.June, 30, 23, 59, 0, 0, time.UTC)
	if !res.EndInstant.Equal(want) {
		t.Errorf("EndInstant = %v, want %v", res.EndInstant, want)
	}
}

func TestResolve_InvalidInput(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	base := time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		expr Expression
	}{
		{"unknown kind", Expression{Kind: "someday"}},
		{"bad clock", Expression{Kind: KindSpecificDate, Date: "2025-07-01", Time: "25:99"}},
		{"weekday missing", Expression{Kind: KindWeekday}},
		{"recurring missing pattern", Expression{Kind: KindRecurring, Time: "09:00"}},
		{"weekly without days", Expression{Kind: KindRecurring, Time: "09:00",
			Recurrence: &RecurrencePattern{Kind: models.RecurrenceWeekly}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := r.Resolve(tt.expr, base, "UTC")
			if !apperrors.HasCode(err, apperrors.CodeUnresolvedExpression) {
				t.Errorf("error = %v, want UNRESOLVED_TIME_EXPRESSION", err)
			}
		})
	}
}

func TestResolve_UnresolvableTimezoneFallsBackToUTC(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	base := time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)

	res, err := r.Resolve(Expression{Kind: KindSpecificDate, Date: "2025-07-01", Time: "10:00"}, base, "Nowhere/Land")
	if err != nil {
		t.Fatalf("Resolve() error = %v, want UTC fallback", err)
	}
	want := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)
	if !res.Instant.Equal(want) {
		t.Errorf("Instant = %v, want %v (UTC fallback)", res.Instant, want)
	}
}
