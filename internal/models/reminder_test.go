package models

import (
	"testing"
	"time"
)

// assertMinuteInvariant checks the redundancy the scanner depends on:
// recurrence_minute must equal the UTC minute-of-day of due_at.
func assertMinuteInvariant(t *testing.T, r *Reminder) {
	t.Helper()
	want := r.DueAt.UTC().Hour()*60 + r.DueAt.UTC().Minute()
	if r.RecurrenceMinute != want {
		t.Errorf("RecurrenceMinute = %d, want %d (due_at %v)", r.RecurrenceMinute, want, r.DueAt)
	}
}

func TestNewReminder(t *testing.T) {
	t.Parallel()

	due := time.Date(2025, time.June, 16, 4, 30, 0, 0, time.UTC)

	t.Run("one-shot", func(t *testing.T) {
		t.Parallel()
		r := NewReminder("whatsapp:+14155550100", "Call mom", "Call mom about the trip", due, RecurrenceNone, nil, nil)
		if r.Status != StatusScheduled {
			t.Errorf("Status = %s, want scheduled", r.Status)
		}
		if r.IsRecurring() {
			t.Error("one-shot reminder reported recurring")
		}
		assertMinuteInvariant(t, r)
	})

	t.Run("weekly", func(t *testing.T) {
		t.Parallel()
		r := NewReminder("whatsapp:+14155550100", "Standup", "", due, RecurrenceWeekly, IntSet{5, 1, 3, 3}, nil)
		if r.Status != StatusActive {
			t.Errorf("Status = %s, want active", r.Status)
		}
		want := IntSet{1, 3, 5}
		if len(r.RecurrenceDays) != len(want) {
			t.Fatalf("RecurrenceDays = %v, want %v", r.RecurrenceDays, want)
		}
		for i, d := range want {
			if r.RecurrenceDays[i] != d {
				t.Errorf("RecurrenceDays = %v, want %v", r.RecurrenceDays, want)
				break
			}
		}
		if r.RecurrenceMinute != 270 {
			t.Errorf("RecurrenceMinute = %d, want 270", r.RecurrenceMinute)
		}
		assertMinuteInvariant(t, r)
	})

	t.Run("daily clears day set", func(t *testing.T) {
		t.Parallel()
		r := NewReminder("whatsapp:+14155550100", "Meds", "", due, RecurrenceDaily, IntSet{1, 2}, nil)
		if len(r.RecurrenceDays) != 0 {
			t.Errorf("RecurrenceDays = %v, want empty for daily", r.RecurrenceDays)
		}
	})

	t.Run("seconds truncated", func(t *testing.T) {
		t.Parallel()
		r := NewReminder("o", "t", "", due.Add(45*time.Second), RecurrenceNone, nil, nil)
		if r.DueAt.Second() != 0 {
			t.Errorf("DueAt not truncated to minute: %v", r.DueAt)
		}
		assertMinuteInvariant(t, r)
	})
}

func TestReminder_Reschedule(t *testing.T) {
	t.Parallel()

	r := NewReminder("o", "t", "", time.Date(2025, time.June, 16, 4, 30, 0, 0, time.UTC), RecurrenceDaily, nil, nil)
	r.Reschedule(time.Date(2025, time.June, 17, 18, 5, 0, 0, time.UTC))

	if r.RecurrenceMinute != 18*60+5 {
		t.Errorf("RecurrenceMinute = %d, want %d", r.RecurrenceMinute, 18*60+5)
	}
	assertMinuteInvariant(t, r)

	// Rescheduling with a non-UTC location must normalize.
	kolkata := time.FixedZone("IST", 5*3600+1800)
	r.Reschedule(time.Date(2025, time.June, 18, 10, 0, 0, 0, kolkata))
	if r.DueAt.Location() != time.UTC {
		t.Errorf("DueAt not stored in UTC: %v", r.DueAt)
	}
	if r.RecurrenceMinute != 270 {
		t.Errorf("RecurrenceMinute = %d, want 270", r.RecurrenceMinute)
	}
}

func TestReminder_Lifecycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 16, 9, 0, 30, 0, time.UTC)
	r := NewReminder("o", "t", "", now.Add(time.Hour), RecurrenceNone, nil, nil)

	r.MarkSent(now)
	if r.Status != StatusSent {
		t.Errorf("Status = %s, want sent", r.Status)
	}
	if r.LastSentAt == nil || !r.LastSentAt.Equal(now) {
		t.Errorf("LastSentAt = %v, want %v", r.LastSentAt, now)
	}
	if r.Schedulable() {
		t.Error("sent reminder still schedulable")
	}

	r.SoftDelete(now)
	if r.Status != StatusDeleted || r.DeletedAt == nil {
		t.Errorf("SoftDelete left status=%s deleted_at=%v", r.Status, r.DeletedAt)
	}
}

func TestIntSet_ValueScan(t *testing.T) {
	t.Parallel()

	v, err := IntSet{1, 3, 5}.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if v != "{1,3,5}" {
		t.Errorf("Value() = %v, want {1,3,5}", v)
	}

	var s IntSet
	if err := s.Scan([]byte("{0,6}")); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(s) != 2 || s[0] != 0 || s[1] != 6 {
		t.Errorf("Scan() = %v, want [0 6]", s)
	}

	if err := s.Scan("{}"); err != nil {
		t.Fatalf("Scan empty error = %v", err)
	}
	if len(s) != 0 {
		t.Errorf("Scan empty = %v, want empty", s)
	}

	if err := s.Scan("{a,b}"); err == nil {
		t.Error("Scan of non-integer array did not error")
	}
}
