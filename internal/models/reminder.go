package models

import (
	"database/sql/driver"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nudgebot/api/internal/timeutil"
)

// IntSet is a custom type for PostgreSQL integer[] arrays, used for the
// weekday set of weekly recurrences (0=Sunday..6=Saturday).
type IntSet []int

// Value implements driver.Valuer for PostgreSQL integer[] storage
func (s IntSet) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// Scan implements sql.Scanner for PostgreSQL integer[] storage
func (s *IntSet) Scan(value interface{}) error {
	if value == nil {
		*s = IntSet{}
		return nil
	}

	var str string
	switch v := value.(type) {
	case []byte:
		str = string(v)
	case string:
		str = v
	default:
		return errors.New("failed to scan IntSet: unsupported type")
	}

	str = strings.TrimSpace(str)
	if len(str) < 2 || str[0] != '{' || str[len(str)-1] != '}' {
		return errors.New("invalid PostgreSQL array format")
	}
	str = str[1 : len(str)-1]
	if str == "" {
		*s = IntSet{}
		return nil
	}

	parts := strings.Split(str, ",")
	result := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return errors.New("invalid integer in PostgreSQL array: " + p)
		}
		result = append(result, n)
	}
	*s = result
	return nil
}

// Contains reports whether v is in the set.
func (s IntSet) Contains(v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Normalized returns the set sorted ascending with duplicates removed.
func (s IntSet) Normalized() IntSet {
	seen := make(map[int]bool, len(s))
	out := make(IntSet, 0, len(s))
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

type ReminderStatus string

const (
	// StatusActive marks a recurring reminder awaiting its next fire.
	StatusActive ReminderStatus = "active"
	// StatusScheduled marks a one-shot reminder awaiting its single fire.
	StatusScheduled ReminderStatus = "scheduled"
	// StatusSent marks a one-shot reminder that has fired.
	StatusSent ReminderStatus = "sent"
	// StatusCompleted marks a recurring reminder whose end instant has been
	// exhausted.
	StatusCompleted ReminderStatus = "completed"
	// StatusDeleted marks a soft-deleted reminder, excluded from all scans.
	StatusDeleted ReminderStatus = "deleted"
)

type RecurrenceKind string

const (
	RecurrenceNone    RecurrenceKind = "none"
	RecurrenceDaily   RecurrenceKind = "daily"
	RecurrenceWeekly  RecurrenceKind = "weekly"
	RecurrenceMonthly RecurrenceKind = "monthly"
	RecurrenceYearly  RecurrenceKind = "yearly"
)

// Reminder is the central entity. DueAt always holds the next occurrence to
// fire, in UTC. RecurrenceMinute is the UTC minute-since-midnight of DueAt
// and is kept numerically equal to it by construction: every write path goes
// through NewReminder or Reschedule, never field-by-field assignment, so the
// scanner can classify recurring reminders without re-deriving timezone math.
type Reminder struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Owner            string         `gorm:"size:64;not null;index" json:"owner"`
	Title            string         `gorm:"size:500;not null" json:"title"`
	Body             string         `gorm:"not null" json:"body"`
	DueAt            time.Time      `gorm:"not null;index" json:"due_at"`
	Status           ReminderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	RecurrenceKind   RecurrenceKind `gorm:"type:varchar(10);not null;default:'none'" json:"recurrence_kind"`
	RecurrenceDays   IntSet         `gorm:"type:integer[];default:'{}'" json:"recurrence_days,omitempty"`
	RecurrenceMinute int            `gorm:"not null" json:"recurrence_minute"`
	// RecurrenceAnchorDay pins monthly and yearly cycles to their intended
	// local day-of-month, so an occurrence clamped into a short month (the
	// 31st falling in February) does not re-anchor the cycle. Zero means
	// derive from the current due instant.
	RecurrenceAnchorDay int        `gorm:"not null;default:0" json:"recurrence_anchor_day,omitempty"`
	EndAt               *time.Time `json:"end_at,omitempty"`
	LastSentAt          *time.Time `json:"last_sent_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	DeletedAt           *time.Time `json:"-"`
}

// NewReminder is the sole constructor. It derives RecurrenceMinute from dueAt
// and picks the initial status from the recurrence kind.
func NewReminder(owner, title, body string, dueAt time.Time, kind RecurrenceKind, days IntSet, endAt *time.Time) *Reminder {
	r := &Reminder{
		ID:             uuid.New(),
		Owner:          owner,
		Title:          title,
		Body:           body,
		RecurrenceKind: kind,
		EndAt:          endAt,
	}
	if kind == RecurrenceWeekly {
		r.RecurrenceDays = days.Normalized()
	} else {
		r.RecurrenceDays = IntSet{}
	}
	if kind == RecurrenceNone {
		r.Status = StatusScheduled
	} else {
		r.Status = StatusActive
	}
	r.setDueAt(dueAt)
	return r
}

// Reschedule is the sole mutator for DueAt. RecurrenceMinute moves with it.
func (r *Reminder) Reschedule(dueAt time.Time) {
	r.setDueAt(dueAt)
}

func (r *Reminder) setDueAt(dueAt time.Time) {
	utc := dueAt.UTC().Truncate(time.Minute)
	r.DueAt = utc
	r.RecurrenceMinute = timeutil.MinuteOfDay(utc)
}

func (r *Reminder) IsRecurring() bool {
	return r.RecurrenceKind != RecurrenceNone
}

// Schedulable reports whether the reminder is a candidate for scanning.
func (r *Reminder) Schedulable() bool {
	return r.Status == StatusActive || r.Status == StatusScheduled
}

func (r *Reminder) MarkSent(now time.Time) {
	sent := now.UTC()
	r.Status = StatusSent
	r.LastSentAt = &sent
}

func (r *Reminder) Complete() {
	r.Status = StatusCompleted
}

func (r *Reminder) SoftDelete(now time.Time) {
	deleted := now.UTC()
	r.Status = StatusDeleted
	r.DeletedAt = &deleted
}
