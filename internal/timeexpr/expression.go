package timeexpr

import (
	"time"

	"github.com/nudgebot/api/internal/models"
)

// Kind discriminates the structured time expression produced by the NLP
// layer. The schema is fixed and validated here; free text never reaches the
// resolver.
type Kind string

const (
	KindSpecificDate   Kind = "specific_date"
	KindRelativeOffset Kind = "relative_offset"
	KindRelativeDay    Kind = "relative_day"
	KindWeekday        Kind = "weekday"
	KindRecurring      Kind = "recurring"
)

// Expression is the discriminated time expression. Which fields are
// meaningful depends on Kind; validation tags enforce per-field shape and the
// resolver enforces cross-field requirements.
type Expression struct {
	Kind Kind `json:"kind" validate:"required,oneof=specific_date relative_offset relative_day weekday recurring"`

	// specific_date / recurring monthly-yearly anchor: YYYY-MM-DD
	Date string `json:"date,omitempty"`
	// Wall-clock time of day: HH:MM (24h)
	Time string `json:"time,omitempty" validate:"omitempty,datetime=15:04"`

	// relative_offset
	Amount int    `json:"amount,omitempty" validate:"omitempty,min=1"`
	Unit   string `json:"unit,omitempty" validate:"omitempty,oneof=minutes hours days"`

	// relative_day
	Day string `json:"day,omitempty" validate:"omitempty,oneof=today tomorrow"`

	// weekday: 0=Sunday..6=Saturday
	Weekday *int `json:"weekday,omitempty" validate:"omitempty,min=0,max=6"`

	// recurring
	Recurrence *RecurrencePattern `json:"recurrence,omitempty"`
}

// RecurrencePattern describes a repeating schedule in the owner's local
// terms. Days are the user's local weekdays; the resolver converts them to
// UTC weekdays when building the descriptor.
type RecurrencePattern struct {
	Kind models.RecurrenceKind `json:"kind" validate:"required,oneof=daily weekly monthly yearly"`
	Days []int                 `json:"days,omitempty" validate:"omitempty,dive,min=0,max=6"`
	// Until is the local date (YYYY-MM-DD) after which the recurrence stops.
	Until string `json:"until,omitempty"`
}

// Resolution is the resolver output: a concrete first-occurrence UTC instant
// plus the recurrence descriptor derived from it. Timezone is the zone the
// expression was evaluated in; occurrence advancement reuses it so recurring
// reminders keep their local wall-clock reading.
type Resolution struct {
	Instant          time.Time
	Recurring        bool
	RecurrenceKind   models.RecurrenceKind
	RecurrenceDays   models.IntSet
	RecurrenceMinute int
	// AnchorDay is the intended local day-of-month for monthly and yearly
	// recurrences, kept even when the first occurrence was clamped into a
	// shorter month.
	AnchorDay  int
	EndInstant *time.Time
	Timezone   string
}
