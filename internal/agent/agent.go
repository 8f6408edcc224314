package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/google/uuid"
	"github.com/nudgebot/api/internal/ai"
	"github.com/nudgebot/api/internal/models"
	"github.com/nudgebot/api/internal/service"
	"github.com/nudgebot/api/internal/session"
	"github.com/nudgebot/api/internal/timeexpr"
	"github.com/nudgebot/api/internal/timeutil"
	"github.com/nudgebot/api/pkg/errors"
)

const confirmLayout = "Mon, 2 Jan 2006 15:04"

// Extractor reads a free-text message into structured reminder fields.
type Extractor interface {
	ExtractReminder(ctx context.Context, message string, localNow time.Time) (*ai.Extraction, error)
}

// DraftStore keeps partial reminders between conversation turns.
type DraftStore interface {
	Get(ctx context.Context, owner string) (*session.Draft, error)
	Put(ctx context.Context, owner string, draft *session.Draft) error
	Clear(ctx context.Context, owner string) error
}

// Reminders is the reminder operations surface the conversation drives.
type Reminders interface {
	Create(ctx context.Context, in service.CreateInput) (*models.Reminder, error)
	List(ctx context.Context, owner string) ([]models.Reminder, error)
	Delete(ctx context.Context, owner string, id uuid.UUID) error
	Reschedule(ctx context.Context, owner string, id uuid.UUID, res *timeexpr.Resolution) (*models.Reminder, error)
}

// ZoneSource resolves and stores the owner's timezone preference.
type ZoneSource interface {
	Preference(ctx context.Context, owner string) string
	Resolve(ctx context.Context, locationText string) string
	SetPreference(ctx context.Context, owner, tz string) error
}

// Resolver turns a structured expression into a concrete resolution.
type Resolver interface {
	Resolve(expr timeexpr.Expression, base time.Time, tz string) (*timeexpr.Resolution, error)
}

// Agent drives the reminder-creation conversation. Each inbound message is
// extracted, merged with any draft from earlier turns, and either completed
// into a stored reminder or answered with a clarifying question while the
// draft waits in the session store.
type Agent struct {
	extractor Extractor
	drafts    DraftStore
	reminders Reminders
	zones     ZoneSource
	resolver  Resolver
	logger    *zap.Logger
}

func New(extractor Extractor, drafts DraftStore, reminders Reminders, zones ZoneSource, resolver Resolver, logger *zap.Logger) *Agent {
	return &Agent{
		extractor: extractor,
		drafts:    drafts,
		reminders: reminders,
		zones:     zones,
		resolver:  resolver,
		logger:    logger,
	}
}

// HandleMessage processes one inbound message and returns the reply text.
func (a *Agent) HandleMessage(ctx context.Context, owner, text string) (string, error) {
	tz := a.zones.Preference(ctx, owner)

	if reply, handled, err := a.handleCommand(ctx, owner, text, tz); handled {
		return reply, err
	}

	localNow := localClock(time.Now(), tz)

	extraction, err := a.extractor.ExtractReminder(ctx, text, localNow)
	if err != nil {
		a.logger.Warn("extraction failed", zap.Error(err))
		return "Sorry, I couldn't read that. Could you rephrase?", nil
	}

	draft, err := a.drafts.Get(ctx, owner)
	if err != nil {
		a.logger.Warn("draft lookup failed", zap.Error(err))
		draft = nil
	}
	merged := mergeDraft(draft, extraction)

	if merged.Expression == nil {
		if err := a.drafts.Put(ctx, owner, merged); err != nil {
			a.logger.Warn("draft save failed", zap.Error(err))
		}
		return "Got it. When should I remind you?", nil
	}

	resolution, err := a.resolver.Resolve(*merged.Expression, time.Now().UTC(), tz)
	if err != nil {
		if errors.HasCode(err, errors.CodeUnresolvedExpression) {
			if saveErr := a.drafts.Put(ctx, owner, merged); saveErr != nil {
				a.logger.Warn("draft save failed", zap.Error(saveErr))
			}
			return "I couldn't pin down that time. Could you give me a date or a time of day?", nil
		}
		return "", err
	}

	reminder, err := a.reminders.Create(ctx, service.CreateInput{
		Owner:      owner,
		Title:      deriveTitle(merged, text),
		Body:       merged.Body,
		Resolution: resolution,
	})
	if err != nil {
		if errors.HasCode(err, errors.CodePastInstantRejected) {
			// Keep the draft; the user only needs to restate the time.
			merged.Expression = nil
			if saveErr := a.drafts.Put(ctx, owner, merged); saveErr != nil {
				a.logger.Warn("draft save failed", zap.Error(saveErr))
			}
			return "That time has already passed. When should I remind you instead?", nil
		}
		return "", err
	}

	if err := a.drafts.Clear(ctx, owner); err != nil {
		a.logger.Warn("draft clear failed", zap.Error(err))
	}

	return confirmText(reminder, tz), nil
}

// handleCommand intercepts the few fixed commands before anything reaches
// the language model. Reminders are addressed by their position in the list
// reply; ListByOwner orders by due instant, so the numbering is stable
// between the list and the follow-up command.
func (a *Agent) handleCommand(ctx context.Context, owner, text, tz string) (string, bool, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) == 0 {
		return "", false, nil
	}

	switch fields[0] {
	case "list":
		if len(fields) != 1 {
			return "", false, nil
		}
		reply, err := a.listReminders(ctx, owner, tz)
		return reply, true, err

	case "delete", "cancel", "stop":
		if len(fields) != 2 {
			return "", false, nil
		}
		reply, err := a.deleteReminder(ctx, owner, fields[1])
		return reply, true, err

	case "reschedule", "move":
		if len(fields) < 3 {
			return "", false, nil
		}
		reply, err := a.rescheduleReminder(ctx, owner, fields[1], strings.Join(fields[2:], " "), tz)
		return reply, true, err

	case "timezone":
		if len(fields) < 2 {
			return fmt.Sprintf("Your timezone is %s. Send \"timezone <city or zone>\" to change it.", tz), true, nil
		}
		reply, err := a.setTimezone(ctx, owner, strings.Join(fields[1:], " "))
		return reply, true, err
	}

	return "", false, nil
}

func (a *Agent) listReminders(ctx context.Context, owner, tz string) (string, error) {
	reminders, err := a.reminders.List(ctx, owner)
	if err != nil {
		return "", err
	}
	if len(reminders) == 0 {
		return "You have no reminders.", nil
	}

	var b strings.Builder
	b.WriteString("Your reminders:")
	for i, r := range reminders {
		local, fmtErr := timeutil.Format(r.DueAt, tz, confirmLayout)
		if fmtErr != nil {
			local = r.DueAt.Format(confirmLayout) + " UTC"
		}
		fmt.Fprintf(&b, "\n%d. %s, %s", i+1, r.Title, local)
		if r.IsRecurring() {
			fmt.Fprintf(&b, " (%s)", describeRecurrence(&r))
		}
	}
	return b.String(), nil
}

func (a *Agent) deleteReminder(ctx context.Context, owner, position string) (string, error) {
	target, reply, err := a.reminderAt(ctx, owner, position)
	if target == nil {
		return reply, err
	}
	if err := a.reminders.Delete(ctx, owner, target.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted \"%s\".", target.Title), nil
}

func (a *Agent) rescheduleReminder(ctx context.Context, owner, position, timeText, tz string) (string, error) {
	target, reply, err := a.reminderAt(ctx, owner, position)
	if target == nil {
		return reply, err
	}

	extraction, err := a.extractor.ExtractReminder(ctx, timeText, localClock(time.Now(), tz))
	if err != nil || extraction.Expression == nil {
		return "I couldn't read that time. Try something like \"reschedule 1 tomorrow 9am\".", nil
	}

	resolution, err := a.resolver.Resolve(*extraction.Expression, time.Now().UTC(), tz)
	if err != nil {
		return "I couldn't pin down that time. Could you give me a date or a time of day?", nil
	}

	updated, err := a.reminders.Reschedule(ctx, owner, target.ID, resolution)
	if err != nil {
		if errors.HasCode(err, errors.CodePastInstantRejected) {
			return "That time has already passed. When should I remind you instead?", nil
		}
		return "", err
	}
	return confirmText(updated, tz), nil
}

func (a *Agent) setTimezone(ctx context.Context, owner, locationText string) (string, error) {
	tz := a.zones.Resolve(ctx, locationText)
	if err := a.zones.SetPreference(ctx, owner, tz); err != nil {
		return "", err
	}
	return fmt.Sprintf("Got it, your timezone is now %s.", tz), nil
}

// reminderAt resolves a 1-based list position to a reminder. A nil reminder
// with a non-empty reply means the position was bad and the reply explains it.
func (a *Agent) reminderAt(ctx context.Context, owner, position string) (*models.Reminder, string, error) {
	n, err := strconv.Atoi(position)
	if err != nil || n < 1 {
		return nil, "Which reminder? Send \"list\" to see them numbered.", nil
	}
	reminders, err := a.reminders.List(ctx, owner)
	if err != nil {
		return nil, "", err
	}
	if n > len(reminders) {
		return nil, fmt.Sprintf("You only have %d reminders. Send \"list\" to see them.", len(reminders)), nil
	}
	return &reminders[n-1], "", nil
}

// mergeDraft folds the new extraction over whatever the previous turns
// captured. Fresh fields win; draft fields fill the gaps.
func mergeDraft(draft *session.Draft, ex *ai.Extraction) *session.Draft {
	merged := &session.Draft{
		Title:      ex.Title,
		Body:       ex.Body,
		Expression: ex.Expression,
	}
	if draft == nil {
		return merged
	}
	if merged.Title == "" {
		merged.Title = draft.Title
	}
	if merged.Body == "" {
		merged.Body = draft.Body
	}
	if merged.Expression == nil {
		merged.Expression = draft.Expression
	}
	return merged
}

// deriveTitle guarantees a reminder is never stored without a title.
func deriveTitle(draft *session.Draft, messageText string) string {
	if t := strings.TrimSpace(draft.Title); t != "" {
		return t
	}
	if b := strings.TrimSpace(draft.Body); b != "" {
		return truncate(b, 60)
	}
	if m := strings.TrimSpace(messageText); m != "" {
		return truncate(m, 60)
	}
	return "Reminder"
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func confirmText(r *models.Reminder, tz string) string {
	local, err := timeutil.Format(r.DueAt, tz, confirmLayout)
	if err != nil {
		local = r.DueAt.Format(confirmLayout) + " UTC"
	}
	if r.IsRecurring() {
		return fmt.Sprintf("Done! I'll remind you about \"%s\" %s, starting %s.", r.Title, describeRecurrence(r), local)
	}
	return fmt.Sprintf("Done! I'll remind you about \"%s\" on %s.", r.Title, local)
}

func describeRecurrence(r *models.Reminder) string {
	switch r.RecurrenceKind {
	case models.RecurrenceDaily:
		return "every day"
	case models.RecurrenceWeekly:
		return "every week"
	case models.RecurrenceMonthly:
		return "every month"
	case models.RecurrenceYearly:
		return "every year"
	default:
		return ""
	}
}

// localClock renders now on the owner's wall clock, falling back to UTC when
// the zone cannot be loaded.
func localClock(now time.Time, tz string) time.Time {
	loc, err := timeutil.LoadLocation(tz)
	if err != nil {
		return now.UTC()
	}
	return now.In(loc)
}
