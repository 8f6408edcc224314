package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nudgebot/api/internal/models"
	"github.com/nudgebot/api/internal/recurrence"
	"github.com/nudgebot/api/internal/repository"
	"github.com/nudgebot/api/internal/timeexpr"
	apperrors "github.com/nudgebot/api/pkg/errors"
)

type ReminderService struct {
	reminderRepo *repository.ReminderRepository
}

func NewReminderService(reminderRepo *repository.ReminderRepository) *ReminderService {
	return &ReminderService{reminderRepo: reminderRepo}
}

// CreateInput carries a resolved reminder into the store layer.
type CreateInput struct {
	Owner      string
	Title      string
	Body       string
	Resolution *timeexpr.Resolution
}

// Create persists a new reminder from a resolved time expression. A one-shot
// instant in the past is rejected; the conversation layer turns that into a
// clarifying question. A recurring resolution always carries a future first
// occurrence, so only the one-shot case can be past here.
func (s *ReminderService) Create(ctx context.Context, in CreateInput) (*models.Reminder, error) {
	now := time.Now().UTC()
	res := in.Resolution

	if !res.Recurring && !res.Instant.After(now) {
		return nil, apperrors.ErrPastInstantRejected
	}

	reminder := models.NewReminder(in.Owner, in.Title, in.Body, res.Instant, res.RecurrenceKind, res.RecurrenceDays, res.EndInstant)
	reminder.RecurrenceAnchorDay = res.AnchorDay
	if recurrence.IsPast(reminder, now) {
		reminder.Reschedule(recurrence.AdjustPastOccurrence(reminder, now, res.Timezone))
	}

	if err := s.reminderRepo.Create(ctx, reminder); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to create reminder", http.StatusInternalServerError)
	}
	return reminder, nil
}

func (s *ReminderService) GetByID(ctx context.Context, owner string, id uuid.UUID) (*models.Reminder, error) {
	return s.reminderRepo.FindByIDAndOwner(ctx, id, owner)
}

// List returns the owner's reminders, soonest first.
func (s *ReminderService) List(ctx context.Context, owner string) ([]models.Reminder, error) {
	return s.reminderRepo.ListByOwner(ctx, owner)
}

// Reschedule moves an existing reminder to a newly resolved time expression.
// Recurrence shape is replaced wholesale; partial recurrence edits are a
// delete-and-recreate from the user's point of view anyway.
func (s *ReminderService) Reschedule(ctx context.Context, owner string, id uuid.UUID, res *timeexpr.Resolution) (*models.Reminder, error) {
	reminder, err := s.reminderRepo.FindByIDAndOwner(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !res.Recurring && !res.Instant.After(now) {
		return nil, apperrors.ErrPastInstantRejected
	}

	replaced := models.NewReminder(reminder.Owner, reminder.Title, reminder.Body, res.Instant, res.RecurrenceKind, res.RecurrenceDays, res.EndInstant)
	reminder.Status = replaced.Status
	reminder.RecurrenceKind = replaced.RecurrenceKind
	reminder.RecurrenceDays = replaced.RecurrenceDays
	reminder.RecurrenceAnchorDay = res.AnchorDay
	reminder.EndAt = replaced.EndAt
	reminder.Reschedule(replaced.DueAt)

	if err := s.reminderRepo.Update(ctx, reminder); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "Failed to update reminder", http.StatusInternalServerError)
	}
	return reminder, nil
}

// Delete soft-deletes the reminder so the scheduler stops loading it.
func (s *ReminderService) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	return s.reminderRepo.SoftDelete(ctx, id, owner)
}
