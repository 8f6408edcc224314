package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nudgebot/api/internal/models"
	apperrors "github.com/nudgebot/api/pkg/errors"
)

type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *ReminderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	var reminder models.Reminder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reminder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrReminderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *ReminderRepository) FindByIDAndOwner(ctx context.Context, id uuid.UUID, owner string) (*models.Reminder, error) {
	var reminder models.Reminder
	err := r.db.WithContext(ctx).Where("id = ? AND owner = ?", id, owner).First(&reminder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrReminderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

// ListByOwner returns the owner's non-deleted reminders, soonest first.
func (r *ReminderRepository) ListByOwner(ctx context.Context, owner string) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := r.db.WithContext(ctx).
		Where("owner = ? AND status <> ?", owner, models.StatusDeleted).
		Order("due_at ASC").
		Find(&reminders).Error
	return reminders, err
}

// ListSchedulable loads every reminder the scanner should consider: active
// recurring plus scheduled one-shots. Sent, completed and deleted rows never
// leave the database.
func (r *ReminderRepository) ListSchedulable(ctx context.Context) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := r.db.WithContext(ctx).
		Where("status IN ?", []models.ReminderStatus{models.StatusActive, models.StatusScheduled}).
		Find(&reminders).Error
	return reminders, err
}

func (r *ReminderRepository) Update(ctx context.Context, reminder *models.Reminder) error {
	return r.db.WithContext(ctx).Save(reminder).Error
}

// SoftDelete marks the reminder deleted. The next scan at the latest will no
// longer see it.
func (r *ReminderRepository) SoftDelete(ctx context.Context, id uuid.UUID, owner string) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.Reminder{}).
		Where("id = ? AND owner = ? AND status <> ?", id, owner, models.StatusDeleted).
		Updates(map[string]interface{}{
			"status":     models.StatusDeleted,
			"deleted_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrReminderNotFound
	}
	return nil
}

// ApplyAdvance persists the post-firing state computed by the advancer as a
// single atomic update conditioned on the occurrence that fired. The
// compare-and-swap on (id, due_at, schedulable status) makes advancement
// at-most-once per occurrence: a competing scanner instance, or a deletion
// that landed mid-tick, leaves zero rows affected and the caller gets
// STORE_CONFLICT instead of a lost update.
func (r *ReminderRepository) ApplyAdvance(ctx context.Context, advanced *models.Reminder, firedOccurrence time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Reminder{}).
		Where("id = ? AND due_at = ? AND status IN ?",
			advanced.ID, firedOccurrence,
			[]models.ReminderStatus{models.StatusActive, models.StatusScheduled}).
		Updates(map[string]interface{}{
			"status":            advanced.Status,
			"due_at":            advanced.DueAt,
			"recurrence_minute": advanced.RecurrenceMinute,
			"last_sent_at":      advanced.LastSentAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrStoreConflict
	}
	return nil
}
