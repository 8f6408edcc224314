package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nudgebot/api/internal/models"
	apperrors "github.com/nudgebot/api/pkg/errors"
)

// UserTimezoneRepository persists per-owner timezone preferences. It
// satisfies timezone.PreferenceStore.
type UserTimezoneRepository struct {
	db *gorm.DB
}

func NewUserTimezoneRepository(db *gorm.DB) *UserTimezoneRepository {
	return &UserTimezoneRepository{db: db}
}

func (r *UserTimezoneRepository) Get(ctx context.Context, owner string) (string, error) {
	var pref models.UserTimezone
	err := r.db.WithContext(ctx).Where("owner = ?", owner).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return pref.Timezone, nil
}

// Upsert writes the preference, last write wins.
func (r *UserTimezoneRepository) Upsert(ctx context.Context, owner, timezone string) error {
	pref := models.UserTimezone{Owner: owner, Timezone: timezone}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}},
		DoUpdates: clause.AssignmentColumns([]string{"timezone", "updated_at"}),
	}).Create(&pref).Error
}
