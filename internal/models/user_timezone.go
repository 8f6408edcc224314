package models

import (
	"time"
)

// UserTimezone is the persisted per-owner timezone preference. Created on
// first resolution, updated on explicit change; last write wins, no history.
type UserTimezone struct {
	Owner     string    `gorm:"size:64;primary_key" json:"owner"`
	Timezone  string    `gorm:"size:64;not null" json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
