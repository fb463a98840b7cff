package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WaitlistEntry is one registered email. Rows are written once and never
// updated or deleted, so there is no UpdatedAt or soft-delete column.
type WaitlistEntry struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Email     string    `gorm:"not null;uniqueIndex:uniq_waitlist_entries_email" json:"email"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist_entries"
}

func (e *WaitlistEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
