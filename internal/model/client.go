package model

import (
	"time"

	"gorm.io/gorm"
)

// Client represents a customer organization served by a team.
// The clients table predates the deleted_by audit column and never
// received it, so soft deletes on clients carry no deleting user.
type Client struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TeamID      uint           `json:"team_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);index;not null"`
	ContactName string         `json:"contact_name" gorm:"type:varchar(100)"`
	Email       string         `json:"email" gorm:"type:varchar(100)"`
	Phone       string         `json:"phone" gorm:"type:varchar(20)"`
	Address     string         `json:"address" gorm:"type:text"`
	Notes       string         `json:"notes" gorm:"type:text"`
	// Cents per hour used when invoicing billable time
	HourlyRateCents int64 `json:"hourly_rate_cents"`
	CreatedBy   uint           `json:"created_by" gorm:"index"`
	UpdatedBy   uint           `json:"updated_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
