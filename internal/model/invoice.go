package model

import (
	"time"

	"gorm.io/gorm"
)

// Invoice statuses
const (
	InvoiceStatusDraft = "draft"
	InvoiceStatusSent  = "sent"
	InvoiceStatusPaid  = "paid"
)

// Invoice represents an invoice built from a client's unbilled time and expenses
type Invoice struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TeamID      uint           `json:"team_id" gorm:"index;not null"`
	ClientID    uint           `json:"client_id" gorm:"index;not null"`
	Number      string         `json:"number" gorm:"type:varchar(50);uniqueIndex:idx_team_number"`
	Status      string         `json:"status" gorm:"type:varchar(20);default:'draft'"`
	TotalCents  int64          `json:"total_cents"`
	Currency    string         `json:"currency" gorm:"type:varchar(3);default:'USD'"`
	IssuedAt    *time.Time     `json:"issued_at,omitempty"`
	DueAt       *time.Time     `json:"due_at,omitempty"`
	CreatedBy   uint           `json:"created_by" gorm:"index"`
	UpdatedBy   uint           `json:"updated_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
