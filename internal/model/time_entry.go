package model

import (
	"time"

	"gorm.io/gorm"
)

// TimeEntry represents billable or non-billable time logged against a ticket
type TimeEntry struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TeamID      uint           `json:"team_id" gorm:"index;not null"`
	ClientID    uint           `json:"client_id" gorm:"index;not null"`
	TicketID    *uint          `json:"ticket_id,omitempty" gorm:"index"`
	Description string         `json:"description" gorm:"type:text"`
	Minutes     int            `json:"minutes" gorm:"not null"`
	Date        time.Time      `json:"date"`
	Billable    bool           `json:"billable" gorm:"default:true"`
	InvoiceID   *uint          `json:"invoice_id,omitempty" gorm:"index"`
	CreatedBy   uint           `json:"created_by" gorm:"index"`
	UpdatedBy   uint           `json:"updated_by"`
	DeletedBy   *uint          `json:"deleted_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
