package model

import (
	"time"

	"gorm.io/gorm"
)

// Expense represents a billable expense incurred for a client
type Expense struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TeamID      uint           `json:"team_id" gorm:"index;not null"`
	ClientID    uint           `json:"client_id" gorm:"index;not null"`
	TicketID    *uint          `json:"ticket_id,omitempty" gorm:"index"`
	Description string         `json:"description" gorm:"type:text"`
	AmountCents int64          `json:"amount_cents" gorm:"not null"`
	Currency    string         `json:"currency" gorm:"type:varchar(3);default:'USD'"`
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
