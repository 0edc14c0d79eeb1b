package model

import (
	"time"

	"gorm.io/gorm"
)

// Ticket statuses
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusClosed     = "closed"
)

// Ticket represents a service ticket raised for a client.
// The tickets table carries none of the optional created_by/updated_by/
// deleted_by columns; soft-deleting a ticket is how tickets get closed.
type Ticket struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TeamID      uint           `json:"team_id" gorm:"index;not null"`
	ClientID    uint           `json:"client_id" gorm:"index;not null"`
	Subject     string         `json:"subject" gorm:"type:varchar(200);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Status      string         `json:"status" gorm:"type:varchar(20);default:'open'"`
	Priority    string         `json:"priority" gorm:"type:varchar(20);default:'normal'"`
	AssignedTo  *uint          `json:"assigned_to,omitempty" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
