package model

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment left on a ticket
type Comment struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TeamID    uint           `json:"team_id" gorm:"index;not null"`
	TicketID  uint           `json:"ticket_id" gorm:"index;not null"`
	Body      string         `json:"body" gorm:"type:text;not null"`
	Internal  bool           `json:"internal" gorm:"default:false"` // Internal notes are hidden from client-facing views
	CreatedBy uint           `json:"created_by" gorm:"index"`
	UpdatedBy uint           `json:"updated_by"`
	DeletedBy *uint          `json:"deleted_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
