package model

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures one mutation event for the team activity feed.
// Rows are append-only: they are written once after a mutation commits
// and never updated or deleted by the application.
type ActivityLog struct {
	ID         uint              `json:"id" gorm:"primaryKey"`
	TeamID     uint              `json:"team_id" gorm:"index;not null"`
	UserID     *uint             `json:"user_id,omitempty" gorm:"index"` // Nullable: system-initiated events have no acting user
	Action     string            `json:"action" gorm:"type:varchar(64);index;not null"`
	EntityType string            `json:"entity_type,omitempty" gorm:"type:varchar(32)"`
	EntityID   *uint             `json:"entity_id,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty" gorm:"type:varchar(45)"`
	Details    datatypes.JSONMap `json:"details,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
