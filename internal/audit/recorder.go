package audit

import (
	"context"

	"helpdesk-service/internal/model"
	"helpdesk-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Entry describes one activity log record to append
type Entry struct {
	TeamID     uint
	UserID     *uint
	Action     ActivityType
	EntityType EntityType
	EntityID   *uint
	IP         string
	Details    map[string]interface{}
}

// UserRef returns a pointer to a user id for use in an Entry, or nil for
// system-initiated events.
func UserRef(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

// Record appends one row to the activity log. Activity without a team
// context is not recorded: the feed is always team-scoped, so an entry
// with no team would never be shown.
//
// The returned error is informational: callers performing a business
// mutation treat the mutation as committed even when its audit write
// fails, and the failure is already logged and counted here.
func Record(ctx context.Context, e Entry) error {
	if e.TeamID == 0 {
		return nil
	}

	row := model.ActivityLog{
		TeamID:     e.TeamID,
		UserID:     e.UserID,
		Action:     string(e.Action),
		EntityType: string(e.EntityType),
		EntityID:   e.EntityID,
		IPAddress:  e.IP,
		Details:    datatypes.JSONMap(e.Details),
	}

	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		prometheus.ActivityWriteFailuresCounter.Inc()
		log.Error("failed to write activity log entry",
			zap.String("action", string(e.Action)),
			zap.Uint("team_id", e.TeamID),
			zap.Error(err))
		return err
	}

	prometheus.ActivityRecordsCounter.WithLabelValues(string(e.Action)).Inc()
	return nil
}
