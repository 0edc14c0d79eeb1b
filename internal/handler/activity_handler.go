package handler

import (
	"fmt"
	"net/http"
	"time"

	"helpdesk-service/internal/audit"
	"helpdesk-service/internal/model"
	"helpdesk-service/pkg/database"
	"helpdesk-service/pkg/logger"
	"helpdesk-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ActivityItem is one rendered entry in the activity feed
type ActivityItem struct {
	ID            uint                   `json:"id"`
	Action        string                 `json:"action"`
	Description   string                 `json:"description"`
	UserID        *uint                  `json:"user_id,omitempty"`
	UserEmail     string                 `json:"user_email,omitempty"`
	EntityType    string                 `json:"entity_type,omitempty"`
	EntityID      *uint                  `json:"entity_id,omitempty"`
	EntityName    string                 `json:"entity_name,omitempty"`
	ChangedFields []string               `json:"changed_fields,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ListActivity returns the team activity feed, newest first. When the
// token carries no team context (a user who has not selected a team yet),
// the feed falls back to the caller's own rows across teams.
func ListActivity(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("activity", "list")

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Model(&model.ActivityLog{})
	if teamID, ok := c.Get("team_id").(uint); ok {
		query = query.Where("team_id = ?", teamID)
	} else {
		userID, ok := c.Get("user_id").(uint)
		if !ok {
			log.Error("Failed to get user ID from context")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		query = query.Where("user_id = ?", userID)
	}

	if action := c.QueryParam("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if entityType := c.QueryParam("entity_type"); entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if entityID := queryInt(c, "entity_id", 0); entityID > 0 {
		query = query.Where("entity_id = ?", entityID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var logs []model.ActivityLog
	result := query.
		Order("created_at desc, id desc").
		Limit(limit).
		Offset(offset).
		Find(&logs)
	if result.Error != nil {
		log.Error("Failed to retrieve activity", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve activity"})
	}

	var total int64
	query.Count(&total)

	emails := lookupUserEmails(logs)

	items := make([]ActivityItem, 0, len(logs))
	for _, l := range logs {
		item := ActivityItem{
			ID:          l.ID,
			Action:      l.Action,
			Description: audit.ActivityType(l.Action).Describe(),
			UserID:      l.UserID,
			EntityType:  l.EntityType,
			EntityID:    l.EntityID,
			EntityName:  entityNameFromDetails(l.Details),
			Details:     l.Details,
			CreatedAt:   l.CreatedAt,
		}
		if l.UserID != nil {
			item.UserEmail = emails[*l.UserID]
		}
		if before, after, ok := beforeAfter(l.Details); ok {
			item.ChangedFields = audit.ChangedFields(before, after)
		}
		items = append(items, item)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"activity": items,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// lookupUserEmails resolves acting-user emails for a page of feed rows
// with a single query.
func lookupUserEmails(logs []model.ActivityLog) map[uint]string {
	ids := make([]uint, 0, len(logs))
	seen := make(map[uint]bool, len(logs))
	for _, l := range logs {
		if l.UserID != nil && !seen[*l.UserID] {
			seen[*l.UserID] = true
			ids = append(ids, *l.UserID)
		}
	}
	emails := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return emails
	}

	var users []model.User
	if err := database.GetDB().Where("id IN ?", ids).Find(&users).Error; err != nil {
		return emails
	}
	for _, u := range users {
		emails[u.ID] = u.Email
	}
	return emails
}

// beforeAfter extracts the update snapshots from a details payload,
// if the entry carries them.
func beforeAfter(details map[string]interface{}) (before, after map[string]interface{}, ok bool) {
	before, okB := details["before"].(map[string]interface{})
	after, okA := details["after"].(map[string]interface{})
	return before, after, okB && okA
}

// Snapshot keys checked, in order, when labelling a feed entry
var nameFields = []string{"name", "subject", "number", "description"}

// entityNameFromDetails pulls a display label for the affected entity out
// of whichever snapshot the details payload carries.
func entityNameFromDetails(details map[string]interface{}) string {
	for _, key := range []string{"created", "after", "before", "deleted"} {
		snapshot, ok := details[key].(map[string]interface{})
		if !ok {
			continue
		}
		for _, field := range nameFields {
			if v, ok := snapshot[field]; ok && v != nil {
				if s := fmt.Sprint(v); s != "" {
					return s
				}
			}
		}
	}
	return ""
}
