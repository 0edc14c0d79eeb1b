package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"helpdesk-service/internal/audit"
	"helpdesk-service/internal/model"
	"helpdesk-service/pkg/database"
	"helpdesk-service/pkg/logger"
	"helpdesk-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TimeEntryRequest defines the structure for time entry creation/update requests
type TimeEntryRequest struct {
	ClientID    uint       `json:"client_id"`
	TicketID    *uint      `json:"ticket_id,omitempty"`
	Description string     `json:"description"`
	Minutes     int        `json:"minutes"`
	Date        *time.Time `json:"date,omitempty"`
	Billable    *bool      `json:"billable,omitempty"`
}

// CreateTimeEntry logs time against a client or ticket for the current team
func CreateTimeEntry(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("timeentry", "create")

	var req TimeEntryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.ClientID == 0 || req.Minutes <= 0 {
		log.Warn("Incomplete time entry data", zap.Uint("client_id", req.ClientID), zap.Int("minutes", req.Minutes))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_id and positive minutes are required"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}
	billable := true
	if req.Billable != nil {
		billable = *req.Billable
	}

	data := audit.Row{
		"client_id":   req.ClientID,
		"description": req.Description,
		"minutes":     req.Minutes,
		"date":        date,
		"billable":    billable,
	}
	if req.TicketID != nil {
		data["ticket_id"] = *req.TicketID
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	row, err := audit.CreateWithAudit(c.Request().Context(), model.TableTimeEntries, audit.EntityTimeEntry, data, actor)
	if err != nil {
		log.Error("Failed to create time entry", zap.Uint("client_id", req.ClientID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create time entry"})
	}

	log.Info("Time entry created successfully",
		zap.Uint("client_id", req.ClientID),
		zap.Int("minutes", req.Minutes),
		zap.Uint("team_id", actor.TeamID))
	return c.JSON(http.StatusCreated, row)
}

// ListTimeEntries retrieves time entries for the current team
func ListTimeEntries(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("timeentry", "list")

	teamID, ok := c.Get("team_id").(uint)
	if !ok {
		log.Warn("Missing team_id in context")
		prometheus.TeamContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "team context required"})
	}

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Where("team_id = ?", teamID)

	if clientID := c.QueryParam("client_id"); clientID != "" {
		if cid, err := strconv.ParseUint(clientID, 10, 32); err == nil {
			query = query.Where("client_id = ?", cid)
		}
	}
	if unbilled := c.QueryParam("unbilled"); unbilled == "true" {
		query = query.Where("invoice_id IS NULL AND billable = ?", true)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var entries []model.TimeEntry
	result := query.
		Order("date desc").
		Limit(limit).
		Offset(offset).
		Find(&entries)
	if result.Error != nil {
		log.Error("Failed to retrieve time entries", zap.Uint("team_id", teamID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve time entries"})
	}

	var total int64
	query.Model(&model.TimeEntry{}).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"time_entries": entries,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdateTimeEntry updates an existing time entry for the current team
func UpdateTimeEntry(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("timeentry", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid time entry ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid time entry ID"})
	}

	var req TimeEntryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("time_entry_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	data := audit.Row{}
	if req.Description != "" {
		data["description"] = req.Description
	}
	if req.Minutes > 0 {
		data["minutes"] = req.Minutes
	}
	if req.Date != nil {
		data["date"] = *req.Date
	}
	if req.Billable != nil {
		data["billable"] = *req.Billable
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	row, err := audit.UpdateWithAudit(c.Request().Context(), model.TableTimeEntries, audit.EntityTimeEntry, uint(id), data, actor)
	if errors.Is(err, audit.ErrNotFound) {
		log.Warn("Time entry not found for update", zap.Uint64("time_entry_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Time entry not found"})
	}
	if err != nil {
		log.Error("Failed to update time entry", zap.Uint64("time_entry_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update time entry"})
	}

	log.Info("Time entry updated successfully", zap.Uint64("time_entry_id", id))
	return c.JSON(http.StatusOK, row)
}

// DeleteTimeEntry handles deleting a time entry (soft delete)
func DeleteTimeEntry(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("timeentry", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid time entry ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid time entry ID"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	_, err = audit.SoftDeleteWithAudit(c.Request().Context(), model.TableTimeEntries, audit.EntityTimeEntry, uint(id), actor)
	if errors.Is(err, audit.ErrNotFound) {
		log.Warn("Time entry not found for delete", zap.Uint64("time_entry_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Time entry not found"})
	}
	if err != nil {
		log.Error("Failed to delete time entry", zap.Uint64("time_entry_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete time entry"})
	}

	log.Info("Time entry deleted successfully", zap.Uint64("time_entry_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Time entry deleted successfully"})
}
