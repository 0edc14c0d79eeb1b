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

// CommentRequest defines the structure for comment creation/update requests
type CommentRequest struct {
	Body     string `json:"body"`
	Internal *bool  `json:"internal,omitempty"`
}

// CreateComment adds a comment to a ticket of the current team
func CreateComment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("comment", "create")

	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid ticket ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid ticket ID"})
	}

	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.Body == "" {
		log.Warn("Comment body is required")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "body is required"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	// The ticket must exist within the same team and still be open
	var ticket model.Ticket
	if result := database.GetDB().Where("id = ? AND team_id = ?", ticketID, actor.TeamID).First(&ticket); result.Error != nil {
		log.Warn("Comment references unknown ticket", zap.Uint64("ticket_id", ticketID), zap.Uint("team_id", actor.TeamID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Ticket not found"})
	}

	internal := false
	if req.Internal != nil {
		internal = *req.Internal
	}

	data := audit.Row{
		"ticket_id": ticketID,
		"body":      req.Body,
		"internal":  internal,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	row, err := audit.CreateWithAudit(c.Request().Context(), model.TableComments, audit.EntityComment, data, actor)
	if err != nil {
		log.Error("Failed to create comment", zap.Uint64("ticket_id", ticketID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create comment"})
	}

	log.Info("Comment created successfully",
		zap.Uint64("ticket_id", ticketID),
		zap.Uint("team_id", actor.TeamID))
	return c.JSON(http.StatusCreated, row)
}

// ListComments retrieves comments on a ticket of the current team
func ListComments(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("comment", "list")

	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid ticket ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid ticket ID"})
	}

	teamID, ok := c.Get("team_id").(uint)
	if !ok {
		log.Warn("Missing team_id in context")
		prometheus.TeamContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "team context required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var comments []model.Comment
	result := database.GetDB().
		Where("ticket_id = ? AND team_id = ?", ticketID, teamID).
		Order("created_at asc").
		Find(&comments)
	if result.Error != nil {
		log.Error("Failed to retrieve comments", zap.Uint64("ticket_id", ticketID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve comments"})
	}

	return c.JSON(http.StatusOK, echo.Map{"comments": comments})
}

// UpdateComment edits an existing comment on a ticket of the current team
func UpdateComment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("comment", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid comment ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid comment ID"})
	}

	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("comment_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.Body == "" {
		log.Warn("Comment body is required")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "body is required"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	data := audit.Row{"body": req.Body}
	if req.Internal != nil {
		data["internal"] = *req.Internal
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	row, err := audit.UpdateWithAudit(c.Request().Context(), model.TableComments, audit.EntityComment, uint(id), data, actor)
	if errors.Is(err, audit.ErrNotFound) {
		log.Warn("Comment not found for update", zap.Uint64("comment_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Comment not found"})
	}
	if err != nil {
		log.Error("Failed to update comment", zap.Uint64("comment_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update comment"})
	}

	log.Info("Comment updated successfully", zap.Uint64("comment_id", id))
	return c.JSON(http.StatusOK, row)
}

// DeleteComment handles deleting a comment (soft delete)
func DeleteComment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("comment", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid comment ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid comment ID"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	_, err = audit.SoftDeleteWithAudit(c.Request().Context(), model.TableComments, audit.EntityComment, uint(id), actor)
	if errors.Is(err, audit.ErrNotFound) {
		log.Warn("Comment not found for delete", zap.Uint64("comment_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Comment not found"})
	}
	if err != nil {
		log.Error("Failed to delete comment", zap.Uint64("comment_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete comment"})
	}

	log.Info("Comment deleted successfully", zap.Uint64("comment_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Comment deleted successfully"})
}
