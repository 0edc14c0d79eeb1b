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

// ClientRequest defines the structure for client creation/update requests
type ClientRequest struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
	HourlyRateCents int64 `json:"hourly_rate_cents"`
}

func (r *ClientRequest) toRow() audit.Row {
	return audit.Row{
		"name":              r.Name,
		"contact_name":      r.ContactName,
		"email":             r.Email,
		"phone":             r.Phone,
		"address":           r.Address,
		"notes":             r.Notes,
		"hourly_rate_cents": r.HourlyRateCents,
	}
}

// CreateClient creates a new client for the current team
func CreateClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("client", "create")

	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.Name == "" {
		log.Warn("Client name is required")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	row, err := audit.CreateWithAudit(c.Request().Context(), model.TableClients, audit.EntityClient, req.toRow(), actor)
	if err != nil {
		log.Error("Failed to create client", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create client"})
	}

	log.Info("Client created successfully",
		zap.String("name", req.Name),
		zap.Uint("team_id", actor.TeamID))
	return c.JSON(http.StatusCreated, row)
}

// GetClient retrieves a client by ID for the current team
func GetClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("client", "get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid client ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid client ID"})
	}

	teamID, ok := c.Get("team_id").(uint)
	if !ok {
		log.Warn("Missing team_id in context")
		prometheus.TeamContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "team context required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var client model.Client
	result := database.GetDB().Where("id = ? AND team_id = ?", id, teamID).First(&client)
	if result.Error != nil {
		log.Error("Client not found or does not belong to team",
			zap.Uint64("client_id", id),
			zap.Uint("team_id", teamID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Client not found"})
	}

	return c.JSON(http.StatusOK, client)
}

// ListClients retrieves all clients for the current team
func ListClients(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("client", "list")

	teamID, ok := c.Get("team_id").(uint)
	if !ok {
		log.Warn("Missing team_id in context")
		prometheus.TeamContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "team context required"})
	}

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Where("team_id = ?", teamID)

	defer prometheus.TrackDBOperation("query")(time.Now())

	var clients []model.Client
	result := query.
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&clients)
	if result.Error != nil {
		log.Error("Failed to retrieve clients", zap.Uint("team_id", teamID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve clients"})
	}

	var total int64
	query.Model(&model.Client{}).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"clients": clients,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdateClient updates an existing client for the current team
func UpdateClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("client", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid client ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid client ID"})
	}

	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("client_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	row, err := audit.UpdateWithAudit(c.Request().Context(), model.TableClients, audit.EntityClient, uint(id), req.toRow(), actor)
	if errors.Is(err, audit.ErrNotFound) {
		log.Warn("Client not found for update", zap.Uint64("client_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Client not found"})
	}
	if err != nil {
		log.Error("Failed to update client", zap.Uint64("client_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update client"})
	}

	log.Info("Client updated successfully", zap.Uint64("client_id", id))
	return c.JSON(http.StatusOK, row)
}

// DeleteClient handles deleting a client (soft delete)
func DeleteClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("client", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid client ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid client ID"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	_, err = audit.SoftDeleteWithAudit(c.Request().Context(), model.TableClients, audit.EntityClient, uint(id), actor)
	if errors.Is(err, audit.ErrNotFound) {
		log.Warn("Client not found for delete", zap.Uint64("client_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Client not found"})
	}
	if err != nil {
		log.Error("Failed to delete client", zap.Uint64("client_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete client"})
	}

	log.Info("Client deleted successfully", zap.Uint64("client_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Client deleted successfully"})
}
