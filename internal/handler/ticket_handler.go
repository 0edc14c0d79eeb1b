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

// TicketRequest defines the structure for ticket creation/update requests
type TicketRequest struct {
	ClientID    uint   `json:"client_id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	AssignedTo  *uint  `json:"assigned_to,omitempty"`
}

// CreateTicket opens a new ticket for a client of the current team
func CreateTicket(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("ticket", "create")

	var req TicketRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.Subject == "" || req.ClientID == 0 {
		log.Warn("Incomplete ticket data", zap.String("subject", req.Subject), zap.Uint("client_id", req.ClientID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subject and client_id are required"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	// The client must exist within the same team
	var client model.Client
	if result := database.GetDB().Where("id = ? AND team_id = ?", req.ClientID, actor.TeamID).First(&client); result.Error != nil {
		log.Warn("Ticket references unknown client", zap.Uint("client_id", req.ClientID), zap.Uint("team_id", actor.TeamID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client not found"})
	}

	status := req.Status
	if status == "" {
		status = model.TicketStatusOpen
	}
	priority := req.Priority
	if priority == "" {
		priority = "normal"
	}

	data := audit.Row{
		"client_id":   req.ClientID,
		"subject":     req.Subject,
		"description": req.Description,
		"status":      status,
		"priority":    priority,
	}
	if req.AssignedTo != nil {
		data["assigned_to"] = *req.AssignedTo
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	row, err := audit.CreateWithAudit(c.Request().Context(), model.TableTickets, audit.EntityTicket, data, actor)
	if err != nil {
		log.Error("Failed to create ticket", zap.String("subject", req.Subject), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create ticket"})
	}

	log.Info("Ticket created successfully",
		zap.String("subject", req.Subject),
		zap.Uint("client_id", req.ClientID),
		zap.Uint("team_id", actor.TeamID))
	return c.JSON(http.StatusCreated, row)
}

// GetTicket retrieves a ticket by ID for the current team
func GetTicket(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("ticket", "get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
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

	var ticket model.Ticket
	result := database.GetDB().Where("id = ? AND team_id = ?", id, teamID).First(&ticket)
	if result.Error != nil {
		log.Error("Ticket not found or does not belong to team",
			zap.Uint64("ticket_id", id),
			zap.Uint("team_id", teamID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Ticket not found"})
	}

	return c.JSON(http.StatusOK, ticket)
}

// ListTickets retrieves tickets for the current team with optional filters
func ListTickets(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("ticket", "list")

	teamID, ok := c.Get("team_id").(uint)
	if !ok {
		log.Warn("Missing team_id in context")
		prometheus.TeamContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "team context required"})
	}

	page, limit, offset := parsePagination(c)

	query := database.GetDB().Where("team_id = ?", teamID)

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID := c.QueryParam("client_id"); clientID != "" {
		if cid, err := strconv.ParseUint(clientID, 10, 32); err == nil {
			query = query.Where("client_id = ?", cid)
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var tickets []model.Ticket
	result := query.
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&tickets)
	if result.Error != nil {
		log.Error("Failed to retrieve tickets", zap.Uint("team_id", teamID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve tickets"})
	}

	var total int64
	query.Model(&model.Ticket{}).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"tickets": tickets,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdateTicket updates an existing ticket for the current team
func UpdateTicket(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("ticket", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid ticket ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid ticket ID"})
	}

	var req TicketRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("ticket_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	data := audit.Row{}
	if req.Subject != "" {
		data["subject"] = req.Subject
	}
	if req.Description != "" {
		data["description"] = req.Description
	}
	if req.Status != "" {
		data["status"] = req.Status
	}
	if req.Priority != "" {
		data["priority"] = req.Priority
	}
	if req.AssignedTo != nil {
		data["assigned_to"] = *req.AssignedTo
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	row, err := audit.UpdateWithAudit(c.Request().Context(), model.TableTickets, audit.EntityTicket, uint(id), data, actor)
	if errors.Is(err, audit.ErrNotFound) {
		log.Warn("Ticket not found for update", zap.Uint64("ticket_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Ticket not found"})
	}
	if err != nil {
		log.Error("Failed to update ticket", zap.Uint64("ticket_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update ticket"})
	}

	log.Info("Ticket updated successfully", zap.Uint64("ticket_id", id))
	return c.JSON(http.StatusOK, row)
}

// CloseTicket closes a ticket. Closing is the ticket flavor of soft
// deletion: the row is marked deleted and drops out of listings, and the
// activity feed shows it as closed.
func CloseTicket(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("ticket", "close")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid ticket ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid ticket ID"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	_, err = audit.SoftDeleteWithAudit(c.Request().Context(), model.TableTickets, audit.EntityTicket, uint(id), actor)
	if errors.Is(err, audit.ErrNotFound) {
		log.Warn("Ticket not found for close", zap.Uint64("ticket_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Ticket not found"})
	}
	if err != nil {
		log.Error("Failed to close ticket", zap.Uint64("ticket_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to close ticket"})
	}

	log.Info("Ticket closed successfully", zap.Uint64("ticket_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Ticket closed successfully"})
}
