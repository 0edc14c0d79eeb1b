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

// ExpenseRequest defines the structure for expense creation/update requests
type ExpenseRequest struct {
	ClientID    uint       `json:"client_id"`
	TicketID    *uint      `json:"ticket_id,omitempty"`
	Description string     `json:"description"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	Date        *time.Time `json:"date,omitempty"`
	Billable    *bool      `json:"billable,omitempty"`
}

// CreateExpense records an expense for a client of the current team
func CreateExpense(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("expense", "create")

	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.ClientID == 0 || req.AmountCents <= 0 {
		log.Warn("Incomplete expense data", zap.Uint("client_id", req.ClientID), zap.Int64("amount_cents", req.AmountCents))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_id and positive amount_cents are required"})
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
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	data := audit.Row{
		"client_id":    req.ClientID,
		"description":  req.Description,
		"amount_cents": req.AmountCents,
		"currency":     currency,
		"date":         date,
		"billable":     billable,
	}
	if req.TicketID != nil {
		data["ticket_id"] = *req.TicketID
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	row, err := audit.CreateWithAudit(c.Request().Context(), model.TableExpenses, audit.EntityExpense, data, actor)
	if err != nil {
		log.Error("Failed to create expense", zap.Uint("client_id", req.ClientID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create expense"})
	}

	log.Info("Expense created successfully",
		zap.Uint("client_id", req.ClientID),
		zap.Int64("amount_cents", req.AmountCents),
		zap.Uint("team_id", actor.TeamID))
	return c.JSON(http.StatusCreated, row)
}

// ListExpenses retrieves expenses for the current team
func ListExpenses(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("expense", "list")

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

	var expenses []model.Expense
	result := query.
		Order("date desc").
		Limit(limit).
		Offset(offset).
		Find(&expenses)
	if result.Error != nil {
		log.Error("Failed to retrieve expenses", zap.Uint("team_id", teamID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve expenses"})
	}

	var total int64
	query.Model(&model.Expense{}).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"expenses": expenses,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdateExpense updates an existing expense for the current team
func UpdateExpense(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("expense", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid expense ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid expense ID"})
	}

	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("expense_id", id), zap.Error(err))
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
	if req.AmountCents > 0 {
		data["amount_cents"] = req.AmountCents
	}
	if req.Currency != "" {
		data["currency"] = req.Currency
	}
	if req.Date != nil {
		data["date"] = *req.Date
	}
	if req.Billable != nil {
		data["billable"] = *req.Billable
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	row, err := audit.UpdateWithAudit(c.Request().Context(), model.TableExpenses, audit.EntityExpense, uint(id), data, actor)
	if errors.Is(err, audit.ErrNotFound) {
		log.Warn("Expense not found for update", zap.Uint64("expense_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Expense not found"})
	}
	if err != nil {
		log.Error("Failed to update expense", zap.Uint64("expense_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update expense"})
	}

	log.Info("Expense updated successfully", zap.Uint64("expense_id", id))
	return c.JSON(http.StatusOK, row)
}

// DeleteExpense handles deleting an expense (soft delete)
func DeleteExpense(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("expense", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid expense ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid expense ID"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	_, err = audit.SoftDeleteWithAudit(c.Request().Context(), model.TableExpenses, audit.EntityExpense, uint(id), actor)
	if errors.Is(err, audit.ErrNotFound) {
		log.Warn("Expense not found for delete", zap.Uint64("expense_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Expense not found"})
	}
	if err != nil {
		log.Error("Failed to delete expense", zap.Uint64("expense_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete expense"})
	}

	log.Info("Expense deleted successfully", zap.Uint64("expense_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Expense deleted successfully"})
}
