package handler

import (
	"errors"
	"fmt"
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
	"gorm.io/gorm"
)

var errNothingToInvoice = errors.New("no unbilled items to invoice")

// InvoiceRequest defines the structure for invoice creation requests
type InvoiceRequest struct {
	ClientID uint       `json:"client_id"`
	Currency string     `json:"currency"`
	DueAt    *time.Time `json:"due_at,omitempty"`
}

// CreateInvoice builds an invoice from a client's unbilled billable time
// entries and expenses. The invoice insert and the marking of its lines
// happen in one transaction; the activity record is written after the
// transaction commits, so a rolled-back invoice never appears in the feed.
func CreateInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("invoice", "create")

	var req InvoiceRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.ClientID == 0 {
		log.Warn("Invoice client_id is required")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_id is required"})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	// The client must exist within the same team
	var client model.Client
	if result := database.GetDB().Where("id = ? AND team_id = ?", req.ClientID, actor.TeamID).First(&client); result.Error != nil {
		log.Warn("Invoice references unknown client", zap.Uint("client_id", req.ClientID), zap.Uint("team_id", actor.TeamID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client not found"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var invoice model.Invoice
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var entries []model.TimeEntry
		if err := tx.Where("team_id = ? AND client_id = ? AND invoice_id IS NULL AND billable = ?",
			actor.TeamID, req.ClientID, true).Find(&entries).Error; err != nil {
			return err
		}

		var expenses []model.Expense
		if err := tx.Where("team_id = ? AND client_id = ? AND invoice_id IS NULL AND billable = ?",
			actor.TeamID, req.ClientID, true).Find(&expenses).Error; err != nil {
			return err
		}

		if len(entries) == 0 && len(expenses) == 0 {
			return errNothingToInvoice
		}

		var total int64
		var minutes int64
		for _, e := range entries {
			minutes += int64(e.Minutes)
		}
		total += minutes * client.HourlyRateCents / 60
		for _, e := range expenses {
			total += e.AmountCents
		}

		var count int64
		if err := tx.Model(&model.Invoice{}).Where("team_id = ?", actor.TeamID).Count(&count).Error; err != nil {
			return err
		}

		now := time.Now()
		invoice = model.Invoice{
			TeamID:     actor.TeamID,
			ClientID:   req.ClientID,
			Number:     fmt.Sprintf("INV-%d-%04d", actor.TeamID, count+1),
			Status:     model.InvoiceStatusDraft,
			TotalCents: total,
			Currency:   currency,
			IssuedAt:   &now,
			DueAt:      req.DueAt,
			CreatedBy:  actor.UserID,
			UpdatedBy:  actor.UserID,
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}

		if len(entries) > 0 {
			if err := tx.Model(&model.TimeEntry{}).
				Where("team_id = ? AND client_id = ? AND invoice_id IS NULL AND billable = ?",
					actor.TeamID, req.ClientID, true).
				Update("invoice_id", invoice.ID).Error; err != nil {
				return err
			}
		}
		if len(expenses) > 0 {
			if err := tx.Model(&model.Expense{}).
				Where("team_id = ? AND client_id = ? AND invoice_id IS NULL AND billable = ?",
					actor.TeamID, req.ClientID, true).
				Update("invoice_id", invoice.ID).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err == errNothingToInvoice {
		log.Warn("No unbilled items to invoice", zap.Uint("client_id", req.ClientID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no unbilled items to invoice"})
	}
	if err != nil {
		log.Error("Failed to create invoice", zap.Uint("client_id", req.ClientID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create invoice"})
	}

	// Journal after commit: a failed audit write does not undo the invoice
	_ = audit.Record(c.Request().Context(), audit.Entry{
		TeamID:     actor.TeamID,
		UserID:     audit.UserRef(actor.UserID),
		Action:     audit.ActivityInvoiceCreated,
		EntityType: audit.EntityInvoice,
		EntityID:   &invoice.ID,
		IP:         actor.IP,
		Details: map[string]interface{}{"created": map[string]interface{}{
			"id":          invoice.ID,
			"number":      invoice.Number,
			"client_id":   invoice.ClientID,
			"status":      invoice.Status,
			"total_cents": invoice.TotalCents,
			"currency":    invoice.Currency,
		}},
	})

	log.Info("Invoice created successfully",
		zap.Uint("invoice_id", invoice.ID),
		zap.String("number", invoice.Number),
		zap.Uint("client_id", req.ClientID),
		zap.Uint("team_id", actor.TeamID))
	return c.JSON(http.StatusCreated, invoice)
}

// GetInvoice retrieves an invoice by ID for the current team
func GetInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("invoice", "get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}

	teamID, ok := c.Get("team_id").(uint)
	if !ok {
		log.Warn("Missing team_id in context")
		prometheus.TeamContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "team context required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoice model.Invoice
	result := database.GetDB().Where("id = ? AND team_id = ?", id, teamID).First(&invoice)
	if result.Error != nil {
		log.Error("Invoice not found or does not belong to team",
			zap.Uint64("invoice_id", id),
			zap.Uint("team_id", teamID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
	}

	return c.JSON(http.StatusOK, invoice)
}

// ListInvoices retrieves invoices for the current team
func ListInvoices(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("invoice", "list")

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

	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoices []model.Invoice
	result := query.
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&invoices)
	if result.Error != nil {
		log.Error("Failed to retrieve invoices", zap.Uint("team_id", teamID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve invoices"})
	}

	var total int64
	query.Model(&model.Invoice{}).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"invoices": invoices,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}
