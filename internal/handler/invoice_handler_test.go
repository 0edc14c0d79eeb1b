package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"helpdesk-service/internal/audit"
	"helpdesk-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedBillableWork(t *testing.T, db *gorm.DB) uint {
	t.Helper()

	client := model.Client{TeamID: 1, Name: "Initech", HourlyRateCents: 12000}
	require.NoError(t, db.Create(&client).Error)

	require.NoError(t, db.Create(&model.TimeEntry{
		TeamID: 1, ClientID: client.ID, Minutes: 90, Billable: true,
	}).Error)
	require.NoError(t, db.Create(&model.TimeEntry{
		TeamID: 1, ClientID: client.ID, Minutes: 60, Billable: false,
	}).Error)
	require.NoError(t, db.Create(&model.Expense{
		TeamID: 1, ClientID: client.ID, AmountCents: 2500, Currency: "USD", Billable: true,
	}).Error)

	return client.ID
}

func TestCreateInvoiceBillsUnbilledWork(t *testing.T) {
	db := setupTest(t)
	clientID := seedBillableWork(t, db)

	c, rec := request(http.MethodPost, "/api/invoices",
		`{"client_id":`+jsonUint(clientID)+`}`, 7, 1)
	require.NoError(t, CreateInvoice(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var invoice model.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoice))

	// 90 billable minutes at $120/h plus the $25 expense
	assert.Equal(t, int64(18000+2500), invoice.TotalCents)
	assert.Equal(t, model.InvoiceStatusDraft, invoice.Status)
	assert.NotEmpty(t, invoice.Number)

	// Billable lines are claimed by the invoice, non-billable ones stay free
	var billed int64
	require.NoError(t, db.Model(&model.TimeEntry{}).Where("invoice_id = ?", invoice.ID).Count(&billed).Error)
	assert.Equal(t, int64(1), billed)
	var free int64
	require.NoError(t, db.Model(&model.TimeEntry{}).Where("invoice_id IS NULL").Count(&free).Error)
	assert.Equal(t, int64(1), free)

	var logRow model.ActivityLog
	require.NoError(t, db.Where("action = ?", string(audit.ActivityInvoiceCreated)).First(&logRow).Error)
	require.NotNil(t, logRow.EntityID)
	assert.Equal(t, invoice.ID, *logRow.EntityID)
}

func TestCreateInvoiceWithNothingToBill(t *testing.T) {
	db := setupTest(t)

	client := model.Client{TeamID: 1, Name: "Initech"}
	require.NoError(t, db.Create(&client).Error)

	c, rec := request(http.MethodPost, "/api/invoices",
		`{"client_id":`+jsonUint(client.ID)+`}`, 7, 1)
	require.NoError(t, CreateInvoice(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Nothing committed, nothing journaled
	var invoices int64
	require.NoError(t, db.Model(&model.Invoice{}).Count(&invoices).Error)
	assert.Zero(t, invoices)
	var logs int64
	require.NoError(t, db.Model(&model.ActivityLog{}).Count(&logs).Error)
	assert.Zero(t, logs)
}

func TestCreateInvoiceForForeignClientFails(t *testing.T) {
	db := setupTest(t)
	clientID := seedBillableWork(t, db)

	c, rec := request(http.MethodPost, "/api/invoices",
		`{"client_id":`+jsonUint(clientID)+`}`, 50, 2)
	require.NoError(t, CreateInvoice(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func jsonUint(v uint) string {
	b, _ := json.Marshal(v)
	return string(b)
}
