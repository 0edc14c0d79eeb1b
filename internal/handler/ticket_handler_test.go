package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"helpdesk-service/internal/audit"
	"helpdesk-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestTicket(t *testing.T, clientID uint, subject string) uint {
	t.Helper()

	c, rec := request(http.MethodPost, "/api/tickets",
		`{"client_id":`+jsonUint(clientID)+`,"subject":"`+subject+`"}`, 7, 1)
	require.NoError(t, CreateTicket(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var row map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	return uint(row["id"].(float64))
}

func TestCreateTicketValidatesClient(t *testing.T) {
	setupTest(t)

	c, rec := request(http.MethodPost, "/api/tickets",
		`{"client_id":42,"subject":"no such client"}`, 7, 1)
	require.NoError(t, CreateTicket(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTicketAppliesDefaults(t *testing.T) {
	db := setupTest(t)
	clientID := createTestClient(t, 7, 1, "Initech")

	id := createTestTicket(t, clientID, "printer on fire")

	var ticket model.Ticket
	require.NoError(t, db.First(&ticket, id).Error)
	assert.Equal(t, model.TicketStatusOpen, ticket.Status)
	assert.Equal(t, "normal", ticket.Priority)
}

func TestCloseTicketShowsAsClosedInFeed(t *testing.T) {
	db := setupTest(t)
	clientID := createTestClient(t, 7, 1, "Initech")
	id := createTestTicket(t, clientID, "printer on fire")

	c, rec := request(http.MethodDelete, "/api/tickets/"+strconv.Itoa(int(id)), "", 7, 1)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(id)))
	require.NoError(t, CloseTicket(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Closed tickets drop out of the listing
	var open int64
	require.NoError(t, db.Model(&model.Ticket{}).Count(&open).Error)
	assert.Zero(t, open)

	var logRow model.ActivityLog
	require.NoError(t, db.Where("action = ?", string(audit.ActivityTicketClosed)).First(&logRow).Error)
	require.NotNil(t, logRow.EntityID)
	assert.Equal(t, id, *logRow.EntityID)
}

func TestCommentLifecycleOnTicket(t *testing.T) {
	db := setupTest(t)
	clientID := createTestClient(t, 7, 1, "Initech")
	ticketID := createTestTicket(t, clientID, "printer on fire")

	c, rec := request(http.MethodPost, "/api/tickets/"+strconv.Itoa(int(ticketID))+"/comments",
		`{"body":"looked at it, still on fire","internal":true}`, 7, 1)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(ticketID)))
	require.NoError(t, CreateComment(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var comment model.Comment
	require.NoError(t, db.First(&comment).Error)
	assert.Equal(t, ticketID, comment.TicketID)
	assert.True(t, comment.Internal)
	assert.Equal(t, uint(7), comment.CreatedBy)

	var logRow model.ActivityLog
	require.NoError(t, db.Where("action = ?", string(audit.ActivityCommentAdded)).First(&logRow).Error)
	assert.Equal(t, uint(1), logRow.TeamID)
}

func TestCreateCommentOnForeignTicketFails(t *testing.T) {
	setupTest(t)
	clientID := createTestClient(t, 7, 1, "Initech")
	ticketID := createTestTicket(t, clientID, "printer on fire")

	c, rec := request(http.MethodPost, "/api/tickets/"+strconv.Itoa(int(ticketID))+"/comments",
		`{"body":"sneaky"}`, 50, 2)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(ticketID)))
	require.NoError(t, CreateComment(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
