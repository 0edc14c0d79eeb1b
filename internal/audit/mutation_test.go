package audit

import (
	"context"
	"testing"

	"helpdesk-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testActor = Actor{UserID: 7, TeamID: 1, IP: "127.0.0.1"}

func countActivity(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.ActivityLog{}).Count(&n).Error)
	return n
}

func lastActivity(t *testing.T, db *gorm.DB) model.ActivityLog {
	t.Helper()
	var row model.ActivityLog
	require.NoError(t, db.Order("id desc").First(&row).Error)
	return row
}

func TestCreateWithAuditStampsSupportedColumns(t *testing.T) {
	db := newTestDB(t)
	registerDeploymentTables()

	row, err := CreateWithAudit(context.Background(), model.TableTimeEntries, EntityTimeEntry, Row{
		"client_id":   1,
		"description": "triage",
		"minutes":     30,
		"billable":    true,
	}, testActor)
	require.NoError(t, err)
	require.NotNil(t, rowID(row))

	var entry model.TimeEntry
	require.NoError(t, db.First(&entry, *rowID(row)).Error)
	assert.Equal(t, uint(1), entry.TeamID)
	assert.Equal(t, uint(7), entry.CreatedBy)
	assert.Equal(t, uint(7), entry.UpdatedBy)
	assert.Nil(t, entry.DeletedBy)
	assert.False(t, entry.CreatedAt.IsZero())

	log := lastActivity(t, db)
	assert.Equal(t, string(ActivityTimeEntryCreated), log.Action)
	assert.Equal(t, string(EntityTimeEntry), log.EntityType)
	assert.Equal(t, uint(1), log.TeamID)
	require.NotNil(t, log.UserID)
	assert.Equal(t, uint(7), *log.UserID)
	require.NotNil(t, log.EntityID)
	assert.Equal(t, entry.ID, *log.EntityID)
	assert.NotNil(t, log.Details["created"])
}

func TestCreateOmitsUnsupportedColumns(t *testing.T) {
	db := newTestDB(t)
	registerDeploymentTables()

	// Tickets have no created_by or updated_by. The insert must succeed
	// with those columns simply left out, not fail on them.
	row, err := CreateWithAudit(context.Background(), model.TableTickets, EntityTicket, Row{
		"client_id": 1,
		"subject":   "printer on fire",
		"status":    model.TicketStatusOpen,
		"priority":  "high",
	}, testActor)
	require.NoError(t, err)

	_, hasCreatedBy := row[ColumnCreatedBy]
	_, hasUpdatedBy := row[ColumnUpdatedBy]
	assert.False(t, hasCreatedBy)
	assert.False(t, hasUpdatedBy)

	var ticket model.Ticket
	require.NoError(t, db.First(&ticket, *rowID(row)).Error)
	assert.Equal(t, "printer on fire", ticket.Subject)

	log := lastActivity(t, db)
	assert.Equal(t, string(ActivityTicketCreated), log.Action)
}

func TestUpdateWithAuditRecordsSnapshots(t *testing.T) {
	db := newTestDB(t)
	registerDeploymentTables()

	row, err := CreateWithAudit(context.Background(), model.TableClients, EntityClient, Row{
		"name":  "Initech",
		"email": "help@initech.example",
	}, testActor)
	require.NoError(t, err)
	id := *rowID(row)

	after, err := UpdateWithAudit(context.Background(), model.TableClients, EntityClient, id, Row{
		"name": "Initech LLC",
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Initech LLC", after["name"])

	log := lastActivity(t, db)
	assert.Equal(t, string(ActivityClientUpdated), log.Action)

	before, ok := log.Details["before"].(map[string]interface{})
	require.True(t, ok)
	snapshot, ok := log.Details["after"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Initech", before["name"])
	assert.Equal(t, "Initech LLC", snapshot["name"])

	changed := ChangedFields(before, snapshot)
	assert.Contains(t, changed, "name")
	assert.NotContains(t, changed, "updated_at")
	assert.NotContains(t, changed, ColumnUpdatedBy)
}

func TestUpdateMissingRowWritesNothing(t *testing.T) {
	db := newTestDB(t)
	registerDeploymentTables()

	_, err := UpdateWithAudit(context.Background(), model.TableClients, EntityClient, 9999, Row{
		"name": "ghost",
	}, testActor)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, countActivity(t, db))
}

func TestUpdateIsTeamScoped(t *testing.T) {
	db := newTestDB(t)
	registerDeploymentTables()

	row, err := CreateWithAudit(context.Background(), model.TableClients, EntityClient, Row{
		"name": "Initech",
	}, testActor)
	require.NoError(t, err)

	intruder := Actor{UserID: 50, TeamID: 2}
	_, err = UpdateWithAudit(context.Background(), model.TableClients, EntityClient, *rowID(row), Row{
		"name": "stolen",
	}, intruder)
	assert.ErrorIs(t, err, ErrNotFound)

	// One activity row from the create, none from the failed update
	assert.Equal(t, int64(1), countActivity(t, db))

	var client model.Client
	require.NoError(t, db.First(&client, *rowID(row)).Error)
	assert.Equal(t, "Initech", client.Name)
}

func TestSoftDeleteMarksAndExcludesRow(t *testing.T) {
	db := newTestDB(t)
	registerDeploymentTables()

	row, err := CreateWithAudit(context.Background(), model.TableTimeEntries, EntityTimeEntry, Row{
		"client_id": 1,
		"minutes":   45,
	}, testActor)
	require.NoError(t, err)
	id := *rowID(row)

	after, err := SoftDeleteWithAudit(context.Background(), model.TableTimeEntries, EntityTimeEntry, id, testActor)
	require.NoError(t, err)
	assert.NotNil(t, after["deleted_at"])

	// The row survives in the table but typed queries stop seeing it
	var count int64
	require.NoError(t, db.Model(&model.TimeEntry{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Unscoped().Model(&model.TimeEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var entry model.TimeEntry
	require.NoError(t, db.Unscoped().First(&entry, id).Error)
	require.NotNil(t, entry.DeletedBy)
	assert.Equal(t, uint(7), *entry.DeletedBy)

	log := lastActivity(t, db)
	assert.Equal(t, string(ActivityTimeEntryDeleted), log.Action)
	deleted, ok := log.Details["deleted"].(map[string]interface{})
	require.True(t, ok)
	assert.NotNil(t, deleted["id"])
}

func TestSoftDeleteTwiceReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	registerDeploymentTables()

	row, err := CreateWithAudit(context.Background(), model.TableExpenses, EntityExpense, Row{
		"client_id":    1,
		"amount_cents": 1200,
		"currency":     "USD",
	}, testActor)
	require.NoError(t, err)
	id := *rowID(row)

	_, err = SoftDeleteWithAudit(context.Background(), model.TableExpenses, EntityExpense, id, testActor)
	require.NoError(t, err)
	logged := countActivity(t, db)

	_, err = SoftDeleteWithAudit(context.Background(), model.TableExpenses, EntityExpense, id, testActor)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, logged, countActivity(t, db))
}

func TestSoftDeleteTicketClassifiedAsClosed(t *testing.T) {
	db := newTestDB(t)
	registerDeploymentTables()

	row, err := CreateWithAudit(context.Background(), model.TableTickets, EntityTicket, Row{
		"client_id": 1,
		"subject":   "slow laptop",
		"status":    model.TicketStatusOpen,
	}, testActor)
	require.NoError(t, err)

	_, err = SoftDeleteWithAudit(context.Background(), model.TableTickets, EntityTicket, *rowID(row), testActor)
	require.NoError(t, err)

	log := lastActivity(t, db)
	assert.Equal(t, string(ActivityTicketClosed), log.Action)
}
