package audit

import (
	"context"
	"testing"

	"helpdesk-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWritesOneRow(t *testing.T) {
	db := newTestDB(t)

	id := uint(3)
	err := Record(context.Background(), Entry{
		TeamID:     1,
		UserID:     UserRef(7),
		Action:     ActivityUserLogin,
		EntityType: EntityUser,
		EntityID:   &id,
		IP:         "10.0.0.1",
	})
	require.NoError(t, err)

	var row model.ActivityLog
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, string(ActivityUserLogin), row.Action)
	assert.Equal(t, uint(1), row.TeamID)
	assert.Equal(t, "10.0.0.1", row.IPAddress)
}

func TestRecordDropsTeamlessEntries(t *testing.T) {
	db := newTestDB(t)

	err := Record(context.Background(), Entry{
		UserID: UserRef(7),
		Action: ActivityUserRegistered,
	})
	require.NoError(t, err)

	assert.Zero(t, countActivity(t, db))
}

func TestUserRef(t *testing.T) {
	assert.Nil(t, UserRef(0))

	ref := UserRef(42)
	require.NotNil(t, ref)
	assert.Equal(t, uint(42), *ref)
}
