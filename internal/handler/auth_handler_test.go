package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"helpdesk-service/internal/audit"
	"helpdesk-service/internal/model"
	"helpdesk-service/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func registerTestUser(t *testing.T, email string) {
	t.Helper()
	c, rec := request(http.MethodPost, "/auth/register",
		`{"email":"`+email+`","password":"hunter22","name":"Test User"}`, 0, 0)
	require.NoError(t, Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupTest(t)

	registerTestUser(t, "agent@example.test")

	// Password is stored hashed
	var user model.User
	require.NoError(t, db.First(&user).Error)
	assert.NotEqual(t, "hunter22", user.Password)

	c, rec := request(http.MethodPost, "/auth/login",
		`{"email":"agent@example.test","password":"hunter22"}`, 0, 0)
	require.NoError(t, Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	claims, err := jwtutil.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "agent@example.test", claims.Email)
	assert.Nil(t, claims.TeamID)

	// No team yet, so nothing lands in any feed
	var logs int64
	require.NoError(t, db.Model(&model.ActivityLog{}).Count(&logs).Error)
	assert.Zero(t, logs)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	setupTest(t)
	registerTestUser(t, "agent@example.test")

	c, rec := request(http.MethodPost, "/auth/login",
		`{"email":"agent@example.test","password":"wrong"}`, 0, 0)
	require.NoError(t, Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	setupTest(t)
	registerTestUser(t, "agent@example.test")

	c, rec := request(http.MethodPost, "/auth/register",
		`{"email":"agent@example.test","password":"other"}`, 0, 0)
	require.NoError(t, Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func seedMembership(t *testing.T, db *gorm.DB, userID uint, teamName string) uint {
	t.Helper()
	team := model.Team{Name: teamName, OwnerID: userID, Active: true}
	require.NoError(t, db.Create(&team).Error)
	require.NoError(t, db.Create(&model.TeamMember{
		UserID: userID, TeamID: team.ID, Role: "owner", IsDefault: true, Active: true,
	}).Error)
	return team.ID
}

func TestLoginWithDefaultTeamRecordsActivity(t *testing.T) {
	db := setupTest(t)
	registerTestUser(t, "agent@example.test")

	var user model.User
	require.NoError(t, db.First(&user).Error)
	teamID := seedMembership(t, db, user.ID, "Support Crew")
	require.NoError(t, db.Model(&user).Update("team_id", teamID).Error)

	c, rec := request(http.MethodPost, "/auth/login",
		`{"email":"agent@example.test","password":"hunter22"}`, 0, 0)
	require.NoError(t, Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	claims, err := jwtutil.ValidateToken(resp.Token)
	require.NoError(t, err)
	require.NotNil(t, claims.TeamID)
	assert.Equal(t, teamID, *claims.TeamID)
	assert.Equal(t, "Support Crew", claims.TeamName)
	assert.Equal(t, "owner", claims.Role)

	var logRow model.ActivityLog
	require.NoError(t, db.First(&logRow).Error)
	assert.Equal(t, string(audit.ActivityUserLogin), logRow.Action)
	assert.Equal(t, teamID, logRow.TeamID)
}

func TestSelectTeamRequiresMembership(t *testing.T) {
	db := setupTest(t)
	registerTestUser(t, "agent@example.test")

	var user model.User
	require.NoError(t, db.First(&user).Error)
	teamID := seedMembership(t, db, user.ID, "Support Crew")

	// Member: token reissued with team claims
	c, rec := request(http.MethodPost, "/api/auth/select-team",
		`{"team_id":`+jsonUint(teamID)+`}`, user.ID, 0)
	require.NoError(t, SelectTeam(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	claims, err := jwtutil.ValidateToken(resp.Token)
	require.NoError(t, err)
	require.NotNil(t, claims.TeamID)
	assert.Equal(t, teamID, *claims.TeamID)

	// Not a member of team 999
	c, rec = request(http.MethodPost, "/api/auth/select-team", `{"team_id":999}`, user.ID, 0)
	require.NoError(t, SelectTeam(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
