package handler

import (
	"net/http"
	"time"

	"helpdesk-service/internal/audit"
	"helpdesk-service/internal/model"
	"helpdesk-service/pkg/database"
	"helpdesk-service/pkg/logger"
	"helpdesk-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateTeam handles team creation. The team row, the owner membership and
// the user's default-team pointer are written in one transaction; the feed
// entry is recorded after the commit.
func CreateTeam(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("team", "create")

	// Get user ID from context (set by AuthMiddleware)
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Name string `json:"name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse team creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		log.Error("Invalid team data", zap.String("name", req.Name))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	team := model.Team{
		Name:    req.Name,
		OwnerID: userID,
		Active:  true,
	}

	if result := tx.Create(&team); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create team", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "team creation failed"})
	}

	// The creator joins as owner and gets this team as their default
	member := model.TeamMember{
		UserID:    userID,
		TeamID:    team.ID,
		Role:      "owner",
		IsDefault: true,
		Active:    true,
	}

	if result := tx.Create(&member); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create team membership", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "team membership failed"})
	}

	if result := tx.Model(&model.User{}).Where("id = ?", userID).Update("team_id", team.ID); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to update user's default team", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user update failed"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	_ = audit.Record(c.Request().Context(), audit.Entry{
		TeamID:     team.ID,
		UserID:     audit.UserRef(userID),
		Action:     audit.ActivityTeamCreated,
		EntityType: audit.EntityTeam,
		EntityID:   &team.ID,
		IP:         c.RealIP(),
		Details:    map[string]interface{}{"created": map[string]interface{}{"id": team.ID, "name": team.Name}},
	})

	log.Info("Team created",
		zap.String("name", team.Name),
		zap.Uint("id", team.ID),
		zap.Uint("owner_id", team.OwnerID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Team created successfully",
		"team":    team,
	})
}

// AddTeamMember adds a user to the caller's team by email. Only owners and
// admins may add members.
func AddTeamMember(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("team", "add_member")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	teamID, ok := c.Get("team_id").(uint)
	if !ok {
		log.Warn("Missing team_id in context")
		prometheus.TeamContextMissingCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "team context required"})
	}

	var req struct {
		UserEmail string `json:"user_email"`
		Role      string `json:"role,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse add member request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.UserEmail == "" {
		log.Error("Invalid request data", zap.String("user_email", req.UserEmail))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_email is required"})
	}

	if req.Role == "" {
		req.Role = "member"
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	// Verify the requesting user may add members to this team
	var requester model.TeamMember
	result := database.GetDB().Where("user_id = ? AND team_id = ? AND role IN ('owner', 'admin')", userID, teamID).First(&requester)
	if result.Error != nil {
		log.Warn("Unauthorized attempt to add team member",
			zap.Uint("requesting_user_id", userID),
			zap.Uint("team_id", teamID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	var user model.User
	if result := database.GetDB().Where("email = ?", req.UserEmail).First(&user); result.Error != nil {
		log.Error("User not found", zap.String("email", req.UserEmail))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	// Existing members get a role update instead of a duplicate row
	var existing model.TeamMember
	result = database.GetDB().Where("user_id = ? AND team_id = ?", user.ID, teamID).First(&existing)
	if result.Error == nil {
		if existing.Role != req.Role {
			existing.Role = req.Role
			if err := database.GetDB().Save(&existing).Error; err != nil {
				log.Error("Failed to update member role", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update member role"})
			}
			log.Info("Updated member role",
				zap.Uint("team_id", teamID),
				zap.String("user_email", req.UserEmail),
				zap.String("role", req.Role))
		}

		return c.JSON(http.StatusOK, echo.Map{
			"message": "Member role updated",
			"member":  existing,
		})
	}

	member := model.TeamMember{
		UserID:    user.ID,
		TeamID:    teamID,
		Role:      req.Role,
		IsDefault: false,
		Active:    true,
	}

	if err := database.GetDB().Create(&member).Error; err != nil {
		log.Error("Failed to add team member", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add team member"})
	}

	_ = audit.Record(c.Request().Context(), audit.Entry{
		TeamID:     teamID,
		UserID:     audit.UserRef(userID),
		Action:     audit.ActivityTeamMemberAdded,
		EntityType: audit.EntityUser,
		EntityID:   &user.ID,
		IP:         c.RealIP(),
		Details:    map[string]interface{}{"created": map[string]interface{}{"user_id": user.ID, "email": user.Email, "role": req.Role}},
	})

	log.Info("Added team member",
		zap.Uint("team_id", teamID),
		zap.String("user_email", req.UserEmail),
		zap.String("role", req.Role))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Member added successfully",
		"member":  member,
	})
}

// ListMyTeams retrieves all teams the authenticated user belongs to
func ListMyTeams(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("team", "list")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var memberships []model.TeamMember
	if result := database.GetDB().Preload("Team").Where("user_id = ? AND active = ?", userID, true).Find(&memberships); result.Error != nil {
		log.Error("Failed to retrieve user's teams", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve teams"})
	}

	type TeamResponse struct {
		ID        uint      `json:"id"`
		Name      string    `json:"name"`
		Role      string    `json:"role"`
		IsDefault bool      `json:"is_default"`
		CreatedAt time.Time `json:"created_at"`
	}

	response := make([]TeamResponse, 0, len(memberships))
	for _, m := range memberships {
		response = append(response, TeamResponse{
			ID:        m.TeamID,
			Name:      m.Team.Name,
			Role:      m.Role,
			IsDefault: m.IsDefault,
			CreatedAt: m.Team.CreatedAt,
		})
	}

	return c.JSON(http.StatusOK, response)
}
