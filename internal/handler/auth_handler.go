package handler

import (
	"net/http"
	"time"

	"helpdesk-service/internal/audit"
	"helpdesk-service/internal/model"
	"helpdesk-service/pkg/database"
	"helpdesk-service/pkg/jwtutil"
	"helpdesk-service/pkg/logger"
	"helpdesk-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AuthAttemptsCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		log.Error("Invalid registration data",
			zap.String("email", req.Email),
			zap.Bool("password_provided", req.Password != ""))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	// Check if user already exists - track DB query
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existingUser model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&existingUser)
	if result.Error == nil {
		log.Error("User already exists", zap.String("email", req.Email))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	// Create new user
	user := model.User{
		Email:    req.Email,
		Password: string(hashedPassword),
		Name:     req.Name,
	}

	// Save to database - track DB insert operation
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	// A fresh registration belongs to no team yet, so no feed entry is
	// written here; Record drops team-less entries anyway.
	prometheus.AuthSuccessCounter.Inc()
	log.Info("User registered", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AuthAttemptsCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		TeamID   *uint  `json:"team_id,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// Find user in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Verify password
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password))
	if err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Resolve team context: an explicit team in the request wins, then the
	// user's default team. A user with neither gets a team-less token and
	// must select a team before touching team-scoped routes.
	var selectedTeamID *uint
	var teamName string
	var userRole string

	if req.TeamID != nil {
		var member model.TeamMember
		result := database.GetDB().Where("user_id = ? AND team_id = ? AND active = ?", user.ID, *req.TeamID, true).First(&member)
		if result.Error != nil {
			log.Error("User does not have access to the specified team",
				zap.String("email", req.Email),
				zap.Uint("team_id", *req.TeamID))
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied to the specified team"})
		}

		var team model.Team
		if result := database.GetDB().Select("name").First(&team, *req.TeamID); result.Error == nil {
			teamName = team.Name
		}

		selectedTeamID = req.TeamID
		userRole = member.Role
	} else if user.TeamID != nil {
		selectedTeamID = user.TeamID

		var team model.Team
		if result := database.GetDB().Select("name").First(&team, *user.TeamID); result.Error == nil {
			teamName = team.Name
		}

		var member model.TeamMember
		if result := database.GetDB().Select("role").Where("user_id = ? AND team_id = ?", user.ID, *user.TeamID).First(&member); result.Error == nil {
			userRole = member.Role
		}
	}

	// Generate JWT token with team information if available
	var token string
	if selectedTeamID != nil {
		token, err = jwtutil.GenerateTokenWithTeam(user.Email, user.ID, selectedTeamID, teamName, userRole)
	} else {
		token, err = jwtutil.GenerateToken(user.Email, user.ID)
	}

	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.AuthSuccessCounter.Inc()

	if selectedTeamID != nil {
		_ = audit.Record(c.Request().Context(), audit.Entry{
			TeamID:     *selectedTeamID,
			UserID:     audit.UserRef(user.ID),
			Action:     audit.ActivityUserLogin,
			EntityType: audit.EntityUser,
			EntityID:   &user.ID,
			IP:         c.RealIP(),
		})

		log.Info("User logged in with team context",
			zap.String("email", user.Email),
			zap.Uint("team_id", *selectedTeamID),
			zap.String("team_name", teamName),
			zap.String("role", userRole))
	} else {
		log.Info("User logged in without team context", zap.String("email", user.Email))
	}

	// Build response with team info if available
	response := echo.Map{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	}

	if selectedTeamID != nil {
		response["team"] = map[string]interface{}{
			"id":   *selectedTeamID,
			"name": teamName,
			"role": userRole,
		}
	}

	return c.JSON(http.StatusOK, response)
}

// SelectTeam reissues the caller's token with a different team context.
// The caller must be an active member of the requested team.
func SelectTeam(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	email, _ := c.Get("email").(string)

	var req struct {
		TeamID uint `json:"team_id"`
	}
	if err := c.Bind(&req); err != nil || req.TeamID == 0 {
		log.Error("Invalid team selection request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "team_id is required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var member model.TeamMember
	result := database.GetDB().Where("user_id = ? AND team_id = ? AND active = ?", userID, req.TeamID, true).First(&member)
	if result.Error != nil {
		log.Error("User is not a member of the requested team",
			zap.Uint("user_id", userID),
			zap.Uint("team_id", req.TeamID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied to the specified team"})
	}

	var team model.Team
	if result := database.GetDB().First(&team, req.TeamID); result.Error != nil {
		log.Error("Team not found", zap.Uint("team_id", req.TeamID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "team not found"})
	}

	token, err := jwtutil.GenerateTokenWithTeam(email, userID, &req.TeamID, team.Name, member.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	_ = audit.Record(c.Request().Context(), audit.Entry{
		TeamID:     req.TeamID,
		UserID:     audit.UserRef(userID),
		Action:     audit.ActivityUserLogin,
		EntityType: audit.EntityUser,
		EntityID:   &userID,
		IP:         c.RealIP(),
	})

	log.Info("User switched team context",
		zap.Uint("user_id", userID),
		zap.Uint("team_id", req.TeamID),
		zap.String("team_name", team.Name))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"team": map[string]interface{}{
			"id":   team.ID,
			"name": team.Name,
			"role": member.Role,
		},
	})
}

func MetricsHandler(c echo.Context) error {
	handler := prometheus.GetPrometheusHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
