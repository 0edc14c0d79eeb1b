package middleware

import (
	"net/http"
	"strings"

	"helpdesk-service/pkg/jwtutil"
	"helpdesk-service/pkg/logger"
	"helpdesk-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware verifies the JWT token and extracts claims
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Track authentication attempts
		prometheus.AuthAttemptsCounter.Inc()

		// Extract the token from the Authorization header
		tokenString := c.Request().Header.Get("Authorization")
		if tokenString == "" {
			log.Warn("Missing authorization token")
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		// Remove "Bearer " prefix if present
		if len(tokenString) > 7 && strings.ToUpper(tokenString[0:7]) == "BEARER " {
			tokenString = tokenString[7:]
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Invalid token", zap.Error(err))
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}

		// Increment successful auth counter
		prometheus.AuthSuccessCounter.Inc()

		// Store user information in the context
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)

		// If token has team context, store it in the context
		if claims.TeamID != nil {
			c.Set("team_id", *claims.TeamID)
			c.Set("team_name", claims.TeamName)
			c.Set("role", claims.Role)

			// Add team info to logger
			log = log.With(
				zap.Uint("team_id", *claims.TeamID),
				zap.String("team_name", claims.TeamName),
				zap.String("role", claims.Role),
			)
		}

		// Update logger with user information
		log = log.With(
			zap.Uint("user_id", claims.UserID),
			zap.String("email", claims.Email),
		)
		c.Set("logger", log)

		// Call the next handler
		return next(c)
	}
}

// RequireTeamContext ensures the request has team context in the JWT
func RequireTeamContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Check if team_id exists in context
		teamID, ok := c.Get("team_id").(uint)
		if !ok || teamID == 0 {
			log.Warn("Missing team context")
			prometheus.TeamContextMissingCounter.Inc()
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":   "team context required",
				"message": "Please select a team before accessing this resource",
			})
		}

		// Team context exists, proceed
		return next(c)
	}
}
