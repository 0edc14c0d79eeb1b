package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"helpdesk-service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

var jwtConfig *config.JWTConfig

// TeamClaims extends jwt.RegisteredClaims to include team information
type TeamClaims struct {
	Email    string `json:"email"`
	UserID   uint   `json:"user_id"`
	TeamID   *uint  `json:"team_id,omitempty"`
	TeamName string `json:"team_name,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Initialize sets up the JWT utility with configuration
func Initialize(config *config.JWTConfig) {
	jwtConfig = config
}

// GenerateToken creates a new JWT token for a user without team context
func GenerateToken(email string, userID uint) (string, error) {
	return generateTokenWithClaims(email, userID, nil, "", "")
}

// GenerateTokenWithTeam creates a new JWT token with team context
func GenerateTokenWithTeam(email string, userID uint, teamID *uint, teamName, role string) (string, error) {
	return generateTokenWithClaims(email, userID, teamID, teamName, role)
}

// generateTokenWithClaims is a helper function that creates a token with the given claims
func generateTokenWithClaims(email string, userID uint, teamID *uint, teamName, role string) (string, error) {
	if jwtConfig == nil {
		return "", errors.New("JWT configuration not initialized")
	}

	signingKey := jwtConfig.SigningKey
	expirationHours := jwtConfig.ExpirationHours

	claims := &TeamClaims{
		Email:    email,
		UserID:   userID,
		TeamID:   teamID,
		TeamName: teamName,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(signingKey))
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*TeamClaims, error) {
	if jwtConfig == nil {
		return nil, errors.New("JWT configuration not initialized")
	}

	signingKey := jwtConfig.SigningKey

	token, err := jwt.ParseWithClaims(
		tokenString,
		&TeamClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(signingKey), nil
		},
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*TeamClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
