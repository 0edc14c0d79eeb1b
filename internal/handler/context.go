package handler

import (
	"strconv"

	"helpdesk-service/internal/audit"

	"github.com/labstack/echo/v4"
)

// actorFromContext builds the audit actor for the current request from
// the claims placed in the context by the auth middleware. The second
// return value is false when the request is unauthenticated.
func actorFromContext(c echo.Context) (audit.Actor, bool) {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return audit.Actor{}, false
	}

	teamID, _ := c.Get("team_id").(uint)

	return audit.Actor{
		UserID: userID,
		TeamID: teamID,
		IP:     c.RealIP(),
	}, true
}

// parsePagination reads page/limit query parameters with the service
// defaults applied.
func parsePagination(c echo.Context) (page, limit, offset int) {
	page = queryInt(c, "page", 1)
	if page <= 0 {
		page = 1
	}

	limit = queryInt(c, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	offset = (page - 1) * limit
	return page, limit, offset
}

func queryInt(c echo.Context, name string, defaultValue int) int {
	value, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return defaultValue
	}
	return value
}
