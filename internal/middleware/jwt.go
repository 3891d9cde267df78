package middleware // middleware contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/facility-booking/internal/model"
	"github.com/iliyamo/facility-booking/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ctxAccountID = "user_id"
	ctxRole      = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the account id (uint64) and role (model.Role) in the request
// context.  Handlers read them back with Actor.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			id, role, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(ctxAccountID, id)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}

// Actor returns the authenticated caller, or the zero Actor when JWTAuth did
// not run.
func Actor(c echo.Context) model.Actor {
	id, _ := c.Get(ctxAccountID).(uint64)
	role, _ := c.Get(ctxRole).(model.Role)
	return model.Actor{ID: id, Role: role}
}
