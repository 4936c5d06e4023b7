package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/docmanager/internal/model"
)

// userKey is the echo context key JWTAuth stores the caller under.
const userKey = "user"

// SetUser stores the authenticated caller on the request context.
func SetUser(c echo.Context, u model.User) { c.Set(userKey, u) }

// CurrentUser returns the caller stored by JWTAuth.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userKey).(model.User)
	return u, ok
}
