package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/docmanager/internal/model"
	"github.com/iliyamo/docmanager/internal/service"
)

// RequireRole returns a middleware that lets the request through only when
// the user stored by JWTAuth has one of roles.  It must run after JWTAuth;
// a request without a user is treated as unauthenticated.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required"})
			}
			if err := service.Authorize(u, roles...); err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Access denied"})
			}
			return next(c)
		}
	}
}
