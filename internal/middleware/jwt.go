package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/docmanager/internal/model"
	"github.com/iliyamo/docmanager/internal/service"
	"github.com/iliyamo/docmanager/internal/utils"
)

// Authenticator resolves a raw bearer token to the current user record.
// *service.AuthService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (model.User, error)
}

// JWTAuth returns an Echo middleware that validates the Bearer access token
// and stores the freshly loaded user in the context.  Handlers read it with
// CurrentUser.  Since the user is re-read on every request, a role change
// applies to tokens issued before it.
func JWTAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := utils.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			u, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				switch {
				case errors.Is(err, utils.ErrTokenMissing):
					return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required"})
				case errors.Is(err, utils.ErrTokenExpired):
					return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Token expired"})
				case errors.Is(err, service.ErrUnauthorized):
					return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token"})
				default:
					return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
				}
			}
			SetUser(c, u)
			return next(c)
		}
	}
}
