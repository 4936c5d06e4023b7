package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/docmanager/internal/service"
)

// errorBody is the shape of every error response.
type errorBody struct {
	Message string               `json:"message"`
	Errors  []service.FieldError `json:"errors,omitempty"`
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorBody{Message: msg})
}

// writeError maps service errors to HTTP responses.  notFound and
// internalMsg are the route-specific messages for those two cases; the
// detail of internal errors never reaches the client.
func writeError(c echo.Context, err error, notFound, internalMsg string) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorBody{Message: "Validation failed", Errors: verr.Fields})
	case errors.Is(err, service.ErrValidation):
		return message(c, http.StatusBadRequest, "Validation failed")
	case errors.Is(err, service.ErrDuplicateEmail):
		return message(c, http.StatusBadRequest, "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		return message(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrUnauthorized):
		return message(c, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, service.ErrForbidden):
		return message(c, http.StatusForbidden, "Access denied")
	case errors.Is(err, service.ErrNotFound):
		return message(c, http.StatusNotFound, notFound)
	default:
		return message(c, http.StatusInternalServerError, internalMsg)
	}
}

// HTTPErrorHandler renders errors that escape handlers (unknown routes,
// oversized bodies, recovered panics) in the same {"message"} shape.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := http.StatusText(status)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(status)
		}
	} else {
		c.Logger().Error(err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = message(c, status, msg)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
