package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/docmanager/internal/middleware"
	"github.com/iliyamo/docmanager/internal/service"
)

// UserHandler serves the admin user-management endpoints.
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

// List handles GET /api/users.
func (h *UserHandler) List(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	users, err := h.Users.List(ctx, u)
	if err != nil {
		return writeError(c, err, "User not found", "Error fetching users")
	}
	return c.JSON(http.StatusOK, users)
}

// ChangeRole handles PATCH /api/users/:userId/role.
func (h *UserHandler) ChangeRole(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	var req service.RoleInput
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	view, err := h.Users.ChangeRole(ctx, u, c.Param("userId"), req)
	if err != nil {
		return writeError(c, err, "User not found", "Error updating user role")
	}
	return c.JSON(http.StatusOK, view)
}

// Delete handles DELETE /api/users/:userId.
func (h *UserHandler) Delete(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Users.Delete(ctx, u, c.Param("userId")); err != nil {
		return writeError(c, err, "User not found", "Error deleting user")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
