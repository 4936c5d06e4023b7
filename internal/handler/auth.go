package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/docmanager/internal/middleware"
	"github.com/iliyamo/docmanager/internal/model"
	"github.com/iliyamo/docmanager/internal/service"
)

// requestTimeout bounds the store calls made by a single request.
const requestTimeout = 5 * time.Second

// AuthHandler serves registration, login and the caller's profile.
type AuthHandler struct {
	Auth  *service.AuthService
	Users *service.UserService
}

func NewAuthHandler(auth *service.AuthService, users *service.UserService) *AuthHandler {
	return &AuthHandler{Auth: auth, Users: users}
}

type authResp struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      model.UserView `json:"user"`
}

func sessionResp(s service.Session) authResp {
	return authResp{Token: s.Token.Token, ExpiresAt: s.Token.Exp, User: s.User.View()}
}

// Register handles POST /api/auth/register.  New accounts are viewers.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sess, err := h.Auth.SignUp(ctx, req)
	if err != nil {
		return writeError(c, err, "User not found", "Error creating user")
	}
	return c.JSON(http.StatusCreated, sessionResp(sess))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sess, err := h.Auth.Login(ctx, req)
	if err != nil {
		return writeError(c, err, "User not found", "Error logging in")
	}
	return c.JSON(http.StatusOK, sessionResp(sess))
}

// Me handles GET /api/auth/me.  JWTAuth has already re-read the user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "Authentication required")
	}
	return c.JSON(http.StatusOK, h.Users.Me(u))
}
