// Package router assembles the echo server: global middleware, the error
// handler and every API route with its auth and role gates.
package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/docmanager/internal/config"
	"github.com/iliyamo/docmanager/internal/handler"
	"github.com/iliyamo/docmanager/internal/logging"
	"github.com/iliyamo/docmanager/internal/middleware"
	"github.com/iliyamo/docmanager/internal/model"
)

// Deps carries what the routes need.  Redis may be nil, which disables
// rate limiting.
type Deps struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Documents *handler.DocumentHandler
	Authn     middleware.Authenticator

	RateLimit   config.RateLimitConfig
	Redis       redis.Scripter
	CORSOrigins []string
	Log         logging.Logger
}

// New builds an echo instance with middleware and routes registered.
func New(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = logging.Nop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(corsConfig(d.CORSOrigins)))

	RegisterRoutes(e, d)
	return e
}

// RegisterRoutes maps every endpoint.  Public auth endpoints get a smaller
// bucket per client and route; everything under /api that needs a token
// shares one bucket per user.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	authLimit := middleware.NewTokenBucket(d.RateLimit.ForAuth(), middleware.PerClientRoute, d.Redis, d.Log)
	apiLimit := middleware.NewTokenBucket(d.RateLimit, middleware.PerCaller, d.Redis, d.Log)
	jwt := middleware.JWTAuth(d.Authn)

	auth := e.Group("/api/auth")
	auth.POST("/register", d.Auth.Register, authLimit)
	auth.POST("/login", d.Auth.Login, authLimit)
	auth.GET("/me", d.Auth.Me, jwt, apiLimit)

	users := e.Group("/api/users", jwt, apiLimit, middleware.RequireRole(model.RoleAdmin))
	users.GET("", d.Users.List)
	users.PATCH("/:userId/role", d.Users.ChangeRole)
	users.DELETE("/:userId", d.Users.Delete)

	docs := e.Group("/api/documents", jwt, apiLimit)
	docs.POST("/upload", d.Documents.Upload, echomw.BodyLimit(bodyLimit(d.Documents.MaxBytes)))
	docs.GET("", d.Documents.List)
	docs.GET("/:id", d.Documents.Get)

	managers := middleware.RequireRole(model.RoleAdmin, model.RoleEditor)
	docs.PATCH("/:id/status", d.Documents.UpdateStatus, managers)
	docs.DELETE("/:id", d.Documents.Delete, managers)
}

// bodyLimit leaves room for the multipart envelope around the file.
func bodyLimit(maxFile int64) string {
	return fmt.Sprintf("%dK", (maxFile+(1<<20))/1024)
}

func corsConfig(origins []string) echomw.CORSConfig {
	cfg := echomw.DefaultCORSConfig
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	return cfg
}

func requestLogger(log logging.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", float64(v.Latency) / float64(time.Millisecond),
				"request_id", v.RequestID,
			}
			ctx := c.Request().Context()
			switch {
			case v.Error != nil:
				log.Error(ctx, "request", append(args, "err", v.Error)...)
			case v.Status >= http.StatusInternalServerError:
				log.Error(ctx, "request", args...)
			default:
				log.Info(ctx, "request", args...)
			}
			return nil
		},
	})
}
