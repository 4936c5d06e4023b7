package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/docmanager/internal/config"
	"github.com/iliyamo/docmanager/internal/model"
	"github.com/iliyamo/docmanager/internal/service"
	"github.com/iliyamo/docmanager/internal/utils"
)

type fakeAuth struct {
	users map[string]model.User
	err   error
}

func (f fakeAuth) Authenticate(_ context.Context, raw string) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	if raw == "" {
		return model.User{}, fmt.Errorf("%w: %w", service.ErrUnauthorized, utils.ErrTokenMissing)
	}
	if raw == "old" {
		return model.User{}, fmt.Errorf("%w: %w", service.ErrUnauthorized, utils.ErrTokenExpired)
	}
	u, ok := f.users[raw]
	if !ok {
		return model.User{}, fmt.Errorf("%w: %w", service.ErrUnauthorized, utils.ErrTokenInvalid)
	}
	return u, nil
}

func newProtected(auth Authenticator, roles ...model.Role) *echo.Echo {
	e := echo.New()
	mws := []echo.MiddlewareFunc{JWTAuth(auth)}
	if len(roles) > 0 {
		mws = append(mws, RequireRole(roles...))
	}
	e.GET("/private", func(c echo.Context) error {
		u, ok := CurrentUser(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.String(http.StatusOK, u.Name)
	}, mws...)
	return e
}

func do(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	auth := fakeAuth{users: map[string]model.User{
		"good": {ID: "u-1", Name: "Alice", Role: model.RoleViewer},
	}}
	e := newProtected(auth)

	rec := do(e, "good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", rec.Body.String())

	rec = do(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication required")

	rec = do(e, "old")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token expired")

	rec = do(e, "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")
}

func TestJWTAuth_StoreFailure(t *testing.T) {
	e := newProtected(fakeAuth{err: fmt.Errorf("%w: db down", service.ErrInternal)})
	rec := do(e, "good")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestRequireRole(t *testing.T) {
	auth := fakeAuth{users: map[string]model.User{
		"admin":  {ID: "a", Name: "Root", Role: model.RoleAdmin},
		"editor": {ID: "e", Name: "Ed", Role: model.RoleEditor},
		"viewer": {ID: "v", Name: "Vi", Role: model.RoleViewer},
	}}
	e := newProtected(auth, model.RoleAdmin, model.RoleEditor)

	assert.Equal(t, http.StatusOK, do(e, "admin").Code)
	assert.Equal(t, http.StatusOK, do(e, "editor").Code)

	rec := do(e, "viewer")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access denied")
}

func TestRequireRole_WithoutJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireRole(model.RoleAdmin))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// fakeScripter answers EvalSha with a fixed token-bucket result.
type fakeScripter struct {
	redis.Scripter
	result []interface{}
	err    error
	keys   []string
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	f.keys = append(f.keys, keys...)
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	cmd.SetVal(f.result)
	return cmd
}

func rateLimited(cfg config.RateLimitConfig, scope Scope, rdb redis.Scripter) *echo.Echo {
	e := echo.New()
	e.GET("/private", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, scope, rdb, nil))
	return e
}

func rlConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled: true, Capacity: 5, RefillTokens: 1,
		RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl",
	}
}

func TestTokenBucket_Allows(t *testing.T) {
	rdb := &fakeScripter{result: []interface{}{int64(1), int64(4), int64(0)}}
	rec := do(rateLimited(rlConfig(), PerClientRoute, rdb), "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	require.Len(t, rdb.keys, 1)
	assert.Equal(t, "rl:route:GET /private:192.0.2.1", rdb.keys[0])
}

func TestTokenBucket_Blocks(t *testing.T) {
	rdb := &fakeScripter{result: []interface{}{int64(0), int64(0), int64(1500)}}
	rec := do(rateLimited(rlConfig(), PerCaller, rdb), "")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many requests")
}

func TestTokenBucket_FailsOpen(t *testing.T) {
	rdb := &fakeScripter{err: errors.New("connection refused")}
	assert.Equal(t, http.StatusNoContent, do(rateLimited(rlConfig(), PerCaller, rdb), "").Code)

	short := &fakeScripter{result: []interface{}{int64(1)}}
	assert.Equal(t, http.StatusNoContent, do(rateLimited(rlConfig(), PerCaller, short), "").Code)

	disabled := rlConfig()
	disabled.Enabled = false
	assert.Equal(t, http.StatusNoContent, do(rateLimited(disabled, PerCaller, rdb), "").Code)
	assert.Equal(t, http.StatusNoContent, do(rateLimited(rlConfig(), PerCaller, nil), "").Code)
}

func TestBucketKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/documents/upload")

	assert.Equal(t, "rl:client:192.0.2.1", bucketKey("rl", PerCaller, c))
	assert.Equal(t, "rl:route:POST /api/documents/upload:192.0.2.1", bucketKey("rl", PerClientRoute, c))

	SetUser(c, model.User{ID: "u-7"})
	assert.Equal(t, "rl:caller:u-7", bucketKey("rl", PerCaller, c))
	assert.Equal(t, "rl:route:POST /api/documents/upload:192.0.2.1", bucketKey("rl", PerClientRoute, c))
}
