package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ibportal/backend/internal/application/dashboard"
	identityapp "github.com/ibportal/backend/internal/application/identity"
	"github.com/ibportal/backend/internal/domain/grid"
	"github.com/ibportal/backend/internal/domain/identity"
	"github.com/ibportal/backend/internal/domain/portal"
	"github.com/ibportal/backend/internal/infrastructure/export"
	"github.com/ibportal/backend/internal/interfaces/http/handler"
	"github.com/ibportal/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
)

type stubAuth struct{}

func (stubAuth) Login(context.Context, identityapp.LoginInput) (*identityapp.LoginResult, error) {
	return nil, identity.ErrInvalidCredentials
}

func (stubAuth) Logout(context.Context, identityapp.LogoutInput) error { return nil }

func (stubAuth) Me(context.Context, string) (*identityapp.CurrentUserResult, error) {
	return &identityapp.CurrentUserResult{}, nil
}

type stubPages struct{}

func (stubPages) Nav(*identity.Session) []portal.NavSection { return nil }

func (stubPages) View(_ context.Context, _ *identity.Session, id string, _ dashboard.ViewInput) (*dashboard.PageView, error) {
	return &dashboard.PageView{Page: dashboard.PageMeta{ID: id}}, nil
}

func (stubPages) Export(context.Context, *identity.Session, string, grid.State, export.Format) (*dashboard.ExportResult, error) {
	return nil, grid.ErrEmptyExport
}

func (stubPages) Invalidate(context.Context, *identity.Session, string) error { return nil }

// fakeAuthenticate admits the role named in X-Test-Role
func fakeAuthenticate(c *gin.Context) {
	role := c.GetHeader("X-Test-Role")
	if role == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Set(middleware.JWTSessionKey, &identity.Session{ID: "s", Role: identity.Role(role)})
	c.Next()
}

func newPortalEngine(limit gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	r := NewRouter(engine)
	RegisterPortal(r, PortalHandlers{
		System: handler.NewSystemHandler("ib-portal", "test"),
		Auth:   handler.NewAuthHandler(stubAuth{}),
		Pages:  handler.NewPageHandler(stubPages{}),
	}, PortalGuards{Authenticate: fakeAuthenticate, LoginLimit: limit})
	r.Setup()
	return engine
}

func TestRegisterPortal(t *testing.T) {
	engine := newPortalEngine(nil)

	do := func(method, path, role string) int {
		req := httptest.NewRequest(method, path, nil)
		if role != "" {
			req.Header.Set("X-Test-Role", role)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Code
	}

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		status int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"ping is public", http.MethodGet, "/api/v1/system/ping", "", http.StatusOK},
		{"login is public", http.MethodPost, "/api/v1/auth/ib/login", "", http.StatusBadRequest},
		{"me needs a token", http.MethodGet, "/api/v1/auth/me", "", http.StatusUnauthorized},
		{"ib shell needs a token", http.MethodGet, "/api/v1/ib/nav", "", http.StatusUnauthorized},
		{"ib shell for ib", http.MethodGet, "/api/v1/ib/nav", "ib", http.StatusOK},
		{"ib shell page", http.MethodGet, "/api/v1/ib/pages/clients", "ib", http.StatusOK},
		{"admin shell rejects ib", http.MethodGet, "/api/v1/admin/pages/ibs", "ib", http.StatusForbidden},
		{"admin shell for admin", http.MethodGet, "/api/v1/admin/pages/ibs", "admin", http.StatusOK},
		{"export route", http.MethodGet, "/api/v1/admin/pages/ibs/export.pdf", "admin", http.StatusUnprocessableEntity},
		{"cache route", http.MethodDelete, "/api/v1/ib/pages/clients/cache", "ib", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, do(tt.method, tt.path, tt.role))
		})
	}
}

func TestRegisterPortal_LoginLimit(t *testing.T) {
	limited := false
	engine := newPortalEngine(func(c *gin.Context) {
		limited = true
		c.AbortWithStatus(http.StatusTooManyRequests)
	})

	w := serve(engine, http.MethodPost, "/api/v1/auth/admin/login")
	assert.True(t, limited)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = serve(engine, http.MethodGet, "/api/v1/system/ping")
	assert.Equal(t, http.StatusOK, w.Code, "the limit only guards sign-in")
}
