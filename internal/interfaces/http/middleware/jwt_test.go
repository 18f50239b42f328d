package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ibportal/backend/internal/domain/identity"
	"github.com/ibportal/backend/internal/infrastructure/auth"
	"github.com/ibportal/backend/internal/infrastructure/config"
	"github.com/ibportal/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSessions struct {
	session *identity.Session
	err     error
}

func (s stubSessions) Authenticate(_ context.Context, claims *auth.Claims) (*identity.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.session != nil {
		return s.session, nil
	}
	return &identity.Session{ID: claims.SessionID, Role: identity.Role(claims.Role)}, nil
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
}

func newTestToken(t *testing.T, svc *auth.JWTService, role identity.Role) string {
	t.Helper()
	tok, err := svc.GenerateAccessToken(auth.GenerateTokenInput{
		SessionID: "sess-1",
		UserID:    "u-42",
		Role:      role.String(),
		Name:      "Jane",
	})
	require.NoError(t, err)
	return tok.AccessToken
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func newJWTRouter(svc *auth.JWTService, sessions SessionAuthenticator, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddleware(svc, sessions))
	router.GET("/test", handler)
	router.POST("/test", handler)
	return router
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService()
	token := newTestToken(t, svc, identity.RoleIB)

	var gotClaims *auth.Claims
	var gotSession *identity.Session
	router := newJWTRouter(svc, stubSessions{}, func(c *gin.Context) {
		gotClaims = GetJWTClaims(c)
		gotSession = GetSession(c)
		c.JSON(http.StatusOK, gin.H{"user": GetJWTUserID(c), "role": GetJWTRole(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotClaims)
	require.NotNil(t, gotSession)
	assert.Equal(t, "sess-1", gotClaims.SessionID)
	assert.Equal(t, "sess-1", gotSession.ID)
	assert.JSONEq(t, `{"user":"u-42","role":"ib"}`, rec.Body.String())
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService()
	other := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", AccessTokenExpiration: time.Minute})
	expired, err := svc.GenerateAccessToken(auth.GenerateTokenInput{
		SessionID: "s", UserID: "u", Role: "ib", ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		sessions SessionAuthenticator
		code     string
	}{
		{"missing header", "", stubSessions{}, dto.ErrCodeTokenInvalid},
		{"wrong scheme", "Basic abc", stubSessions{}, dto.ErrCodeTokenInvalid},
		{"empty bearer", "Bearer ", stubSessions{}, dto.ErrCodeTokenInvalid},
		{"garbage token", "Bearer not-a-jwt", stubSessions{}, dto.ErrCodeTokenInvalid},
		{"foreign signature", "Bearer " + newTestToken(t, other, identity.RoleIB), stubSessions{}, dto.ErrCodeTokenInvalid},
		{"expired token", "Bearer " + expired.AccessToken, stubSessions{}, dto.ErrCodeTokenExpired},
		{"session gone", "Bearer " + newTestToken(t, svc, identity.RoleIB), stubSessions{err: identity.ErrSessionNotFound}, dto.ErrCodeSessionExpired},
		{"role mismatch", "Bearer " + newTestToken(t, svc, identity.RoleIB), stubSessions{err: identity.ErrRoleMismatch}, dto.ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			router := newJWTRouter(svc, tt.sessions, func(c *gin.Context) {
				called = true
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, dto.GetHTTPStatus(tt.code), rec.Code)
			info := decodeError(t, rec)
			assert.Equal(t, tt.code, info.Code)
			assert.NotEmpty(t, info.RequestID)
		})
	}
}

func TestJWTAuthMiddleware_QueryToken(t *testing.T) {
	svc := newTestJWTService()
	token := newTestToken(t, svc, identity.RoleAdmin)
	router := newJWTRouter(svc, stubSessions{}, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test?access_token="+token, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test?access_token="+token, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "query tokens are only accepted on GET")
}

func TestJWTAuthMiddleware_SkipPathsAndOnError(t *testing.T) {
	svc := newTestJWTService()
	var seen error
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService: svc,
		Sessions:   stubSessions{},
		SkipPaths:  []string{"/health"},
		OnError: func(c *gin.Context, err error) {
			seen = err
			c.AbortWithStatus(http.StatusTeapot)
		},
	}))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/private", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, seen, auth.ErrInvalidToken)
}

func TestGetters_Unauthenticated(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Nil(t, GetSession(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTRole(c))
}
