package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ibportal/backend/internal/domain/identity"
	"github.com/ibportal/backend/internal/domain/shared"
	"github.com/ibportal/backend/internal/infrastructure/auth"
	"github.com/ibportal/backend/internal/infrastructure/cache"
	"github.com/ibportal/backend/internal/infrastructure/config"
	"github.com/ibportal/backend/internal/infrastructure/gateway"
	"github.com/ibportal/backend/internal/infrastructure/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockGateway is a mock implementation of Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) LoginPath(role string) string {
	return "/" + role + "/auth/login"
}

func (m *MockGateway) Login(ctx context.Context, path string, creds gateway.Credentials) (*gateway.LoginResult, error) {
	args := m.Called(ctx, path, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.LoginResult), args.Error(1)
}

type testEnv struct {
	svc      *AuthService
	gw       *MockGateway
	jwt      *auth.JWTService
	sessions *session.CacheStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	c := cache.NewInMemoryCache(time.Hour)
	t.Cleanup(func() { _ = c.Close() })

	gw := new(MockGateway)
	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: time.Hour,
		Issuer:                "ib-portal",
	})
	sessions := session.NewCacheStore(c)
	svc := NewAuthService(gw, sessions, jwtSvc, auth.NewCacheTokenBlacklist(c), 0, zap.NewNop())
	return &testEnv{svc: svc, gw: gw, jwt: jwtSvc, sessions: sessions}
}

func (e *testEnv) login(t *testing.T, role identity.Role) (*LoginResult, *auth.Claims) {
	t.Helper()
	e.gw.On("Login", mock.Anything, "/"+role.String()+"/auth/login", gateway.Credentials{Email: "ann@example.com", Password: "pw"}).
		Return(&gateway.LoginResult{Token: "gw-token", Profile: map[string]any{"id": "ib-1", "name": "Ann"}}, nil).Once()

	res, err := e.svc.Login(context.Background(), LoginInput{Role: role, Email: " Ann@Example.com ", Password: "pw"})
	require.NoError(t, err)
	claims, err := e.jwt.ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)
	return res, claims
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)

	res, claims := env.login(t, identity.RoleIB)

	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, "ib-1", res.Profile.ID)
	assert.Equal(t, "Ann", res.Profile.Name)
	assert.Equal(t, "ib", claims.Role)
	assert.Equal(t, "ib-1", claims.Subject)

	stored, err := env.sessions.Get(context.Background(), claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "gw-token", stored.GatewayToken)
	assert.Equal(t, res.ExpiresAt.Unix(), stored.ExpiresAt.Unix())
	env.gw.AssertExpectations(t)
}

func TestAuthService_Login_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid role", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.Login(ctx, LoginInput{Role: "root", Email: "a@b.c", Password: "x"})
		assert.ErrorIs(t, err, identity.ErrInvalidRole)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		env := newTestEnv(t)
		env.gw.On("Login", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: 401", gateway.ErrInvalidCredentials))

		_, err := env.svc.Login(ctx, LoginInput{Role: identity.RoleAdmin, Email: "a@b.c", Password: "x"})
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("gateway down", func(t *testing.T) {
		env := newTestEnv(t)
		env.gw.On("Login", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, gateway.ErrUpstream)

		_, err := env.svc.Login(ctx, LoginInput{Role: identity.RoleIB, Email: "a@b.c", Password: "x"})
		assert.ErrorIs(t, err, shared.ErrUpstream)
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, claims := env.login(t, identity.RoleAdmin)

	s, err := env.svc.Authenticate(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, s.Role)

	forged := *claims
	forged.Role = "ib"
	_, err = env.svc.Authenticate(ctx, &forged)
	assert.ErrorIs(t, err, identity.ErrRoleMismatch)

	missing := *claims
	missing.SessionID = "gone"
	_, err = env.svc.Authenticate(ctx, &missing)
	assert.ErrorIs(t, err, identity.ErrSessionNotFound)
}

func TestAuthService_LogoutRevokesTokenAndSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, claims := env.login(t, identity.RoleIB)

	require.NoError(t, env.svc.Logout(ctx, LogoutInput{
		SessionID: claims.SessionID,
		TokenJTI:  claims.ID,
		TokenTTL:  claims.GetRemainingTTL(),
	}))

	_, err := env.svc.Authenticate(ctx, claims)
	assert.ErrorIs(t, err, identity.ErrSessionNotFound)

	_, err = env.svc.Me(ctx, claims.SessionID)
	assert.ErrorIs(t, err, identity.ErrSessionNotFound)
}

func TestAuthService_Me(t *testing.T) {
	env := newTestEnv(t)
	_, claims := env.login(t, identity.RoleIB)

	me, err := env.svc.Me(context.Background(), claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "ib-1", me.Profile.ID)
	assert.Equal(t, "ann@example.com", me.Profile.Email)
	assert.Equal(t, "IB Portal", me.Portal)
}
