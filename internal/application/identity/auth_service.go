package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ibportal/backend/internal/domain/identity"
	"github.com/ibportal/backend/internal/domain/shared"
	"github.com/ibportal/backend/internal/infrastructure/auth"
	"github.com/ibportal/backend/internal/infrastructure/gateway"
	"go.uber.org/zap"
)

// Gateway is the part of the gateway client used for sign-in
type Gateway interface {
	LoginPath(role string) string
	Login(ctx context.Context, path string, creds gateway.Credentials) (*gateway.LoginResult, error)
}

// AuthService signs users in against the gateway and tracks their sessions
type AuthService struct {
	gateway    Gateway
	sessions   identity.SessionStore
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	gw Gateway,
	sessions identity.SessionStore,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = jwtService.GetAccessTokenExpiration()
	}
	return &AuthService{
		gateway:    gw,
		sessions:   sessions,
		jwtService: jwtService,
		blacklist:  blacklist,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// Login forwards the credentials to the role's gateway login endpoint, stores
// the gateway token in a new session and returns a service token for it.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if !input.Role.IsValid() {
		return nil, identity.ErrInvalidRole
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	s.logger.Info("Login attempt", zap.String("email", email), zap.String("role", input.Role.String()))

	res, err := s.gateway.Login(ctx, s.gateway.LoginPath(input.Role.String()), gateway.Credentials{
		Email:    email,
		Password: input.Password,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidCredentials) {
			s.logger.Warn("Gateway rejected credentials", zap.String("email", email))
			return nil, identity.ErrInvalidCredentials
		}
		s.logger.Error("Gateway login failed", zap.String("email", email), zap.Error(err))
		return nil, shared.ErrUpstream
	}

	profile := identity.ProfileFromGateway(input.Role, email, res.Profile)
	session := identity.NewSession(input.Role, res.Token, profile, s.sessionTTL)
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Error("Failed to store session", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to start session")
	}

	token, err := s.jwtService.GenerateAccessToken(auth.GenerateTokenInput{
		SessionID: session.ID,
		UserID:    profile.ID,
		Role:      input.Role.String(),
		Name:      profile.Name,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
	}

	s.logger.Info("User logged in",
		zap.String("user_id", profile.ID),
		zap.String("role", input.Role.String()),
		zap.String("ip", input.IP))

	return &LoginResult{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		Profile:     profile,
	}, nil
}

// Authenticate resolves validated token claims to a live session. A revoked
// token, an expired session or a role that does not match the session fails.
func (s *AuthService) Authenticate(ctx context.Context, claims *auth.Claims) (*identity.Session, error) {
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("Blacklist check failed", zap.Error(err))
		}
		if revoked {
			return nil, identity.ErrSessionNotFound
		}
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Role.String() != claims.Role {
		return nil, identity.ErrRoleMismatch
	}
	return session, nil
}

// Logout ends the session and revokes the token until it would have expired
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if err := s.sessions.Delete(ctx, input.SessionID); err != nil {
		s.logger.Error("Failed to delete session", zap.String("session_id", input.SessionID), zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to end session")
	}
	if s.blacklist != nil && input.TokenJTI != "" {
		if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenTTL); err != nil {
			s.logger.Warn("Failed to revoke token", zap.Error(err))
		}
	}
	s.logger.Info("User logged out", zap.String("session_id", input.SessionID))
	return nil
}

// Me returns the profile of the session
func (s *AuthService) Me(ctx context.Context, sessionID string) (*CurrentUserResult, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &CurrentUserResult{
		Profile:   session.Profile,
		Portal:    session.Role.Label(),
		ExpiresAt: session.ExpiresAt,
	}, nil
}
