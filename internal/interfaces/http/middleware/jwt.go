package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ibportal/backend/internal/domain/identity"
	"github.com/ibportal/backend/internal/domain/shared"
	"github.com/ibportal/backend/internal/infrastructure/auth"
	"github.com/ibportal/backend/internal/infrastructure/logger"
	"github.com/ibportal/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTSessionKey  = "jwt_session"
	JWTUserIDKey   = "jwt_user_id"
	JWTRoleKey     = "jwt_role"
	JWTSessionID   = "jwt_session_id"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
	tokenQueryName = "access_token"
)

// SessionAuthenticator resolves validated claims to a live session
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, claims *auth.Claims) (*identity.Session, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// Sessions is required; a token whose session is gone is rejected
	Sessions SessionAuthenticator
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// AllowQueryToken accepts ?access_token= for download links on GET requests
	AllowQueryToken bool
	// Optional callback if token is invalid (default: return 401)
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService, sessions SessionAuthenticator) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService:      jwtService,
		Sessions:        sessions,
		AllowQueryToken: true,
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService, sessions SessionAuthenticator) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService, sessions))
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}

		tokenString, ok := extractToken(c, cfg.AllowQueryToken)
		if !ok {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing or malformed authorization header")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		session, err := cfg.Sessions.Authenticate(c.Request.Context(), claims)
		if err != nil {
			handleAuthError(c, cfg, err, "Session lookup failed")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTSessionKey, session)
		c.Set(JWTUserIDKey, claims.Subject)
		c.Set(JWTRoleKey, claims.Role)
		c.Set(JWTSessionID, claims.SessionID)
		c.Set(logger.GinUserIDKey, claims.Subject)
		c.Set(logger.GinRoleKey, claims.Role)

		ctx, reqLogger := logger.WithUser(c.Request.Context(), logger.GetGinLogger(c), claims.Subject, claims.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Set(logger.GinLoggerKey, reqLogger)

		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful",
				zap.String("user_id", claims.Subject),
				zap.String("role", claims.Role),
			)
		}

		c.Next()
	}
}

func extractToken(c *gin.Context, allowQuery bool) (string, bool) {
	authHeader := c.GetHeader(AuthHeaderKey)
	if authHeader == "" {
		if allowQuery && c.Request.Method == http.MethodGet {
			if t := c.Query(tokenQueryName); t != "" {
				return t, true
			}
		}
		return "", false
	}
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
	return token, token != ""
}

// handleAuthError handles authentication errors
func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	code, msg := authErrorCode(err)
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code),
		dto.NewErrorResponseWithRequestID(code, msg, c.GetString(logger.GinRequestIDKey)))
}

func authErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingSessionID),
		errors.Is(err, auth.ErrMissingRole),
		errors.Is(err, auth.ErrMissingSubject):
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return dto.NormalizeErrorCode(domainErr.Code), domainErr.Message
	}
	return dto.ErrCodeUnauthorized, "Authentication required"
}

// GetJWTClaims retrieves JWT claims from gin context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if cl, ok := claims.(*auth.Claims); ok {
			return cl
		}
	}
	return nil
}

// GetSession retrieves the authenticated session from gin context
func GetSession(c *gin.Context) *identity.Session {
	if s, exists := c.Get(JWTSessionKey); exists {
		if sess, ok := s.(*identity.Session); ok {
			return sess
		}
	}
	return nil
}

// GetJWTUserID retrieves the user id from gin context
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTRole retrieves the role claim from gin context
func GetJWTRole(c *gin.Context) string {
	return c.GetString(JWTRoleKey)
}
