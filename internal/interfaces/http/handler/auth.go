package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	identityapp "github.com/ibportal/backend/internal/application/identity"
	"github.com/ibportal/backend/internal/domain/identity"
	"github.com/ibportal/backend/internal/interfaces/http/middleware"
)

// AuthService is what the auth handler needs from the identity application
type AuthService interface {
	Login(ctx context.Context, input identityapp.LoginInput) (*identityapp.LoginResult, error)
	Logout(ctx context.Context, input identityapp.LogoutInput) error
	Me(ctx context.Context, sessionID string) (*identityapp.CurrentUserResult, error)
}

// AuthHandler handles sign-in, sign-out and the current user
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login signs into the portal named by the :role path parameter
func (h *AuthHandler) Login(c *gin.Context) {
	role, err := identity.ParseRole(c.Param("role"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identityapp.LoginInput{
		Role:     role,
		Email:    req.Email,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresAt:   result.ExpiresAt,
		Portal:      role.Label(),
		User:        result.Profile,
	})
}

// Logout ends the session and revokes the presented token
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), identityapp.LogoutInput{
		SessionID: claims.SessionID,
		TokenJTI:  claims.ID,
		TokenTTL:  claims.GetRemainingTTL(),
	}); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LogoutResponse{Message: "Logged out successfully"})
}

// GetCurrentUser returns the signed-in profile
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.authService.Me(c.Request.Context(), claims.SessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CurrentUserResponse{
		User:      result.Profile,
		Portal:    result.Portal,
		ExpiresAt: result.ExpiresAt,
	})
}
