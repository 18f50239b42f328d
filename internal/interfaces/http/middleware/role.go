package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/ibportal/backend/internal/domain/identity"
	"github.com/ibportal/backend/internal/infrastructure/logger"
	"github.com/ibportal/backend/internal/interfaces/http/dto"
)

// RequireRole allows only sessions signed into the given portal. It must run
// after the JWT middleware.
func RequireRole(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := GetSession(c)
		if session == nil {
			c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeUnauthorized),
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", c.GetString(logger.GinRequestIDKey)))
			return
		}
		if session.Role != role {
			c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeForbidden),
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "This portal is not available for your account", c.GetString(logger.GinRequestIDKey)))
			return
		}
		c.Next()
	}
}
