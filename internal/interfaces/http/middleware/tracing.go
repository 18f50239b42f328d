// Package middleware provides the HTTP middleware of the portal API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ibportal/backend/internal/infrastructure/logger"
	"github.com/ibportal/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// MaxRequestIDLength is the maximum length of a request id put on a span
const MaxRequestIDLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipPaths are not traced (health probes)
	SkipPaths []string
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "ib-portal",
		Enabled:     true,
		SkipPaths:   []string{"/health"},
	}
}

// Tracing returns OpenTelemetry tracing middleware with default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig wraps otelgin. Spans are named after the route pattern,
// e.g. "GET /api/v1/ib/pages/:id".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	skip := cfg.SkipPaths
	return otelgin.Middleware(cfg.ServiceName, otelgin.WithFilter(func(r *http.Request) bool {
		for _, p := range skip {
			if r.URL.Path == p {
				return false
			}
		}
		return true
	}))
}

// getRequestID prefers the id set by RequestID and truncates header values
func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.GinRequestIDKey); id != "" {
		return id
	}
	headerID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
	if len(headerID) > MaxRequestIDLength {
		return headerID[:MaxRequestIDLength]
	}
	return headerID
}

// SpanErrorMarker marks spans of 4xx and 5xx responses as errors. It must run
// after Tracing.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		var detail string
		if len(c.Errors) > 0 {
			detail = c.Errors.Last().Error()
		}
		telemetry.MarkHTTPStatus(telemetry.SpanFromContext(c.Request.Context()), c.Writer.Status(), detail)
	}
}

// TracingAttributeInjector puts request and session attributes on the current
// span. It must run after both Tracing and the JWT middleware.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.SetRequestAttributes(telemetry.SpanFromContext(c.Request.Context()), telemetry.RequestAttributes{
			RequestID: getRequestID(c),
			UserID:    c.GetString(JWTUserIDKey),
			Role:      c.GetString(JWTRoleKey),
			SessionID: c.GetString(JWTSessionID),
		})
		c.Next()
	}
}
