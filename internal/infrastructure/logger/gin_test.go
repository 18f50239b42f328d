package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, router *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)
	return w
}

func httpLog(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	return entries[0]
}

func TestGinMiddleware(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(GinRequestIDKey, "req-123")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/pages/:id", func(c *gin.Context) {
		assert.Equal(t, "req-123", GetRequestID(c.Request.Context()))
		GetGinLogger(c).Info("inside handler")
		c.Set(GinUserIDKey, "u-1")
		c.Set(GinRoleKey, "ib")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := serve(t, router, "/pages/clients?q=alice")
	assert.Equal(t, http.StatusOK, w.Code)

	entry := httpLog(t, recorded)
	fields := entry.ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/pages/clients", fields["path"])
	assert.Equal(t, "q=alice", fields["query"])
	assert.Equal(t, int64(200), fields["status"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "ib", fields["role"])

	inner := recorded.FilterMessage("inside handler").All()
	require.Len(t, inner, 1)
	assert.Equal(t, "req-123", inner[0].ContextMap()["request_id"])
}

func TestGinMiddleware_RedactsAccessToken(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/pages/:id/:file", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(t, router, "/pages/clients/export.xlsx?access_token=SECRETJWT&q=alice")

	query, ok := httpLog(t, recorded).ContextMap()["query"].(string)
	require.True(t, ok)
	assert.NotContains(t, query, "SECRETJWT")
	assert.Equal(t, "access_token=%5BREDACTED%5D&q=alice", query)
}

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"nothing to redact", "q=Smith+&page=2", "q=Smith+&page=2"},
		{"token only", "access_token=abc.def.ghi", "access_token=%5BREDACTED%5D"},
		{"repeated token", "access_token=a&access_token=b", "access_token=%5BREDACTED%5D&access_token=%5BREDACTED%5D"},
		{"malformed", "access_token=%zz", "[REDACTED]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, redactQuery(tt.raw))
		})
	}
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{http.StatusBadGateway, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		core, recorded := observer.New(zapcore.DebugLevel)
		router := gin.New()
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/x", func(c *gin.Context) { c.Status(tt.status) })

		serve(t, router, "/x")
		assert.Equal(t, tt.level, httpLog(t, recorded).Level, "status %d", tt.status)
	}
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(t, router, "/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, recorded.FilterMessage("Panic recovered").Len())
}

func TestGetGinLogger_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
