package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configEnvKeys are cleared before every case; viper ignores empty variables.
var configEnvKeys = []string{
	"IBP_APP_NAME",
	"IBP_APP_ENV",
	"IBP_APP_PORT",
	"IBP_JWT_SECRET",
	"IBP_GATEWAY_BASE_URL",
	"IBP_GATEWAY_MAX_RETRIES",
	"IBP_CACHE_BACKEND",
	"IBP_CACHE_TTL",
	"IBP_SESSION_TTL",
	"IBP_EXPORT_PDF_ORIENTATION",
	"IBP_HTTP_CORS_ALLOW_ORIGINS",
	"IBP_TELEMETRY_SAMPLING_RATIO",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "ib-portal", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, "http://localhost:9000/api", cfg.Gateway.BaseURL)
		assert.Equal(t, 2, cfg.Gateway.MaxRetries)
		assert.Equal(t, "data.token", cfg.Gateway.TokenPath)
		assert.Equal(t, "memory", cfg.Cache.Backend)
		assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, 8*time.Hour, cfg.JWT.AccessTokenExpiration)
		assert.Equal(t, cfg.JWT.AccessTokenExpiration, cfg.Session.TTL)
		assert.Equal(t, "landscape", cfg.Export.PDFOrientation)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	})

	t.Run("loads values from environment variables with IBP prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("IBP_APP_NAME", "portal-test")
		t.Setenv("IBP_APP_PORT", "9090")
		t.Setenv("IBP_GATEWAY_BASE_URL", "https://api.example.com/v2")
		t.Setenv("IBP_CACHE_BACKEND", "tiered")
		t.Setenv("IBP_CACHE_TTL", "90s")
		t.Setenv("IBP_SESSION_TTL", "2h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "portal-test", cfg.App.Name)
		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, "https://api.example.com/v2", cfg.Gateway.BaseURL)
		assert.Equal(t, "tiered", cfg.Cache.Backend)
		assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
		assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	})

	t.Run("rejects a relative gateway url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("IBP_GATEWAY_BASE_URL", "/api")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gateway.base_url must be an absolute URL")
	})

	t.Run("rejects an unknown cache backend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("IBP_CACHE_BACKEND", "memcached")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cache.backend")
	})

	t.Run("rejects an unknown pdf orientation", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("IBP_EXPORT_PDF_ORIENTATION", "diagonal")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "export.pdf_orientation")
	})

	t.Run("rejects a sampling ratio out of range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("IBP_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("IBP_APP_ENV", "production")
		t.Setenv("IBP_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("IBP_GATEWAY_BASE_URL", "https://api.example.com")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("IBP_JWT_SECRET", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("IBP_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires an https gateway in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("IBP_GATEWAY_BASE_URL", "http://api.example.com")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must use https in production")
	})

	t.Run("rejects wildcard cors origins in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("IBP_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins cannot be '*'")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}
