package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Gateway   GatewayConfig
	Cache     CacheConfig
	Session   SessionConfig
	Export    ExportConfig
	Portal    PortalConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds settings for the tokens this service issues to browsers
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	IdleTimeout           time.Duration
	MaxHeaderBytes        int
	MaxBodySize           int64
	RateLimitEnabled      bool
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	AuthRateLimitEnabled  bool          // Stricter rate limiting for login endpoints
	AuthRateLimitRequests int           // Max login attempts per window (default: 5)
	AuthRateLimitWindow   time.Duration // Login rate limit window (default: 1 minute)
	CORSAllowOrigins      []string
	CORSAllowMethods      []string
	CORSAllowHeaders      []string
	TrustedProxies        []string
}

// GatewayConfig holds settings for the remote data gateway
type GatewayConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	IBLoginPath    string // login endpoint for IB users
	AdminLoginPath string // login endpoint for admins
	TokenPath      string // gjson path of the bearer token in the login response
	ProfilePath    string // gjson path of the profile object in the login response
}

// CacheConfig holds settings for the fetched-rows cache
type CacheConfig struct {
	Backend     string        // memory, redis or tiered
	TTL         time.Duration // default TTL when a page does not set one
	KeyPrefix   string
	L1TTL       time.Duration // in-memory TTL in tiered mode
	FetchWait   time.Duration // how long a view waits for an uncached fetch before reporting loading
	FetchWindow time.Duration // upper bound for a background fetch
}

// SessionConfig holds settings for gateway sessions
type SessionConfig struct {
	TTL time.Duration
}

// ExportConfig holds export settings
type ExportConfig struct {
	ChromeEnabled   bool   // use headless Chrome for PDF instead of the native writer
	ChromePath      string // local Chrome binary (empty = auto-detect)
	ChromeRemoteURL string // remote DevTools URL; takes precedence over ChromePath
	Timeout         time.Duration
	PDFOrientation  string // portrait or landscape
	MaxColumnWidth  float64
}

// PortalConfig holds the page catalog location
type PortalConfig struct {
	PagesFile string // optional YAML file; empty uses the built-in catalog
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with IBP_ prefix (e.g., IBP_GATEWAY_BASE_URL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("IBP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:           v.GetDuration("http.read_timeout"),
			WriteTimeout:          v.GetDuration("http.write_timeout"),
			IdleTimeout:           v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:        v.GetInt("http.max_header_bytes"),
			MaxBodySize:           v.GetInt64("http.max_body_size"),
			RateLimitEnabled:      v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:     v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:       v.GetDuration("http.rate_limit_window"),
			AuthRateLimitEnabled:  v.GetBool("http.auth_rate_limit_enabled"),
			AuthRateLimitRequests: v.GetInt("http.auth_rate_limit_requests"),
			AuthRateLimitWindow:   v.GetDuration("http.auth_rate_limit_window"),
			CORSAllowOrigins:      v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:      v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:      v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:        v.GetStringSlice("http.trusted_proxies"),
		},
		Gateway: GatewayConfig{
			BaseURL:        v.GetString("gateway.base_url"),
			Timeout:        v.GetDuration("gateway.timeout"),
			MaxRetries:     v.GetInt("gateway.max_retries"),
			RetryDelay:     v.GetDuration("gateway.retry_delay"),
			IBLoginPath:    v.GetString("gateway.ib_login_path"),
			AdminLoginPath: v.GetString("gateway.admin_login_path"),
			TokenPath:      v.GetString("gateway.token_path"),
			ProfilePath:    v.GetString("gateway.profile_path"),
		},
		Cache: CacheConfig{
			Backend:     v.GetString("cache.backend"),
			TTL:         v.GetDuration("cache.ttl"),
			KeyPrefix:   v.GetString("cache.key_prefix"),
			L1TTL:       v.GetDuration("cache.l1_ttl"),
			FetchWait:   v.GetDuration("cache.fetch_wait"),
			FetchWindow: v.GetDuration("cache.fetch_window"),
		},
		Session: SessionConfig{
			TTL: v.GetDuration("session.ttl"),
		},
		Export: ExportConfig{
			ChromeEnabled:   v.GetBool("export.chrome_enabled"),
			ChromePath:      v.GetString("export.chrome_path"),
			ChromeRemoteURL: v.GetString("export.chrome_remote_url"),
			Timeout:         v.GetDuration("export.timeout"),
			PDFOrientation:  v.GetString("export.pdf_orientation"),
			MaxColumnWidth:  v.GetFloat64("export.max_column_width"),
		},
		Portal: PortalConfig{
			PagesFile: v.GetString("portal.pages_file"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ib-portal"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 8 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "ib-portal"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second // exports can take a while
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 300
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.AuthRateLimitRequests == 0 {
		cfg.HTTP.AuthRateLimitRequests = 5
	}
	if cfg.HTTP.AuthRateLimitWindow == 0 {
		cfg.HTTP.AuthRateLimitWindow = time.Minute
	}
	// CORS origins have no wildcard default; they must be configured explicitly.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = "http://localhost:9000/api"
	}
	if cfg.Gateway.Timeout == 0 {
		cfg.Gateway.Timeout = 20 * time.Second
	}
	if cfg.Gateway.MaxRetries == 0 {
		cfg.Gateway.MaxRetries = 2
	}
	if cfg.Gateway.RetryDelay == 0 {
		cfg.Gateway.RetryDelay = 200 * time.Millisecond
	}
	if cfg.Gateway.IBLoginPath == "" {
		cfg.Gateway.IBLoginPath = "/ib/auth/login"
	}
	if cfg.Gateway.AdminLoginPath == "" {
		cfg.Gateway.AdminLoginPath = "/admin/auth/login"
	}
	if cfg.Gateway.TokenPath == "" {
		cfg.Gateway.TokenPath = "data.token"
	}
	if cfg.Gateway.ProfilePath == "" {
		cfg.Gateway.ProfilePath = "data.user"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "ibp:"
	}
	if cfg.Cache.L1TTL == 0 {
		cfg.Cache.L1TTL = 30 * time.Second
	}
	if cfg.Cache.FetchWait == 0 {
		cfg.Cache.FetchWait = 300 * time.Millisecond
	}
	if cfg.Cache.FetchWindow == 0 {
		cfg.Cache.FetchWindow = time.Minute
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = cfg.JWT.AccessTokenExpiration
	}
	if cfg.Export.Timeout == 0 {
		cfg.Export.Timeout = 30 * time.Second
	}
	if cfg.Export.PDFOrientation == "" {
		cfg.Export.PDFOrientation = "landscape"
	}
	if cfg.Export.MaxColumnWidth == 0 {
		cfg.Export.MaxColumnWidth = 60
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "ib-portal"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.Gateway.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("gateway.base_url must be an absolute URL, got %q", c.Gateway.BaseURL)
	}

	switch c.Cache.Backend {
	case "memory", "redis", "tiered":
	default:
		return fmt.Errorf("cache.backend must be one of memory, redis, tiered; got %q", c.Cache.Backend)
	}

	switch c.Export.PDFOrientation {
	case "portrait", "landscape":
	default:
		return fmt.Errorf("export.pdf_orientation must be portrait or landscape, got %q", c.Export.PDFOrientation)
	}

	if c.Gateway.MaxRetries < 0 {
		return fmt.Errorf("gateway.max_retries cannot be negative")
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if u.Scheme != "https" {
			return fmt.Errorf("gateway.base_url must use https in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}
