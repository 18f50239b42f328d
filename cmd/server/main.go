package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ibportal/backend/internal/application/dashboard"
	identityapp "github.com/ibportal/backend/internal/application/identity"
	"github.com/ibportal/backend/internal/domain/portal"
	"github.com/ibportal/backend/internal/infrastructure/auth"
	"github.com/ibportal/backend/internal/infrastructure/cache"
	"github.com/ibportal/backend/internal/infrastructure/config"
	"github.com/ibportal/backend/internal/infrastructure/export"
	"github.com/ibportal/backend/internal/infrastructure/gateway"
	"github.com/ibportal/backend/internal/infrastructure/logger"
	"github.com/ibportal/backend/internal/infrastructure/session"
	"github.com/ibportal/backend/internal/infrastructure/telemetry"
	"github.com/ibportal/backend/internal/interfaces/http/handler"
	"github.com/ibportal/backend/internal/interfaces/http/middleware"
	"github.com/ibportal/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting IB portal",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	store, err := cache.NewFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create cache", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing cache", zap.Error(err))
		}
	}()

	gw, err := gateway.NewClient(cfg.Gateway, gateway.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create gateway client", zap.Error(err))
	}

	catalog, err := portal.LoadCatalogFile(cfg.Portal.PagesFile)
	if err != nil {
		log.Fatal("Failed to load page catalog", zap.String("file", cfg.Portal.PagesFile), zap.Error(err))
	}

	exporter, err := export.NewExporterFromConfig(cfg.Export, log)
	if err != nil {
		log.Fatal("Failed to create exporter", zap.Error(err))
	}
	defer func() {
		_ = exporter.Close()
	}()

	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewCacheTokenBlacklist(store)
	authService := identityapp.NewAuthService(gw, session.NewCacheStore(store), jwtService, blacklist, cfg.Session.TTL, log)
	pageService := dashboard.NewPageService(catalog, gw, store, exporter, log,
		dashboard.WithFetchWait(cfg.Cache.FetchWait),
		dashboard.WithFetchWindow(cfg.Cache.FetchWindow),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	// Order: request id first so every later log line and span carries it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tp.IsEnabled(),
		SkipPaths:   []string{"/health"},
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Close()
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	guards := router.PortalGuards{
		Authenticate: middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService:      jwtService,
			Sessions:        authService,
			AllowQueryToken: true,
			Logger:          log,
		}),
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		loginLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer loginLimiter.Close()
		guards.LoginLimit = middleware.RateLimit(loginLimiter)
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterPortal(r, router.PortalHandlers{
		System: handler.NewSystemHandler(cfg.App.Name, version),
		Auth:   handler.NewAuthHandler(authService),
		Pages:  handler.NewPageHandler(pageService),
	}, guards)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Error("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
