package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ibportal/backend/internal/domain/identity"
	"github.com/ibportal/backend/internal/interfaces/http/handler"
	"github.com/ibportal/backend/internal/interfaces/http/middleware"
)

// PortalHandlers are the handlers behind the portal API
type PortalHandlers struct {
	System *handler.SystemHandler
	Auth   *handler.AuthHandler
	Pages  *handler.PageHandler
}

// PortalGuards are the middleware the portal routes depend on
type PortalGuards struct {
	// Authenticate validates the service token and loads the session
	Authenticate gin.HandlerFunc
	// LoginLimit throttles sign-in attempts; nil disables it
	LoginLimit gin.HandlerFunc
}

// RegisterPortal wires the health probe, the auth endpoints and one shell per
// role. Each shell only admits sessions of its own role.
func RegisterPortal(r *Router, h PortalHandlers, g PortalGuards) {
	r.Engine().GET("/health", h.System.Health)

	system := NewDomainGroup("system", "/system")
	system.GET("/ping", h.System.Ping)
	system.GET("/info", h.System.GetSystemInfo)
	r.Register(system)

	authRoutes := NewDomainGroup("auth", "/auth")
	login := []gin.HandlerFunc{h.Auth.Login}
	if g.LoginLimit != nil {
		login = append([]gin.HandlerFunc{g.LoginLimit}, login...)
	}
	authRoutes.POST("/:role/login", login...)
	authRoutes.POST("/logout", g.Authenticate, h.Auth.Logout)
	authRoutes.GET("/me", g.Authenticate, h.Auth.GetCurrentUser)
	r.Register(authRoutes)

	for _, role := range identity.Roles {
		shell := NewDomainGroup(role.String(), "/"+role.String())
		shell.Use(g.Authenticate, middleware.RequireRole(role), middleware.TracingAttributeInjector())
		shell.GET("/nav", h.Pages.Nav)
		shell.GET("/pages/:id", h.Pages.View)
		shell.GET("/pages/:id/:file", h.Pages.Export)
		shell.DELETE("/pages/:id/cache", h.Pages.Invalidate)
		r.Register(shell)
	}
}
