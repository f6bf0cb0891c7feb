// Package router registers the HTTP routes of the client shell and of the
// reference backend.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-client/internal/handler"
	"github.com/iliyamo/lms-client/internal/middleware"
	"github.com/iliyamo/lms-client/internal/model"
	"github.com/iliyamo/lms-client/internal/routeguard"
)

// RegisterShell mounts the shell.  Navigations (views and public pages)
// report their path to the session first; guarded views then pass the
// route guard.  metrics may be nil.
func RegisterShell(e *echo.Echo, h *handler.Shell, metrics http.Handler) {
	e.Validator = handler.NewValidator()
	e.GET("/healthz", handler.Health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}

	track := middleware.TrackLocation(h.Session)
	nav := func(path string, fn echo.HandlerFunc, m ...echo.MiddlewareFunc) {
		e.GET(path, fn, append([]echo.MiddlewareFunc{track}, m...)...)
	}

	nav("/login", h.Page("login"))
	nav("/register", h.Page("register"))
	nav("/reset-password", h.Page("reset-password"))
	nav("/reset-password/*", h.Page("reset-password"))
	nav("/oauth2/redirect", h.OAuthRedirect)

	nav("/", h.Root, middleware.RequireView(h.Session))
	for _, r := range routeguard.Views {
		nav(r.Path, h.Guarded(r), middleware.RequireView(h.Session, r.Allowed...))
	}

	s := e.Group("/session")
	s.GET("", h.GetSession)
	s.POST("/login", h.Login)
	s.POST("/register", h.Register)
	s.POST("/logout", h.Logout)

	e.GET("/notifications", h.Notifications)
	e.DELETE("/notifications", h.ClearNotifications)
	e.DELETE("/notifications/:id", h.DismissNotification)
}

// RegisterMockAPI mounts the reference backend under /api/auth.  limiter
// wraps every auth route; pass nil for none.
func RegisterMockAPI(e *echo.Echo, a *handler.AuthAPI, jwtSecret string, limiter echo.MiddlewareFunc) {
	e.Validator = handler.NewValidator()
	e.GET("/healthz", handler.Health)

	var m []echo.MiddlewareFunc
	if limiter != nil {
		m = append(m, limiter)
	}
	g := e.Group("/api/auth", m...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.Roles...))
}
