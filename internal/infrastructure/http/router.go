package http

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/openclass/lms-client/internal/core/ports"
	"github.com/openclass/lms-client/internal/infrastructure/http/handlers"
)

// NewRouter builds the agent's introspection server: health probes,
// session/sync status, and Prometheus metrics.
func NewRouter(gw ports.Gateway, tokens ports.TokenStore, session ports.SessionStore, sync ports.NotificationSync) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// --- Global middleware ---
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("lms_agent"))

	health := handlers.NewHealthHandler()
	ready := handlers.NewReadinessHandler(gw, tokens)
	status := handlers.NewStatusHandler(session, sync)

	e.GET("/health", health.Liveness)       // liveness  – is the process alive?
	e.GET("/health/ready", ready.Readiness) // readiness – is the gateway reachable?
	e.GET("/status", status.Status)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
