package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/townhall-portal/internal/api/http/handlers"
	"github.com/spec-kit/townhall-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Requests       *handlers.RequestsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	api := app.Group("/api")
	api.Post("/register", cfg.Users.Register)
	api.Post("/login", cfg.Users.Login)
	api.Post("/submit-request", cfg.Requests.Submit)
	api.Get("/requests/categories", cfg.Requests.Categories)
	api.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	api.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	requireUser := cfg.AuthMiddleware.Handle
	api.Get("/me", requireUser, cfg.Users.Me)
	api.Get("/requests", requireUser, cfg.Requests.ListMine)
	api.Post("/password/change", requireUser, cfg.Users.ChangePassword)
}
