package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/filedrop-bot/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Webhook     *handlers.WebhookHandler
	WebhookPath string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Live)
	app.Post(cfg.WebhookPath, cfg.Webhook.Handle)
}
