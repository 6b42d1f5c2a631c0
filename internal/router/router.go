package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/exam-api/internal/config"
	"github.com/noah-isme/exam-api/internal/handler"
	"github.com/noah-isme/exam-api/internal/middleware"
	"github.com/noah-isme/exam-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmitHandler   *handler.SubmitHandler
	GradingHandler  *handler.GradingHandler
	DownloadHandler *handler.DownloadHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/", handler.ServiceInfo(cfg))
	api.Get("/health", handler.HealthCheck(cfg))

	// Route-scoped middleware: a group with an empty prefix would leak its
	// handlers onto every /api route registered after it.
	if deps.SubmitHandler != nil {
		deps.SubmitHandler.Register(api, middleware.RateLimit("submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow))
	}

	if deps.GradingHandler != nil {
		deps.GradingHandler.Register(api, middleware.SecretProtected(cfg.GradingSecret))
	}

	// Download carries its secret in the JSON body; the handler gates itself.
	if deps.DownloadHandler != nil {
		deps.DownloadHandler.Register(api)
	}
}
