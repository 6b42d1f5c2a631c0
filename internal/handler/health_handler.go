package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/exam-api/internal/config"
	"github.com/noah-isme/exam-api/internal/dto"
	"github.com/noah-isme/exam-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		return utils.SendJSON(c, fiber.StatusOK, payload)
	}
}

// ServiceInfo returns the root endpoint handler describing the API.
func ServiceInfo(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return utils.SendJSON(c, fiber.StatusOK, dto.ServiceInfo{
			Message: cfg.AppName,
			Version: "1.0.0",
			Endpoints: map[string]string{
				"submit":        "POST /api/submit",
				"start_grading": "GET /api/start-grading",
				"download":      "POST /api/download",
			},
		})
	}
}
