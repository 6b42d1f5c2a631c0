package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-api/internal/service"
	"github.com/noah-isme/exam-api/internal/utils"
)

// GradingHandler triggers batch grading runs. The route itself is guarded by
// the shared-secret middleware; see router.Register.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs a grading trigger handler.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register wires the grading route. The secret guard arrives as route
// middleware so it gates only this route.
func (h *GradingHandler) Register(router fiber.Router, mw ...fiber.Handler) {
	router.Get("/start-grading", append(mw, h.startGrading)...)
}

func (h *GradingHandler) startGrading(c *fiber.Ctx) error {
	summary, err := h.service.Run(c.Context(), c.Query("exam_code"))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("grading run failed")
		return utils.SendDetail(c, fiber.StatusInternalServerError, "Grading process failed: "+err.Error())
	}

	return utils.SendJSON(c, fiber.StatusOK, summary)
}
