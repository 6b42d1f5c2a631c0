package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-api/internal/service"
	"github.com/noah-isme/exam-api/internal/utils"
)

// SubmitHandler accepts exam submission uploads.
type SubmitHandler struct {
	service service.IntakeService
	logger  zerolog.Logger
}

// NewSubmitHandler constructs a submission upload handler.
func NewSubmitHandler(service service.IntakeService, logger zerolog.Logger) *SubmitHandler {
	return &SubmitHandler{
		service: service,
		logger:  logger.With().Str("component", "submit_handler").Logger(),
	}
}

// Register wires the submit route. Middleware is attached to the route
// itself so it never applies to sibling routes.
func (h *SubmitHandler) Register(router fiber.Router, mw ...fiber.Handler) {
	router.Post("/submit", append(mw, h.submit)...)
}

func (h *SubmitHandler) submit(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, "file is required")
	}

	receipt, err := h.service.Submit(c.Context(), file, c.FormValue("exam_code"), c.FormValue("student_id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPayloadTooLarge),
			errors.Is(err, service.ErrEmptyUpload),
			errors.Is(err, service.ErrUnsupportedContentType),
			errors.Is(err, service.ErrInvalidArchive),
			errors.Is(err, service.ErrUnresolvedIdentity):
			return utils.SendDetail(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("submission intake failed")
			return utils.SendDetail(c, fiber.StatusInternalServerError, "Failed to save submission")
		}
	}

	return utils.SendJSON(c, fiber.StatusOK, receipt)
}
