package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-api/internal/dto"
	"github.com/noah-isme/exam-api/internal/middleware"
	"github.com/noah-isme/exam-api/internal/service"
	"github.com/noah-isme/exam-api/internal/utils"
	"github.com/noah-isme/exam-api/pkg/blobstore"
)

// DownloadHandler serves stored submissions for manual grading. The secret
// travels in the JSON body, so gating happens here rather than in middleware.
type DownloadHandler struct {
	service  service.DownloadService
	validate *validator.Validate
	secret   string
	logger   zerolog.Logger
}

// NewDownloadHandler constructs a submission download handler.
func NewDownloadHandler(service service.DownloadService, validate *validator.Validate, secret string, logger zerolog.Logger) *DownloadHandler {
	return &DownloadHandler{
		service:  service,
		validate: validate,
		secret:   secret,
		logger:   logger.With().Str("component", "download_handler").Logger(),
	}
}

// Register wires the download route.
func (h *DownloadHandler) Register(router fiber.Router) {
	router.Post("/download", h.download)
}

func (h *DownloadHandler) download(c *fiber.Ctx) error {
	var req dto.DownloadRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, "exam_code and secret are required")
	}

	if !middleware.SecretMatches(h.secret, req.Secret) {
		return utils.SendDetail(c, fiber.StatusUnauthorized, "Unauthorized: Invalid or missing secret key")
	}

	var (
		data     []byte
		filename string
		err      error
	)
	if req.StudentID != "" {
		data, filename, err = h.service.Single(c.Context(), req.ExamCode, req.StudentID)
	} else {
		data, filename, err = h.service.Batch(c.Context(), req.ExamCode)
	}
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return utils.SendDetail(c, fiber.StatusNotFound, "submission not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("download failed")
		return utils.SendDetail(c, fiber.StatusInternalServerError, "download failed")
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
