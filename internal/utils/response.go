package utils

import "github.com/gofiber/fiber/v2"

// ErrorDetail is the failure body shape shared by all endpoints. The field
// name matches the legacy deployment's error responses.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

// SendDetail sends an error JSON response with the given status code.
func SendDetail(c *fiber.Ctx, status int, detail string) error {
	if detail == "" {
		detail = "request failed"
	}

	return c.Status(status).JSON(ErrorDetail{Detail: detail})
}

// SendJSON sends a success payload with the provided HTTP status code.
func SendJSON(c *fiber.Ctx, status int, payload interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(payload)
}
