package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/exam-api/internal/utils"
)

// SecretMatches compares a caller-supplied secret against the configured one
// in constant time. An empty configured secret never matches.
func SecretMatches(configured, provided string) bool {
	if configured == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(provided)) == 1
}

// SecretProtected guards a route with the shared grading secret passed as the
// "secret" query parameter. A missing server-side secret is a configuration
// fault and reported as such.
func SecretProtected(configured string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if configured == "" {
			return utils.SendDetail(c, fiber.StatusInternalServerError, "Grading secret not configured on server")
		}

		if !SecretMatches(configured, c.Query("secret")) {
			return utils.SendDetail(c, fiber.StatusUnauthorized, "Unauthorized: Invalid or missing secret key")
		}

		return c.Next()
	}
}
