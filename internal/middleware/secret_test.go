package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-api/internal/middleware"
)

func TestSecretMatches(t *testing.T) {
	require.True(t, middleware.SecretMatches("s3cret", "s3cret"))
	require.False(t, middleware.SecretMatches("s3cret", "wrong"))
	require.False(t, middleware.SecretMatches("s3cret", ""))
	require.False(t, middleware.SecretMatches("", ""))
}

func TestSecretProtected(t *testing.T) {
	app := fiber.New()
	app.Get("/guarded", middleware.SecretProtected("s3cret"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/guarded", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/guarded?secret=wrong", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/guarded?secret=s3cret", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSecretProtectedUnconfigured(t *testing.T) {
	app := fiber.New()
	app.Get("/guarded", middleware.SecretProtected(""), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/guarded?secret=anything", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
