package validation_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/factlens/backend/internal/middleware/validation"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(validation.Middleware(validation.Config{MaxTextLength: 50}))
	handler := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Post("/api/v1/checks", handler)
	app.Post("/api/v1/feedback", handler)
	app.Get("/api/v1/checks/history", handler)
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestCheckRequestValidation(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "valid url", body: `{"url": "https://news.example/story"}`, want: fiber.StatusOK},
		{name: "valid text", body: `{"text": "Some article text."}`, want: fiber.StatusOK},
		{name: "neither", body: `{}`, want: fiber.StatusBadRequest},
		{name: "both", body: `{"url": "https://a.example", "text": "x"}`, want: fiber.StatusBadRequest},
		{name: "invalid json", body: `{not json`, want: fiber.StatusBadRequest},
		{name: "relative url", body: `{"url": "/just/a/path"}`, want: fiber.StatusBadRequest},
		{name: "ftp scheme", body: `{"url": "ftp://files.example/x"}`, want: fiber.StatusBadRequest},
		{name: "text too long", body: `{"text": "` + strings.Repeat("a", 60) + `"}`, want: fiber.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, post(t, app, "/api/v1/checks", tt.body))
		})
	}
}

func TestFeedbackRequestValidation(t *testing.T) {
	app := newTestApp()

	require.Equal(t, fiber.StatusOK, post(t, app, "/api/v1/feedback", `{"session_id": "s", "rating": 4}`))
	require.Equal(t, fiber.StatusBadRequest, post(t, app, "/api/v1/feedback", `{"session_id": "s"}`))
}

func TestUnsupportedContentType(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/checks", strings.NewReader("url=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestGetRequestsPassThrough(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/checks/history", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
