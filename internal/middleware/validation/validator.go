package validation

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxTextLength       int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware rejects malformed check and feedback submissions before
// they reach the pipeline.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxTextLength == 0 {
		cfg.MaxTextLength = 100000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		contentType := c.Get("Content-Type")
		if contentType != "" && !typeAllowed(contentType, cfg.AllowedContentTypes) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		path := c.Path()

		if strings.HasSuffix(path, "/checks") {
			var req struct {
				URL  string `json:"url"`
				Text string `json:"text"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON body",
				})
			}

			if req.URL == "" && req.Text == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Either url or text is required",
				})
			}
			if req.URL != "" && req.Text != "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Provide url or text, not both",
				})
			}

			if req.URL != "" && !isValidURL(req.URL) {
				cfg.Logger.Debug("Rejected malformed article URL", zap.String("url", req.URL))
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid URL format",
				})
			}

			if len(req.Text) > cfg.MaxTextLength {
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Text exceeds maximum length",
				})
			}
		}

		if strings.HasSuffix(path, "/feedback") {
			var req struct {
				Rating *int `json:"rating"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON body",
				})
			}
			if req.Rating == nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "rating is required",
				})
			}
		}

		return c.Next()
	}
}

func typeAllowed(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
