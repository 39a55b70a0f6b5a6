package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/factlens/backend/internal/pipeline"
	"github.com/factlens/backend/internal/storage/sqlite"
	"github.com/factlens/backend/pkg/logger"
)

type CheckHandler struct {
	pipeline *pipeline.Pipeline
	db       *sqlite.Client
}

func NewCheckHandler(p *pipeline.Pipeline, db *sqlite.Client) *CheckHandler {
	return &CheckHandler{
		pipeline: p,
		db:       db,
	}
}

type checkRequest struct {
	URL       string `json:"url"`
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

func (h *CheckHandler) HandleCheck(c *fiber.Ctx) error {
	var req checkRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.URL == "" && req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Either url or text is required",
		})
	}

	check, err := h.pipeline.Run(c.Context(), pipeline.Request{
		URL:       req.URL,
		Text:      req.Text,
		SessionID: req.SessionID,
	})
	if err != nil {
		return respondStageError(c, err)
	}

	return c.JSON(check)
}

func (h *CheckHandler) GetHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	records, err := h.db.GetRecentChecks(limit)
	if err != nil {
		logger.Error("Failed to load check history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	return c.JSON(fiber.Map{
		"checks": records,
	})
}

// respondStageError maps a pipeline failure to a single user-facing
// message. Extraction problems are the caller's to fix; everything
// else is on us.
func respondStageError(c *fiber.Ctx, err error) error {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		status := fiber.StatusBadGateway
		if stageErr.Stage == pipeline.StageExtract {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(fiber.Map{
			"error": stageErr.Message,
			"stage": string(stageErr.Stage),
		})
	}

	logger.Error("Check failed with unexpected error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to process check",
	})
}
