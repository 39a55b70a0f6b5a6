package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/factlens/backend/internal/feedback"
	"github.com/factlens/backend/internal/metrics"
	"github.com/factlens/backend/internal/session"
	"github.com/factlens/backend/internal/storage/models"
	"github.com/factlens/backend/internal/storage/sqlite"
	"github.com/factlens/backend/internal/verdict"
	"github.com/factlens/backend/pkg/logger"
)

type FeedbackHandler struct {
	sessions *session.Store
	db       *sqlite.Client
	log      *feedback.Store
}

func NewFeedbackHandler(sessions *session.Store, db *sqlite.Client, log *feedback.Store) *FeedbackHandler {
	return &FeedbackHandler{
		sessions: sessions,
		db:       db,
		log:      log,
	}
}

type feedbackRequest struct {
	SessionID string `json:"session_id"`
	Rating    int    `json:"rating"`
}

// HandleFeedback rates the session's most recent check. The record
// goes both to the training log and the feedback table.
func (h *FeedbackHandler) HandleFeedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse feedback body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "rating must be between 1 and 5",
		})
	}

	checkID, err := h.sessions.GetLastCheck(c.Context(), req.SessionID)
	if err != nil {
		logger.Error("Failed to look up session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to submit feedback",
		})
	}
	if checkID == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No check found for this session",
		})
	}

	record, err := h.db.GetCheck(checkID)
	if err != nil {
		logger.Error("Failed to load check for feedback", zap.String("check_id", checkID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to submit feedback",
		})
	}

	if err := h.log.Append(feedback.Record{
		Input:  record.Summary,
		Output: resultFromRecord(record),
		Rating: req.Rating,
	}); err != nil {
		logger.Error("Failed to append feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to submit feedback",
		})
	}

	if err := h.db.InsertFeedback(&models.FeedbackRow{CheckID: checkID, Rating: req.Rating}); err != nil {
		logger.Warn("Failed to persist feedback row", zap.Error(err))
	}

	metrics.FeedbackRatings.Observe(float64(req.Rating))

	return c.JSON(fiber.Map{
		"message":  "Thank you for your feedback!",
		"check_id": checkID,
	})
}

func resultFromRecord(record *models.CheckRecord) verdict.Result {
	if record.Malformed {
		return verdict.Result{Malformed: &verdict.Malformed{
			Error:    verdict.InvalidJSONMessage,
			Response: record.RawResponse,
		}}
	}
	return verdict.Result{Verdict: &verdict.Verdict{
		Label:       record.Verdict,
		Score:       record.Score,
		Explanation: record.Explanation,
	}}
}
