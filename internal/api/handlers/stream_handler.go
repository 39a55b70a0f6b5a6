package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/factlens/backend/internal/pipeline"
	"github.com/factlens/backend/pkg/logger"
)

// StreamHandler runs checks over a websocket, emitting a stage event
// as each pipeline stage starts so the client can show progress.
type StreamHandler struct {
	pipeline *pipeline.Pipeline
}

func NewStreamHandler(p *pipeline.Pipeline) *StreamHandler {
	return &StreamHandler{pipeline: p}
}

var stageMessages = map[pipeline.Stage]string{
	pipeline.StageExtract:   "Extracting article text...",
	pipeline.StageSummarize: "Summarizing...",
	pipeline.StageEntities:  "Finding named entities...",
	pipeline.StageEvidence:  "Searching for related articles...",
	pipeline.StageVerdict:   "Asking the fact-checker...",
}

func (h *StreamHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("Check stream connected")

	defer func() {
		c.Close()
		logger.Info("Check stream closed")
	}()

	for {
		var msg struct {
			Type      string `json:"type"`
			URL       string `json:"url"`
			Text      string `json:"text"`
			SessionID string `json:"session_id"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("Check stream read ended", zap.Error(err))
			break
		}

		if msg.Type != "check" {
			continue
		}

		check, err := h.pipeline.Run(context.Background(), pipeline.Request{
			URL:       msg.URL,
			Text:      msg.Text,
			SessionID: msg.SessionID,
			Progress: func(stage pipeline.Stage) {
				h.send(c, map[string]any{
					"type":    "stage",
					"stage":   string(stage),
					"message": stageMessages[stage],
				})
			},
		})
		if err != nil {
			h.sendError(c, err)
			continue
		}

		h.send(c, map[string]any{
			"type":  "complete",
			"check": check,
		})
	}
}

func (h *StreamHandler) send(c *websocket.Conn, msg map[string]any) {
	if err := c.WriteJSON(msg); err != nil {
		logger.Warn("Failed to write stream message", zap.Error(err))
	}
}

func (h *StreamHandler) sendError(c *websocket.Conn, err error) {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		h.send(c, map[string]any{
			"type":  "error",
			"stage": string(stageErr.Stage),
			"error": stageErr.Message,
		})
		return
	}

	h.send(c, map[string]any{
		"type":  "error",
		"error": "Failed to process check",
	})
}
