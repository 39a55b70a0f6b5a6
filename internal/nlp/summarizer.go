// Package nlp holds the language-model service boundaries: the hosted
// summarization model and the named-entity extractor.
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/factlens/backend/pkg/logger"
)

// Summarizer condenses article text into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// HFSummarizer calls a hosted summarization model on the HuggingFace
// Inference API. Input at or below the threshold is returned verbatim;
// short text is already its own summary.
type HFSummarizer struct {
	endpoint   string
	model      string
	apiKey     string
	maxLength  int
	minLength  int
	threshold  int
	httpClient *http.Client
}

type HFSummarizerConfig struct {
	Endpoint  string
	Model     string
	APIKey    string
	MaxLength int
	MinLength int
	Threshold int
	Timeout   time.Duration
}

func NewHFSummarizer(cfg HFSummarizerConfig) *HFSummarizer {
	return &HFSummarizer{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		maxLength: cfg.MaxLength,
		minLength: cfg.MinLength,
		threshold: cfg.Threshold,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (s *HFSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if len(text) <= s.threshold {
		logger.Debug("Input below summarization threshold, returning verbatim",
			zap.Int("chars", len(text)),
		)
		return text, nil
	}

	payload, err := json.Marshal(map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"max_length": s.maxLength,
			"min_length": s.minLength,
			"do_sample":  false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal summarization payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s", s.endpoint, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("new summarization request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarization request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("summarization service returned %s: %s",
			resp.Status, strings.TrimSpace(string(body)))
	}

	var out []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode summarization response: %w", err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("summarization service returned no candidates")
	}

	summary := out[0].SummaryText

	logger.Debug("Article summarized",
		zap.Int("input_chars", len(text)),
		zap.Int("summary_chars", len(summary)),
	)

	return summary, nil
}
