// Package verdict asks the reasoning service for a fact-check verdict
// and parses its strict-JSON reply.
package verdict

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/factlens/backend/internal/evidence"
	"github.com/factlens/backend/pkg/circuitbreaker"
	"github.com/factlens/backend/pkg/logger"
)

const (
	LabelTrue       = "TRUE"
	LabelFalse      = "FALSE"
	LabelMisleading = "MISLEADING"
	LabelUnverified = "UNVERIFIED"
)

// InvalidJSONMessage is part of the degraded-result contract; callers
// and the feedback log see it verbatim.
const InvalidJSONMessage = "Invalid JSON format"

// Verdict is the parsed classification for a claim.
type Verdict struct {
	Label       string `json:"verdict"`
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// Malformed carries the raw model output when it cannot be parsed into
// a Verdict. It is a degraded result, not an error.
type Malformed struct {
	Error    string `json:"error"`
	Response string `json:"response"`
}

// Result holds exactly one of Verdict or Malformed.
type Result struct {
	Verdict   *Verdict   `json:"verdict,omitempty"`
	Malformed *Malformed `json:"malformed,omitempty"`
}

type Synthesizer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
}

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func NewSynthesizer(cfg Config) *Synthesizer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	cb := circuitbreaker.New("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Cooldown:         30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	logger.Info("Verdict synthesizer initialized", zap.String("model", cfg.Model))

	return &Synthesizer{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
		cb:          cb,
	}
}

const systemPrompt = `You are an advanced fact-checking AI. Strictly output JSON only. Do not include any other text.
Analyze articles or texts using a chain-of-reasoning approach:
1. Fact check the summary.
2. Refer to the related articles and your knowledge base to get relevant evidence.
3. Compare the summary with evidence.
4. Classify the summary as TRUE, FALSE, MISLEADING, or UNVERIFIED.
5. Provide a truth score from 0 to 100 based on evidence. 0 being definitely false and 100 being definitely true. For unverified summaries, assign a score based on the likelihood of the summary's truth.
6. Provide a clear, structured explanation without mentioning specific sources or articles used for verification.
7. Never reference provided sources or mention that evidence was given. The response must sound like a self-contained fact-check.
8. Ensure the explanation is suitable for a website: concise, structured, and easy to understand.

Return ONLY valid JSON in this format:
{"verdict": "TRUE/FALSE/MISLEADING/UNVERIFIED", "score": XX, "explanation": "Concise reasoning based on evidence."}`

// Synthesize sends the claim and evidence to the reasoning service.
// A transport failure is an error; unparseable model output is not,
// it comes back as a Malformed result carrying the raw text.
func (s *Synthesizer) Synthesize(ctx context.Context, claim string, records []evidence.Record) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	userPrompt := fmt.Sprintf(
		"Fact-check this claim:\n\nSummary of Article: %s\n\nRelated Articles:\n%s\nReturn the response as valid JSON only.",
		claim,
		formatEvidence(records),
	)

	var content string
	err := s.cb.Execute(ctx, func() error {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			Temperature: s.temperature,
			MaxTokens:   s.maxTokens,
		})
		if err != nil {
			return fmt.Errorf("failed to create completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("reasoning service returned no choices")
		}

		logger.Debug("Verdict completion generated",
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		)

		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	result := parseResponse(content)
	if result.Malformed != nil {
		logger.Warn("Reasoning service returned unparseable output",
			zap.Int("raw_chars", len(result.Malformed.Response)),
		)
	}

	return result, nil
}

func formatEvidence(records []evidence.Record) string {
	if len(records) == 0 {
		return "(no related articles found)\n"
	}

	var b strings.Builder
	for i, r := range records {
		b.WriteString(fmt.Sprintf("%d. Title: %s\n   Snippet: %s\n   Link: %s\n", i+1, r.Title, r.Snippet, r.Link))
	}
	return b.String()
}

var fencePattern = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// parseResponse trims the raw output, unwraps a markdown code fence if
// present, and decodes it as JSON with exactly the fields
// {verdict, score, explanation}. Anything else degrades to Malformed
// with the raw text preserved verbatim.
func parseResponse(raw string) Result {
	cleaned := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
	}

	var fields struct {
		Verdict     *string `json:"verdict"`
		Score       *int    `json:"score"`
		Explanation *string `json:"explanation"`
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fields); err != nil {
		return malformed(raw)
	}
	if dec.More() {
		return malformed(raw)
	}
	if fields.Verdict == nil || fields.Score == nil || fields.Explanation == nil {
		return malformed(raw)
	}

	label := strings.ToUpper(strings.TrimSpace(*fields.Verdict))
	switch label {
	case LabelTrue, LabelFalse, LabelMisleading, LabelUnverified:
	default:
		return malformed(raw)
	}

	if *fields.Score < 0 || *fields.Score > 100 {
		return malformed(raw)
	}

	return Result{Verdict: &Verdict{
		Label:       label,
		Score:       *fields.Score,
		Explanation: *fields.Explanation,
	}}
}

func malformed(raw string) Result {
	return Result{Malformed: &Malformed{
		Error:    InvalidJSONMessage,
		Response: raw,
	}}
}
