// Package pipeline sequences a credibility check: article text to
// summary to entities to evidence to verdict, stopping at the first
// stage whose failure makes continuation meaningless.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/factlens/backend/internal/evidence"
	"github.com/factlens/backend/internal/metrics"
	"github.com/factlens/backend/internal/nlp"
	"github.com/factlens/backend/internal/storage/models"
	"github.com/factlens/backend/internal/verdict"
	"github.com/factlens/backend/pkg/logger"
)

type Stage string

const (
	StageExtract   Stage = "extract"
	StageSummarize Stage = "summarize"
	StageEntities  Stage = "entities"
	StageEvidence  Stage = "evidence"
	StageVerdict   Stage = "verdict"
)

// StageError aborts a check with a single user-facing message for the
// stage that failed.
type StageError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type ArticleExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

type EvidenceRetriever interface {
	Retrieve(ctx context.Context, entities []nlp.Entity) []evidence.Record
}

type VerdictSynthesizer interface {
	Synthesize(ctx context.Context, claim string, records []evidence.Record) (verdict.Result, error)
}

// Recorder persists finished checks. Persistence failures are logged,
// not surfaced; the user still gets their result.
type Recorder interface {
	InsertCheck(record *models.CheckRecord) error
	InsertEvidence(row *models.EvidenceRow) error
}

// Associator remembers which check a session saw last, for feedback.
type Associator interface {
	SetLastCheck(ctx context.Context, sessionID, checkID string) error
}

type Pipeline struct {
	extractor   ArticleExtractor
	summarizer  nlp.Summarizer
	entities    nlp.EntityExtractor
	retriever   EvidenceRetriever
	synthesizer VerdictSynthesizer
	recorder    Recorder
	associator  Associator
}

func New(
	extractor ArticleExtractor,
	summarizer nlp.Summarizer,
	entities nlp.EntityExtractor,
	retriever EvidenceRetriever,
	synthesizer VerdictSynthesizer,
	recorder Recorder,
	associator Associator,
) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		summarizer:  summarizer,
		entities:    entities,
		retriever:   retriever,
		synthesizer: synthesizer,
		recorder:    recorder,
		associator:  associator,
	}
}

// Request is one check invocation. Exactly one of URL or Text should
// be set; Text skips the extraction stage. Progress, when non-nil, is
// called as each stage starts.
type Request struct {
	URL       string
	Text      string
	SessionID string
	Progress  func(Stage)
}

type Check struct {
	ID        string            `json:"id"`
	InputKind string            `json:"input_kind"`
	Summary   string            `json:"summary"`
	Entities  []nlp.Entity      `json:"entities"`
	Evidence  []evidence.Record `json:"evidence"`
	Result    verdict.Result    `json:"result"`
	LatencyMS int               `json:"latency_ms"`
}

// Run executes the stages in order. The returned error is always a
// *StageError; entity and evidence failures degrade to empty results
// and do not abort.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Check, error) {
	startTime := time.Now()
	checkID := uuid.New().String()

	logger.Info("Starting check",
		zap.String("check_id", checkID),
		zap.String("url", req.URL),
		zap.Bool("has_text", req.Text != ""),
	)

	articleText, inputKind, err := p.articleText(ctx, req)
	if err != nil {
		return nil, p.fail(err)
	}

	req.notify(StageSummarize)
	summary, err := p.summarize(ctx, articleText)
	if err != nil {
		// The summarization service's own message is the user-facing
		// error, matching how callers have always seen this failure.
		return nil, p.fail(&StageError{Stage: StageSummarize, Message: err.Error(), Err: err})
	}

	req.notify(StageEntities)
	entities := p.extractEntities(summary)

	req.notify(StageEvidence)
	records := p.retrieveEvidence(ctx, entities)
	metrics.EvidenceRecords.Observe(float64(len(records)))

	req.notify(StageVerdict)
	result, err := p.synthesize(ctx, summary, records)
	if err != nil {
		return nil, p.fail(&StageError{
			Stage:   StageVerdict,
			Message: "Could not reach the reasoning service.",
			Err:     err,
		})
	}

	check := &Check{
		ID:        checkID,
		InputKind: inputKind,
		Summary:   summary,
		Entities:  entities,
		Evidence:  records,
		Result:    result,
		LatencyMS: int(time.Since(startTime).Milliseconds()),
	}

	p.record(check, req.URL)
	p.associate(ctx, req.SessionID, checkID)

	metrics.ChecksTotal.WithLabelValues("ok").Inc()
	if result.Verdict != nil {
		metrics.VerdictScore.Observe(float64(result.Verdict.Score))
	} else {
		metrics.MalformedVerdicts.Inc()
	}

	logger.Info("Check completed",
		zap.String("check_id", checkID),
		zap.Int("entities", len(entities)),
		zap.Int("evidence", len(records)),
		zap.Bool("malformed", result.Malformed != nil),
		zap.Int("latency_ms", check.LatencyMS),
	)

	return check, nil
}

func (p *Pipeline) articleText(ctx context.Context, req Request) (string, string, error) {
	if req.URL != "" {
		req.notify(StageExtract)
		timer := time.Now()
		text, err := p.extractor.Extract(ctx, req.URL)
		metrics.StageDuration.WithLabelValues(string(StageExtract)).Observe(time.Since(timer).Seconds())
		if err != nil {
			return "", "", &StageError{
				Stage:   StageExtract,
				Message: "Invalid URL. Could not extract text.",
				Err:     err,
			}
		}
		return text, models.InputKindURL, nil
	}

	if req.Text != "" {
		return req.Text, models.InputKindText, nil
	}

	return "", "", &StageError{Stage: StageExtract, Message: "No article URL or text provided."}
}

func (p *Pipeline) summarize(ctx context.Context, text string) (string, error) {
	timer := time.Now()
	summary, err := p.summarizer.Summarize(ctx, text)
	metrics.StageDuration.WithLabelValues(string(StageSummarize)).Observe(time.Since(timer).Seconds())
	return summary, err
}

// extractEntities degrades to an empty slice; a failed extraction does
// not abort the check.
func (p *Pipeline) extractEntities(summary string) []nlp.Entity {
	timer := time.Now()
	entities, err := p.entities.Extract(summary)
	metrics.StageDuration.WithLabelValues(string(StageEntities)).Observe(time.Since(timer).Seconds())
	if err != nil {
		logger.Warn("Entity extraction failed, continuing without entities", zap.Error(err))
		metrics.StageFailures.WithLabelValues(string(StageEntities)).Inc()
		return nil
	}
	return entities
}

func (p *Pipeline) retrieveEvidence(ctx context.Context, entities []nlp.Entity) []evidence.Record {
	timer := time.Now()
	records := p.retriever.Retrieve(ctx, entities)
	metrics.StageDuration.WithLabelValues(string(StageEvidence)).Observe(time.Since(timer).Seconds())
	return records
}

func (p *Pipeline) synthesize(ctx context.Context, summary string, records []evidence.Record) (verdict.Result, error) {
	timer := time.Now()
	result, err := p.synthesizer.Synthesize(ctx, summary, records)
	metrics.StageDuration.WithLabelValues(string(StageVerdict)).Observe(time.Since(timer).Seconds())
	return result, err
}

func (p *Pipeline) record(check *Check, sourceURL string) {
	if p.recorder == nil {
		return
	}

	record := &models.CheckRecord{
		ID:            check.ID,
		InputKind:     check.InputKind,
		SourceURL:     sourceURL,
		Summary:       check.Summary,
		EvidenceCount: len(check.Evidence),
		LatencyMS:     check.LatencyMS,
		CreatedAt:     time.Now(),
	}

	if check.Result.Verdict != nil {
		record.Verdict = check.Result.Verdict.Label
		record.Score = check.Result.Verdict.Score
		record.Explanation = check.Result.Verdict.Explanation
	} else if check.Result.Malformed != nil {
		record.Malformed = true
		record.RawResponse = check.Result.Malformed.Response
	}

	if err := p.recorder.InsertCheck(record); err != nil {
		logger.Warn("Failed to persist check", zap.String("check_id", check.ID), zap.Error(err))
		return
	}

	for i, rec := range check.Evidence {
		row := &models.EvidenceRow{
			CheckID:  check.ID,
			Position: i,
			Title:    rec.Title,
			Snippet:  rec.Snippet,
			Link:     rec.Link,
		}
		if err := p.recorder.InsertEvidence(row); err != nil {
			logger.Warn("Failed to persist evidence row", zap.String("check_id", check.ID), zap.Error(err))
		}
	}
}

func (p *Pipeline) associate(ctx context.Context, sessionID, checkID string) {
	if p.associator == nil || sessionID == "" {
		return
	}
	if err := p.associator.SetLastCheck(ctx, sessionID, checkID); err != nil {
		logger.Warn("Failed to associate session with check",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}

func (p *Pipeline) fail(err error) error {
	if stageErr, ok := err.(*StageError); ok {
		metrics.StageFailures.WithLabelValues(string(stageErr.Stage)).Inc()
	}
	metrics.ChecksTotal.WithLabelValues("failed").Inc()
	logger.Error("Check failed", zap.Error(err))
	return err
}

func (r Request) notify(stage Stage) {
	if r.Progress != nil {
		r.Progress(stage)
	}
}
