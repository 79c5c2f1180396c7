package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/karimbenali/docpipe/internal/core/domain"
	"github.com/karimbenali/docpipe/internal/core/llmjson"
	"github.com/karimbenali/docpipe/internal/core/ports"
)

// Stage names used in logs and metrics.
const (
	StageClean    = "clean"
	StageExtract  = "extract"
	StageReview   = "review"
	StageClassify = "classify"
)

// StageObserver receives one observation per executed stage. Implemented by
// the Prometheus pipeline metrics; a nil observer disables recording.
type StageObserver interface {
	ObserveStage(stage string, duration time.Duration, fallback bool)
}

// Pipeline runs the four LLM-backed transformations for one page of text.
// Every stage failure is absorbed at the stage boundary and replaced by the
// stage's documented fallback; a failing model call never fails the page.
type Pipeline struct {
	llm      ports.LLMClient
	logger   *slog.Logger
	observer StageObserver

	fieldSchema map[string]any
}

func NewPipeline(llm ports.LLMClient, logger *slog.Logger, observer StageObserver) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		llm:         llm,
		logger:      logger,
		observer:    observer,
		fieldSchema: llmjson.FieldSetSchema(),
	}
}

// StageOutput is the combined result of all four stages for one page.
type StageOutput struct {
	CleanedText    string
	Fields         domain.FieldSet
	Classification domain.Classification
}

// Run executes Clean sequentially, then Classify concurrently with
// Extract→Review. Both branches complete before the output is returned.
func (p *Pipeline) Run(ctx context.Context, text string) StageOutput {
	cleaned := p.CleanText(ctx, text)

	classifyDone := make(chan domain.Classification, 1)
	go func() {
		classifyDone <- p.Classify(ctx, cleaned)
	}()

	fields := p.ExtractFields(ctx, cleaned)
	fields = p.ReviewFields(ctx, fields)

	return StageOutput{
		CleanedText:    cleaned,
		Fields:         fields,
		Classification: <-classifyDone,
	}
}

// CleanText corrects OCR noise while preserving meaning. Fallback: the
// original text unchanged.
func (p *Pipeline) CleanText(ctx context.Context, text string) string {
	start := time.Now()

	content, err := p.llm.Complete(ctx, buildCleanPrompt(text), RoleCleaner)
	if err != nil {
		p.fallback(StageClean, start, err)
		return text
	}
	cleaned := strings.TrimSpace(content)
	if cleaned == "" {
		p.fallback(StageClean, start, nil)
		return text
	}

	p.observe(StageClean, start, false)
	return cleaned
}

// ExtractFields pulls the canonical field set out of cleaned text. Fallback:
// every canonical field at its sentinel default.
func (p *Pipeline) ExtractFields(ctx context.Context, cleaned string) domain.FieldSet {
	start := time.Now()

	content, err := p.llm.Complete(ctx, buildExtractPrompt(cleaned), RoleExtractor)
	if err != nil {
		p.fallback(StageExtract, start, err)
		return domain.NewSentinelFieldSet()
	}

	parsed, err := llmjson.ExtractObject(content)
	if err != nil {
		p.fallback(StageExtract, start, err)
		return domain.NewSentinelFieldSet()
	}
	if err := p.validateFieldPayload(parsed); err != nil {
		p.fallback(StageExtract, start, err)
		return domain.NewSentinelFieldSet()
	}

	p.observe(StageExtract, start, false)
	return domain.NormalizeFields(parsed)
}

// ReviewFields strips leaked field-label prefixes, collapses empty or
// label-only values to the sentinel and flags ambiguous content. Fallback:
// the unreviewed field set unchanged.
func (p *Pipeline) ReviewFields(ctx context.Context, fields domain.FieldSet) domain.FieldSet {
	start := time.Now()

	content, err := p.llm.Complete(ctx, buildReviewPrompt(fields), RoleReviewer)
	if err != nil {
		p.fallback(StageReview, start, err)
		return fields
	}

	parsed, err := llmjson.ExtractObject(content)
	if err != nil {
		p.fallback(StageReview, start, err)
		return fields
	}

	p.observe(StageReview, start, false)
	return domain.NormalizeFields(parsed)
}

// Classify assigns one of the closed category labels. Fallback:
// other/low/"classification failed".
func (p *Pipeline) Classify(ctx context.Context, cleaned string) domain.Classification {
	start := time.Now()

	content, err := p.llm.Complete(ctx, buildClassifyPrompt(cleaned), RoleClassifier)
	if err != nil {
		p.fallback(StageClassify, start, err)
		return domain.FallbackClassification()
	}

	parsed, err := llmjson.ExtractObject(content)
	if err != nil {
		p.fallback(StageClassify, start, err)
		return domain.FallbackClassification()
	}

	cls := classificationFromObject(parsed)
	p.observe(StageClassify, start, false)
	return cls
}

func (p *Pipeline) validateFieldPayload(parsed map[string]any) error {
	payload, err := json.Marshal(parsed)
	if err != nil {
		return err
	}
	return llmjson.ValidateAgainstSchema(p.fieldSchema, payload)
}

func classificationFromObject(parsed map[string]any) domain.Classification {
	cls := domain.Classification{
		Category:   domain.NormalizeCategory(stringField(parsed, "category")),
		Confidence: stringField(parsed, "confidence"),
		Reason:     stringField(parsed, "reason"),
	}
	switch cls.Confidence {
	case domain.ConfidenceHigh, domain.ConfidenceMedium, domain.ConfidenceLow:
	default:
		cls.Confidence = domain.ConfidenceLow
	}
	if raw, ok := parsed["features"].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				cls.Features = append(cls.Features, s)
			}
		}
	}
	return cls
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func (p *Pipeline) observe(stage string, start time.Time, fallback bool) {
	if p.observer != nil {
		p.observer.ObserveStage(stage, time.Since(start), fallback)
	}
}

func (p *Pipeline) fallback(stage string, start time.Time, err error) {
	p.logger.Warn("pipeline_stage_fallback", "stage", stage, "error", err)
	p.observe(stage, start, true)
}
