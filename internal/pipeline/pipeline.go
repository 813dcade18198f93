// Package pipeline chains image description and writing evaluation into a
// single JSON report.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/picwrite/internal/config"
	"github.com/abhisek/picwrite/internal/describer"
	"github.com/abhisek/picwrite/internal/evaluator"
	"github.com/abhisek/picwrite/internal/llm"
)

// Model is a selectable vision model.
type Model struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// KnownModels lists the vision models offered to learners. The first entry
// is the default.
var KnownModels = []Model{
	{ID: llm.DefaultVisionModel, Label: "Llama 3.2 11B Vision (free)"},
	{ID: "google/gemini-2.0-flash-exp:free", Label: "Gemini 2.0 Flash (free)"},
}

// IsKnownModel reports whether id is one of KnownModels.
func IsKnownModel(id string) bool {
	for _, m := range KnownModels {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Request is one submission.
type Request struct {
	ImageURL  string
	Paragraph string
	Model     string // Default: KnownModels[0]
	Language  string // Default: "English"
}

// ImageDescriber produces a description of an image.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, model, imageURL string) describer.Description
}

// WritingEvaluator grades a paragraph against a description.
type WritingEvaluator interface {
	EvaluateInput(ctx context.Context, in evaluator.Input) evaluator.Result
}

// Pipeline runs the description then the evaluation.
type Pipeline struct {
	describer ImageDescriber
	evaluator WritingEvaluator
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// New wires a Pipeline from its two stages.
func New(d ImageDescriber, e WritingEvaluator, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		describer: d,
		evaluator: e,
		logger:    logger.With().Str("component", "pipeline").Logger(),
		tracer:    otel.Tracer("github.com/abhisek/picwrite/internal/pipeline"),
	}
}

// NewFromConfig builds both stages from cfg. It fails when the evaluation
// credential is missing.
func NewFromConfig(ctx context.Context, cfg config.Config, logger zerolog.Logger, m *llm.Metrics) (*Pipeline, error) {
	ev, err := evaluator.NewFromConfig(ctx, cfg.Eval, logger, m)
	if err != nil {
		return nil, err
	}
	d, err := describer.New(cfg.Vision, logger, m)
	if err != nil {
		return nil, err
	}
	if d.Credentials() == 0 {
		logger.Warn().Msg("no OPENROUTER_API_KEY_<n> configured, image descriptions will fail")
	}
	return New(d, ev, logger), nil
}

// Run describes the image, evaluates the paragraph and returns the result
// as JSON indented by two spaces. Upstream failures are reported inside
// the JSON. The only error is a context that ended before work started.
func (p *Pipeline) Run(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.Model == "" {
		req.Model = KnownModels[0].ID
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("vision_model", req.Model),
		attribute.Int("paragraph_length", len(req.Paragraph)),
	))
	defer span.End()

	desc := p.describer.DescribeImage(ctx, req.Model, req.ImageURL)
	if !desc.OK() {
		p.logger.Warn().
			Int("failures", len(desc.Failures)).
			Msg("evaluating against vision diagnostics instead of a description")
	}

	result := p.evaluator.EvaluateInput(ctx, evaluator.Input{
		Description: desc.Text,
		Paragraph:   req.Paragraph,
		Language:    req.Language,
	})
	span.SetAttributes(
		attribute.Bool("described", desc.OK()),
		attribute.Bool("fallback", result.Fallback()),
	)

	out, err := Render(result)
	if err != nil {
		return "", fmt.Errorf("render result: %w", err)
	}

	p.logger.Info().
		Str("vision_model", req.Model).
		Bool("described", desc.OK()).
		Bool("fallback", result.Fallback()).
		Msg("evaluation complete")

	return out, nil
}
