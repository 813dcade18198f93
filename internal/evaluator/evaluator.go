// Package evaluator grades a learner's paragraph against an image
// description using a text-generation model.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/picwrite/internal/config"
	"github.com/abhisek/picwrite/internal/llm"
)

// ErrMissingCredential is returned by NewFromConfig when the evaluation API
// key is not configured.
var ErrMissingCredential = llm.ErrMissingAPIKey

// DefaultLanguage is used when an Input leaves Language empty.
const DefaultLanguage = "English"

// Config holds evaluator settings.
type Config struct {
	MaxTokens int

	// StrictSchema validates model output against EvaluationSchema.
	StrictSchema bool

	// Temperature returns the sampling temperature for one call.
	// Default: uniform in [0.9, 1.0).
	Temperature func() float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1500,
		Temperature: defaultTemperature,
	}
}

func defaultTemperature() float64 {
	return 0.9 + 0.1*rand.Float64()
}

// Input is one evaluation request.
type Input struct {
	Description string
	Paragraph   string
	Language    string
}

// Evaluator sends one request per evaluation to a single provider.
type Evaluator struct {
	provider llm.Provider
	cfg      Config
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// New creates an Evaluator on top of provider.
func New(provider llm.Provider, cfg Config, logger zerolog.Logger) *Evaluator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1500
	}
	if cfg.Temperature == nil {
		cfg.Temperature = defaultTemperature
	}
	return &Evaluator{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With().Str("component", "evaluator").Logger(),
		tracer:   otel.Tracer("github.com/abhisek/picwrite/internal/evaluator"),
	}
}

// NewFromConfig builds the configured provider and an Evaluator on top
// of it. A missing API key yields an error wrapping ErrMissingCredential.
func NewFromConfig(ctx context.Context, cfg config.EvalConfig, logger zerolog.Logger, m *llm.Metrics) (*Evaluator, error) {
	provider, err := llm.NewProvider(ctx, cfg.LLM, logger, m)
	if err != nil {
		return nil, fmt.Errorf("evaluation provider: %w", err)
	}
	ecfg := DefaultConfig()
	ecfg.MaxTokens = cfg.MaxTokens
	ecfg.StrictSchema = cfg.StrictSchema
	return New(provider, ecfg, logger), nil
}

// ModelID returns the evaluation model.
func (e *Evaluator) ModelID() string {
	return e.provider.ModelID()
}

// Evaluate grades paragraph against description in DefaultLanguage.
func (e *Evaluator) Evaluate(ctx context.Context, description, paragraph string) Result {
	return e.EvaluateInput(ctx, Input{Description: description, Paragraph: paragraph})
}

// EvaluateInput grades one Input. It never returns an error: every failure
// becomes a fallback Result whose tips carry the diagnostic.
func (e *Evaluator) EvaluateInput(ctx context.Context, in Input) Result {
	if in.Language == "" {
		in.Language = DefaultLanguage
	}

	ctx, span := e.tracer.Start(ctx, "evaluator.evaluate", trace.WithAttributes(
		attribute.String("model", e.provider.ModelID()),
		attribute.Bool("strict", e.cfg.StrictSchema),
	))
	defer span.End()

	result := e.evaluate(llm.WithPurpose(ctx, llm.PurposeEvaluate), in)
	if result.Fallback() {
		span.SetStatus(codes.Error, "evaluation fell back")
	}
	return result
}

func (e *Evaluator) evaluate(ctx context.Context, in Input) Result {
	system, err := buildSystemPrompt(in.Language)
	if err != nil {
		return fallbackResult(fmt.Sprintf("Exception occurred: %v", err))
	}
	user, err := buildUserPrompt(in)
	if err != nil {
		return fallbackResult(fmt.Sprintf("Exception occurred: %v", err))
	}

	req := llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: user}},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature(),
	}
	if e.cfg.StrictSchema {
		req.Schema = EvaluationSchema
	}

	resp, err := e.provider.Generate(ctx, req)
	if err != nil {
		e.logger.Warn().Err(err).Str("kind", string(llm.Classify(err))).Msg("evaluation failed")
		return failureResult(err)
	}

	clean := llm.StripCodeFence(resp.Text())
	result, err := parsedResult(clean)
	if err != nil {
		e.logger.Warn().Err(err).Int("content_length", len(clean)).Msg("evaluation is not a JSON object")
		return fallbackResult(fmt.Sprintf("Invalid JSON format: %v", err), "Raw content:", clean)
	}
	return result
}

// failureResult maps a provider error to the matching fallback.
func failureResult(err error) Result {
	if errors.Is(err, llm.ErrNoChoices) {
		return fallbackResult("No choices in response.")
	}
	if code, ok := llm.StatusCode(err); ok {
		return fallbackResult(fmt.Sprintf("API Error: %d", code))
	}

	var inv *llm.ErrInvalidResponse
	if errors.As(err, &inv) {
		cause := inv.Err
		if cause == nil {
			cause = err
		}
		return fallbackResult(fmt.Sprintf("Invalid JSON format: %v", cause), "Raw content:", string(inv.Content))
	}
	var maxTok *llm.ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return fallbackResult(fmt.Sprintf("Invalid JSON format: %v", err), "Raw content:", string(maxTok.Content))
	}

	var unavail *llm.ErrProviderUnavailable
	if errors.As(err, &unavail) && unavail.Err != nil {
		err = unavail.Err
	}
	return fallbackResult(fmt.Sprintf("Exception occurred: %v", err))
}
