// Package describer turns an image URL into a natural-language description
// using a vision model behind one or more OpenRouter credentials.
package describer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/picwrite/internal/config"
	"github.com/abhisek/picwrite/internal/llm"
)

// Instruction is the fixed prompt sent alongside the image.
const Instruction = "What appears in this image? Please provide a detailed description."

// failedPrefix starts the text returned when no credential produced a
// description.
const failedPrefix = "All VLM API requests failed: "

// Attempt pairs a credential label with the provider that uses it.
type Attempt struct {
	Label    string
	Provider llm.Provider
}

// Failure records why one credential did not produce a description.
type Failure struct {
	Label  string
	Kind   llm.FailureKind
	Reason string
}

func (f Failure) String() string {
	return fmt.Sprintf("API key %s: %s", f.Label, f.Reason)
}

// Description is the outcome of DescribeImage. When every credential failed,
// Text holds the combined diagnostics instead of a description and Model is
// empty.
type Description struct {
	Text     string
	Model    string
	Failures []Failure
}

// OK reports whether a credential produced a real description.
func (d Description) OK() bool {
	return d.Model != ""
}

// Describer tries each credential in order until one succeeds.
type Describer struct {
	attempts []Attempt
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// New builds one OpenRouter provider per configured key. Each provider is
// instrumented with logging, metrics and the configured timeout, but never
// retried. m may be nil.
func New(cfg config.VisionConfig, logger zerolog.Logger, m *llm.Metrics) (*Describer, error) {
	attempts := make([]Attempt, 0, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		p, err := llm.NewOpenRouterProvider(llm.OpenRouterConfig{
			APIKey:  key,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("vision credential %s: %w", KeyLabel(key), err)
		}
		attempts = append(attempts, Attempt{
			Label:    KeyLabel(key),
			Provider: llm.Instrument(p, llm.Config{Timeout: cfg.Timeout}, logger, m),
		})
	}
	return NewWithAttempts(attempts, logger), nil
}

// NewWithAttempts builds a Describer over prepared attempts.
func NewWithAttempts(attempts []Attempt, logger zerolog.Logger) *Describer {
	return &Describer{
		attempts: attempts,
		logger:   logger.With().Str("component", "describer").Logger(),
		tracer:   otel.Tracer("github.com/abhisek/picwrite/internal/describer"),
	}
}

// Credentials returns the number of configured credentials.
func (d *Describer) Credentials() int {
	return len(d.attempts)
}

// DescribeImage asks the vision model for a description of imageURL. It
// never returns an error: failures are folded into the Description.
func (d *Describer) DescribeImage(ctx context.Context, model, imageURL string) Description {
	if model == "" {
		model = llm.DefaultVisionModel
	}

	ctx, span := d.tracer.Start(ctx, "describer.describe", trace.WithAttributes(
		attribute.String("model", model),
		attribute.Int("credentials", len(d.attempts)),
	))
	defer span.End()

	ctx = llm.WithPurpose(ctx, llm.PurposeDescribe)
	req := llm.Request{
		Model: model,
		Messages: []llm.Message{{
			Role:      llm.RoleUser,
			Content:   Instruction,
			ImageURLs: []string{imageURL},
		}},
	}

	var failures []Failure
	for i, a := range d.attempts {
		resp, err := a.Provider.Generate(ctx, req)
		if err == nil {
			span.SetAttributes(attribute.Int("attempt", i+1))
			d.logger.Debug().
				Str("credential", a.Label).
				Int("attempt", i+1).
				Msg("image described")
			return Description{Text: resp.Text(), Model: model, Failures: failures}
		}

		f := Failure{Label: a.Label, Kind: llm.Classify(err), Reason: failureReason(err)}
		failures = append(failures, f)
		d.logger.Info().
			Str("credential", a.Label).
			Str("kind", string(f.Kind)).
			Str("reason", f.Reason).
			Msg("vision credential failed")

		if ctx.Err() != nil {
			break
		}
	}

	msgs := make([]string, len(failures))
	for i, f := range failures {
		msgs[i] = f.String()
	}
	text := failedPrefix + strings.Join(msgs, " | ")

	span.SetStatus(codes.Error, "all vision credentials failed")
	d.logger.Warn().
		Int("credentials", len(d.attempts)).
		Msg("no vision credential succeeded, passing diagnostics downstream")

	return Description{Text: text, Failures: failures}
}

// KeyLabel returns the first eight characters of key followed by "...".
func KeyLabel(key string) string {
	if len(key) > 8 {
		key = key[:8]
	}
	return key + "..."
}

func failureReason(err error) string {
	if code, ok := llm.StatusCode(err); ok {
		return fmt.Sprintf("Status %d", code)
	}
	if errors.Is(err, llm.ErrNoChoices) {
		return "No choices in response."
	}
	var unavail *llm.ErrProviderUnavailable
	if errors.As(err, &unavail) && unavail.Err != nil {
		err = unavail.Err
	}
	return fmt.Sprintf("Exception %v", err)
}
