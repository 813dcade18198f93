package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LoggingProvider is a decorator that writes one structured log line per
// LLM request.
type LoggingProvider struct {
	inner  Provider
	logger zerolog.Logger
}

// WithLogging wraps a Provider with request logging.
func WithLogging(p Provider, logger zerolog.Logger) Provider {
	return &LoggingProvider{
		inner:  p,
		logger: logger.With().Str("component", "llm").Logger(),
	}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	model := pickModel(req, l.inner.ModelID())

	var event *zerolog.Event
	if err != nil {
		event = l.logger.Warn().Err(err).Str("outcome", string(Classify(err)))
	} else {
		event = l.logger.Debug().Str("outcome", "ok")
	}
	event = event.
		Str("purpose", string(PurposeFrom(ctx))).
		Str("model", model).
		Int("images", countImages(req.Messages)).
		Dur("latency", time.Since(start))

	if resp != nil {
		if resp.Model != "" {
			event = event.Str("response_model", resp.Model)
		}
		event = event.
			Int("input_tokens", resp.Usage.InputTokens).
			Int("output_tokens", resp.Usage.OutputTokens)
		if cost := LookupCost(resp.Model); cost != nil {
			event = event.Float64("cost_usd", cost.Cost(resp.Usage.InputTokens, resp.Usage.OutputTokens))
		}
	}

	event.Msg("llm request")
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func countImages(msgs []Message) int {
	n := 0
	for _, m := range msgs {
		n += len(m.ImageURLs)
	}
	return n
}
