package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// NewProvider creates the evaluation Provider from configuration.
// It returns the provider wrapped with timeout, retry, metrics and logging
// middleware. m may be nil.
func NewProvider(ctx context.Context, cfg Config, logger zerolog.Logger, m *Metrics) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "deepseek":
		base, err = NewDeepSeekProvider(cfg.DeepSeek)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → timeout → retry → metrics → logging → base
	return Instrument(base, cfg, logger, m), nil
}

// Instrument applies the standard middleware stack to an already built
// provider.
func Instrument(base Provider, cfg Config, logger zerolog.Logger, m *Metrics) Provider {
	logged := WithLogging(base, logger)
	measured := WithMetrics(logged, m)
	retried := WithRetry(measured, cfg.Retry, logger)
	return WithTimeout(retried, cfg.Timeout)
}
