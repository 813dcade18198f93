package llm

import (
	"fmt"
	"net/http"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// DefaultVisionModel is used when a request does not name a vision model.
const DefaultVisionModel = "meta-llama/llama-3.2-11b-vision-instruct:free"

// OpenRouterProvider describes images through OpenRouter's
// OpenAI-compatible chat endpoint. Model IDs are sent verbatim.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider for one OpenRouter API key.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	inner, err := newCompatibleProvider("openrouter", cfg.APIKey,
		orDefault(cfg.Model, DefaultVisionModel),
		orDefault(cfg.BaseURL, defaultOpenRouterBaseURL),
		cfg.HTTPClient)
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}

// newCompatibleProvider builds an OpenAIProvider for third-party endpoints
// that speak the chat completions dialect without json_schema response
// formats or max_completion_tokens.
func newCompatibleProvider(name, apiKey, model, baseURL string, client *http.Client) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingAPIKey)
	}
	return newOpenAIProvider(OpenAIConfig{
		APIKey:              apiKey,
		Model:               model,
		BaseURL:             baseURL,
		DisableNativeSchema: true,
		LegacyMaxTokens:     true,
		HTTPClient:          client,
	}, "")
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
