package llm

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrMissingAPIKey is returned when a provider is built without credentials.
var ErrMissingAPIKey = errors.New("API key is required")

// Config holds the evaluation-side LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "deepseek", "openai", "anthropic", "gemini", "mock"
	Provider string

	DeepSeek  DeepSeekConfig
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Gemini    GeminiConfig
	Retry     RetryConfig

	// Timeout is the maximum duration for a single LLM request
	// (including retries). Zero disables the limit.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey     string
	Model      string // Default: "claude-haiku"
	BaseURL    string // Optional. Defaults to the SDK endpoint.
	HTTPClient *http.Client
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.

	// DisableNativeSchema stops the provider from sending json_schema
	// response formats. Responses are still validated locally.
	DisableNativeSchema bool

	// LegacyMaxTokens sends max_tokens instead of max_completion_tokens.
	LegacyMaxTokens bool

	HTTPClient *http.Client
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey     string
	Model      string // Default: "gemini-flash"
	BaseURL    string // Optional. Defaults to the SDK endpoint.
	HTTPClient *http.Client
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey     string
	Model      string // Default: "meta-llama/llama-3.2-11b-vision-instruct:free"
	BaseURL    string // Default: "https://openrouter.ai/api/v1"
	HTTPClient *http.Client
}

// DeepSeekConfig holds DeepSeek-specific configuration.
type DeepSeekConfig struct {
	APIKey     string
	Model      string // Default: "deepseek-chat"
	BaseURL    string // Default: "https://api.deepseek.com/v1"
	HTTPClient *http.Client
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
// A single attempt means no retries.
func DefaultConfig() Config {
	return Config{
		Provider: "deepseek",
		DeepSeek: DeepSeekConfig{
			Model:   defaultDeepSeekModel,
			BaseURL: defaultDeepSeekBaseURL,
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Retry: RetryConfig{
			MaxAttempts: 1,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 120 * time.Second,
	}
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "deepseek":
		if c.DeepSeek.APIKey == "" {
			return fmt.Errorf("DEEPSEEK_API_KEY: %w", ErrMissingAPIKey)
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("WRITING_EVAL_API_KEY for the openai provider: %w", ErrMissingAPIKey)
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("WRITING_EVAL_API_KEY for the anthropic provider: %w", ErrMissingAPIKey)
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("WRITING_EVAL_API_KEY for the gemini provider: %w", ErrMissingAPIKey)
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
