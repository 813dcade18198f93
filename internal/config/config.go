package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/picwrite/internal/llm"
)

// maxVisionKeys is the number of OPENROUTER_API_KEY_<n> slots read.
const maxVisionKeys = 4

// Config holds runtime configuration for the service. It is loaded once at
// startup and handed to the components that need it.
type Config struct {
	Addr     string
	LogLevel string

	Vision VisionConfig
	Eval   EvalConfig
}

// VisionConfig configures the image description side.
type VisionConfig struct {
	// APIKeys is the ordered credential set. Empty slots are dropped.
	APIKeys []string
	BaseURL string
	Timeout time.Duration
}

// EvalConfig configures the writing evaluation side.
type EvalConfig struct {
	LLM          llm.Config
	StrictSchema bool
	MaxTokens    int
}

// Load reads configuration values from environment variables and an
// optional .env file in the working directory.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("openrouter_base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("deepseek_base_url", "https://api.deepseek.com/v1")
	v.SetDefault("writing_eval_provider", "deepseek")
	v.SetDefault("writing_eval_strict_schema", "false")
	v.SetDefault("writing_eval_max_tokens", 1500)
	v.SetDefault("writing_eval_timeout", "120s")
	v.SetDefault("writing_eval_retry_attempts", 1)
	v.SetDefault("writing_eval_addr", ":7860")
	v.SetDefault("writing_eval_log_level", "info")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	timeout, err := parseTimeout(v.GetString("writing_eval_timeout"))
	if err != nil {
		return Config{}, err
	}

	strict, err := strconv.ParseBool(strings.TrimSpace(v.GetString("writing_eval_strict_schema")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid WRITING_EVAL_STRICT_SCHEMA: %w", err)
	}

	maxTokens := v.GetInt("writing_eval_max_tokens")
	if maxTokens <= 0 {
		maxTokens = 1500
	}

	attempts := v.GetInt("writing_eval_retry_attempts")
	if attempts <= 0 {
		attempts = 1
	}

	cfg := Config{
		Addr:     v.GetString("writing_eval_addr"),
		LogLevel: strings.ToLower(v.GetString("writing_eval_log_level")),
		Vision: VisionConfig{
			APIKeys: visionKeys(v),
			BaseURL: v.GetString("openrouter_base_url"),
			Timeout: timeout,
		},
		Eval: EvalConfig{
			LLM:          evalLLMConfig(v),
			StrictSchema: strict,
			MaxTokens:    maxTokens,
		},
	}
	cfg.Eval.LLM.Timeout = timeout
	cfg.Eval.LLM.Retry.MaxAttempts = attempts

	return cfg, nil
}

// Validate reports configuration that makes the service unusable. Missing
// vision keys are not an error: every description attempt fails instead.
func (c Config) Validate() error {
	return c.Eval.LLM.Validate()
}

// visionKeys returns the set slots in order. Values are used exactly as
// configured; only an empty slot is skipped.
func visionKeys(v *viper.Viper) []string {
	var keys []string
	for i := 1; i <= maxVisionKeys; i++ {
		if key := v.GetString(fmt.Sprintf("openrouter_api_key_%d", i)); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func evalLLMConfig(v *viper.Viper) llm.Config {
	cfg := llm.DefaultConfig()
	cfg.Provider = strings.ToLower(strings.TrimSpace(v.GetString("writing_eval_provider")))

	cfg.DeepSeek.APIKey = v.GetString("deepseek_api_key")
	cfg.DeepSeek.BaseURL = v.GetString("deepseek_base_url")

	model := v.GetString("writing_eval_model")
	apiKey := v.GetString("writing_eval_api_key")
	baseURL := v.GetString("writing_eval_base_url")

	switch cfg.Provider {
	case "deepseek":
		if model != "" {
			cfg.DeepSeek.Model = model
		}
	case "openai":
		cfg.OpenAI.APIKey = apiKey
		cfg.OpenAI.BaseURL = baseURL
		if model != "" {
			cfg.OpenAI.Model = model
		}
	case "anthropic":
		cfg.Anthropic.APIKey = apiKey
		cfg.Anthropic.BaseURL = baseURL
		if model != "" {
			cfg.Anthropic.Model = model
		}
	case "gemini":
		cfg.Gemini.APIKey = apiKey
		cfg.Gemini.BaseURL = baseURL
		if model != "" {
			cfg.Gemini.Model = model
		}
	}
	return cfg
}

func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid WRITING_EVAL_TIMEOUT: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid WRITING_EVAL_TIMEOUT: %s is negative", raw)
	}
	return d, nil
}
