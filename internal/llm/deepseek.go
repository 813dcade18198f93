package llm

const (
	defaultDeepSeekBaseURL = "https://api.deepseek.com/v1"
	defaultDeepSeekModel   = "deepseek-chat"
)

// DeepSeekProvider grades writing through the DeepSeek chat API.
type DeepSeekProvider struct {
	*OpenAIProvider
}

// NewDeepSeekProvider creates a provider targeting the DeepSeek API.
func NewDeepSeekProvider(cfg DeepSeekConfig) (*DeepSeekProvider, error) {
	inner, err := newCompatibleProvider("deepseek", cfg.APIKey,
		orDefault(cfg.Model, defaultDeepSeekModel),
		orDefault(cfg.BaseURL, defaultDeepSeekBaseURL),
		cfg.HTTPClient)
	if err != nil {
		return nil, err
	}
	return &DeepSeekProvider{OpenAIProvider: inner}, nil
}
