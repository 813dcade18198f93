package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider using the OpenAI SDK.
// It also serves OpenRouter, DeepSeek and other OpenAI-compatible APIs
// via BaseURL.
type OpenAIProvider struct {
	client          *openai.Client
	model           string
	nativeSchema    bool
	legacyMaxTokens bool
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	return newOpenAIProvider(cfg, "openai")
}

// newOpenAIProvider builds the provider, expanding cfg.Model through the
// aliases registered for aliasSet. An empty aliasSet sends IDs untouched.
func newOpenAIProvider(cfg OpenAIConfig, aliasSet string) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	config.HTTPClient = okOnlyDoer{inner: httpClient}

	return &OpenAIProvider{
		client:          openai.NewClientWithConfig(config),
		model:           resolveModel(aliasSet, cfg.Model),
		nativeSchema:    !cfg.DisableNativeSchema,
		legacyMaxTokens: cfg.LegacyMaxTokens,
	}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	chatReq, err := p.chatRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: ErrNoChoices}
	}

	choice := resp.Choices[0]
	stop := "end"
	if choice.FinishReason == openai.FinishReasonLength {
		stop = "max_tokens"
	}
	content, err := structuredContent(req, choice.Message.Content, stop)
	if err != nil {
		return nil, err
	}

	return &Response{
		Content: content,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Model:      resp.Model,
		StopReason: stop,
	}, nil
}

func (p *OpenAIProvider) ModelID() string {
	return p.model
}

func (p *OpenAIProvider) chatRequest(req Request) (openai.ChatCompletionRequest, error) {
	out := openai.ChatCompletionRequest{
		Model:       pickModel(req, p.model),
		Temperature: temperature32(req.Temperature),
	}
	if req.System != "" {
		out.Messages = append(out.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, openAIMessage(m))
	}

	if p.legacyMaxTokens {
		out.MaxTokens = req.MaxTokens
	} else {
		out.MaxCompletionTokens = req.MaxTokens
	}

	if req.Schema != nil && p.nativeSchema {
		def, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return out, fmt.Errorf("marshal schema %q: %w", req.Schema.Name, err)
		}
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Schema:      json.RawMessage(def),
				Strict:      true,
			},
		}
	}
	return out, nil
}

// openAIMessage converts m. Text-only turns use Content; turns with images
// switch to MultiContent, since the SDK rejects both being set.
func openAIMessage(m Message) openai.ChatCompletionMessage {
	role := openai.ChatMessageRoleUser
	if m.Role == RoleAssistant {
		role = openai.ChatMessageRoleAssistant
	}
	if len(m.ImageURLs) == 0 {
		return openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}

	parts := make([]openai.ChatMessagePart, 0, len(m.ImageURLs)+1)
	parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: m.Content})
	for _, u := range m.ImageURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: u},
		})
	}
	return openai.ChatCompletionMessage{Role: role, MultiContent: parts}
}

// mapOpenAIError sorts SDK errors by HTTP status. Errors without one never
// reached a server.
func mapOpenAIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var st *ErrStatus
	if errors.As(err, &st) {
		return st
	}

	var status int
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatusCode
	} else if errors.As(err, &reqErr) {
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == 0:
		return &ErrProviderUnavailable{Err: err}
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err}
	default:
		return &ErrStatus{StatusCode: status, Err: err}
	}
}

// temperature32 narrows t without rounding a draw from [0.9, 1) up to 1.
func temperature32(t float64) float32 {
	f := float32(t)
	if t < 1 && f >= 1 {
		return math.Nextafter32(1, 0)
	}
	return f
}

// okOnlyDoer rejects every final status other than 200 that the SDK would
// otherwise decode as a success. Statuses from 400 up are left to the SDK
// so its error body parsing still applies.
type okOnlyDoer struct {
	inner openai.HTTPDoer
}

func (d okOnlyDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.inner.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		return resp, nil
	}
	resp.Body.Close()
	return nil, &ErrStatus{
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, resp.Status),
	}
}
