// Package llm talks to the chat-completion backends picwrite uses: an
// OpenRouter vision model for image descriptions and a text model
// (DeepSeek by default) for grading. Backends share the Provider
// interface and are composed with logging, metrics, retry and timeout
// decorators.
package llm

import (
	"context"
	"encoding/json"
)

// Provider sends one chat request to a model.
type Provider interface {
	// Generate returns the model's reply. With req.Schema set the
	// Content has been unfenced and validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the model used when a request does not name one.
	ModelID() string
}

// Request is a single chat call.
type Request struct {
	// Model overrides ModelID for this call. The vision model is chosen
	// per submission.
	Model string

	System   string
	Messages []Message

	// Schema, when set, makes the reply a validated JSON document.
	Schema *Schema

	// MaxTokens caps the reply. Zero leaves the backend default, except
	// for Anthropic which needs an explicit limit.
	MaxTokens int

	// Temperature is passed through when positive.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string

	// ImageURLs follow the text as image parts. Only OpenAI-compatible
	// backends accept them.
	ImageURLs []string
}

// Role is who sent a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema document.
type Schema struct {
	// Name keys the compiled-schema cache and is sent as the schema name
	// where the backend supports one, e.g. "writing-evaluation".
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a model reply.
type Response struct {
	// Content is the reply text, or the validated JSON when the request
	// carried a Schema.
	Content json.RawMessage
	Usage   Usage

	// Model is whichever model actually answered.
	Model string

	// StopReason is "end" or "max_tokens".
	StopReason string
}

// Text returns Content as a string; nil responses give "".
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Content)
}

// Usage is the token accounting of one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
