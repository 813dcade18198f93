package llm

import "fmt"

// modelAliases holds the short names accepted in WRITING_EVAL_MODEL,
// keyed by provider. Unknown names are sent as-is.
var modelAliases = map[string]map[string]string{
	"anthropic": {
		"claude-sonnet": "claude-sonnet-4-20250514",
		"claude-haiku":  "claude-haiku-4-5-20251001",
	},
	"gemini": {
		"gemini-flash": "gemini-2.0-flash",
		"gemini-pro":   "gemini-2.0-pro",
	},
	"openai": {
		"gpt-4o":      "gpt-4o",
		"gpt-4o-mini": "gpt-4o-mini",
	},
}

// resolveModel expands a short model name for provider.
func resolveModel(provider, name string) string {
	if id, ok := modelAliases[provider][name]; ok {
		return id
	}
	return name
}

// pickModel prefers the per-request model over the configured one.
func pickModel(req Request, configured string) string {
	if req.Model != "" {
		return req.Model
	}
	return configured
}

// rejectImages fails requests carrying image parts for text-only backends.
func rejectImages(provider string, msgs []Message) error {
	for _, m := range msgs {
		if n := len(m.ImageURLs); n > 0 {
			return fmt.Errorf("%s: %d image URL(s) given but this provider only takes text", provider, n)
		}
	}
	return nil
}
