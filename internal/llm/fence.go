package llm

import "strings"

// StripCodeFence removes markdown code fences that models like to wrap JSON
// in. Every "```json" and "```" marker is dropped, then surrounding
// whitespace is trimmed. Fences inside string values are removed as well.
func StripCodeFence(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
