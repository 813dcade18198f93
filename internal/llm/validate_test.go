package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func gradingSchema() *Schema {
	return &Schema{
		Name:        "test-grading",
		Description: "A reduced writing evaluation",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"grammar_score":  map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
				"learning_level": map[string]any{"type": "string", "enum": []any{"A1", "A2", "B1", "B2", "C1", "C2"}},
				"tips":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []any{"grammar_score", "learning_level"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"complete", `{"grammar_score":70,"learning_level":"B1","tips":["Use past tense."]}`, false},
		{"optional field omitted", `{"grammar_score":70,"learning_level":"A2"}`, false},
		{"missing required", `{"grammar_score":70}`, true},
		{"score not an integer", `{"grammar_score":"high","learning_level":"B1"}`, true},
		{"score out of range", `{"grammar_score":101,"learning_level":"B1"}`, true},
		{"unknown level", `{"grammar_score":70,"learning_level":"D1"}`, true},
		{"tip is not a string", `{"grammar_score":70,"learning_level":"B1","tips":[3]}`, true},
		{"malformed", `{"grammar_score":`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(gradingSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("expected ErrInvalidResponse, got %T", err)
			}
			if string(inv.Content) != tt.raw {
				t.Fatalf("expected raw content to be kept, got %q", inv.Content)
			}
		})
	}
}

func TestValidateResponse_NilSchemaAcceptsAnything(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`not json at all`)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateResponse_CompilesOncePerName(t *testing.T) {
	s := gradingSchema()
	s.Name = "test-grading-cached"
	if err := validateResponse(s, json.RawMessage(`{"grammar_score":10,"learning_level":"A1"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	compiledSchemas.mu.Lock()
	_, ok := compiledSchemas.byName[s.Name]
	compiledSchemas.mu.Unlock()
	if !ok {
		t.Fatal("expected compiled schema to be cached")
	}
}

func TestStructuredContent(t *testing.T) {
	const fenced = "```json\n{\"grammar_score\":60,\"learning_level\":\"B2\"}\n```"

	t.Run("no schema passes text through", func(t *testing.T) {
		got, err := structuredContent(Request{}, "A red bicycle.", "end")
		if err != nil || string(got) != "A red bicycle." {
			t.Fatalf("got %q, %v", got, err)
		}
	})

	t.Run("fence stripped and validated", func(t *testing.T) {
		got, err := structuredContent(Request{Schema: gradingSchema()}, fenced, "end")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != `{"grammar_score":60,"learning_level":"B2"}` {
			t.Fatalf("unexpected content: %s", got)
		}
	})

	t.Run("invalid reply", func(t *testing.T) {
		_, err := structuredContent(Request{Schema: gradingSchema()}, `{"tips":[]}`, "end")
		var inv *ErrInvalidResponse
		if !errors.As(err, &inv) {
			t.Fatalf("expected ErrInvalidResponse, got %v", err)
		}
	})

	t.Run("truncated reply", func(t *testing.T) {
		_, err := structuredContent(Request{Schema: gradingSchema()}, `{"grammar_sc`, "max_tokens")
		var truncated *ErrMaxTokensExceeded
		if !errors.As(err, &truncated) {
			t.Fatalf("expected ErrMaxTokensExceeded, got %v", err)
		}
		if string(truncated.Content) != `{"grammar_sc` {
			t.Fatalf("unexpected content: %s", truncated.Content)
		}
	})
}
