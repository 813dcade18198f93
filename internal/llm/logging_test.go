package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggingProvider_LogsSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{}`),
		Model:   "deepseek-chat",
		Usage:   Usage{InputTokens: 1000, OutputTokens: 500},
	})
	p := WithLogging(mock, logger)

	ctx := WithPurpose(context.Background(), PurposeEvaluate)
	if _, err := p.Generate(ctx, Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON log line, got %q", buf.String())
	}
	if entry["purpose"] != "evaluate" {
		t.Errorf("purpose = %v", entry["purpose"])
	}
	if entry["component"] != "llm" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["outcome"] != "ok" {
		t.Errorf("outcome = %v", entry["outcome"])
	}
	if entry["input_tokens"] != float64(1000) {
		t.Errorf("input_tokens = %v", entry["input_tokens"])
	}
	if _, ok := entry["cost_usd"]; !ok {
		t.Error("expected cost_usd for a priced model")
	}
}

func TestLoggingProvider_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)

	mock := NewMockProvider(MockResponse{Err: &ErrStatus{StatusCode: 503, Err: errors.New("down")}})
	p := WithLogging(mock, logger)

	_, err := p.Generate(context.Background(), Request{Model: "google/gemini-2.0-flash-exp:free"})
	if err == nil {
		t.Fatal("expected error")
	}

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("expected warn level, got %q", out)
	}
	if !strings.Contains(out, `"outcome":"status-error"`) {
		t.Errorf("expected status-error outcome, got %q", out)
	}
	if !strings.Contains(out, `"model":"google/gemini-2.0-flash-exp:free"`) {
		t.Errorf("expected request model, got %q", out)
	}
}

func TestLoggingProvider_ModelIDDelegates(t *testing.T) {
	p := WithLogging(NewNamedMockProvider("deepseek-chat"), zerolog.Nop())
	if p.ModelID() != "deepseek-chat" {
		t.Fatalf("expected 'deepseek-chat', got %q", p.ModelID())
	}
}
