package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2,
	}
}

func okResponse() MockResponse {
	return MockResponse{Content: json.RawMessage(`{"learning_level":"B1"}`)}
}

func TestRetry_Policy(t *testing.T) {
	down := func() MockResponse {
		return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("connection refused")}}
	}
	garbled := func() MockResponse {
		return MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`{"grammar_score":`), Err: errors.New("unexpected EOF")}}
	}

	tests := []struct {
		name      string
		attempts  int
		responses []MockResponse
		wantErr   bool
		wantCalls int
	}{
		{"first attempt succeeds", 3, []MockResponse{okResponse()}, false, 1},
		{"transport error then success", 3, []MockResponse{down(), okResponse()}, false, 2},
		{"gives up after max attempts", 3, []MockResponse{down(), down(), down(), okResponse()}, true, 3},
		{"single attempt never retries", 1, []MockResponse{down(), okResponse()}, true, 1},
		{"zero attempts still calls once", 0, []MockResponse{okResponse()}, false, 1},
		{"rate limit retried", 3, []MockResponse{{Err: &ErrRateLimit{RetryAfter: time.Millisecond}}, okResponse()}, false, 2},
		{"bad gateway retried", 3, []MockResponse{{Err: &ErrStatus{StatusCode: 502}}, okResponse()}, false, 2},
		{"unauthorized not retried", 3, []MockResponse{{Err: &ErrStatus{StatusCode: 401}}, okResponse()}, true, 1},
		{"truncated reply not retried", 3, []MockResponse{{Err: &ErrMaxTokensExceeded{}}, okResponse()}, true, 1},
		{"garbled reply retried once", 4, []MockResponse{garbled(), garbled(), okResponse()}, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			p := WithRetry(mock, fastRetry(tt.attempts), zerolog.Nop())

			resp, err := p.Generate(context.Background(), Request{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && resp.Text() != `{"learning_level":"B1"}` {
				t.Fatalf("unexpected content: %s", resp.Content)
			}
			if mock.CallCount() != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", mock.CallCount(), tt.wantCalls)
			}
		})
	}
}

func TestRetry_KeepsOriginalError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrStatus{StatusCode: 403}})
	p := WithRetry(mock, fastRetry(3), zerolog.Nop())

	_, err := p.Generate(context.Background(), Request{})
	var st *ErrStatus
	if !errors.As(err, &st) || st.StatusCode != 403 {
		t.Fatalf("expected status 403, got: %v", err)
	}
}

func TestRetry_StopsWhenContextEnds(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{}},
		okResponse(),
	)
	cfg := fastRetry(3)
	cfg.InitialWait = time.Hour
	cfg.MaxWait = time.Hour
	p := WithRetry(mock, cfg, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got: %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_DelayIsCapped(t *testing.T) {
	r := &RetryProvider{cfg: RetryConfig{InitialWait: time.Second, MaxWait: 3 * time.Second, Multiplier: 10}}
	for attempt := 1; attempt <= 4; attempt++ {
		d := r.delay(attempt, errors.New("boom"))
		if d > time.Duration(1.2*float64(3*time.Second)) {
			t.Fatalf("attempt %d: delay %s exceeds cap", attempt, d)
		}
	}

	if d := r.delay(1, &ErrRateLimit{RetryAfter: 7 * time.Second}); d != 7*time.Second {
		t.Fatalf("expected RetryAfter to win, got %s", d)
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	p := WithRetry(NewNamedMockProvider("deepseek-chat"), fastRetry(2), zerolog.Nop())
	if p.ModelID() != "deepseek-chat" {
		t.Fatalf("expected 'deepseek-chat', got %q", p.ModelID())
	}
}
