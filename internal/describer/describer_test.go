package describer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/picwrite/internal/config"
	"github.com/abhisek/picwrite/internal/llm"
)

const catURL = "https://example.com/cat.jpg"

func okResponse(text string) llm.MockResponse {
	return llm.MockResponse{Content: json.RawMessage(text)}
}

func TestDescribeImage_NoCredentials(t *testing.T) {
	d := NewWithAttempts(nil, zerolog.Nop())

	got := d.DescribeImage(context.Background(), "", catURL)

	assert.False(t, got.OK())
	assert.Equal(t, "All VLM API requests failed: ", got.Text)
	assert.Empty(t, got.Failures)
}

func TestDescribeImage_FirstSuccessWins(t *testing.T) {
	first := llm.NewMockProvider(okResponse("A cat on a sofa."))
	second := llm.NewMockProvider(okResponse("unused"))
	d := NewWithAttempts([]Attempt{
		{Label: "sk-or-aa...", Provider: first},
		{Label: "sk-or-bb...", Provider: second},
	}, zerolog.Nop())

	got := d.DescribeImage(context.Background(), "", catURL)

	require.True(t, got.OK())
	assert.Equal(t, "A cat on a sofa.", got.Text)
	assert.Equal(t, llm.DefaultVisionModel, got.Model)
	assert.Equal(t, 1, first.CallCount())
	assert.Equal(t, 0, second.CallCount())

	req := first.Calls[0]
	assert.Equal(t, llm.DefaultVisionModel, req.Model)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, Instruction, req.Messages[0].Content)
	assert.Equal(t, []string{catURL}, req.Messages[0].ImageURLs)
}

func TestDescribeImage_FallsBackAfterFailure(t *testing.T) {
	d := NewWithAttempts([]Attempt{
		{Label: "sk-or-aa...", Provider: llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrStatus{StatusCode: 503}})},
		{Label: "sk-or-bb...", Provider: llm.NewMockProvider(okResponse("Two dogs in a park."))},
	}, zerolog.Nop())

	got := d.DescribeImage(context.Background(), "google/gemini-2.0-flash-exp:free", catURL)

	require.True(t, got.OK())
	assert.Equal(t, "Two dogs in a park.", got.Text)
	assert.Equal(t, "google/gemini-2.0-flash-exp:free", got.Model)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, "API key sk-or-aa...: Status 503", got.Failures[0].String())
	assert.Equal(t, llm.FailureStatus, got.Failures[0].Kind)
}

func TestDescribeImage_AllFail(t *testing.T) {
	d := NewWithAttempts([]Attempt{
		{Label: "sk-or-aa...", Provider: llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrStatus{StatusCode: 401}})},
		{Label: "sk-or-bb...", Provider: llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrInvalidResponse{Err: llm.ErrNoChoices}})},
		{Label: "sk-or-cc...", Provider: llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("connection refused")}})},
		{Label: "sk-or-dd...", Provider: llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("slow down")}})},
	}, zerolog.Nop())

	got := d.DescribeImage(context.Background(), "", catURL)

	assert.False(t, got.OK())
	assert.Equal(t,
		"All VLM API requests failed: "+
			"API key sk-or-aa...: Status 401 | "+
			"API key sk-or-bb...: No choices in response. | "+
			"API key sk-or-cc...: Exception connection refused | "+
			"API key sk-or-dd...: Status 429",
		got.Text)

	kinds := make([]llm.FailureKind, len(got.Failures))
	for i, f := range got.Failures {
		kinds[i] = f.Kind
	}
	assert.Equal(t, []llm.FailureKind{llm.FailureStatus, llm.FailureParse, llm.FailureTransport, llm.FailureStatus}, kinds)
}

// Every success/failure pattern over zero to four credentials returns the
// first success, or every diagnostic in credential order.
func TestDescribeImage_FailurePatterns(t *testing.T) {
	for n := 0; n <= 4; n++ {
		for mask := 0; mask < 1<<n; mask++ {
			t.Run(fmt.Sprintf("n=%d/mask=%04b", n, mask), func(t *testing.T) {
				var attempts []Attempt
				var mocks []*llm.MockProvider
				firstOK := -1
				for i := range n {
					var resp llm.MockResponse
					if mask&(1<<i) != 0 {
						resp = okResponse(fmt.Sprintf("description %d", i))
						if firstOK < 0 {
							firstOK = i
						}
					} else {
						resp = llm.MockResponse{Err: &llm.ErrStatus{StatusCode: 500 + i}}
					}
					m := llm.NewMockProvider(resp)
					mocks = append(mocks, m)
					attempts = append(attempts, Attempt{Label: fmt.Sprintf("key%d...", i), Provider: m})
				}

				got := NewWithAttempts(attempts, zerolog.Nop()).DescribeImage(context.Background(), "", catURL)

				if firstOK >= 0 {
					require.True(t, got.OK())
					assert.Equal(t, fmt.Sprintf("description %d", firstOK), got.Text)
					assert.Len(t, got.Failures, firstOK)
					for i, m := range mocks {
						want := 1
						if i > firstOK {
							want = 0
						}
						assert.Equal(t, want, m.CallCount(), "credential %d", i)
					}
					return
				}

				assert.False(t, got.OK())
				require.Len(t, got.Failures, n)
				parts := make([]string, n)
				for i := range n {
					parts[i] = fmt.Sprintf("API key key%d...: Status %d", i, 500+i)
				}
				assert.Equal(t, "All VLM API requests failed: "+strings.Join(parts, " | "), got.Text)
			})
		}
	}
}

func TestDescribeImage_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	second := llm.NewMockProvider(okResponse("unused"))
	d := NewWithAttempts([]Attempt{
		{Label: "sk-or-aa...", Provider: llm.NewMockProvider(llm.MockResponse{Err: context.Canceled})},
		{Label: "sk-or-bb...", Provider: second},
	}, zerolog.Nop())

	got := d.DescribeImage(ctx, "", catURL)

	assert.False(t, got.OK())
	assert.Equal(t, 0, second.CallCount())
	require.Len(t, got.Failures, 1)
	assert.Equal(t, llm.FailureTransport, got.Failures[0].Kind)
}

func TestNew_OpenRouterEndToEnd(t *testing.T) {
	var seenKeys []string
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Type     string `json:"type"`
				Text     string `json:"text"`
				ImageURL struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		seenKeys = append(seenKeys, strings.TrimPrefix(auth, "Bearer "))
		if auth == "Bearer sk-or-v1-revoked" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "No auth credentials found", "code": 401}})
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "gen-1",
			"model": body.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "A red bicycle leaning on a wall."},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(server.Close)

	d, err := New(config.VisionConfig{
		APIKeys: []string{"sk-or-v1-revoked", "sk-or-v1-working"},
		BaseURL: server.URL + "/api/v1",
	}, zerolog.Nop(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Credentials())

	got := d.DescribeImage(context.Background(), "", catURL)

	require.True(t, got.OK())
	assert.Equal(t, "A red bicycle leaning on a wall.", got.Text)
	assert.Equal(t, []string{"sk-or-v1-revoked", "sk-or-v1-working"}, seenKeys)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, "API key sk-or-v1...: Status 401", got.Failures[0].String())

	assert.Equal(t, llm.DefaultVisionModel, body.Model)
	require.Len(t, body.Messages, 1)
	require.Len(t, body.Messages[0].Content, 2)
	assert.Equal(t, "text", body.Messages[0].Content[0].Type)
	assert.Equal(t, Instruction, body.Messages[0].Content[0].Text)
	assert.Equal(t, "image_url", body.Messages[0].Content[1].Type)
	assert.Equal(t, catURL, body.Messages[0].Content[1].ImageURL.URL)
}

func TestKeyLabel(t *testing.T) {
	assert.Equal(t, "sk-or-v1...", KeyLabel("sk-or-v1-0123456789"))
	assert.Equal(t, "short...", KeyLabel("short"))
}

func TestNew_NonOKSuccessStatusFallsBack(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusAccepted, http.StatusNotModified} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if r.Header.Get("Authorization") == "Bearer sk-or-v1-queued" {
					w.WriteHeader(status)
				}
				json.NewEncoder(w).Encode(map[string]any{
					"id": "gen-1",
					"choices": []map[string]any{{
						"index":   0,
						"message": map[string]any{"role": "assistant", "content": "queued"},
					}},
				})
			}))
			t.Cleanup(server.Close)

			d, err := New(config.VisionConfig{
				APIKeys: []string{"sk-or-v1-queued", "sk-or-v1-working"},
				BaseURL: server.URL + "/api/v1",
			}, zerolog.Nop(), nil)
			require.NoError(t, err)

			got := d.DescribeImage(context.Background(), "", catURL)

			require.True(t, got.OK())
			assert.Equal(t, "queued", got.Text)
			require.Len(t, got.Failures, 1)
			assert.Equal(t, fmt.Sprintf("API key sk-or-v1...: Status %d", status), got.Failures[0].String())
			assert.Equal(t, llm.FailureStatus, got.Failures[0].Kind)
		})
	}
}
