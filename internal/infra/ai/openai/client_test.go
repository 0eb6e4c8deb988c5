package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domai "github.com/bryanwahyu/domain-intel/internal/domain/ai"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{APIKey: "test", BaseURL: srv.URL + "/v1", Model: "llama-3.3-70b-versatile"})
}

func TestClientComplete(t *testing.T) {
	t.Parallel()

	t.Run("returns first choice and bounds tokens", func(t *testing.T) {
		t.Parallel()
		var got map[string]any
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/chat/completions" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}]}`))
		})

		out, err := c.Complete(context.Background(), "system", "user")
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if out != `{"ok":true}` {
			t.Errorf("Complete() = %q", out)
		}
		if mt, _ := got["max_tokens"].(float64); int(mt) != defaultMaxTokens {
			t.Errorf("max_tokens = %v, want %d", got["max_tokens"], defaultMaxTokens)
		}
		rf, _ := got["response_format"].(map[string]any)
		if rf["type"] != "json_object" {
			t.Errorf("response_format = %v", got["response_format"])
		}
	})

	t.Run("429 maps to quota error", func(t *testing.T) {
		t.Parallel()
		c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limit","type":"rate_limit_exceeded"}}`))
		})
		_, err := c.Complete(context.Background(), "s", "u")
		if !errors.Is(err, domai.ErrQuotaExceeded) {
			t.Errorf("Complete() error = %v, want ErrQuotaExceeded", err)
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		t.Parallel()
		c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
		})
		_, err := c.Complete(context.Background(), "s", "u")
		if !errors.Is(err, domai.ErrEmptyResponse) {
			t.Errorf("Complete() error = %v, want ErrEmptyResponse", err)
		}
	})
}

func TestIsReasoningModel(t *testing.T) {
	t.Parallel()
	for model, want := range map[string]bool{"o3-mini": true, "gpt-5": true, "gpt-4o": false, "llama-3": false} {
		if got := isReasoningModel(model); got != want {
			t.Errorf("isReasoningModel(%q) = %v", model, got)
		}
	}
}
