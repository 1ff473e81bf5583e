package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/homefix-vision/internal/domain/diagnosis"
	"github.com/bryanwahyu/homefix-vision/internal/infra/ai/openai"
)

type chatRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL *struct {
				URL    string `json:"url"`
				Detail string `json:"detail"`
			} `json:"image_url"`
		} `json:"content"`
	} `json:"messages"`
}

func newTestClient(t *testing.T, h http.HandlerFunc) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := goopenai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(cfg, "gpt-4.1-mini")
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4.1-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
}

func TestComplete_SendsTextAndHighDetailImages(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCompletion(w, `{"summary":"ok"}`)
	})

	out, err := c.Complete(context.Background(), diagnosis.Prompt{
		Text: "analyze",
		Images: []diagnosis.ImageAttachment{
			{URL: "data:image/png;base64,AAAA", Detail: diagnosis.DetailHigh},
			{URL: "https://example.com/a.jpg", Detail: diagnosis.DetailHigh},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, out)

	assert.Equal(t, "gpt-4.1-mini", got.Model)
	assert.Equal(t, 2048, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	parts := got.Messages[0].Content
	require.Len(t, parts, 3)
	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, "analyze", parts[0].Text)
	for i, url := range []string{"data:image/png;base64,AAAA", "https://example.com/a.jpg"} {
		require.NotNil(t, parts[i+1].ImageURL)
		assert.Equal(t, "image_url", parts[i+1].Type)
		assert.Equal(t, url, parts[i+1].ImageURL.URL)
		assert.Equal(t, "high", parts[i+1].ImageURL.Detail)
	}
}

func TestComplete_EmptyOutputIsModelError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, "  \n")
	})

	_, err := c.Complete(context.Background(), diagnosis.Prompt{Text: "analyze"})
	var e *diagnosis.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, diagnosis.KindModel, e.Kind)
	assert.Equal(t, "empty output", e.Detail)
}

func TestComplete_ProviderErrorKeepsStatusAndType(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`))
	})

	_, err := c.Complete(context.Background(), diagnosis.Prompt{Text: "analyze"})
	var e *diagnosis.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, diagnosis.KindModel, e.Kind)
	assert.Equal(t, http.StatusTooManyRequests, e.Status)
	assert.Equal(t, "insufficient_quota", e.ProviderType)
	assert.Contains(t, e.Details(), "exceeded your current quota")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "provider must not be retried")
}

func TestComplete_ReasoningModelUsesMaxCompletionTokens(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeCompletion(w, "{}")
	})
	c.Model = "o4-mini"
	c.MaxTokens = 1000

	_, err := c.Complete(context.Background(), diagnosis.Prompt{Text: "analyze"})
	require.NoError(t, err)
	assert.EqualValues(t, 1000, body["max_completion_tokens"])
	assert.NotContains(t, body, "max_tokens")
}
