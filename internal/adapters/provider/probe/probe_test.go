package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const messageBody = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "GLM-4.7",
  "content": [{"type": "text", "text": "Hello"}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 2, "output_tokens": 3}
}`

func TestTestReturnsTrueOnWellFormedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageBody))
	}))
	defer server.Close()

	ok := New().Test(context.Background(), "test-key", server.URL, "GLM-4.7")
	assert.True(t, ok)
}

func TestTestReturnsFalseOnAuthFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid key"}}`))
	}))
	defer server.Close()

	ok := New().Test(context.Background(), "bad-key", server.URL, "GLM-4.7")
	assert.False(t, ok)
}

func TestTestReturnsFalseWithoutAPIKey(t *testing.T) {
	t.Parallel()

	ok := New().Test(context.Background(), "", "https://api.z.ai/api/anthropic", "GLM-4.7")
	assert.False(t, ok)
}
