package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutKeyIsUnconfigured(t *testing.T) {
	c := New("", "", "xai/grok-beta", "")
	assert.False(t, Configured(c))
	_, err := c.Complete(context.Background(), Request{})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestCompleteAgainstCompatibleServer(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  trip_guidance \n"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`))
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, "xai/grok-beta", "")
	require.True(t, Configured(c))

	resp, err := c.Complete(context.Background(), Request{
		System:      "classify",
		Messages:    []Message{{Role: RoleUser, Content: "Tell me about Ladakh"}},
		Temperature: 0.1,
		MaxTokens:   20,
	})
	require.NoError(t, err)
	assert.Equal(t, "trip_guidance", resp.Content)
	assert.Equal(t, 12, resp.TokensUsed)
	assert.Equal(t, "xai/grok-beta", got["model"])

	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])

	_, err = c.Embed(context.Background(), []string{"x"})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}
