package zhipu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"org-diagnostics-be/pkg/llm"
)

func TestChatReturnsContent(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello there"}}]}`))
	}))
	defer server.Close()

	p := NewZhipuProvider(server.URL, "test-key", "glm-4-flash", 5*time.Second)
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	}, llm.WithTemperature(0.3))

	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
	assert.Equal(t, "glm-4-flash", captured.Model)
	assert.False(t, captured.Stream)
	assert.InDelta(t, 0.3, captured.Temperature, 1e-9)
}

func TestChatMapsModelRoleToAssistant(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	p := NewZhipuProvider(server.URL, "k", "m", 0)
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "model", Content: "earlier reply"}})

	require.NoError(t, err)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "assistant", captured.Messages[0].Role)
}

func TestChatNon200StatusIsCompletionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	p := NewZhipuProvider(server.URL, "k", "m", 0)
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})

	var completionErr *llm.CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, http.StatusTooManyRequests, completionErr.StatusCode)
	assert.Contains(t, completionErr.Body, "rate limited")
}

func TestChatEmptyChoicesIsParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	p := NewZhipuProvider(server.URL, "k", "m", 0)
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})

	var parseErr *llm.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestChatStreamDeliversDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n"))
		w.Write([]byte("data: not-json-garbage\n\n"))
		w.Write([]byte("data: {\"choices\":[]}\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"!\"}}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	p := NewZhipuProvider(server.URL, "k", "m", 0)

	var got string
	err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, func(delta string) error {
		got += delta
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello!", got)
}

func TestChatStreamHandlerErrorAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	p := NewZhipuProvider(server.URL, "k", "m", 0)

	calls := 0
	err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, func(delta string) error {
		calls++
		return context.Canceled
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestChatStreamNon200StatusIsCompletionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	p := NewZhipuProvider(server.URL, "bad-key", "m", 0)
	err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, func(string) error {
		t.Fatal("handler should not run")
		return nil
	})

	var completionErr *llm.CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, http.StatusUnauthorized, completionErr.StatusCode)
}

func TestWithModelOverridesDefault(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	p := NewZhipuProvider(server.URL, "k", "glm-4-flash", 0)
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, llm.WithModel("glm-4-plus"))

	require.NoError(t, err)
	assert.Equal(t, "glm-4-plus", captured.Model)
}
