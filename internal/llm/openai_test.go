package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIComplete(t *testing.T) {
	var got chatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ops\":[]}"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("secret", "gpt-4o-mini", srv.URL+"/v1/")
	out, err := c.Complete(context.Background(), Request{System: "sys", User: "hello", MaxTokens: 550, Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, `{"ops":[]}`, out)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 550, got.MaxTokens)
	assert.InDelta(t, 0.2, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "sys"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "hello"}, got.Messages[1])
}

func TestOpenAIStatusErrors(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"nope"}`, status)
	}))
	defer srv.Close()
	c := NewOpenAIClient("", "m", srv.URL)

	_, err := c.Complete(context.Background(), Request{User: "x"})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))

	status = http.StatusTooManyRequests
	_, err = c.Complete(context.Background(), Request{User: "x"})
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAIEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient("", "m", srv.URL).Complete(context.Background(), Request{User: "x"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}
