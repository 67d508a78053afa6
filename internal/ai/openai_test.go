package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1/",
		Timeout: 5 * time.Second,
	})
}

func TestTranscribe(t *testing.T) {
	var gotPath, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  Spent 12 on lunch "}`))
	})

	text, err := c.Transcribe(context.Background(), "voice.ogg", strings.NewReader("OggS fake audio"))
	require.NoError(t, err)
	assert.Equal(t, "Spent 12 on lunch", text)
	assert.Equal(t, "/v1/audio/transcriptions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestTranscribe_Disabled(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.Transcribe(context.Background(), "voice.ogg", strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrTranscriptionDisabled))
}

func TestTranscribe_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	})

	_, err := c.Transcribe(context.Background(), "voice.ogg", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestHelpReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Try \"Spent 12 on lunch\"."},"finish_reason":"stop"}]}`))
	})

	reply, err := c.HelpReply(context.Background(), "hey what is this")
	require.NoError(t, err)
	assert.Equal(t, `Try "Spent 12 on lunch".`, reply)
}

func TestHelpReply_EmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","choices":[]}`))
	})

	_, err := c.HelpReply(context.Background(), "hey")
	assert.Error(t, err)
}
