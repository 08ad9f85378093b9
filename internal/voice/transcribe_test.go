package voice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "scribe_v1", r.FormValue("model_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "note.webm", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "shipped the migration tool today"}`))
	}))
	defer server.Close()

	client := NewClient("test-key").WithEndpoint(server.URL)
	text, err := client.Transcribe(context.Background(), []byte("audio-bytes"), "note.webm")
	require.NoError(t, err)
	assert.Equal(t, "shipped the migration tool today", text)
}

func TestTranscribeMissingAPIKey(t *testing.T) {
	client := NewClient("")
	_, err := client.Transcribe(context.Background(), []byte("audio"), "a.webm")
	require.Error(t, err)

	var apiErr *APICallError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "API key")
}

func TestTranscribeEmptyAudio(t *testing.T) {
	client := NewClient("test-key")
	_, err := client.Transcribe(context.Background(), nil, "a.webm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestTranscribeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "invalid key"}`))
	}))
	defer server.Close()

	client := NewClient("bad-key").WithEndpoint(server.URL)
	_, err := client.Transcribe(context.Background(), []byte("audio"), "a.webm")
	require.Error(t, err)

	var apiErr *APICallError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestTranscribeMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient("test-key").WithEndpoint(server.URL)
	_, err := client.Transcribe(context.Background(), []byte("audio"), "a.webm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}
