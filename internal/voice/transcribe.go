// Package voice transcribes recorded audio to text through the ElevenLabs
// speech-to-text API. The transcript feeds the same enhancement path as
// typed input.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// DefaultEndpoint is the ElevenLabs speech-to-text endpoint.
const DefaultEndpoint = "https://api.elevenlabs.io/v1/speech-to-text"

// DefaultModel is the transcription model identifier.
const DefaultModel = "scribe_v1"

// APICallError represents a failure calling the transcription API.
type APICallError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transcription API error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transcription API error: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// Transcriber converts audio bytes to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Client calls the ElevenLabs speech-to-text API.
type Client struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
}

// NewClient creates a transcription client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		endpoint:   DefaultEndpoint,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// WithEndpoint overrides the API endpoint. Used in tests.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// Transcribe uploads audio and returns the transcript text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if c.apiKey == "" {
		return "", &APICallError{Message: "API key is required"}
	}
	if len(audio) == 0 {
		return "", &APICallError{Message: "audio payload is empty"}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("model_id", c.model); err != nil {
		return "", &APICallError{Message: "failed to build request", Cause: err}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", &APICallError{Message: "failed to build request", Cause: err}
	}
	if _, err := part.Write(audio); err != nil {
		return "", &APICallError{Message: "failed to build request", Cause: err}
	}
	if err := writer.Close(); err != nil {
		return "", &APICallError{Message: "failed to build request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, &body)
	if err != nil {
		return "", &APICallError{Message: "failed to create request", Cause: err}
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &APICallError{Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APICallError{Message: "failed to read response", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APICallError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(string(respBody), 200)),
		}
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &APICallError{Message: "failed to parse response", Cause: err}
	}
	return parsed.Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
