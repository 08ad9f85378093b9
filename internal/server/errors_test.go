package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/workjournal/internal/db"
	"github.com/jonathan/workjournal/internal/enhance"
	"github.com/jonathan/workjournal/internal/githubfeed"
	"github.com/jonathan/workjournal/internal/ingest"
	"github.com/jonathan/workjournal/internal/tailor"
	"github.com/jonathan/workjournal/internal/voice"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"email exists", &ErrEmailAlreadyExists{Email: "a@b.c"}, http.StatusConflict},
		{"already imported", &githubfeed.AlreadyImportedError{ActivityID: "x"}, http.StatusConflict},
		{"bad credentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},
		{"user not found", &ErrUserNotFound{UserID: uuid.New()}, http.StatusNotFound},
		{"row not found", &db.NotFoundError{Kind: "log", ID: uuid.New()}, http.StatusNotFound},
		{"no resume", &ingest.NoResumeError{UserID: "u"}, http.StatusNotFound},
		{"activity not found", &githubfeed.NotFoundError{ActivityID: "x"}, http.StatusNotFound},
		{"validation", &ErrValidation{Field: "title", Message: "required"}, http.StatusBadRequest},
		{"empty input", &enhance.InvalidInputError{Message: "empty"}, http.StatusBadRequest},
		{"bad job", &tailor.InvalidInputError{Field: "company", Message: "required"}, http.StatusBadRequest},
		{"unreadable pdf", &ingest.ExtractError{Message: "no text"}, http.StatusBadRequest},
		{"not connected", &githubfeed.NotConnectedError{UserID: "u"}, http.StatusBadRequest},
		{"model failure", &enhance.APICallError{Message: "down"}, http.StatusBadGateway},
		{"bad model reply", &tailor.ParseError{Message: "junk"}, http.StatusBadGateway},
		{"transcription failure", &voice.APICallError{StatusCode: 500, Message: "down"}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatusUnwrapsCause(t *testing.T) {
	wrapped := fmt.Errorf("refreshing feed: %w", &githubfeed.APICallError{Message: "rate limited"})
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(wrapped))
}
