package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/workjournal/internal/db"
	"github.com/jonathan/workjournal/internal/enhance"
	"github.com/jonathan/workjournal/internal/fetch"
	"github.com/jonathan/workjournal/internal/githubfeed"
	"github.com/jonathan/workjournal/internal/ingest"
	"github.com/jonathan/workjournal/internal/tailor"
	"github.com/jonathan/workjournal/internal/voice"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus maps service errors to response codes. Unrecognized errors are
// internal failures; model and upstream breakage maps to 502 so clients can
// distinguish "retry later" from "fix your request".
func HTTPStatus(err error) int {
	var (
		emailExists     *ErrEmailAlreadyExists
		badCredentials  *ErrInvalidCredentials
		userNotFound    *ErrUserNotFound
		rowNotFound     *db.NotFoundError
		validation      *ErrValidation
		enhanceInvalid  *enhance.InvalidInputError
		tailorInvalid   *tailor.InvalidInputError
		noResume        *ingest.NoResumeError
		extract         *ingest.ExtractError
		feedNotFound    *githubfeed.NotFoundError
		alreadyImported *githubfeed.AlreadyImportedError
		notConnected    *githubfeed.NotConnectedError
		fetchErr        *fetch.Error
	)
	switch {
	case errors.As(err, &emailExists):
		return http.StatusConflict
	case errors.As(err, &alreadyImported):
		return http.StatusConflict
	case errors.As(err, &badCredentials):
		return http.StatusUnauthorized
	case errors.As(err, &userNotFound), errors.As(err, &rowNotFound),
		errors.As(err, &noResume), errors.As(err, &feedNotFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &enhanceInvalid),
		errors.As(err, &tailorInvalid), errors.As(err, &extract),
		errors.As(err, &notConnected), errors.As(err, &fetchErr):
		return http.StatusBadRequest
	case isUpstreamError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isUpstreamError(err error) bool {
	var (
		enhanceAPI   *enhance.APICallError
		enhanceParse *enhance.ParseError
		tailorAPI    *tailor.APICallError
		tailorParse  *tailor.ParseError
		ingestAPI    *ingest.APICallError
		ingestParse  *ingest.ParseError
		feedAPI      *githubfeed.APICallError
		voiceAPI     *voice.APICallError
	)
	return errors.As(err, &enhanceAPI) || errors.As(err, &enhanceParse) ||
		errors.As(err, &tailorAPI) || errors.As(err, &tailorParse) ||
		errors.As(err, &ingestAPI) || errors.As(err, &ingestParse) ||
		errors.As(err, &feedAPI) || errors.As(err, &voiceAPI)
}
