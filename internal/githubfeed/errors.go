package githubfeed

import "fmt"

// NotConnectedError means the user has not linked a GitHub account.
type NotConnectedError struct {
	UserID string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("no GitHub account linked for user %s", e.UserID)
}

// NotFoundError means the requested activity does not exist for this user.
type NotFoundError struct {
	ActivityID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("activity not found: %s", e.ActivityID)
}

// AlreadyImportedError means the activity was imported as a log before.
type AlreadyImportedError struct {
	ActivityID string
}

func (e *AlreadyImportedError) Error() string {
	return fmt.Sprintf("activity already imported: %s", e.ActivityID)
}

// APICallError represents a GitHub API failure.
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("GitHub API call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("GitHub API call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}
