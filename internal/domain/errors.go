package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a guarded operation is already in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrNotConfirmed is returned when the user declines a confirmation prompt.
	ErrNotConfirmed = errors.New("action not confirmed")
	// ErrSessionNotFound is reported by the quiz API for unknown session ids.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrTabNotFound is returned when a bridge tab has not been registered.
	ErrTabNotFound = errors.New("tab not found")
	// ErrNoSuchOption is returned for an answer that does not match a rendered option.
	ErrNoSuchOption = errors.New("no such option on screen")
)

// APIError is an application-level failure: a well-formed response with success set to false.
type APIError struct {
	Op      string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return e.Op + ": request unsuccessful"
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsAPIError reports whether err carries an application-level failure and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
