package domain

import (
	"errors"
	"fmt"
)

// MaxVerses is the largest number of non-empty lines accepted per submission
const MaxVerses = 200

var (
	// ErrEmptyInput is returned when a submission has no non-blank line
	ErrEmptyInput = errors.New("no verses to analyze")

	// ErrAnalysisInProgress is returned when a session already has a request in flight
	ErrAnalysisInProgress = errors.New("analysis already in progress")

	// ErrNotFound is returned by a Store when the key holds no value
	ErrNotFound = errors.New("not found")
)

// TooManyVersesError is returned when a submission exceeds MaxVerses
type TooManyVersesError struct {
	Count int
}

func (e *TooManyVersesError) Error() string {
	return fmt.Sprintf("maximum %d verses allowed, got %d", MaxVerses, e.Count)
}

// TransportError reports that no response was received from the analysis service
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("unable to connect to analysis service: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError reports an error-shaped response from the analysis service.
// Message is the server-supplied text and may be empty.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Server error"
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, msg)
}
