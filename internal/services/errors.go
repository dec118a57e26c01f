package services

import (
	"errors"
	"fmt"
)

const (
	// NoticeMissingInput is shown when the form is submitted incomplete.
	NoticeMissingInput = "Please upload a CV and enter a job description"
	// NoticeAnalysisFailed is shown for every backend or network failure.
	NoticeAnalysisFailed = "An error occurred during analysis. Please try again."
	// NoticeInFlight is shown when a second submission races the first.
	NoticeInFlight = "An analysis is already in progress"
	// NoticeRateLimited is shown when a session submits too often.
	NoticeRateLimited = "Too many analysis requests. Please wait a moment and try again."

	unknownErrorMessage = "Unknown error"
)

var ErrSubmissionInFlight = errors.New("submission already in flight")

// ValidationError reports a form that cannot be submitted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// BackendAnalysisError is a non-2xx answer from the analysis endpoint.
type BackendAnalysisError struct {
	Status  int
	Message string
}

func (e *BackendAnalysisError) Error() string {
	return fmt.Sprintf("analysis failed with status %d: %s", e.Status, e.Message)
}

// TransportError means no response was received.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("analysis request failed: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// UserNotice maps a submission error to the single message shown on the page.
func UserNotice(err error) string {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return NoticeMissingInput
	case errors.Is(err, ErrSubmissionInFlight):
		return NoticeInFlight
	default:
		return NoticeAnalysisFailed
	}
}
