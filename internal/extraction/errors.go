package extraction

import (
	"fmt"

	"github.com/jonathan/resume-intake/internal/types"
)

// UnavailableError means the extraction service could not be reached or refused
// the call (quota, rate limit, timeout). Retrying later may succeed.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("extraction service unavailable: %v", e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// Kind returns the failure kind
func (e *UnavailableError) Kind() types.FailureReason {
	return types.ReasonExtractionUnavailable
}

// NoStructuredOutputError means the service answered but nothing parseable came back.
type NoStructuredOutputError struct {
	Reason string
	Cause  error
}

func (e *NoStructuredOutputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no structured output: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("no structured output: %s", e.Reason)
}

func (e *NoStructuredOutputError) Unwrap() error {
	return e.Cause
}

// Kind returns the failure kind
func (e *NoStructuredOutputError) Kind() types.FailureReason {
	return types.ReasonNoStructuredOutput
}

// UnsupportedDocumentError rejects documents that are neither PDF, Word nor text.
type UnsupportedDocumentError struct {
	MIMEType string
	Filename string
}

func (e *UnsupportedDocumentError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("unsupported document %q (type %q)", e.Filename, e.MIMEType)
	}
	return fmt.Sprintf("unsupported document type %q", e.MIMEType)
}

// Kind returns the failure kind; the service is never asked about such documents.
func (e *UnsupportedDocumentError) Kind() types.FailureReason {
	return types.ReasonNoStructuredOutput
}
