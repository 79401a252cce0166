package intake

import (
	"errors"
	"fmt"

	"github.com/jonathan/resume-intake/internal/types"
)

// Batch precondition errors. They abort a bulk run before any item is processed.
var (
	ErrNoDocuments                    = errors.New("no documents provided")
	ErrExtractorNotConfigured         = errors.New("extraction service is not configured")
	ErrDefaultCredentialNotConfigured = errors.New("default provisioning password is not configured")
)

// ErrInvalidUser is returned when a single-item call carries no caller identity.
var ErrInvalidUser = errors.New("caller identity is required")

// DocumentNotFoundError means the referenced document is not in storage
type DocumentNotFoundError struct {
	Path string
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document not found: %s", e.Path)
}

// Kind returns the failure kind
func (e *DocumentNotFoundError) Kind() types.FailureReason {
	return types.ReasonDocumentNotFound
}

// UnknownFieldError is returned when an accept request names a field that is not part of a profile
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown profile field: %s", e.Field)
}

// ItemFailure is the tagged failure of one bulk item
type ItemFailure struct {
	Reason types.FailureReason
	// Message overrides Reason in the recorded result. Used for recovered panics.
	Message string
	// Detail names the step that failed when Reason alone is ambiguous.
	Detail string
	Err    error
}

func (e *ItemFailure) Error() string {
	if e.Err == nil {
		return e.label()
	}
	return fmt.Sprintf("%s: %v", e.label(), e.Err)
}

func (e *ItemFailure) Unwrap() error {
	return e.Err
}

// Kind returns the failure kind
func (e *ItemFailure) Kind() types.FailureReason {
	return e.Reason
}

func (e *ItemFailure) label() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Detail != "" {
		return string(e.Reason) + ": " + e.Detail
	}
	return string(e.Reason)
}

func fail(reason types.FailureReason, err error) *ItemFailure {
	return &ItemFailure{Reason: reason, Err: err}
}

type kinded interface {
	Kind() types.FailureReason
}

// ReasonOf returns the failure kind carried by err, or "" if it carries none
func ReasonOf(err error) types.FailureReason {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}
