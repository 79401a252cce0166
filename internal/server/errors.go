package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/resume-intake/internal/intake"
	"github.com/jonathan/resume-intake/internal/types"
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

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error     string              `json:"error"`
	Reason    types.FailureReason `json:"reason,omitempty"`
	Retryable bool                `json:"retryable,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrEmailAlreadyExists:
		return http.StatusConflict
	case *ErrInvalidCredentials, *ErrPasswordMismatch:
		return http.StatusUnauthorized
	case *ErrUserNotFound:
		return http.StatusNotFound
	case *ErrValidation, *intake.UnknownFieldError:
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, intake.ErrNoDocuments), errors.Is(err, intake.ErrInvalidUser):
		return http.StatusBadRequest
	case errors.Is(err, intake.ErrExtractorNotConfigured), errors.Is(err, intake.ErrDefaultCredentialNotConfigured):
		return http.StatusServiceUnavailable
	}

	switch intake.ReasonOf(err) {
	case types.ReasonExtractionUnavailable:
		return http.StatusServiceUnavailable
	case types.ReasonNoStructuredOutput:
		return http.StatusUnprocessableEntity
	case types.ReasonDocumentNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// errorBody builds the reply for err. Internal errors are not echoed to the caller.
func errorBody(err error, status int) ErrorResponse {
	reason := intake.ReasonOf(err)
	body := ErrorResponse{
		Error:     err.Error(),
		Reason:    reason,
		Retryable: reason.Retryable(),
	}
	if status == http.StatusInternalServerError {
		body.Error = "internal server error"
	}
	return body
}
