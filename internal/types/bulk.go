package types

import (
	"time"

	"github.com/google/uuid"
)

// FailureReason names a failure kind in the ingestion pipeline.
type FailureReason string

// Failure kinds recorded on results and surfaced to callers.
const (
	ReasonExtractionUnavailable FailureReason = "ExtractionUnavailable"
	ReasonNoStructuredOutput    FailureReason = "NoStructuredOutput"
	ReasonDocumentNotFound      FailureReason = "DocumentNotFound"
	ReasonNoEmailFound          FailureReason = "NoEmailFound"
	ReasonAccountAlreadyExists  FailureReason = "AccountAlreadyExists"
	ReasonStorageWriteFailed    FailureReason = "StorageWriteFailed"
	ReasonProfileWriteFailed    FailureReason = "ProfileWriteFailed"
)

// Retryable reports whether retrying the same input may succeed.
func (r FailureReason) Retryable() bool {
	return r == ReasonExtractionUnavailable || r == ReasonStorageWriteFailed || r == ReasonProfileWriteFailed
}

// BulkUploadItemResult is the outcome of one file in a bulk batch.
// A result is created once and never updated.
type BulkUploadItemResult struct {
	Filename    string `json:"filename"`
	Success     bool   `json:"success"`
	Email       string `json:"email,omitempty"`
	AccountID   string `json:"accountId,omitempty"`
	ErrorReason string `json:"errorReason,omitempty"`
}

// BulkUploadSummary holds the derived counts of a batch.
type BulkUploadSummary struct {
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
}

// BulkUploadResponse is returned by the bulk upload endpoint.
type BulkUploadResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	BatchID uuid.UUID              `json:"batchId,omitempty"`
	Summary BulkUploadSummary      `json:"summary"`
	Results []BulkUploadItemResult `json:"results"`
}

// BulkBatch is the persisted audit record of one batch run.
type BulkBatch struct {
	ID           uuid.UUID              `json:"id"`
	SubmittedBy  uuid.UUID              `json:"submittedBy"`
	SuccessCount int                    `json:"successCount"`
	FailureCount int                    `json:"failureCount"`
	CreatedAt    time.Time              `json:"createdAt"`
	Results      []BulkUploadItemResult `json:"results,omitempty"`
}
