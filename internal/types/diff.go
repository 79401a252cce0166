package types

// FieldDiff is one entry of a reconciliation change-set.
// Changed is computed by the reconciler and never persisted.
type FieldDiff struct {
	Field          string `json:"field"`
	CurrentValue   any    `json:"currentValue"`
	ExtractedValue any    `json:"extractedValue"`
	Changed        bool   `json:"changed"`
}

// ImportMode selects between persisting an extraction directly and returning it for review.
type ImportMode string

const (
	// ImportModeApply writes every non-empty extracted field.
	ImportModeApply ImportMode = "apply"
	// ImportModeReview returns a change-set without persisting anything.
	ImportModeReview ImportMode = "review"
)

// ImportState is the lifecycle position reached by a single-item import.
type ImportState string

// Import states in the order they are reached.
const (
	ImportRequested  ImportState = "requested"
	ImportDownloaded ImportState = "downloaded"
	ImportExtracted  ImportState = "extracted"
	ImportReconciled ImportState = "reconciled"
	ImportApplied    ImportState = "applied"
)

// ImportRequest is the body of the single ingestion endpoint.
type ImportRequest struct {
	DocumentPath string     `json:"documentPath" validate:"required"`
	Mode         ImportMode `json:"mode,omitempty" validate:"omitempty,oneof=apply review"`
}

// ImportResponse is returned by the single ingestion endpoint.
type ImportResponse struct {
	Success             bool              `json:"success"`
	State               ImportState       `json:"state"`
	Parsed              *ExtractedProfile `json:"parsed"`
	UpdatedFields       []string          `json:"updatedFields"`
	Diffs               []FieldDiff       `json:"diffs,omitempty"`
	ChangedFields       []string          `json:"changedFields,omitempty"`
	SectionsWithChanges int               `json:"sectionsWithChanges,omitempty"`
}

// AcceptRequest persists a human-reviewed subset of an extraction.
type AcceptRequest struct {
	DocumentPath string            `json:"documentPath"`
	Parsed       *ExtractedProfile `json:"parsed" validate:"required"`
	Fields       []string          `json:"fields" validate:"required,min=1,dive,required"`
}
