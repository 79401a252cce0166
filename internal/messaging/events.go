package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventAccountProvisioned = "account.provisioned"
	EventBulkBatchCompleted = "bulk.batch.completed"
)

// ExchangeIntakeEvents is the topic exchange all intake events go to
const ExchangeIntakeEvents = "intake.events"

// Event is the envelope of every published message
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data any) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// ParseData unmarshals the event data into v
func (e *Event) ParseData(v any) error {
	return json.Unmarshal(e.Data, v)
}

// AccountProvisionedData is sent when the bulk path creates an account.
// The email collaborator uses it to send the first-login notice.
type AccountProvisionedData struct {
	AccountID          string `json:"account_id"`
	Email              string `json:"email"`
	FullName           string `json:"full_name,omitempty"`
	BatchID            string `json:"batch_id,omitempty"`
	MustChangePassword bool   `json:"must_change_password"`
}

// BulkBatchCompletedData summarizes a finished bulk batch
type BulkBatchCompletedData struct {
	BatchID      string `json:"batch_id"`
	SubmittedBy  string `json:"submitted_by,omitempty"`
	SuccessCount int    `json:"success_count"`
	FailureCount int    `json:"failure_count"`
}
