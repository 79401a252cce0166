package llm

import "fmt"

// APICallError represents a failed call to the model provider: transport errors,
// quota or rate limiting, timeouts. Retrying later may succeed.
type APICallError struct {
	Model   string
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("LLM call to %s failed: %s: %v", e.Model, e.Message, e.Cause)
	}
	return fmt.Sprintf("LLM call to %s failed: %s", e.Model, e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// EmptyResponseError is returned when the provider answered but produced nothing
// usable: no candidates, no parts, or a blocked response.
type EmptyResponseError struct {
	Reason string
	Cause  error
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("LLM returned no usable content: %s", e.Reason)
}

func (e *EmptyResponseError) Unwrap() error {
	return e.Cause
}
