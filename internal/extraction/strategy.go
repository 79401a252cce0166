package extraction

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonathan/resume-intake/internal/llm"
)

// errNoPayload signals that a strategy found nothing to read in the response.
var errNoPayload = errors.New("no payload")

// Strategy pulls a raw profile payload out of one service response.
type Strategy interface {
	Name() string
	Payload(resp *llm.StructuredResponse) (map[string]any, error)
}

// PreferStructured reads the arguments of the forced function call.
type PreferStructured struct {
	FunctionName string
}

// Name returns the strategy name
func (PreferStructured) Name() string { return "structured" }

// Payload returns the function-call arguments when the expected function was called.
func (s PreferStructured) Payload(resp *llm.StructuredResponse) (map[string]any, error) {
	if !resp.HasFunctionCall() {
		return nil, errNoPayload
	}
	if s.FunctionName != "" && resp.FunctionName != s.FunctionName {
		return nil, fmt.Errorf("%w: unexpected function %q", errNoPayload, resp.FunctionName)
	}
	return resp.FunctionArgs, nil
}

// FallbackTextScan parses the outermost JSON object found in free text.
type FallbackTextScan struct{}

// Name returns the strategy name
func (FallbackTextScan) Name() string { return "text-scan" }

// Payload strips code fences and parses the span between the first '{' and the last '}'.
func (FallbackTextScan) Payload(resp *llm.StructuredResponse) (map[string]any, error) {
	if resp == nil {
		return nil, errNoPayload
	}
	candidate := llm.OutermostObject(llm.CleanJSONBlock(resp.Text))
	if candidate == "" {
		return nil, errNoPayload
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse text payload: %w", err)
	}
	return payload, nil
}

// DefaultStrategies returns the strategies in the order they are tried.
func DefaultStrategies() []Strategy {
	return []Strategy{
		PreferStructured{FunctionName: llm.ProfileFunctionName},
		FallbackTextScan{},
	}
}
