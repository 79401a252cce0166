// Package extraction turns résumé documents into structured profiles using an LLM.
package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/resume-intake/internal/llm"
	"github.com/jonathan/resume-intake/internal/logger"
	"github.com/jonathan/resume-intake/internal/schemas"
	"github.com/jonathan/resume-intake/internal/types"
)

// Extractor issues one extraction request per document and reads the response
// through its strategies in order.
type Extractor struct {
	client     llm.Client
	tier       llm.ModelTier
	schema     llm.ExtractionSchema
	prompt     string
	validator  *schemas.Validator
	strategies []Strategy
	log        *logger.Logger
}

// NewExtractor creates an Extractor for the professional profile schema.
func NewExtractor(client llm.Client, tier llm.ModelTier, log *logger.Logger) (*Extractor, error) {
	if client == nil {
		return nil, fmt.Errorf("LLM client is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	schema := llm.ProfileSchema()
	validator, err := schemas.Compile(schema.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to compile profile schema: %w", err)
	}

	return &Extractor{
		client:     client,
		tier:       tier,
		schema:     schema,
		prompt:     llm.BuildExtractionPrompt(schema),
		validator:  validator,
		strategies: DefaultStrategies(),
		log:        log.WithComponent("extraction"),
	}, nil
}

// Extract converts a document into a normalized profile.
// Errors are *UnavailableError, *NoStructuredOutputError or *UnsupportedDocumentError.
func (e *Extractor) Extract(ctx context.Context, doc []byte, mimeType string) (*types.ExtractedProfile, error) {
	prepared, err := PrepareDocument(doc, mimeType)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.GenerateStructured(ctx, &llm.StructuredRequest{
		Instructions: e.prompt,
		Attachment:   prepared.Attachment,
		Text:         prepared.Text,
		Schema:       e.schema,
	}, e.tier)
	if err != nil {
		var empty *llm.EmptyResponseError
		if errors.As(err, &empty) {
			return nil, &NoStructuredOutputError{Reason: empty.Reason, Cause: err}
		}
		return nil, &UnavailableError{Cause: err}
	}

	var lastErr error
	for _, strategy := range e.strategies {
		profile, err := e.apply(strategy, resp)
		if err == nil {
			e.log.Debug().
				Str("strategy", strategy.Name()).
				Str("mime_type", prepared.MIMEType).
				Msg("profile extracted")
			return profile, nil
		}
		if !errors.Is(err, errNoPayload) {
			e.log.Warn().Err(err).Str("strategy", strategy.Name()).Msg("extraction strategy rejected payload")
		}
		lastErr = err
	}

	return nil, &NoStructuredOutputError{Reason: "no strategy produced a valid profile", Cause: lastErr}
}

func (e *Extractor) apply(strategy Strategy, resp *llm.StructuredResponse) (*types.ExtractedProfile, error) {
	payload, err := strategy.Payload(resp)
	if err != nil {
		return nil, err
	}
	if err := e.validator.Validate(payload); err != nil {
		return nil, err
	}
	profile, err := decodeProfile(payload)
	if err != nil {
		return nil, err
	}
	return Normalize(profile), nil
}
