package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateStructured sends a document and a function declaration the model is forced to call.
	GenerateStructured(ctx context.Context, req *StructuredRequest, tier ModelTier) (*StructuredResponse, error)
	// GetModel returns the underlying provider model for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// Attachment is an inline binary document sent alongside the prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// StructuredRequest is one extraction call.
// Exactly one of Attachment or Text carries the document body.
type StructuredRequest struct {
	Instructions string
	Attachment   *Attachment
	Text         string
	Schema       ExtractionSchema
}

// StructuredResponse holds everything the model returned for a request.
// FunctionArgs is set when the model called the declared function; Text collects any free text parts.
type StructuredResponse struct {
	FunctionName string
	FunctionArgs map[string]any
	Text         string
}

// HasFunctionCall reports whether the model answered through the declared function.
func (r *StructuredResponse) HasFunctionCall() bool {
	return r != nil && r.FunctionName != "" && r.FunctionArgs != nil
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid LLM config: %w", err)
	}

	gemini, err := NewGeminiClient(ctx, config, apiKey)
	if err != nil {
		return nil, err
	}
	if config.RequestsPerMinute > 0 {
		return NewThrottledClient(gemini, config.RequestsPerMinute), nil
	}
	return gemini, nil
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// GenerateStructured issues a single request with the schema declared as a forced function call.
func (c *GeminiClient) GenerateStructured(ctx context.Context, req *StructuredRequest, tier ModelTier) (*StructuredResponse, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return nil, fmt.Errorf("no model configured for tier %s", tier)
	}
	if req.Attachment == nil && strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("request carries no document")
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(c.config.Temperature)
	model.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        req.Schema.Name,
			Description: req.Schema.Description,
			Parameters:  req.Schema.GenaiSchema(),
		}},
	}}
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 genai.FunctionCallingAny,
			AllowedFunctionNames: []string{req.Schema.Name},
		},
	}

	parts := []genai.Part{genai.Text(req.Instructions)}
	if req.Attachment != nil {
		parts = append(parts, genai.Blob{MIMEType: req.Attachment.MIMEType, Data: req.Attachment.Data})
	} else {
		parts = append(parts, genai.Text("Document text:\n"+req.Text))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return nil, &EmptyResponseError{Reason: "response blocked", Cause: err}
		}
		return nil, &APICallError{Model: modelName, Message: "generate content", Cause: err}
	}

	return structuredFromResponse(resp)
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// structuredFromResponse collects the first function call and all text parts of the first candidate.
func structuredFromResponse(resp *genai.GenerateContentResponse) (*StructuredResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &EmptyResponseError{Reason: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, &EmptyResponseError{Reason: "no content in response"}
	}

	out := &StructuredResponse{}
	var texts []string
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			if out.FunctionName == "" {
				out.FunctionName = p.Name
				out.FunctionArgs = p.Args
			}
		case genai.Text:
			texts = append(texts, string(p))
		}
	}
	out.Text = strings.Join(texts, "")

	if !out.HasFunctionCall() && strings.TrimSpace(out.Text) == "" {
		return nil, &EmptyResponseError{Reason: "no function call or text parts in response"}
	}
	return out, nil
}
