package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-intake/internal/llm"
	"github.com/jonathan/resume-intake/internal/types"
)

type fakeLLM struct {
	resp     *llm.StructuredResponse
	err      error
	calls    int
	lastReq  *llm.StructuredRequest
	lastTier llm.ModelTier
}

func (f *fakeLLM) GenerateStructured(_ context.Context, req *llm.StructuredRequest, tier llm.ModelTier) (*llm.StructuredResponse, error) {
	f.calls++
	f.lastReq = req
	f.lastTier = tier
	return f.resp, f.err
}

func (f *fakeLLM) GetModel(llm.ModelTier) string { return "fake" }

func (f *fakeLLM) Close() error { return nil }

var pdfBytes = []byte("%PDF-1.7 résumé body")

func newTestExtractor(t *testing.T, client llm.Client) *Extractor {
	t.Helper()
	e, err := NewExtractor(client, llm.TierStandard, nil)
	require.NoError(t, err)
	return e
}

func TestExtract_FunctionCall(t *testing.T) {
	client := &fakeLLM{resp: &llm.StructuredResponse{
		FunctionName: llm.ProfileFunctionName,
		FunctionArgs: map[string]any{
			"fullName": "  Jane Doe ",
			"email":    "Jane@Example.com",
			"skills":   []any{"Go", "go", " SQL "},
			"experience": []any{
				map[string]any{"title": "Engineer", "company": "Acme", "isCurrent": "true"},
			},
			"education": []any{
				map[string]any{"degree": "BSc", "institution": "MIT", "endYear": float64(2015)},
			},
		},
	}}

	profile, err := newTestExtractor(t, client).Extract(context.Background(), pdfBytes, MIMEPDF)
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, llm.TierStandard, client.lastTier)
	require.NotNil(t, client.lastReq.Attachment)
	assert.Equal(t, MIMEPDF, client.lastReq.Attachment.MIMEType)
	assert.Equal(t, llm.ProfileFunctionName, client.lastReq.Schema.Name)

	assert.Equal(t, "Jane Doe", profile.FullName)
	assert.Equal(t, "jane@example.com", profile.Email)
	assert.Equal(t, []string{"Go", "SQL"}, profile.Skills)
	require.Len(t, profile.Experience, 1)
	assert.True(t, profile.Experience[0].IsCurrent)
	assert.Equal(t, "2015", profile.Education[0].EndYear)
}

func TestExtract_PartialEntriesKeepProfile(t *testing.T) {
	client := &fakeLLM{resp: &llm.StructuredResponse{
		FunctionName: llm.ProfileFunctionName,
		FunctionArgs: map[string]any{
			"fullName": "Jane Doe",
			"email":    "jane@example.com",
			"experience": []any{
				map[string]any{"title": "Engineer", "company": "Acme"},
				map[string]any{"title": "Freelance consultant"},
				map[string]any{"location": "Remote"},
			},
			"education":    []any{map[string]any{"institution": "MIT"}},
			"publications": []any{map[string]any{"journal": "Nature"}},
		},
	}}

	profile, err := newTestExtractor(t, client).Extract(context.Background(), pdfBytes, MIMEPDF)
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", profile.Email)
	require.Len(t, profile.Experience, 2)
	assert.Equal(t, "Freelance consultant", profile.Experience[1].Title)
	assert.Empty(t, profile.Experience[1].Company)
	require.Len(t, profile.Education, 1)
	assert.Equal(t, "MIT", profile.Education[0].Institution)
	assert.Empty(t, profile.Publications)
}

func TestExtract_FallsBackToText(t *testing.T) {
	client := &fakeLLM{resp: &llm.StructuredResponse{
		Text: "Sure! Here is the profile:\n```json\n{\"fullName\": \"Jane\", \"email\": \"jane@example.com\"}\n```",
	}}

	profile, err := newTestExtractor(t, client).Extract(context.Background(), pdfBytes, MIMEPDF)
	require.NoError(t, err)
	assert.Equal(t, "Jane", profile.FullName)
	assert.Equal(t, 1, client.calls, "fallback must not issue a second request")
}

func TestExtract_InvalidStructuredFallsThroughToText(t *testing.T) {
	client := &fakeLLM{resp: &llm.StructuredResponse{
		FunctionName: llm.ProfileFunctionName,
		FunctionArgs: map[string]any{"experience": "not a list of objects"},
		Text:         `{"fullName": "Jane"}`,
	}}

	profile, err := newTestExtractor(t, client).Extract(context.Background(), pdfBytes, MIMEPDF)
	require.NoError(t, err)
	assert.Equal(t, "Jane", profile.FullName)
}

func TestExtract_NoStructuredOutput(t *testing.T) {
	tests := []struct {
		name string
		resp *llm.StructuredResponse
	}{
		{"prose only", &llm.StructuredResponse{Text: "I could not read this document."}},
		{"broken json", &llm.StructuredResponse{Text: `{"fullName": "Jane",}`}},
		{"wrong function", &llm.StructuredResponse{FunctionName: "other", FunctionArgs: map[string]any{"x": 1}}},
		{"schema violation", &llm.StructuredResponse{Text: `{"publications": [{"journal": "no title"}]}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestExtractor(t, &fakeLLM{resp: tt.resp}).Extract(context.Background(), pdfBytes, MIMEPDF)

			var noOutput *NoStructuredOutputError
			require.True(t, errors.As(err, &noOutput), "got %v", err)
			assert.Equal(t, types.ReasonNoStructuredOutput, noOutput.Kind())
		})
	}
}

func TestExtract_ServiceErrors(t *testing.T) {
	t.Run("call failure is unavailable", func(t *testing.T) {
		client := &fakeLLM{err: &llm.APICallError{Model: "fake", Message: "quota", Cause: errors.New("429")}}
		_, err := newTestExtractor(t, client).Extract(context.Background(), pdfBytes, MIMEPDF)

		var unavailable *UnavailableError
		require.True(t, errors.As(err, &unavailable))
		assert.Equal(t, types.ReasonExtractionUnavailable, unavailable.Kind())
	})

	t.Run("timeout is unavailable", func(t *testing.T) {
		client := &fakeLLM{err: context.DeadlineExceeded}
		_, err := newTestExtractor(t, client).Extract(context.Background(), pdfBytes, MIMEPDF)

		var unavailable *UnavailableError
		require.True(t, errors.As(err, &unavailable))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("empty response is no output", func(t *testing.T) {
		client := &fakeLLM{err: &llm.EmptyResponseError{Reason: "response blocked"}}
		_, err := newTestExtractor(t, client).Extract(context.Background(), pdfBytes, MIMEPDF)

		var noOutput *NoStructuredOutputError
		require.True(t, errors.As(err, &noOutput))
	})
}

func TestExtract_RejectsBeforeCalling(t *testing.T) {
	client := &fakeLLM{}
	e := newTestExtractor(t, client)

	_, err := e.Extract(context.Background(), nil, MIMEPDF)
	assert.Error(t, err)

	_, err = e.Extract(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png")
	var unsupported *UnsupportedDocumentError
	assert.True(t, errors.As(err, &unsupported))

	assert.Equal(t, 0, client.calls)
}

func TestNewExtractor_RequiresClient(t *testing.T) {
	_, err := NewExtractor(nil, llm.TierStandard, nil)
	assert.Error(t, err)
}
