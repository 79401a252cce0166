// Package llm - extractor.go describes extraction schemas once and renders them
// for every consumer: the provider's function declaration, a JSON Schema for
// validation, and a plain-text prompt.
package llm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/jonathan/resume-intake/internal/prompts"
	"github.com/jonathan/resume-intake/internal/types"
)

// FieldType is the type hint of a schema field.
type FieldType string

// Supported field types.
const (
	FieldString      FieldType = "string"
	FieldBoolean     FieldType = "boolean"
	FieldStringList  FieldType = "[]string"
	FieldObjectList  FieldType = "[]object"
	FieldNestedGroup FieldType = "object"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string        // Function name the model is forced to call
	Description string        // Describes the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string        // JSON field name
	Type        FieldType     // Defaults to FieldString
	Description string        // Description for the LLM
	Required    bool          // Whether this field must be present
	Fields      []SchemaField // Members of object and object-list fields
}

func (f SchemaField) fieldType() FieldType {
	if f.Type == "" {
		return FieldString
	}
	return f.Type
}

// GenaiSchema renders the schema as function parameters for Gemini.
func (s ExtractionSchema) GenaiSchema() *genai.Schema {
	return objectGenai(s.Description, s.Fields)
}

func objectGenai(description string, fields []SchemaField) *genai.Schema {
	schema := &genai.Schema{
		Type:        genai.TypeObject,
		Description: description,
		Properties:  make(map[string]*genai.Schema, len(fields)),
	}
	for _, f := range fields {
		schema.Properties[f.Name] = fieldGenai(f)
		if f.Required {
			schema.Required = append(schema.Required, f.Name)
		}
	}
	return schema
}

func fieldGenai(f SchemaField) *genai.Schema {
	switch f.fieldType() {
	case FieldBoolean:
		return &genai.Schema{Type: genai.TypeBoolean, Description: f.Description}
	case FieldStringList:
		return &genai.Schema{
			Type:        genai.TypeArray,
			Description: f.Description,
			Items:       &genai.Schema{Type: genai.TypeString},
		}
	case FieldObjectList:
		return &genai.Schema{
			Type:        genai.TypeArray,
			Description: f.Description,
			Items:       objectGenai("", f.Fields),
		}
	case FieldNestedGroup:
		return objectGenai(f.Description, f.Fields)
	default:
		return &genai.Schema{Type: genai.TypeString, Description: f.Description}
	}
}

// JSONSchema renders the schema as a draft-07 JSON Schema document.
// Scalar leaves accept numbers as well as strings, and booleans accept their
// string spellings, because models return years and flags in either form.
// Required markers are hints for the model only and are not rendered here:
// a partial entry is dropped during normalization instead of rejecting the
// whole payload.
func (s ExtractionSchema) JSONSchema() map[string]any {
	doc := objectJSON(s.Fields)
	doc["$schema"] = "http://json-schema.org/draft-07/schema#"
	doc["title"] = s.Name
	return doc
}

func objectJSON(fields []SchemaField) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f.Name] = fieldJSON(f)
	}
	return map[string]any{"type": "object", "properties": props}
}

func fieldJSON(f SchemaField) map[string]any {
	switch f.fieldType() {
	case FieldBoolean:
		return map[string]any{"type": []string{"boolean", "string", "null"}}
	case FieldStringList:
		return map[string]any{
			"type":  []string{"array", "null"},
			"items": map[string]any{"type": []string{"string", "number", "null"}},
		}
	case FieldObjectList:
		return map[string]any{"type": []string{"array", "null"}, "items": objectJSON(f.Fields)}
	case FieldNestedGroup:
		return objectJSON(f.Fields)
	default:
		return map[string]any{"type": []string{"string", "number", "null"}}
	}
}

// BuildExtractionPrompt constructs the instruction text for a schema.
// The model is expected to answer through the declared function; the JSON
// outline is repeated so a free-text answer is still parseable.
func BuildExtractionPrompt(schema ExtractionSchema) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Call the function %q exactly once with the extracted data.\n", schema.Name))
	sb.WriteString("If you cannot call it, return ONLY valid JSON matching this structure:\n")
	writeOutline(&sb, schema.Fields, "  ")

	sb.WriteString("\nIMPORTANT:\n")
	sb.WriteString("- Extract information directly from the document, do not invent or summarize.\n")
	sb.WriteString("- Omit fields that are not present in the document instead of guessing.\n")
	return sb.String()
}

func writeOutline(sb *strings.Builder, fields []SchemaField, indent string) {
	sb.WriteString("{\n")
	for i, field := range fields {
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("%s\"%s\": %s%s", indent, field.Name, field.fieldType(), requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if len(field.Fields) > 0 {
			sb.WriteString(" of ")
			writeOutline(sb, field.Fields, indent+"  ")
		}
		if i < len(fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(strings.TrimSuffix(indent, "  "))
	sb.WriteString("}")
	if indent == "  " {
		sb.WriteString("\n")
	}
}

// --- Predefined Schemas ---

// ProfileFunctionName is the function the model is forced to call for résumés.
const ProfileFunctionName = "record_profile"

const promptFile = "extraction.json"

// ProfileSchema returns the extraction schema for professional profiles.
func ProfileSchema() ExtractionSchema {
	vars := map[string]string{"MaxPublications": strconv.Itoa(types.MaxPublications)}
	return ExtractionSchema{
		Name:        ProfileFunctionName,
		Description: prompts.MustRender(promptFile, "profile-instructions", vars),
		Fields: []SchemaField{
			{Name: "fullName", Description: "Candidate's full name"},
			{Name: "role", Description: "Current or most recent job title"},
			{Name: "headline", Description: "One-line professional headline"},
			{Name: "summary", Description: "Professional summary paragraph"},
			{Name: "location", Description: "City, region or country"},
			{Name: "phone", Description: "Phone number"},
			{Name: "email", Description: "Email address"},
			{Name: "skills", Type: FieldStringList, Description: prompts.MustGet(promptFile, "profile-skills")},
			{
				Name: "experience", Type: FieldObjectList, Description: prompts.MustGet(promptFile, "profile-experience"),
				Fields: []SchemaField{
					{Name: "title", Required: true},
					{Name: "company", Required: true},
					{Name: "location"},
					{Name: "startDate"},
					{Name: "endDate"},
					{Name: "description"},
					{Name: "isCurrent", Type: FieldBoolean, Description: "True when this is the current position"},
				},
			},
			{
				Name: "education", Type: FieldObjectList, Description: "Degrees and programs",
				Fields: []SchemaField{
					{Name: "degree", Required: true},
					{Name: "institution", Required: true},
					{Name: "field", Description: "Field of study"},
					{Name: "startYear"},
					{Name: "endYear"},
				},
			},
			{Name: "achievements", Type: FieldStringList, Description: "Awards and notable achievements"},
			{
				Name: "publications", Type: FieldObjectList, Description: prompts.MustRender(promptFile, "profile-publications", vars),
				Fields: []SchemaField{
					{Name: "title", Required: true},
					{Name: "journal"},
					{Name: "year"},
					{Name: "doi"},
					{Name: "authors"},
				},
			},
		},
	}
}
