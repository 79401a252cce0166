// Package prompts holds the prompt texts sent to the extraction service.
// Each embedded JSON file maps prompt names to text/template bodies.
package prompts

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"
	"text/template"
)

//go:embed *.json
var files embed.FS

// loaded maps a filename to its parsed Set
var loaded sync.Map

// Set is the prompts of one file, keyed by name
type Set map[string]string

// Load parses an embedded prompt file; results are cached for the process lifetime.
func Load(filename string) (Set, error) {
	if cached, ok := loaded.Load(filename); ok {
		return cached.(Set), nil
	}

	data, err := files.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	actual, _ := loaded.LoadOrStore(filename, set)
	return actual.(Set), nil
}

// Get returns the raw text of a prompt
func (s Set) Get(key string) (string, error) {
	prompt, ok := s[key]
	if !ok {
		return "", fmt.Errorf("prompt %q not found", key)
	}
	return prompt, nil
}

// Render executes a prompt as a template. Every referenced key must be present in data.
func (s Set) Render(key string, data map[string]string) (string, error) {
	text, err := s.Get(key)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(key).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt %q: %w", key, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", key, err)
	}
	return buf.String(), nil
}

// MustGet returns a prompt and panics when it is missing. Prompts are embedded,
// so a failure here is a build defect.
func MustGet(filename, key string) string {
	set, err := Load(filename)
	if err == nil {
		var prompt string
		if prompt, err = set.Get(key); err == nil {
			return prompt
		}
	}
	panic(fmt.Sprintf("failed to load prompt: %v", err))
}

// MustRender renders a prompt and panics on failure
func MustRender(filename, key string, data map[string]string) string {
	set, err := Load(filename)
	if err == nil {
		var prompt string
		if prompt, err = set.Render(key, data); err == nil {
			return prompt
		}
	}
	panic(fmt.Sprintf("failed to render prompt: %v", err))
}
