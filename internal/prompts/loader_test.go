package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	set, err := Load("extraction.json")
	require.NoError(t, err)
	assert.Contains(t, set, "profile-instructions")
	assert.Contains(t, set, "profile-skills")

	again, err := Load("extraction.json")
	require.NoError(t, err)
	assert.Equal(t, set, again)

	_, err = Load("nonexistent.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestSet_Get(t *testing.T) {
	set := Set{"greeting": "Hello"}

	prompt, err := set.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello", prompt)

	_, err = set.Get("missing")
	assert.ErrorContains(t, err, "not found")
}

func TestSet_Render(t *testing.T) {
	set := Set{
		"welcome": "Hello {{.Name}}, welcome to {{.Company}}!",
		"broken":  "Hello {{.Name",
	}

	out, err := set.Render("welcome", map[string]string{"Name": "Alice", "Company": "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Alice, welcome to Acme Corp!", out)

	_, err = set.Render("welcome", map[string]string{"Name": "Alice"})
	assert.Error(t, err, "missing keys are rejected")

	_, err = set.Render("broken", nil)
	assert.Error(t, err)
}

func TestMustRender(t *testing.T) {
	prompt := MustRender("extraction.json", "profile-instructions", map[string]string{"MaxPublications": "10"})
	assert.Contains(t, prompt, "at most the 10 most relevant publications")
	assert.NotContains(t, prompt, "{{.")

	assert.Panics(t, func() {
		MustRender("extraction.json", "profile-instructions", nil)
	})
}

func TestMustGet_Panics(t *testing.T) {
	assert.NotEmpty(t, MustGet("extraction.json", "profile-skills"))
	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}
