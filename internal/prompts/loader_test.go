package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownPrompt(t *testing.T) {
	prompt, err := Get("generation.json", "response_system")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
}

func TestGet_UnknownKey(t *testing.T) {
	_, err := Get("generation.json", "no_such_key")
	assert.Error(t, err)
}

func TestGet_UnknownFile(t *testing.T) {
	_, err := Get("missing.json", "response_system")
	assert.Error(t, err)
}

func TestFormat_ReplacesPlaceholders(t *testing.T) {
	result := Format("Requirement: {{.Title}} ({{.Title}})", map[string]string{"Title": "Irrigation"})
	assert.Equal(t, "Requirement: Irrigation (Irrigation)", result)
}
