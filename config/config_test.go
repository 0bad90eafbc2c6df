package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseValidConfig(t *testing.T) {
	yaml := `
name: helper
provider: openai
model: gpt-4o-mini
api_key: ${OPENAI_API_KEY}
temperature: 0.2
max_tokens: 512
max_tool_iterations: 3
system_prompt: You are helpful.
base_prompt: Be brief.
`
	cfg, err := Parse(strings.NewReader(yaml))
	assert.NoError(t, err)
	assert.Equal(t, "helper", cfg.Name)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, int64(512), cfg.MaxTokens)
	assert.Equal(t, 3, cfg.MaxToolIterations)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	yaml := `
provider: openai
modell: typo-field
`
	_, err := Parse(strings.NewReader(yaml))
	assert.Error(t, err)
}

func TestParseRejectsUnknownProvider(t *testing.T) {
	yaml := `
provider: watson
`
	_, err := Parse(strings.NewReader(yaml))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "watson")
}

func TestParseRequiresProvider(t *testing.T) {
	yaml := `
model: gpt-4o-mini
`
	_, err := Parse(strings.NewReader(yaml))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, (&Config{Provider: "anthropic"}).Validate())
	assert.NoError(t, (&Config{Provider: "gemini"}).Validate())
	assert.Error(t, (&Config{Provider: "openai "}).Validate()) // no normalization
	assert.Error(t, (&Config{}).Validate())
}
