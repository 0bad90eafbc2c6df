package agentloop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProviderUnknownName(t *testing.T) {
	_, err := NewProvider(context.Background(), "watson")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "watson")
}

func TestNewProviderOpenAI(t *testing.T) {
	p, err := NewProvider(context.Background(), "openai", func(o *ProviderOptions) {
		o.Model = "gpt-4o"
		o.APIKey = "test-key"
	})
	assert.NoError(t, err)
	info := p.Info()
	assert.Equal(t, "openai", info.Provider)
	assert.Equal(t, "gpt-4o", info.Name)
}

func TestNewProviderAnthropic(t *testing.T) {
	p, err := NewProvider(context.Background(), "anthropic", func(o *ProviderOptions) {
		o.APIKey = "test-key"
	})
	assert.NoError(t, err)
	assert.Equal(t, "anthropic", p.Info().Provider)
}
