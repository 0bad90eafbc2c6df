// Package agentloop is a small agent framework for Go: a turn-loop
// orchestrator over interchangeable LLM providers with tool calling,
// streaming, and event reporting.
//
// The root package hosts the provider factory; the concrete pieces live in
// the subpackages (agent, provider, tool, chain, files, sse, config).
package agentloop

import (
	"context"
	"fmt"

	"github.com/agentloop/agentloop/logging"
	"github.com/agentloop/agentloop/provider"
	"github.com/agentloop/agentloop/provider/anthropic"
	"github.com/agentloop/agentloop/provider/gemini"
	"github.com/agentloop/agentloop/provider/openai"
)

// ProviderNames is the closed set of vendor names NewProvider accepts.
var ProviderNames = []string{"anthropic", "gemini", "openai"}

// ProviderOptions configures a provider built through NewProvider. Zero
// values defer to the adapter's own defaults.
type ProviderOptions struct {
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int64
	Logger      logging.Logger
}

// NewProvider constructs the concrete adapter for a vendor name. The name
// set is closed: anything outside ProviderNames is an error, never a
// fallback.
func NewProvider(ctx context.Context, name string, optFns ...func(o *ProviderOptions)) (provider.Provider, error) {
	var opts ProviderOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	switch name {
	case "openai":
		return openai.New(func(o *openai.Options) {
			if opts.Model != "" {
				o.Model = opts.Model
			}
			if opts.Temperature != 0 {
				o.Temperature = opts.Temperature
			}
			if opts.MaxTokens != 0 {
				o.MaxCompletionTokens = opts.MaxTokens
			}
			o.APIKey = opts.APIKey
			if opts.Logger != nil {
				o.Logger = opts.Logger
			}
		}), nil
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if opts.Model != "" {
				o.Model = opts.Model
			}
			if opts.Temperature != 0 {
				o.Temperature = opts.Temperature
			}
			if opts.MaxTokens != 0 {
				o.MaxTokens = opts.MaxTokens
			}
			o.APIKey = opts.APIKey
			if opts.Logger != nil {
				o.Logger = opts.Logger
			}
		}), nil
	case "gemini":
		p, err := gemini.New(ctx, func(o *gemini.Options) {
			if opts.Model != "" {
				o.Model = opts.Model
			}
			if opts.Temperature != 0 {
				o.Temperature = opts.Temperature
			}
			if opts.MaxTokens != 0 {
				o.MaxTokens = opts.MaxTokens
			}
			o.APIKey = opts.APIKey
			if opts.Logger != nil {
				o.Logger = opts.Logger
			}
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: %v)", name, ProviderNames)
	}
}
