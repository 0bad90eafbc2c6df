// Package provider defines the vendor-neutral adapter contract for language
// model backends and the shared streaming accumulator every adapter uses to
// normalize its vendor's stream into one canonical response.
//
// Core goals:
//   - One Generate operation per model turn: canonical request in, exactly
//     one canonical response out
//   - Normalize tool / function call representation across vendors
//   - Per-fragment token forwarding in strict arrival order
//   - Usage accounting from the vendor's final usage report only
//
// Concrete adapters (openai, anthropic, gemini) live in subpackages and are
// selected by name at construction time via the agentloop facade.
package provider

import (
	"context"

	"github.com/agentloop/agentloop/core"
)

// ToolSchema declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Config carries per-call generation parameters. Zero values mean "use the
// adapter's configured default".
type Config struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int64   `json:"max_tokens,omitempty"`
}

// Request captures the normalized model input for one turn.
//
// Messages holds the full canonical history for the turn; a first-turn
// free-text prompt is represented as a single user message. Files are local
// paths resolved through the files package and attached to the most recent
// user turn by the adapter. OnToken, when set, is invoked once per
// incremental text fragment in strict arrival order and never after Generate
// returns.
type Request struct {
	System       string         `json:"system,omitempty"`
	Messages     []core.Message `json:"messages"`
	Files        []string       `json:"files,omitempty"`
	Tools        []ToolSchema   `json:"tools,omitempty"`
	Config       Config         `json:"config,omitempty"`
	OutputSchema map[string]any `json:"output_schema,omitempty"`
	OnToken      func(token string)
}

// Info contains metadata about a provider implementation.
type Info struct {
	Name     string `json:"name"`     // model identifier
	Provider string `json:"provider"` // "openai", "anthropic", "gemini", "mock"
}

// Provider is the contract every vendor binding satisfies.
//
// Generate performs exactly one vendor call and returns exactly one canonical
// response, or an error. On error no partial response is returned; content
// accumulated up to the failure point is discarded. Implementations must
// honor ctx cancellation at their stream suspension points.
type Provider interface {
	Generate(ctx context.Context, req Request) (*core.Response, error)

	// Info returns information about the provider implementation.
	Info() Info
}
