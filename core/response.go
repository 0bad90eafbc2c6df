package core

// Usage captures token accounting for one provider call. Values always
// reflect the provider's final usage report; interim reports are overwritten,
// never summed.
type Usage struct {
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	TotalTokens     int `json:"total_tokens"`
	ReasoningTokens int `json:"reasoning_tokens,omitempty"`
}

// Meta carries response metadata: the model that produced it, wall-clock
// latency of the full run, and adapter-specific extras such as grounding
// (citation) metadata from search-augmented providers.
type Meta struct {
	Model     string         `json:"model,omitempty"`
	LatencyMS int64          `json:"latency_ms,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Response is the canonical per-run result.
//
// Content starts out as the model's text (or validated structured output) and
// may be overwritten by a dispatched tool's return value in single-iteration
// runs; Message always preserves the model's original textual utterance.
// ToolCalls holds calls not yet resolved and is only populated transiently.
type Response struct {
	Content   any        `json:"content"`
	Message   string     `json:"message,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage      `json:"usage"`
	Meta      Meta       `json:"meta"`
}

// SetExtra records an adapter-specific metadata value, allocating the Extra
// map on first use.
func (r *Response) SetExtra(key string, value any) {
	if r.Meta.Extra == nil {
		r.Meta.Extra = map[string]any{}
	}
	r.Meta.Extra[key] = value
}
