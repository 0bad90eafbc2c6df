package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentloop/agentloop/core"
)

// -------------------- Text & Token Tests --------------------

func TestAccumulatorForwardsTokensInOrder(t *testing.T) {
	var seen []string
	acc := NewAccumulator(func(s string) { seen = append(seen, s) }, nil)

	acc.AddText("Hel")
	acc.AddText("lo")
	acc.AddText("") // empty fragments are dropped, not forwarded

	assert.Equal(t, []string{"Hel", "lo"}, seen)
	assert.Equal(t, "Hello", acc.Text())
}

func TestAccumulatorNilTokenCallback(t *testing.T) {
	acc := NewAccumulator(nil, nil)
	acc.AddText("ok")
	assert.Equal(t, "ok", acc.Text())
}

func TestAccumulatorInlineData(t *testing.T) {
	var tokens []string
	acc := NewAccumulator(func(s string) { tokens = append(tokens, s) }, nil)

	acc.AddText("here: ")
	acc.AddInlineData("image/png", []byte{0x89, 0x50})
	acc.AddInlineData("image/png", nil) // empty payloads are ignored

	assert.Contains(t, acc.Text(), "![inline](data:image/png;base64,iVA=)")
	// the rendered markdown is forwarded to the callback like any text
	assert.Len(t, tokens, 2)
}

// -------------------- Tool Call Tests --------------------

func TestAccumulatorIndexedFragments(t *testing.T) {
	acc := NewAccumulator(nil, nil)

	acc.UpsertCall(0, "call_1", "get_", "")
	acc.UpsertCall(0, "", "weather", `{"c`)
	acc.UpsertCall(0, "", "", `ity":"SF"}`)

	calls := acc.Calls()
	assert.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "get_weather", calls[0].Name)
	assert.Equal(t, `{"city":"SF"}`, calls[0].Arguments)
}

func TestAccumulatorInterleavedIndexes(t *testing.T) {
	acc := NewAccumulator(nil, nil)

	acc.UpsertCall(0, "a", "first", `{`)
	acc.UpsertCall(1, "b", "second", `{}`)
	acc.UpsertCall(0, "", "", `}`)

	calls := acc.Calls()
	assert.Len(t, calls, 2)
	// first-appearance order, not index completion order
	assert.Equal(t, "first", calls[0].Name)
	assert.Equal(t, "{}", calls[0].Arguments)
	assert.Equal(t, "second", calls[1].Name)
}

func TestAccumulatorWholeValueCalls(t *testing.T) {
	acc := NewAccumulator(nil, nil)

	acc.AddCall(core.ToolCall{ID: "x", Name: "lookup", Arguments: `{"q":"go"}`})

	calls := acc.Calls()
	assert.Len(t, calls, 1)
	assert.Equal(t, "lookup", calls[0].Name)
	assert.Equal(t, `{"q":"go"}`, calls[0].Arguments)
}

func TestAccumulatorNoCalls(t *testing.T) {
	acc := NewAccumulator(nil, nil)
	assert.Nil(t, acc.Calls())
}

func TestAccumulatorReplayIsDeterministic(t *testing.T) {
	feed := func(acc *Accumulator) {
		acc.AddText("The weather: ")
		acc.UpsertCall(0, "call_1", "get_", "")
		acc.UpsertCall(0, "", "weather", `{"c`)
		acc.AddInlineData("image/png", []byte{0x89, 0x50})
		acc.UpsertCall(1, "call_2", "lookup", `{"q":"go"}`)
		acc.UpsertCall(0, "", "", `ity":"SF"}`)
		acc.AddText("done")
	}

	first := NewAccumulator(nil, nil)
	second := NewAccumulator(nil, nil)
	feed(first)
	feed(second)

	// the same ordered delta sequence always folds to the same state
	assert.Equal(t, first.Text(), second.Text())
	assert.Equal(t, first.Calls(), second.Calls())
}

// -------------------- Usage Tests --------------------

func TestAccumulatorUsageOverwrites(t *testing.T) {
	acc := NewAccumulator(nil, nil)

	acc.SetUsage(core.Usage{InputTokens: 10, OutputTokens: 1, TotalTokens: 11})
	acc.SetUsage(core.Usage{InputTokens: 10, OutputTokens: 7, TotalTokens: 17})

	resp := acc.Response(nil)
	// last report wins; interim reports are never summed
	assert.Equal(t, 17, resp.Usage.TotalTokens)
	assert.Equal(t, 7, resp.Usage.OutputTokens)
}

// -------------------- Response Assembly Tests --------------------

func TestAccumulatorResponseMirrorsText(t *testing.T) {
	acc := NewAccumulator(nil, nil)
	acc.AddText("final answer")

	resp := acc.Response(nil)
	assert.Equal(t, "final answer", resp.Content)
	assert.Equal(t, "final answer", resp.Message)
	assert.Empty(t, resp.ToolCalls)
}

func TestAccumulatorOutputSchemaSuccess(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city": map[string]any{"type": "string"},
		},
		"required": []string{"city"},
	}

	acc := NewAccumulator(nil, nil)
	acc.AddText(`{"city":"Berlin"}`)

	resp := acc.Response(schema)
	parsed, ok := resp.Content.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "Berlin", parsed["city"])
	// Message always keeps the raw text
	assert.Equal(t, `{"city":"Berlin"}`, resp.Message)
}

func TestAccumulatorOutputSchemaFailureIsNonFatal(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city": map[string]any{"type": "string"},
		},
		"required": []string{"city"},
	}

	// not JSON at all
	acc := NewAccumulator(nil, nil)
	acc.AddText("plain prose, not json")
	resp := acc.Response(schema)
	assert.Equal(t, "plain prose, not json", resp.Content)

	// valid JSON, missing required field
	acc = NewAccumulator(nil, nil)
	acc.AddText(`{"country":"DE"}`)
	resp = acc.Response(schema)
	assert.Equal(t, `{"country":"DE"}`, resp.Content)
}

func TestAccumulatorOutputSchemaSkippedForToolCalls(t *testing.T) {
	schema := map[string]any{"type": "object", "properties": map[string]any{}}

	acc := NewAccumulator(nil, nil)
	acc.AddText("calling a tool")
	acc.AddCall(core.ToolCall{ID: "1", Name: "t", Arguments: "{}"})

	resp := acc.Response(schema)
	// schema validation only applies to tool-free final answers
	assert.Equal(t, "calling a tool", resp.Content)
	assert.Len(t, resp.ToolCalls, 1)
}
