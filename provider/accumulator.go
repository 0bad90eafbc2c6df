package provider

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/internal/util"
	"github.com/agentloop/agentloop/logging"
)

// Accumulator folds an ordered sequence of vendor stream notifications into
// one coherent text body and one ordered list of tool calls. Adapters create
// one per Generate call and feed it from their stream loop; it is not safe
// for concurrent use and is discarded after Response is taken.
//
// Two tool-call delta patterns are supported:
//
//   - Indexed fragments (UpsertCall): a call is announced by a positional
//     index; later fragments with the same index append to the call's name
//     and argument strings. Arguments stay raw text until the stream ends.
//   - Whole values (AddCall): the call arrives complete in one notification
//     and is appended as-is.
type Accumulator struct {
	text    strings.Builder
	order   []*callState
	byIndex map[int64]*callState
	usage   core.Usage
	onToken func(string)
	logger  logging.Logger
}

type callState struct {
	id   string
	name string
	args strings.Builder
}

// NewAccumulator creates an accumulator. onToken may be nil; logger may be
// nil (warnings are then discarded).
func NewAccumulator(onToken func(string), logger logging.Logger) *Accumulator {
	return &Accumulator{
		byIndex: map[int64]*callState{},
		onToken: onToken,
		logger:  logging.OrNoOp(logger),
	}
}

// AddText forwards the fragment to the token callback, then appends it to the
// accumulated body. Forwarding happens first so callers observe fragments
// with no buffering delay.
func (a *Accumulator) AddText(fragment string) {
	if fragment == "" {
		return
	}
	if a.onToken != nil {
		a.onToken(fragment)
	}
	a.text.WriteString(fragment)
}

// AddInlineData renders a vendor-generated binary payload as inline data-URI
// markdown appended to the text body, keeping the accumulated content a
// single renderable string.
func (a *Accumulator) AddInlineData(mimeType string, data []byte) {
	if len(data) == 0 {
		return
	}
	a.AddText(fmt.Sprintf("\n![inline](data:%s;base64,%s)\n",
		mimeType, base64.StdEncoding.EncodeToString(data)))
}

// UpsertCall records an indexed tool-call fragment. Non-empty id and name
// fragments append to the call's identity; args fragments always append.
func (a *Accumulator) UpsertCall(index int64, id, name, args string) {
	cs, ok := a.byIndex[index]
	if !ok {
		cs = &callState{}
		a.byIndex[index] = cs
		a.order = append(a.order, cs)
	}
	if id != "" {
		cs.id = id
	}
	if name != "" {
		cs.name += name
	}
	cs.args.WriteString(args)
}

// AddCall appends a complete tool call (whole-value pattern).
func (a *Accumulator) AddCall(call core.ToolCall) {
	cs := &callState{id: call.ID, name: call.Name}
	cs.args.WriteString(call.Arguments)
	a.order = append(a.order, cs)
}

// SetUsage overwrites the usage snapshot. Vendors that emit interim usage
// reports call this per report; only the last one survives, which keeps
// totals from being double counted.
func (a *Accumulator) SetUsage(u core.Usage) { a.usage = u }

// Text returns the accumulated text body.
func (a *Accumulator) Text() string { return a.text.String() }

// Calls returns the tool calls in first-appearance order.
func (a *Accumulator) Calls() []core.ToolCall {
	if len(a.order) == 0 {
		return nil
	}
	calls := make([]core.ToolCall, 0, len(a.order))
	for _, cs := range a.order {
		calls = append(calls, core.ToolCall{ID: cs.id, Name: cs.name, Arguments: cs.args.String()})
	}
	return calls
}

// Response assembles the canonical response from the accumulated state.
//
// When an output schema was requested and the stream produced no tool call,
// the text body is parsed as JSON and validated against the schema; the
// validated object becomes Content. Parse or validation failures are
// non-fatal: the raw text is returned unchanged and a warning is logged, so
// schema mismatches never abort an otherwise-successful call.
func (a *Accumulator) Response(outputSchema map[string]any) *core.Response {
	text := a.Text()
	resp := &core.Response{
		Content:   text,
		Message:   text,
		ToolCalls: a.Calls(),
		Usage:     a.usage,
	}

	if outputSchema != nil && len(resp.ToolCalls) == 0 {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			a.logger.Warn("provider.output.parse_failed", "error", err.Error())
			return resp
		}
		if err := util.ValidateParameters(parsed, outputSchema); err != nil {
			a.logger.Warn("provider.output.validation_failed", "error", err.Error())
			return resp
		}
		resp.Content = parsed
	}

	return resp
}
