package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/logging"
	"github.com/agentloop/agentloop/provider"
	"github.com/agentloop/agentloop/tool"
)

// Input is what a run starts from: either a bare prompt string or a prior
// conversation history the caller manages itself.
type Input struct {
	prompt   string
	isPrompt bool
	history  []core.Message
}

// Prompt wraps a bare prompt string. The run normalizes it into a user
// message (with the agent's base prompt prefixed, if any) and persists it
// through the hook.
func Prompt(text string) Input {
	return Input{prompt: text, isPrompt: true}
}

// History wraps an existing conversation. The messages are used as-is and
// are not re-persisted; only messages the run itself produces go to the
// hook.
func History(messages []core.Message) Input {
	return Input{history: messages}
}

// run carries the per-run snapshot: options and tools are copied at start so
// mutating the agent mid-run cannot change an in-flight conversation.
type run struct {
	id        string
	agent     *Agent
	opts      Options
	tools     map[string]tool.Tool
	logger    logging.Logger
	listeners []core.Listener
	history   []core.Message
	started   time.Time
}

// Run executes one conversation turn loop and returns the final response.
//
// The run emits a start event, then alternates between generating and tool
// dispatch until the model answers without tool calls or the iteration
// ceiling is reached. Exactly one terminal event is delivered to each
// listener: a response event on success or an error event on failure (in
// which case Run returns the error and no response).
func (a *Agent) Run(ctx context.Context, input Input, listeners ...core.Listener) (*core.Response, error) {
	r := &run{
		id:        core.NewID(),
		agent:     a,
		opts:      a.opts,
		tools:     a.snapshotTools(),
		logger:    logging.OrNoOp(a.opts.Logger),
		listeners: listeners,
		started:   time.Now(),
	}
	if r.opts.MaxToolIterations < 1 {
		r.opts.MaxToolIterations = 1
	}

	r.logger.Debug("agent.run.start", "agent", a.name, "run", r.id)

	startEv := core.NewEvent(r.id, core.EventStart)
	if input.isPrompt {
		startEv.Input = input.prompt
	} else {
		startEv.Input = input.history
	}
	r.emit(startEv)

	resp, err := r.execute(ctx, input)
	if err != nil {
		return nil, r.fail(err)
	}
	return resp, nil
}

func (r *run) execute(ctx context.Context, input Input) (*core.Response, error) {
	if input.isPrompt {
		text := input.prompt
		if r.opts.BasePrompt != "" {
			text = r.opts.BasePrompt + "\n\n" + text
		}
		userMsg := core.UserMessage(text)
		r.history = append(r.history, userMsg)
		r.persist(ctx, userMsg)
	} else {
		r.history = append(r.history, input.history...)
	}

	schemas := toolSchemas(r.tools)

	for iteration := 0; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r.logger.Debug("agent.run.state",
			"run", r.id, "state", string(core.StateGenerating), "iteration", iteration)

		req := provider.Request{
			System:       r.opts.SystemPrompt,
			Messages:     r.history,
			Tools:        schemas,
			Config:       r.opts.Config,
			OutputSchema: r.opts.OutputSchema,
			OnToken:      r.onToken,
		}
		if iteration == 0 {
			req.Files = r.opts.Files
		}

		resp, err := r.agent.provider.Generate(ctx, req)
		if err != nil {
			return nil, err
		}

		// dispatch needs both requested calls and a configured tool set;
		// without tools the response stands as-is, calls included
		if len(resp.ToolCalls) == 0 || len(r.tools) == 0 {
			return r.done(ctx, resp)
		}

		r.logger.Debug("agent.run.state",
			"run", r.id, "state", string(core.StateToolDispatch), "calls", len(resp.ToolCalls))

		assistantMsg := core.AssistantToolCallMessage(resp.Message, resp.ToolCalls)
		r.history = append(r.history, assistantMsg)
		r.persist(ctx, assistantMsg)

		var lastResult any
		for _, call := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			lastResult = r.dispatch(ctx, call)
		}

		// iteration+1 rounds completed; at the ceiling the last tool result
		// stands in for a final answer rather than going back to the model.
		if iteration+1 >= r.opts.MaxToolIterations {
			final := &core.Response{
				Content:   lastResult,
				Message:   resp.Message,
				ToolCalls: resp.ToolCalls,
				Usage:     resp.Usage,
				Meta:      resp.Meta,
			}
			return r.done(ctx, final)
		}
	}
}

// dispatch executes one tool call and appends its result to the history. A
// failing or unknown tool is recoverable: the error text becomes the tool
// result so the model can react to it on the next pass. The return value is
// the tool's raw result (error text on failure); history and events carry
// its textual rendering.
func (r *run) dispatch(ctx context.Context, call core.ToolCall) any {
	startEv := core.NewEvent(r.id, core.EventToolStart)
	startEv.ToolName = call.Name
	startEv.ToolCallID = call.ID
	startEv.ToolArgs = call.Arguments
	r.emit(startEv)

	result, err := r.executeTool(ctx, call)

	toolMsg := core.ToolResultMessage(call.ID, call.Name, result)
	if err != nil {
		result = "Error: " + err.Error()
		toolMsg = core.ToolResultMessage(call.ID, call.Name, result)
		toolMsg.Metadata = map[string]any{"is_error": true}
		r.logger.Warn("agent.tool.failed",
			"run", r.id, "tool", call.Name, "error", err.Error())
	}

	r.history = append(r.history, toolMsg)
	r.persist(ctx, toolMsg)

	endEv := core.NewEvent(r.id, core.EventToolEnd)
	endEv.ToolName = call.Name
	endEv.ToolCallID = call.ID
	endEv.ToolResult = toolMsg.Text()
	if err != nil {
		endEv.ToolErr = err.Error()
	}
	r.emit(endEv)

	return result
}

func (r *run) executeTool(ctx context.Context, call core.ToolCall) (any, error) {
	t, ok := r.tools[call.Name]
	if !ok {
		return nil, fmt.Errorf("tool %q not found", call.Name)
	}

	args := make(map[string]any)
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("unmarshal arguments for %q: %w", call.Name, err)
		}
	}
	return t.Call(ctx, args)
}

// done stamps latency, persists the final assistant message with usage and
// meta attached, and delivers the terminal response event.
func (r *run) done(ctx context.Context, resp *core.Response) (*core.Response, error) {
	resp.Meta.LatencyMS = time.Since(r.started).Milliseconds()

	finalMsg := core.AssistantMessage("")
	finalMsg.Content = resp.Content
	finalMsg.Metadata = map[string]any{
		"usage": resp.Usage,
		"meta":  resp.Meta,
	}
	r.persist(ctx, finalMsg)

	r.logger.Debug("agent.run.state", "run", r.id, "state", string(core.StateDone),
		"latency_ms", resp.Meta.LatencyMS)

	ev := core.NewEvent(r.id, core.EventResponse)
	ev.Response = resp
	r.emit(ev)
	return resp, nil
}

// fail classifies the error, delivers the terminal error event, and returns
// the error unchanged.
func (r *run) fail(err error) error {
	kind := core.ErrKindInternal
	var perr *provider.Error
	switch {
	case errors.As(err, &perr):
		kind = perr.Kind
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = core.ErrKindTransport
	}

	r.logger.Error("agent.run.failed",
		"run", r.id, "kind", string(kind), "error", err.Error())

	ev := core.NewEvent(r.id, core.EventError)
	ev.ErrKind = kind
	ev.ErrMsg = err.Error()
	r.emit(ev)
	return err
}

// onToken fans a text fragment out to listeners as a token event.
func (r *run) onToken(fragment string) {
	ev := core.NewEvent(r.id, core.EventToken)
	ev.Token = fragment
	r.emit(ev)
}

func (r *run) emit(ev core.Event) {
	for _, l := range r.listeners {
		l(ev)
	}
}

// persist hands a message to the hook; failures are logged and swallowed.
func (r *run) persist(ctx context.Context, m core.Message) {
	if r.opts.Hook == nil {
		return
	}
	if err := r.opts.Hook(ctx, m); err != nil {
		r.logger.Warn("agent.hook.persist_failed",
			"run", r.id, "role", string(m.Role), "error", err.Error())
	}
}
