package agent

import (
	"context"
	"sort"
	"sync"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/logging"
	"github.com/agentloop/agentloop/provider"
	"github.com/agentloop/agentloop/tool"
)

// PersistenceHook receives every message appended to the run history, in
// order. Hook failures never abort a run: they are logged and swallowed so a
// flaky store cannot take the conversation down with it.
type PersistenceHook func(ctx context.Context, m core.Message) error

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// SystemPrompt is sent with every provider call.
	SystemPrompt string

	// BasePrompt, when set, is prefixed to bare-string prompts before they
	// are appended to the history. It is ignored for history input.
	BasePrompt string

	// MaxToolIterations caps how many generate→dispatch rounds a single run
	// may perform. The default of 1 allows one round of tool calls; when the
	// cap is reached the last tool result is returned as the response
	// content instead of going back to the model.
	MaxToolIterations int

	// Files are local paths resolved into the first provider call of a run.
	Files []string

	// OutputSchema, when set, asks the provider to validate the final text
	// as JSON matching this schema.
	OutputSchema map[string]any

	// Config overrides provider defaults per call (model, temperature,
	// max tokens).
	Config provider.Config

	// Hook persists history messages. Optional.
	Hook PersistenceHook

	Logger logging.Logger
	Tools  []tool.Tool
}

// Agent orchestrates a turn loop over a single provider.
type Agent struct {
	name     string
	provider provider.Provider
	opts     Options

	mu    sync.Mutex
	tools map[string]tool.Tool
}

// New creates an agent bound to the given provider.
func New(name string, p provider.Provider, optFns ...func(o *Options)) *Agent {
	opts := Options{
		MaxToolIterations: 1,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &Agent{
		name:     name,
		provider: p,
		opts:     opts,
		tools:    make(map[string]tool.Tool),
	}
	a.RegisterTools(opts.Tools...)
	return a
}

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// Provider returns the provider the agent was built with.
func (a *Agent) Provider() provider.Provider { return a.provider }

// RegisterTool adds a tool to the agent's capability set. Registering a tool
// with an existing name replaces it.
func (a *Agent) RegisterTool(t tool.Tool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tools[t.Name()] = t
}

// RegisterTools adds multiple tools at once.
func (a *Agent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// HasTool reports whether a tool is registered under name.
func (a *Agent) HasTool(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.tools[name]
	return ok
}

// ListTools returns the registered tool names in sorted order.
func (a *Agent) ListTools() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// snapshotTools copies the registry so a run is unaffected by concurrent
// registration.
func (a *Agent) snapshotTools() map[string]tool.Tool {
	a.mu.Lock()
	defer a.mu.Unlock()
	tools := make(map[string]tool.Tool, len(a.tools))
	for name, t := range a.tools {
		tools[name] = t
	}
	return tools
}

// toolSchemas converts the snapshot to provider tool declarations in
// deterministic name order.
func toolSchemas(tools map[string]tool.Tool) []provider.ToolSchema {
	if len(tools) == 0 {
		return nil
	}
	schemas := make([]provider.ToolSchema, 0, len(tools))
	for _, t := range tools {
		schemas = append(schemas, provider.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return schemas
}
