// Package agent implements the turn-loop orchestrator at the heart of
// agentloop.
//
// An Agent owns a provider, a tool registry, and run options. Run drives the
// conversation: it sends the history to the provider, dispatches any tool
// calls the model requested, feeds the results back, and repeats until the
// model answers without tools or the iteration ceiling is reached. Progress
// is reported to listeners as events (start, token, tool_start, tool_end,
// response, error) and every message that enters the history can be handed
// to a persistence hook.
package agent
