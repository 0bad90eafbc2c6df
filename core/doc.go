// Package core defines the provider-agnostic conversation model shared by
// every layer of agentloop: canonical messages, tool calls, the per-run
// response shape, and the event notifications emitted while a run executes.
//
// The types here are deliberately minimal and transport independent. Provider
// adapters translate them to vendor wire formats; the orchestrator appends
// them to history and hands them to persistence hooks. A Message is immutable
// once appended to a history; histories are append-only and never reordered.
package core
