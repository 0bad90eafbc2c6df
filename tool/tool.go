// Package tool implements the function calling subsystem that lets agents
// invoke structured capabilities (APIs, computations, side effects) with
// schema validated arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"

	"github.com/agentloop/agentloop/internal/util"
)

// Tool defines the interface for extending agent capabilities with external
// functions.
//
// Tools are registered with an agent's tool set; the agent advertises them to
// the model and dispatches the calls the model requests. A tool is stateless
// configuration: the same instance may be shared across turns and across
// agent instances, and implementations must be safe for concurrent use when
// shared that way.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case recommended) and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
type Tool interface {
	// Name returns the unique identifier for this tool within a tool set.
	Name() string

	// Description returns a human-readable description of what this tool
	// does, provided to the model to guide tool selection.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with already-parsed arguments. The context is
	// the run's context; long-running tools should honor its cancellation.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
