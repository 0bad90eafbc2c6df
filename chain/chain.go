// Package chain runs multiple agents sequentially, piping each agent's
// textual response into the next agent's prompt. Agents keep their own
// providers, tools, and options; the chain only moves text between them.
package chain

import (
	"context"
	"fmt"

	"github.com/agentloop/agentloop/agent"
	"github.com/agentloop/agentloop/core"
)

// Chain is an ordered list of agents executed one after another.
type Chain struct {
	name   string
	agents []*agent.Agent
}

// New creates a chain from the given agents, in execution order.
func New(name string, agents ...*agent.Agent) *Chain {
	return &Chain{name: name, agents: agents}
}

// Name returns the chain's display name.
func (c *Chain) Name() string { return c.name }

// Append adds agents to the end of the chain.
func (c *Chain) Append(agents ...*agent.Agent) {
	c.agents = append(c.agents, agents...)
}

// Run executes the chain: the prompt goes to the first agent and each
// response's message text becomes the next agent's prompt. Listeners receive
// the events of every stage. The first failing agent aborts the chain and
// its error is returned, wrapped with the stage that failed.
func (c *Chain) Run(ctx context.Context, prompt string, listeners ...core.Listener) (*core.Response, error) {
	if len(c.agents) == 0 {
		return nil, fmt.Errorf("chain %q has no agents", c.name)
	}

	input := prompt
	var resp *core.Response
	for _, a := range c.agents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		resp, err = a.Run(ctx, agent.Prompt(input), listeners...)
		if err != nil {
			return nil, fmt.Errorf("chain %q: agent %q: %w", c.name, a.Name(), err)
		}
		input = resp.Message
		if input == "" {
			// tool-result content with no message text still feeds forward
			input = core.Message{Content: resp.Content}.Text()
		}
	}
	return resp, nil
}
