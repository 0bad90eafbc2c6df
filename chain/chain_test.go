package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentloop/agentloop/agent"
	"github.com/agentloop/agentloop/provider"
)

func TestChainPipesMessages(t *testing.T) {
	first := provider.NewMock()
	first.EnqueueText("draft text")
	second := provider.NewMock()
	second.EnqueueText("edited text")

	pipeline := New("pipeline",
		agent.New("writer", first),
		agent.New("editor", second),
	)

	resp, err := pipeline.Run(context.Background(), "write about Go")
	assert.NoError(t, err)
	assert.Equal(t, "edited text", resp.Message)

	// the second agent's prompt is the first agent's answer
	reqs := second.Requests()
	assert.Len(t, reqs, 1)
	assert.Equal(t, "draft text", reqs[0].Messages[0].Text())
}

func TestChainStopsOnError(t *testing.T) {
	first := provider.NewMock()
	first.Err = errors.New("upstream down")
	second := provider.NewMock()

	pipeline := New("pipeline",
		agent.New("writer", first),
		agent.New("editor", second),
	)

	_, err := pipeline.Run(context.Background(), "go")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `agent "writer"`)
	// the failing stage aborts the chain before the next agent runs
	assert.Empty(t, second.Requests())
}

func TestChainEmpty(t *testing.T) {
	_, err := New("empty").Run(context.Background(), "go")
	assert.Error(t, err)
}

func TestChainAppend(t *testing.T) {
	p := provider.NewMock()
	p.EnqueueText("ok")

	pipeline := New("growing")
	pipeline.Append(agent.New("only", p))

	resp, err := pipeline.Run(context.Background(), "hi")
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp.Message)
	assert.Equal(t, "growing", pipeline.Name())
}
