package provider

import (
	"context"
	"sync"

	"github.com/agentloop/agentloop/core"
)

// MockDelta is one scripted stream notification for the Mock provider. Set
// exactly one of the payload fields per delta.
type MockDelta struct {
	Text       string
	Fragment   *CallFragment // indexed-fragment tool call delta
	Call       *core.ToolCall
	InlineMIME string
	InlineData []byte
	Usage      *core.Usage
}

// CallFragment mirrors an indexed tool-call stream fragment.
type CallFragment struct {
	Index int64
	ID    string
	Name  string
	Args  string
}

// Mock is a lightweight in-memory Provider useful for tests and examples. It
// replays scripted turns through the real Accumulator, so its responses are
// shaped exactly like a live adapter's, and records every request it saw.
type Mock struct {
	mu       sync.Mutex
	turns    [][]MockDelta
	requests []Request

	// Err, when set, is returned by every Generate call.
	Err error
}

// NewMock constructs an empty Mock provider.
func NewMock() *Mock { return &Mock{} }

// EnqueueTurn scripts the stream notifications for the next Generate call.
func (m *Mock) EnqueueTurn(deltas ...MockDelta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, deltas)
}

// EnqueueText scripts a plain text turn with a token count derived from the
// text length, emitted as a single fragment.
func (m *Mock) EnqueueText(text string) {
	tokens := len(text)
	m.EnqueueTurn(
		MockDelta{Text: text},
		MockDelta{Usage: &core.Usage{InputTokens: 1, OutputTokens: tokens, TotalTokens: tokens + 1}},
	)
}

// Requests returns a copy of the requests Generate received, in order.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := make([]Request, len(m.requests))
	copy(reqs, m.requests)
	return reqs
}

// Generate implements Provider by replaying the next scripted turn. An
// exhausted script yields an empty response.
func (m *Mock) Generate(ctx context.Context, req Request) (*core.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	var deltas []MockDelta
	if len(m.turns) > 0 {
		deltas = m.turns[0]
		m.turns = m.turns[1:]
	}
	err := m.Err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, NewError(core.ErrKindTransport, "mock", ctx.Err())
	}

	acc := NewAccumulator(req.OnToken, nil)
	for _, d := range deltas {
		switch {
		case d.Text != "":
			acc.AddText(d.Text)
		case d.Fragment != nil:
			acc.UpsertCall(d.Fragment.Index, d.Fragment.ID, d.Fragment.Name, d.Fragment.Args)
		case d.Call != nil:
			acc.AddCall(*d.Call)
		case d.InlineData != nil:
			acc.AddInlineData(d.InlineMIME, d.InlineData)
		case d.Usage != nil:
			acc.SetUsage(*d.Usage)
		}
	}

	resp := acc.Response(req.OutputSchema)
	resp.Meta.Model = "mock"
	return resp, nil
}

// Info implements Provider.
func (m *Mock) Info() Info { return Info{Name: "mock", Provider: "mock"} }
