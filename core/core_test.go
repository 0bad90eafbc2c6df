package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// -------------------- Message Tests --------------------

func TestMessageText(t *testing.T) {
	assert.Equal(t, "hi", UserMessage("hi").Text())
	assert.Equal(t, "", AssistantToolCallMessage("", nil).Text())

	structured := ToolResultMessage("c1", "lookup", map[string]any{"n": 1})
	assert.JSONEq(t, `{"n":1}`, structured.Text())
}

func TestAssistantToolCallMessage(t *testing.T) {
	calls := []ToolCall{{ID: "c1", Name: "t", Arguments: "{}"}}

	withText := AssistantToolCallMessage("thinking", calls)
	assert.Equal(t, "thinking", withText.Content)
	assert.Equal(t, calls, withText.ToolCalls)

	// no text alongside the calls means no content at all
	bare := AssistantToolCallMessage("", calls)
	assert.Nil(t, bare.Content)
}

func TestToolResultMessageLinkage(t *testing.T) {
	m := ToolResultMessage("call_9", "get_weather", "sunny")
	assert.Equal(t, RoleTool, m.Role)
	assert.Equal(t, "call_9", m.ToolCallID)
	assert.Equal(t, "get_weather", m.Name)
}

// -------------------- Event Tests --------------------

func TestEventTerminal(t *testing.T) {
	assert.True(t, NewEvent("r", EventResponse).Terminal())
	assert.True(t, NewEvent("r", EventError).Terminal())
	assert.False(t, NewEvent("r", EventToken).Terminal())
	assert.False(t, NewEvent("r", EventToolEnd).Terminal())
}

func TestNewEventStampsIdentity(t *testing.T) {
	a := NewEvent("run-1", EventStart)
	b := NewEvent("run-1", EventStart)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "run-1", a.RunID)
	assert.False(t, a.Timestamp.IsZero())
}

func TestEventChannelClosesAfterTerminal(t *testing.T) {
	listener, ch, _ := NewEventChannel(8)

	listener(NewEvent("r", EventStart))
	listener(NewEvent("r", EventToken))
	listener(NewEvent("r", EventResponse))
	// anything after the terminal event is dropped, not a panic on closed send
	listener(NewEvent("r", EventToken))

	var types []EventType
	for ev := range ch {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{EventStart, EventToken, EventResponse}, types)
}

func TestEventChannelStopUnblocksEmitter(t *testing.T) {
	listener, ch, stop := NewEventChannel(1)

	listener(NewEvent("r", EventToken)) // fills the buffer
	stop()

	// with the consumer detached and the buffer full, emission must return
	// immediately instead of blocking the run goroutine; a regression here
	// deadlocks the test
	listener(NewEvent("r", EventToken))
	listener(NewEvent("r", EventResponse))

	// nothing after detach was delivered and the terminal event is gone too
	assert.Len(t, ch, 1)
	ev := <-ch
	assert.Equal(t, EventToken, ev.Type)
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "no further events may arrive after stop")
	default:
	}
}

func TestEventChannelStopAfterTerminalIsNoOp(t *testing.T) {
	listener, ch, stop := NewEventChannel(4)

	listener(NewEvent("r", EventResponse))
	stop() // already stopped by terminal delivery; must not panic

	var types []EventType
	for ev := range ch {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{EventResponse}, types)
}

// -------------------- RunState Tests --------------------

func TestRunStateTerminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateError.Terminal())
	assert.False(t, StateGenerating.Terminal())
	assert.False(t, StateToolDispatch.Terminal())
}
