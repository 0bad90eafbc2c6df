package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType discriminates run notifications.
type EventType string

// Event types emitted over the lifetime of a run. EventResponse and
// EventError are terminal: exactly one of them fires per run, and nothing is
// delivered after it.
const (
	EventStart     EventType = "start"
	EventToken     EventType = "token"
	EventToolStart EventType = "tool_start"
	EventToolEnd   EventType = "tool_end"
	EventResponse  EventType = "response"
	EventError     EventType = "error"
)

// ErrorKind tags an error notification with its failure category.
type ErrorKind string

// Failure categories. ErrKindSchema and ErrKindTool are recovered inside the
// run and never appear on a terminal error event; they exist for logging and
// tool-result tagging.
const (
	ErrKindTransport ErrorKind = "transport"
	ErrKindAuth      ErrorKind = "auth"
	ErrKindSchema    ErrorKind = "schema"
	ErrKindTool      ErrorKind = "tool"
	ErrKindInternal  ErrorKind = "internal"
)

// Event is one run notification. Only the fields relevant to its Type are
// populated. Events are immutable after emission.
type Event struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Input any    `json:"input,omitempty"` // start
	Token string `json:"token,omitempty"` // token

	ToolName   string `json:"tool_name,omitempty"`    // tool_start, tool_end
	ToolCallID string `json:"tool_call_id,omitempty"` // tool_start, tool_end
	ToolArgs   string `json:"tool_args,omitempty"`    // tool_start
	ToolResult any    `json:"tool_result,omitempty"`  // tool_end
	ToolErr    string `json:"tool_error,omitempty"`   // tool_end

	Response *Response `json:"response,omitempty"` // response
	ErrKind  ErrorKind `json:"error_kind,omitempty"`
	ErrMsg   string    `json:"error_message,omitempty"` // error
}

// NewEvent creates an event of the given type bound to a run, stamped with a
// fresh ID and UTC timestamp.
func NewEvent(runID string, t EventType) Event {
	return Event{ID: NewID(), RunID: runID, Type: t, Timestamp: time.Now().UTC()}
}

// Terminal reports whether this event ends a run's notification stream.
func (e Event) Terminal() bool {
	return e.Type == EventResponse || e.Type == EventError
}

// NewID generates a unique identifier for events and runs.
func NewID() string { return uuid.NewString() }

// Listener receives run notifications in emission order. Listeners are
// invoked synchronously from the run goroutine, so they observe token order
// exactly as generated and are never called after the terminal event.
type Listener func(Event)

// NewEventChannel adapts a Listener to a buffered channel, for consumers
// that range over notifications (such as the SSE bridge). The channel is
// closed after the terminal event is delivered, guaranteeing single terminal
// delivery and no sends after close.
//
// The returned stop function detaches the consumer: after stop, emission
// never blocks and nothing more is delivered, even if the buffer is full.
// Consumers that stop ranging before the terminal event must call stop (or
// the emitting run would block on its next event); calling it more than
// once, or after the terminal event, is a no-op.
func NewEventChannel(buffer int) (Listener, <-chan Event, func()) {
	ch := make(chan Event, buffer)
	done := make(chan struct{})
	var stopOnce sync.Once
	stop := func() { stopOnce.Do(func() { close(done) }) }

	var terminal bool
	listener := func(ev Event) {
		if terminal {
			return
		}
		select {
		case <-done:
			terminal = true
			return
		default:
		}
		select {
		case ch <- ev:
			if ev.Terminal() {
				terminal = true
				stop()
				close(ch)
			}
		case <-done:
			terminal = true
		}
	}
	return listener, ch, stop
}
