package sse

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentloop/agentloop/core"
)

func TestBridgeStreamsUntilTerminal(t *testing.T) {
	listener, events, _ := core.NewEventChannel(8)

	tok := core.NewEvent("r1", core.EventToken)
	tok.Token = "hel"
	listener(tok)

	final := core.NewEvent("r1", core.EventResponse)
	final.Response = &core.Response{Message: "hello"}
	listener(final) // closes the channel

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)

	err := Bridge(rec, req, events)
	assert.NoError(t, err)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, rec.Flushed)

	body := rec.Body.String()
	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	assert.Len(t, frames, 2)
	assert.True(t, strings.HasPrefix(frames[0], "event: token\n"))
	assert.Contains(t, frames[0], `"token":"hel"`)
	assert.True(t, strings.HasPrefix(frames[1], "event: response\n"))
	assert.Contains(t, frames[1], `"message":"hello"`)
}

func TestBridgeErrorEvent(t *testing.T) {
	listener, events, _ := core.NewEventChannel(4)

	ev := core.NewEvent("r1", core.EventError)
	ev.ErrKind = core.ErrKindAuth
	ev.ErrMsg = "bad key"
	listener(ev)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)

	assert.NoError(t, Bridge(rec, req, events))
	body := rec.Body.String()
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, `"error_kind":"auth"`)
}

type noFlushWriter struct{ http.ResponseWriter }

func TestBridgeRequiresFlusher(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)

	err := Bridge(noFlushWriter{rec}, req, make(chan core.Event))
	assert.Error(t, err)
}
