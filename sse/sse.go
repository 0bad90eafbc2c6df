// Package sse bridges agent run events onto an HTTP response as server-sent
// events. Pair it with core.NewEventChannel: pass the listener to Run and
// the channel to Bridge.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agentloop/agentloop/core"
)

// Bridge streams events as SSE frames until the channel closes (the run's
// terminal event) or the client disconnects. Each event becomes one
// `event:`/`data:` frame with a JSON payload and is flushed immediately.
// It returns an error if the writer does not support flushing.
func Bridge(w http.ResponseWriter, r *http.Request, events <-chan core.Event) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("sse: response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("sse: marshal event: %w", err)
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				return fmt.Errorf("sse: write frame: %w", err)
			}
			flusher.Flush()
		}
	}
}
