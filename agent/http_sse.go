package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	ai "github.com/ncecere/completion-sdk"
)

// WriteRunAsSSE executes an agent run and streams its events as
// Server-Sent Events to w, one JSON object per "data: <json>\n\n" frame.
// The run's error, if any, is also delivered as an error event.
func WriteRunAsSSE(ctx context.Context, w http.ResponseWriter, cfg Config, prompt string, history []ai.Message) (*Result, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("agent: response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func(e Event) {
		if ctx.Err() != nil {
			return
		}
		b, err := json.Marshal(e)
		if err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
			return
		}
		flusher.Flush()
	}

	return RunWithEvents(ctx, cfg, prompt, history, emit)
}
