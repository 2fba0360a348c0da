// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// sseWriter pushes event frames over a server-sent-events response. Each
// frame is one "data:" line holding the flattened event JSON.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter prepares w for streaming and writes the SSE headers. It
// fails if the underlying connection cannot flush.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends one frame and flushes it to the client immediately.
func (s *sseWriter) WriteEvent(e types.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling %s frame: %w", e.Name, err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("writing %s frame: %w", e.Name, err)
	}
	s.flusher.Flush()
	return nil
}
