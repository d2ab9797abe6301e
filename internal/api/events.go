package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleTaskEvents streams finished task results as server-sent events until
// the client leaves, the broker closes or the server shuts down.
func (s *Server) handleTaskEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Disable write timeout for long-lived SSE connections.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Error("set write deadline for SSE", "error", err)
	}

	// A closed broker hands out a closed channel, so the loop below ends at once.
	ch, unsub := s.broker.Subscribe()
	defer unsub()

	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.(http.Flusher)
	if canFlush {
		flusher.Flush()
	}

	for {
		select {
		case res, ok := <-ch:
			if !ok {
				writeDone(w, flusher, canFlush)
				return
			}
			data, err := json.Marshal(res)
			if err != nil {
				s.logger.Error("encode task event", "task_id", res.ID, "error", err)
				continue
			}
			if err := writeSSEData(w, data); err != nil {
				return
			}
			if canFlush {
				flusher.Flush()
			}
		case <-s.shutdown:
			writeDone(w, flusher, canFlush)
			return
		case <-r.Context().Done():
			return
		}
	}
}

// writeDone ends the stream with an explicit done event.
func writeDone(w http.ResponseWriter, flusher http.Flusher, canFlush bool) {
	_ = writeSSEEvent(w, "done", "stream complete")
	if canFlush {
		flusher.Flush()
	}
}

// writeSSEData writes one JSON payload as an SSE data event.
func writeSSEData(w http.ResponseWriter, data []byte) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// writeSSEEvent writes a named SSE event (event: <type>\ndata: <data>\n\n).
func writeSSEEvent(w http.ResponseWriter, eventType, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return nil
}
