package tailor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/assert"
)

// sseWriter writes Server-Sent Events the way the tailoring backend does
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(t *testing.T, w http.ResponseWriter) *sseWriter {
	flusher, ok := w.(http.Flusher)
	assert.True(t, ok, "streaming not supported")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}
}

func (s *sseWriter) event(event string, data any) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(s.w, "event: %s\n", event)
	fmt.Fprintf(s.w, "data: %s\n\n", jsonData)
	s.flusher.Flush()
}

func (s *sseWriter) raw(frame string) {
	fmt.Fprint(s.w, frame)
	s.flusher.Flush()
}

func step(name string) types.ProgressMessage {
	return types.ProgressMessage{Type: types.MessageStatus, Step: name, Message: name}
}

func tool(name string) types.ProgressMessage {
	return types.ProgressMessage{Type: types.MessageToolResult, Tool: name, Message: name + " done"}
}

var testRequest = Request{JobURL: "https://example.com/jobs/42"}
