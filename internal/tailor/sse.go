package tailor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/progress"
	"github.com/jonathan/resume-editor/internal/types"
)

// maxEventSize bounds one SSE line; tool results can carry whole sections
const maxEventSize = 1 << 20

func (c *Client) startSSE(ctx context.Context, resumeID uuid.UUID, req Request) (progress.Stream, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	httpReq, err := http.NewRequestWithContext(runCtx, http.MethodPost, c.endpoint(resumeID, "stream"), bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header = c.authHeader()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start tailoring run: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		cancel()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	log.Printf("[tailor] streaming run for resume %s over SSE", resumeID)
	return newPumpStream(runCtx, readSSE(resp.Body), func() {
		cancel()
		_ = resp.Body.Close()
	}), nil
}

// readSSE decodes "event:"/"data:" frames; a blank line dispatches the frame
func readSSE(body io.Reader) readFunc {
	return func(ctx context.Context, emit func(types.ProgressMessage) error) error {
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

		var event string
		var data []string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if len(data) == 0 {
					event = ""
					continue
				}
				msg, err := decodeEvent(event, strings.Join(data, "\n"))
				event, data = "", nil
				if err != nil {
					log.Printf("[tailor] skipping frame: %v", err)
					continue
				}
				if err := emit(msg); err != nil {
					return err
				}
			case strings.HasPrefix(line, ":"):
				// comment / keep-alive
			default:
				field, value, _ := strings.Cut(line, ":")
				value = strings.TrimPrefix(value, " ")
				switch field {
				case "event":
					event = value
				case "data":
					data = append(data, value)
				}
			}
		}
		if err := scanner.Err(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read event stream: %w", err)
		}
		return io.EOF
	}
}

// decodeEvent maps one backend event to a progress message. "error" and
// "complete" events become final messages; anything else carries a
// ProgressMessage as its data.
func decodeEvent(event, data string) (types.ProgressMessage, error) {
	switch event {
	case "error":
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil || payload.Error == "" {
			return types.FinalMessage(false, data), nil
		}
		return types.FinalMessage(false, payload.Error), nil
	case "complete":
		var payload struct {
			RunID  string `json:"run_id"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return types.ProgressMessage{}, &DecodeError{Event: event, Cause: err}
		}
		msg := types.FinalMessage(payload.Status == "completed" || payload.Status == "success", payload.Status)
		if payload.RunID != "" {
			msg.Data = map[string]any{"run_id": payload.RunID}
		}
		return msg, nil
	}

	var msg types.ProgressMessage
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return types.ProgressMessage{}, &DecodeError{Event: event, Cause: err}
	}
	switch {
	case msg.Type == "error":
		return types.FinalMessage(false, msg.Message), nil
	case msg.Type != "":
	case event == "" || event == "message" || event == "step":
		msg.Type = types.MessageStatus
	default:
		msg.Type = types.MessageType(event)
	}
	return msg, nil
}
