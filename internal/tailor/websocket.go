package tailor

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonathan/resume-editor/internal/progress"
	"github.com/jonathan/resume-editor/internal/types"
)

func (c *Client) startWebSocket(ctx context.Context, resumeID uuid.UUID, req Request) (progress.Stream, error) {
	url := c.endpoint(resumeID, "ws")
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}

	conn, resp, err := c.dialer.DialContext(ctx, url, c.authHeader())
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, &StatusError{StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("failed to connect to tailoring backend: %w", err)
	}

	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send tailoring request: %w", err)
	}

	log.Printf("[tailor] streaming run for resume %s over WebSocket", resumeID)
	return newPumpStream(ctx, readWebSocket(conn), func() {
		_ = conn.Close()
	}), nil
}

// readWebSocket treats each text frame as one progress message
func readWebSocket(conn *websocket.Conn) readFunc {
	return func(ctx context.Context, emit func(types.ProgressMessage) error) error {
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return io.EOF
				}
				return fmt.Errorf("failed to read progress message: %w", err)
			}
			if kind != websocket.TextMessage {
				continue
			}
			msg, err := decodeEvent("", string(data))
			if err != nil {
				log.Printf("[tailor] skipping frame: %v", err)
				continue
			}
			if err := emit(msg); err != nil {
				return err
			}
		}
	}
}
