package tailor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonathan/resume-editor/internal/progress"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsServer upgrades, reads the run request, then hands the connection to serve
func wsServer(t *testing.T, resumeID uuid.UUID, serve func(conn *websocket.Conn)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resumes/"+resumeID.String()+"/tailor/ws", r.URL.Path)
		assert.Equal(t, "Bearer ws-token", r.Header.Get("Authorization"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		var req Request
		if assert.NoError(t, conn.ReadJSON(&req)) {
			assert.Equal(t, testRequest.JobURL, req.JobURL)
		}
		serve(conn)
	}))
}

func closeNormally(conn *websocket.Conn) {
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}

func TestClientWebSocket_CompletesRun(t *testing.T) {
	resumeID := uuid.New()
	server := wsServer(t, resumeID, func(conn *websocket.Conn) {
		assert.NoError(t, conn.WriteJSON(step("init")))
		assert.NoError(t, conn.WriteJSON(tool("rewrite_bullets")))
		assert.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x01}))
		assert.NoError(t, conn.WriteJSON(types.FinalMessage(true, "done")))
		closeNormally(conn)
	})
	defer server.Close()

	client := NewClient(server.URL, "ws-token", TransportWebSocket)
	stream, err := client.Start(context.Background(), resumeID, testRequest)
	require.NoError(t, err)

	consumer := progress.NewConsumer(progress.Options{})
	state, err := consumer.Consume(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, progress.StateSucceeded, state)
	assert.Equal(t, 3, consumer.Len(), "binary frames are ignored")
}

func TestClientWebSocket_ClosedWithoutFinal(t *testing.T) {
	resumeID := uuid.New()
	server := wsServer(t, resumeID, func(conn *websocket.Conn) {
		assert.NoError(t, conn.WriteJSON(step("init")))
		closeNormally(conn)
	})
	defer server.Close()

	stream, err := NewClient(server.URL, "ws-token", TransportWebSocket).Start(context.Background(), resumeID, testRequest)
	require.NoError(t, err)

	consumer := progress.NewConsumer(progress.Options{})
	state, err := consumer.Consume(context.Background(), stream)
	assert.Equal(t, progress.StateFailed, state)
	var noFinal *progress.StreamTerminationWithoutFinalError
	assert.ErrorAs(t, err, &noFinal)
}

func TestClientWebSocket_AbruptCloseIsStreamError(t *testing.T) {
	resumeID := uuid.New()
	server := wsServer(t, resumeID, func(conn *websocket.Conn) {
		assert.NoError(t, conn.WriteJSON(step("init")))
		// returning closes the TCP connection without a close frame
	})
	defer server.Close()

	stream, err := NewClient(server.URL, "ws-token", TransportWebSocket).Start(context.Background(), resumeID, testRequest)
	require.NoError(t, err)

	consumer := progress.NewConsumer(progress.Options{})
	state, err := consumer.Consume(context.Background(), stream)
	assert.Equal(t, progress.StateFailed, state)
	var streamErr *progress.StreamError
	assert.ErrorAs(t, err, &streamErr)
}

func TestClientWebSocket_HandshakeRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "", TransportWebSocket).Start(context.Background(), uuid.New(), testRequest)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}
