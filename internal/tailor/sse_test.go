package tailor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/progress"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSSE_CompletesRun(t *testing.T) {
	resumeID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/resumes/"+resumeID.String()+"/tailor/stream", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		var req Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, testRequest.JobURL, req.JobURL)

		sse := newSSEWriter(t, w)
		sse.raw(": keep-alive\n\n")
		sse.event("step", step("init"))
		sse.event("step", tool("rewrite_bullets"))
		sse.event("complete", map[string]string{"run_id": "run-1", "status": "completed"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-token", TransportSSE)
	stream, err := client.Start(context.Background(), resumeID, testRequest)
	require.NoError(t, err)

	consumer := progress.NewConsumer(progress.Options{})
	state, err := consumer.Consume(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, progress.StateSucceeded, state)

	log := consumer.Log()
	require.Len(t, log, 3)
	assert.Equal(t, "init", log[0].Step)
	assert.Equal(t, types.MessageToolResult, log[1].Type)
	assert.True(t, log[2].IsFinal())
	assert.Equal(t, "run-1", log[2].Data["run_id"])
}

func TestClientSSE_ErrorEventFailsRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sse := newSSEWriter(t, w)
		sse.event("step", step("init"))
		sse.event("error", map[string]string{"error": "model unavailable"})
	}))
	defer server.Close()

	stream, err := NewClient(server.URL, "", TransportSSE).Start(context.Background(), uuid.New(), testRequest)
	require.NoError(t, err)

	consumer := progress.NewConsumer(progress.Options{})
	state, err := consumer.Consume(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, progress.StateFailed, state)

	final, ok := consumer.Final()
	require.True(t, ok)
	assert.Equal(t, "model unavailable", final.Message)
}

func TestClientSSE_ClosedWithoutFinal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sse := newSSEWriter(t, w)
		sse.event("step", step("init"))
	}))
	defer server.Close()

	stream, err := NewClient(server.URL, "", TransportSSE).Start(context.Background(), uuid.New(), testRequest)
	require.NoError(t, err)

	consumer := progress.NewConsumer(progress.Options{})
	state, err := consumer.Consume(context.Background(), stream)
	assert.Equal(t, progress.StateFailed, state)
	var noFinal *progress.StreamTerminationWithoutFinalError
	require.ErrorAs(t, err, &noFinal)
	assert.Equal(t, 1, noFinal.Received)
}

func TestClientSSE_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "bad", TransportSSE).Start(context.Background(), uuid.New(), testRequest)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "unauthorized", statusErr.Body)
}

func TestClientSSE_CloseEndsStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sse := newSSEWriter(t, w)
		sse.event("step", step("init"))
		<-r.Context().Done()
	}))
	defer server.Close()

	stream, err := NewClient(server.URL, "", TransportSSE).Start(context.Background(), uuid.New(), testRequest)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "init", msg.Step)

	require.NoError(t, stream.Close())
	_, err = stream.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestClientSSE_NextHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		newSSEWriter(t, w)
		<-r.Context().Done()
	}))
	defer server.Close()

	stream, err := NewClient(server.URL, "", TransportSSE).Start(context.Background(), uuid.New(), testRequest)
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = stream.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReadSSE_MultilineData(t *testing.T) {
	body := "event: step\n" +
		"data: {\"type\":\"status\",\n" +
		"data: \"step\":\"init\"}\n" +
		"\n" +
		"data: {\"type\":\"final\",\"success\":true}\n" +
		"\n" +
		"event: step\n" +
		"data: {\"step\":\"dangling\"}\n"

	var got []types.ProgressMessage
	err := readSSE(stringsReader(body))(context.Background(), func(m types.ProgressMessage) error {
		got = append(got, m)
		return nil
	})
	assert.ErrorIs(t, err, io.EOF)
	require.Len(t, got, 2, "a frame without a terminating blank line is dropped")
	assert.Equal(t, "init", got[0].Step)
	assert.True(t, got[1].IsFinal())
	assert.True(t, got[1].Succeeded())
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     string
		data      string
		wantType  types.MessageType
		wantFinal bool
		wantOK    bool
		wantMsg   string
		wantErr   bool
	}{
		{name: "step defaults to status", event: "step", data: `{"step":"init"}`, wantType: types.MessageStatus},
		{name: "explicit type wins", event: "step", data: `{"type":"tool_result","tool":"x"}`, wantType: types.MessageToolResult},
		{name: "event name as type", event: "db_update", data: `{"data":{"section":"skills"}}`, wantType: types.MessageDBUpdate},
		{name: "error event", event: "error", data: `{"error":"boom"}`, wantType: types.MessageFinal, wantFinal: true, wantMsg: "boom"},
		{name: "plain text error", event: "error", data: `boom`, wantType: types.MessageFinal, wantFinal: true, wantMsg: "boom"},
		{name: "error type", event: "", data: `{"type":"error","message":"boom"}`, wantType: types.MessageFinal, wantFinal: true, wantMsg: "boom"},
		{name: "complete ok", event: "complete", data: `{"status":"completed"}`, wantType: types.MessageFinal, wantFinal: true, wantOK: true, wantMsg: "completed"},
		{name: "complete failed", event: "complete", data: `{"status":"failed"}`, wantType: types.MessageFinal, wantFinal: true, wantMsg: "failed"},
		{name: "malformed", event: "step", data: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := decodeEvent(tt.event, tt.data)
			if tt.wantErr {
				var decodeErr *DecodeError
				assert.ErrorAs(t, err, &decodeErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, msg.Type)
			assert.Equal(t, tt.wantFinal, msg.IsFinal())
			if tt.wantFinal {
				assert.Equal(t, tt.wantOK, msg.Succeeded())
				assert.Equal(t, tt.wantMsg, msg.Message)
			}
		})
	}
}
