// Package tailor connects to the tailoring backend and exposes each run's
// progress messages as a progress.Stream, over SSE or WebSocket.
package tailor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonathan/resume-editor/internal/progress"
	"github.com/jonathan/resume-editor/internal/types"
)

// Transport selects how progress messages are delivered
type Transport string

// Supported transports
const (
	TransportSSE       Transport = "sse"
	TransportWebSocket Transport = "websocket"
)

// Request describes one tailoring run
type Request struct {
	JobURL         string             `json:"job_url,omitempty"`
	JobDescription string             `json:"job_description,omitempty"`
	Company        string             `json:"company,omitempty"`
	Sections       []types.SectionKey `json:"sections,omitempty"`
}

// Validate checks that the run has something to tailor against
func (r Request) Validate() error {
	if strings.TrimSpace(r.JobURL) == "" && strings.TrimSpace(r.JobDescription) == "" {
		return fmt.Errorf("job_url or job_description is required")
	}
	return nil
}

// Client starts tailoring runs against the backend
type Client struct {
	BaseURL   string
	Token     string
	Transport Transport

	httpClient *http.Client
	dialer     *websocket.Dialer
}

// NewClient creates a client for baseURL. An empty transport means SSE.
func NewClient(baseURL, token string, transport Transport) *Client {
	if transport == "" {
		transport = TransportSSE
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Token:     token,
		Transport: transport,
		// No overall timeout: streams stay open for the whole run
		httpClient: &http.Client{},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
	}
}

// Start begins a run for resumeID and returns its progress stream. The stream
// stays valid until Close or until ctx is done.
func (c *Client) Start(ctx context.Context, resumeID uuid.UUID, req Request) (progress.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	switch c.Transport {
	case TransportSSE:
		return c.startSSE(ctx, resumeID, req)
	case TransportWebSocket:
		return c.startWebSocket(ctx, resumeID, req)
	default:
		return nil, fmt.Errorf("unsupported transport: %q", c.Transport)
	}
}

func (c *Client) endpoint(resumeID uuid.UUID, suffix string) string {
	return fmt.Sprintf("%s/resumes/%s/tailor/%s", c.BaseURL, resumeID, suffix)
}

func (c *Client) authHeader() http.Header {
	h := http.Header{}
	if c.Token != "" {
		h.Set("Authorization", "Bearer "+c.Token)
	}
	return h
}
