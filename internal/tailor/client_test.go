package tailor

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func TestRequestValidate(t *testing.T) {
	assert.NoError(t, Request{JobURL: "https://example.com"}.Validate())
	assert.NoError(t, Request{JobDescription: "Go engineer"}.Validate())
	assert.Error(t, Request{JobURL: "  "}.Validate())
}

func TestNewClient(t *testing.T) {
	c := NewClient("http://localhost:8080/", "tok", "")
	assert.Equal(t, TransportSSE, c.Transport)
	assert.Equal(t, "http://localhost:8080", c.BaseURL)

	id := uuid.MustParse("2b1e8a52-8c43-4f7e-9a57-2f0f0e6c1a11")
	assert.Equal(t, "http://localhost:8080/resumes/2b1e8a52-8c43-4f7e-9a57-2f0f0e6c1a11/tailor/ws", c.endpoint(id, "ws"))
	assert.Equal(t, "Bearer tok", c.authHeader().Get("Authorization"))
	assert.Empty(t, NewClient("http://x", "", "").authHeader().Get("Authorization"))
}

func TestClientStart_Rejects(t *testing.T) {
	c := NewClient("http://localhost:1", "", "carrier-pigeon")
	_, err := c.Start(context.Background(), uuid.New(), testRequest)
	assert.ErrorContains(t, err, "unsupported transport")

	_, err = c.Start(context.Background(), uuid.New(), Request{})
	assert.ErrorContains(t, err, "required")
}
