// Package types provides type definitions for structured data used throughout the resume-editor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// MessageType classifies a progress message from a tailoring run
type MessageType string

// Progress message types
const (
	MessageStatus     MessageType = "status"
	MessageToolResult MessageType = "tool_result"
	MessageFinal      MessageType = "final"
	MessageDBUpdate   MessageType = "db_update"
)

// ProgressMessage is one entry in the append-only log of a long-running operation
type ProgressMessage struct {
	Type       MessageType    `json:"type"`
	Step       string         `json:"step,omitempty"`
	Tool       string         `json:"tool,omitempty"`
	Message    string         `json:"message,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Success    *bool          `json:"success,omitempty"`
	ReceivedAt time.Time      `json:"received_at,omitempty"`
}

// IsFinal reports whether the message terminates its operation
func (m ProgressMessage) IsFinal() bool {
	return m.Type == MessageFinal
}

// Succeeded reports the success flag of a final message. A final without the
// flag counts as a failure.
func (m ProgressMessage) Succeeded() bool {
	return m.Success != nil && *m.Success
}

// Label returns the step or tool identifier, whichever is set
func (m ProgressMessage) Label() string {
	if m.Step != "" {
		return m.Step
	}
	return m.Tool
}

// FinalMessage builds a terminal message
func FinalMessage(success bool, message string) ProgressMessage {
	return ProgressMessage{
		Type:    MessageFinal,
		Message: message,
		Success: &success,
	}
}
