// Package notify delivers version-advance notifications from the document store
// to the section editors that display those sections.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/types"
)

// Reasons a section's current version advanced
const (
	ReasonRestore  = "restore"
	ReasonTailor   = "tailor"
	// ReasonExternal marks a version recorded by another process sharing the document file
	ReasonExternal = "external"
)

// VersionEvent announces that a section has a new current version
type VersionEvent struct {
	ResumeID uuid.UUID        `json:"resume_id"`
	Section  types.SectionKey `json:"section"`
	Version  int              `json:"version"`
	Reason   string           `json:"reason"`
	At       time.Time        `json:"at"`
}

// Bus fans version events out to subscribers of a resume
type Bus interface {
	Publish(ctx context.Context, event VersionEvent) error
	// Subscribe returns a channel of events for one resume and a cancel function
	// that must be called to release the subscription.
	Subscribe(ctx context.Context, resumeID uuid.UUID) (<-chan VersionEvent, func(), error)
	Close() error
}

// channelName is the pub/sub topic for a resume
func channelName(resumeID uuid.UUID) string {
	return fmt.Sprintf("resume:%s:versions", resumeID)
}
