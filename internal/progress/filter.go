package progress

import (
	"strings"

	"github.com/jonathan/resume-editor/internal/types"
)

// Filter reports whether a message should be shown in the rendered log.
// Filtered messages are still recorded and still drive the state machine.
type Filter func(msg types.ProgressMessage) bool

// noiseSteps are status steps that only report validation or initialization
var noiseSteps = map[string]bool{
	"init":           true,
	"initialize":     true,
	"initializing":   true,
	"setup":          true,
	"validate":       true,
	"validation":     true,
	"validate_input": true,
}

// backgroundSteps continue after the main result is ready
var backgroundSteps = map[string]bool{
	"pdf_generation":  true,
	"generate_pdf":    true,
	"render_pdf":      true,
	"post_processing": true,
	"cover_letter":    true,
}

// DefaultFilter hides initialization/validation status noise and background
// post-processing. Final messages are always shown.
func DefaultFilter(msg types.ProgressMessage) bool {
	if msg.IsFinal() {
		return true
	}
	if bg, ok := msg.Data["background"].(bool); ok && bg {
		return false
	}
	label := strings.ToLower(msg.Label())
	if backgroundSteps[label] {
		return false
	}
	if msg.Type == types.MessageStatus && noiseSteps[label] {
		return false
	}
	return true
}

// ShowAll displays every message
func ShowAll(types.ProgressMessage) bool {
	return true
}
