package editor

import (
	"fmt"

	"github.com/jonathan/resume-editor/internal/types"
)

// Navigator tracks which version of a section is displayed: the current value
// or one historical snapshot. It is not safe for concurrent use; SectionEditor
// guards it with its own lock.
type Navigator struct {
	key     types.SectionKey
	viewing *int
	current int
}

// NewNavigator starts at Current
func NewNavigator(key types.SectionKey) *Navigator {
	return &Navigator{key: key}
}

// IsCurrent reports whether the live value is displayed
func (n *Navigator) IsCurrent() bool {
	return n.viewing == nil
}

// Viewing returns the displayed historical version; ok is false at Current
func (n *Navigator) Viewing() (version int, ok bool) {
	if n.viewing == nil {
		return n.current, false
	}
	return *n.viewing, true
}

// CurrentVersion returns the last observed current version number
func (n *Navigator) CurrentVersion() int {
	return n.current
}

// Select moves to historical version v. Selecting the current version number
// is the same as SelectCurrent.
func (n *Navigator) Select(v int, history types.VersionHistory) error {
	if v == history.CurrentVersion() && history.HasHistory() {
		n.viewing = nil
		return nil
	}
	if _, ok := history[v]; !ok {
		return &InvalidStateError{
			Section: n.key,
			Op:      "view",
			Reason:  fmt.Sprintf("version %d does not exist", v),
		}
	}
	n.viewing = &v
	return nil
}

// SelectCurrent returns to the live value
func (n *Navigator) SelectCurrent() {
	n.viewing = nil
}

// Observe records the store's current version number. When it advanced, the
// navigator snaps back to Current and Observe reports true.
func (n *Navigator) Observe(current int) bool {
	if current <= n.current {
		return false
	}
	n.current = current
	if n.viewing == nil {
		return false
	}
	n.viewing = nil
	return true
}
