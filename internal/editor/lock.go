package editor

import (
	"fmt"
	"sync"

	"github.com/jonathan/resume-editor/internal/types"
)

// coordinator holds the workspace-wide locks: at most one section in edit mode,
// and no edits or view-mode reorders while a tailoring run is in progress
type coordinator struct {
	mu      sync.Mutex
	editing types.SectionKey
	running bool
}

func (c *coordinator) acquireEdit(key types.SectionKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return &InvalidStateError{Section: key, Op: "edit", Reason: "a tailoring run is in progress"}
	}
	if c.editing != "" && c.editing != key {
		return &InvalidStateError{Section: key, Op: "edit", Reason: fmt.Sprintf("section %s is being edited", c.editing)}
	}
	c.editing = key
	return nil
}

func (c *coordinator) releaseEdit(key types.SectionKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == key {
		c.editing = ""
	}
}

// checkStructural guards changes made outside an edit session
func (c *coordinator) checkStructural(key types.SectionKey, op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return &InvalidStateError{Section: key, Op: op, Reason: "a tailoring run is in progress"}
	}
	if c.editing != "" {
		return &InvalidStateError{Section: key, Op: op, Reason: fmt.Sprintf("section %s is being edited", c.editing)}
	}
	return nil
}

func (c *coordinator) beginRun() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return &InvalidStateError{Op: "tailor", Section: "*", Reason: "a tailoring run is already in progress"}
	}
	if c.editing != "" {
		return &InvalidStateError{Op: "tailor", Section: c.editing, Reason: "section is being edited"}
	}
	c.running = true
	return nil
}

func (c *coordinator) endRun() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

func (c *coordinator) editingSection() types.SectionKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing
}

func (c *coordinator) isRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
