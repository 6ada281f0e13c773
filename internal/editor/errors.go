package editor

import (
	"fmt"

	"github.com/jonathan/resume-editor/internal/types"
)

// InvalidStateError indicates an action that the section's current state forbids,
// such as editing or reordering a historical version
type InvalidStateError struct {
	Section types.SectionKey
	Op      string
	Reason  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s section %s: %s", e.Op, e.Section, e.Reason)
}

// BufferNotReadyError indicates a render in edit mode before the edit buffer exists
type BufferNotReadyError struct {
	Section types.SectionKey
}

func (e *BufferNotReadyError) Error() string {
	return fmt.Sprintf("edit buffer for section %s is not ready", e.Section)
}

// FieldError indicates a buffer mutation addressed to a field that cannot take the value
type FieldError struct {
	Section types.SectionKey
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("section %s: %s", e.Section, e.Message)
	}
	return fmt.Sprintf("section %s field %s: %s", e.Section, e.Field, e.Message)
}

// IndexError indicates an out-of-range position in a sequence
type IndexError struct {
	Index  int
	Length int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range for length %d", e.Index, e.Length)
}

// VariantError indicates a section accessed through an editor of the wrong value type
type VariantError struct {
	Section types.SectionKey
	Want    types.Variant
	Got     types.Variant
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("section %s is %s, not %s", e.Section, e.Got, e.Want)
}
