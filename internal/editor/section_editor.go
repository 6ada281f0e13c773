package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/schemas"
	"github.com/jonathan/resume-editor/internal/store"
	"github.com/jonathan/resume-editor/internal/types"
)

// Controller is the variant-independent surface of a SectionEditor
type Controller interface {
	Key() types.SectionKey
	Variant() types.Variant
	BeginEdit(ctx context.Context) error
	SetField(addr FieldAddr, value any) error
	Commit(ctx context.Context) (types.Section, error)
	Discard()
	SelectVersion(ctx context.Context, v int) error
	SelectCurrent()
	Restore(ctx context.Context, v int) error
	Reorder(ctx context.Context, from, to int) error
	Observe(version int)
	View(ctx context.Context) (*DisplayModel, error)
	State() EditorState
}

// Ensure every section editor satisfies Controller.
var (
	_ Controller = (*SectionEditor[string])(nil)
	_ Controller = (*SectionEditor[[]types.Item])(nil)
	_ Controller = (*SectionEditor[[]string])(nil)
	_ Controller = (*SectionEditor[map[string]string])(nil)
)

// EditorState is a point-in-time summary of one section editor
type EditorState struct {
	Key            types.SectionKey
	Editing        bool
	BufferReady    bool
	Viewing        *int
	CurrentVersion int
}

// SectionEditor owns the edit buffer and version cursor of one section.
// T is the section's value type, bound through a Codec.
type SectionEditor[T any] struct {
	mu       sync.Mutex
	resumeID uuid.UUID
	key      types.SectionKey
	codec    Codec[T]
	store    store.DocumentStore
	coord    *coordinator
	strict   bool

	nav     *Navigator
	editing bool
	buffer  *EditBuffer[T]
	// gen changes whenever an edit session ends, so a slow BeginEdit can tell it was abandoned
	gen uint64
}

func newSectionEditor[T any](resumeID uuid.UUID, key types.SectionKey, codec Codec[T], st store.DocumentStore, coord *coordinator, strict bool) *SectionEditor[T] {
	return &SectionEditor[T]{
		resumeID: resumeID,
		key:      key,
		codec:    codec,
		store:    st,
		coord:    coord,
		strict:   strict,
		nav:      NewNavigator(key),
	}
}

// Key returns the section key
func (e *SectionEditor[T]) Key() types.SectionKey { return e.key }

// Variant returns the value shape handled by this editor
func (e *SectionEditor[T]) Variant() types.Variant { return e.codec.Variant() }

// guard reports a refused action. Strict editors treat it as a programming error.
func (e *SectionEditor[T]) guard(err *InvalidStateError) error {
	log.Printf("[editor] refused: %v", err)
	if e.strict {
		panic(err)
	}
	return err
}

// reconcileLocked reads the section's history and snaps the navigator when
// the current version advanced. Caller holds e.mu.
func (e *SectionEditor[T]) reconcileLocked(ctx context.Context) (types.VersionHistory, error) {
	history, err := e.store.GetHistory(ctx, e.resumeID, e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", e.key, err)
	}
	if e.nav.Observe(history.CurrentVersion()) {
		log.Printf("[editor] %s advanced to version %d, showing current", e.key, history.CurrentVersion())
	}
	return history, nil
}

// canonical returns the current value, or an empty value for an absent built-in section
func (e *SectionEditor[T]) canonical(ctx context.Context) (types.Section, bool, error) {
	s, err := e.store.GetSection(ctx, e.resumeID, e.key)
	if err == nil {
		return s, true, nil
	}
	if errors.Is(err, store.ErrNotFound) && !e.key.IsCustom() {
		return types.Section{Key: e.key, Variant: e.codec.Variant()}, false, nil
	}
	return types.Section{}, false, fmt.Errorf("failed to load section %s: %w", e.key, err)
}

// BeginEdit opens an edit session on the current value. It fails while a
// historical version is displayed, while another section is being edited,
// and while a tailoring run is in progress.
func (e *SectionEditor[T]) BeginEdit(ctx context.Context) error {
	e.mu.Lock()
	if _, err := e.reconcileLocked(ctx); err != nil {
		e.mu.Unlock()
		return err
	}
	if v, viewing := e.nav.Viewing(); viewing {
		e.mu.Unlock()
		return e.guard(&InvalidStateError{Section: e.key, Op: "edit", Reason: fmt.Sprintf("viewing historical version %d", v)})
	}
	if e.editing {
		e.mu.Unlock()
		return nil
	}
	if err := e.coord.acquireEdit(e.key); err != nil {
		e.mu.Unlock()
		var stateErr *InvalidStateError
		if errors.As(err, &stateErr) {
			return e.guard(stateErr)
		}
		return err
	}
	e.editing = true
	gen := e.gen
	e.mu.Unlock()

	// The buffer is filled outside the lock; renders in this window are deferred
	section, _, err := e.canonical(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.editing || e.gen != gen {
		return &InvalidStateError{Section: e.key, Op: "edit", Reason: "edit session ended before the buffer was ready"}
	}
	if err != nil {
		e.endEditLocked()
		return err
	}
	e.buffer = newEditBuffer(e.codec, section)
	return nil
}

// endEditLocked drops the buffer and releases the workspace edit lock
func (e *SectionEditor[T]) endEditLocked() {
	e.editing = false
	e.buffer = nil
	e.gen++
	e.coord.releaseEdit(e.key)
}

func (e *SectionEditor[T]) bufferLocked(op string) (*EditBuffer[T], error) {
	if !e.editing {
		return nil, e.guard(&InvalidStateError{Section: e.key, Op: op, Reason: "section is not in edit mode"})
	}
	if e.buffer == nil {
		return nil, &BufferNotReadyError{Section: e.key}
	}
	return e.buffer, nil
}

// SetField replaces one addressed part of the edit buffer
func (e *SectionEditor[T]) SetField(addr FieldAddr, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	buf, err := e.bufferLocked("set field of")
	if err != nil {
		return err
	}
	return buf.SetField(addr, value)
}

// Update applies a bulk operation such as AddItem or RemoveBullet to the edit buffer
func (e *SectionEditor[T]) Update(fn func(T) (T, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	buf, err := e.bufferLocked("update")
	if err != nil {
		return err
	}
	return buf.Update(fn)
}

// Buffer returns a copy of the buffered value
func (e *SectionEditor[T]) Buffer() (T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	buf, err := e.bufferLocked("read buffer of")
	if err != nil {
		var zero T
		return zero, err
	}
	return buf.Value(), nil
}

// Value returns a copy of the canonical current value
func (e *SectionEditor[T]) Value(ctx context.Context) (T, error) {
	section, _, err := e.canonical(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return e.codec.Extract(section), nil
}

// Commit validates the buffer and makes it the canonical current value.
// A failed commit keeps the buffer so no edit is lost.
func (e *SectionEditor[T]) Commit(ctx context.Context) (types.Section, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	buf, err := e.bufferLocked("commit")
	if err != nil {
		return types.Section{}, err
	}
	section := buf.Section()
	if err := schemas.ValidateSection(section); err != nil {
		return types.Section{}, fmt.Errorf("section %s failed validation: %w", e.key, err)
	}
	if err := e.store.ReplaceCurrent(ctx, e.resumeID, e.key, section); err != nil {
		return types.Section{}, fmt.Errorf("failed to save section %s: %w", e.key, err)
	}
	e.endEditLocked()
	return section, nil
}

// Discard drops the edit buffer; the canonical value is untouched
func (e *SectionEditor[T]) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editing {
		e.endEditLocked()
	}
}

// SelectVersion displays historical version v, discarding any open edit session
func (e *SectionEditor[T]) SelectVersion(ctx context.Context, v int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	history, err := e.reconcileLocked(ctx)
	if err != nil {
		return err
	}
	if err := e.nav.Select(v, history); err != nil {
		var stateErr *InvalidStateError
		if errors.As(err, &stateErr) {
			return e.guard(stateErr)
		}
		return err
	}
	if e.editing && !e.nav.IsCurrent() {
		log.Printf("[editor] discarding unsaved edits to %s to show version %d", e.key, v)
		e.endEditLocked()
	}
	return nil
}

// SelectCurrent displays the current value
func (e *SectionEditor[T]) SelectCurrent() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nav.SelectCurrent()
}

// Restore copies historical version v into the current value. The version
// counter advances and the navigator returns to Current.
func (e *SectionEditor[T]) Restore(ctx context.Context, v int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	history, err := e.reconcileLocked(ctx)
	if err != nil {
		return err
	}
	if v == history.CurrentVersion() {
		return e.guard(&InvalidStateError{Section: e.key, Op: "restore", Reason: fmt.Sprintf("version %d is already current", v)})
	}
	if e.editing {
		return e.guard(&InvalidStateError{Section: e.key, Op: "restore", Reason: "section is in edit mode"})
	}
	if e.coord.isRunning() {
		return e.guard(&InvalidStateError{Section: e.key, Op: "restore", Reason: "a tailoring run is in progress"})
	}
	if err := e.store.RestoreFromHistory(ctx, e.resumeID, e.key, v); err != nil {
		return fmt.Errorf("failed to restore %s version %d: %w", e.key, v, err)
	}
	if _, err := e.reconcileLocked(ctx); err != nil {
		return err
	}
	e.nav.SelectCurrent()
	return nil
}

// Reorder moves one entry of a list section. In edit mode it changes the
// buffer; otherwise it commits the new order directly.
func (e *SectionEditor[T]) Reorder(ctx context.Context, from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.reconcileLocked(ctx); err != nil {
		return err
	}
	if v, viewing := e.nav.Viewing(); viewing {
		return e.guard(&InvalidStateError{Section: e.key, Op: "reorder", Reason: fmt.Sprintf("viewing historical version %d", v)})
	}
	if variant := e.codec.Variant(); variant != types.VariantList && variant != types.VariantSimpleList {
		return e.guard(&InvalidStateError{Section: e.key, Op: "reorder", Reason: fmt.Sprintf("%s sections have no entries", variant)})
	}

	if e.editing {
		buf, err := e.bufferLocked("reorder")
		if err != nil {
			return err
		}
		return buf.Reorder(from, to)
	}

	if err := e.coord.checkStructural(e.key, "reorder"); err != nil {
		var stateErr *InvalidStateError
		if errors.As(err, &stateErr) {
			return e.guard(stateErr)
		}
		return err
	}
	section, _, err := e.canonical(ctx)
	if err != nil {
		return err
	}
	moved, err := e.codec.Reorder(e.codec.Extract(section), from, to)
	if err != nil {
		return err
	}
	if err := e.store.ReplaceCurrent(ctx, e.resumeID, e.key, e.codec.Inject(section, moved)); err != nil {
		return fmt.Errorf("failed to save order of %s: %w", e.key, err)
	}
	return nil
}

// Observe applies a version-advance notification
func (e *SectionEditor[T]) Observe(version int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.nav.Observe(version) {
		log.Printf("[editor] %s advanced to version %d, showing current", e.key, version)
	}
}

// View renders the section as currently displayed
func (e *SectionEditor[T]) View(ctx context.Context) (*DisplayModel, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	history, err := e.reconcileLocked(ctx)
	if err != nil {
		return nil, err
	}
	section, present, err := e.canonical(ctx)
	if err != nil {
		return nil, err
	}

	in := RenderInput{Key: e.key, History: history, Editing: e.editing}
	if present {
		in.Canonical = &section
	}
	if v, viewing := e.nav.Viewing(); viewing {
		in.Viewing = &v
	}
	if e.buffer != nil {
		buffered := e.buffer.Section()
		in.Buffer = &buffered
	}
	return Render(in)
}

// State reports the editor's mode and version cursor as last observed. It does
// not consult the store: without a bus, a version recorded elsewhere shows up
// only after the next View, BeginEdit or Refresh.
func (e *SectionEditor[T]) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Refresh reconciles the version cursor against the store and reports the result
func (e *SectionEditor[T]) Refresh(ctx context.Context) (EditorState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.reconcileLocked(ctx); err != nil {
		return EditorState{}, err
	}
	return e.stateLocked(), nil
}

func (e *SectionEditor[T]) stateLocked() EditorState {
	st := EditorState{
		Key:            e.key,
		Editing:        e.editing,
		BufferReady:    e.buffer != nil,
		CurrentVersion: e.nav.CurrentVersion(),
	}
	if v, viewing := e.nav.Viewing(); viewing {
		st.Viewing = &v
	}
	return st
}
