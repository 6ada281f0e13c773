// Package editor implements the versioned section-editing model: edit buffers,
// version navigation, reordering, rendering, and the workspace that ties the
// sections of one resume to its document store and tailoring runs.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/notify"
	"github.com/jonathan/resume-editor/internal/progress"
	"github.com/jonathan/resume-editor/internal/schemas"
	"github.com/jonathan/resume-editor/internal/session"
	"github.com/jonathan/resume-editor/internal/store"
	"github.com/jonathan/resume-editor/internal/types"
	"golang.org/x/sync/errgroup"
)

// updateTimeout bounds the store write for one db_update message
const updateTimeout = 30 * time.Second

// viewConcurrency bounds concurrent section renders in Views
const viewConcurrency = 4

// SessionSource is the part of the session provider a workspace depends on
type SessionSource interface {
	Current() (session.Session, bool)
	OnTeardown(fn func()) (remove func())
}

// Deps are the collaborators a workspace is constructed with
type Deps struct {
	Store store.DocumentStore
	// Bus delivers version advances made elsewhere; optional
	Bus notify.Bus
	// Session scopes Projects and tears the workspace down on logout; optional
	Session SessionSource
}

// Options configures a workspace
type Options struct {
	// Strict panics on refused actions instead of returning InvalidStateError
	Strict   bool
	Progress progress.Options
}

// Workspace holds the section editors of one resume and its tailoring progress log
type Workspace struct {
	resumeID uuid.UUID
	deps     Deps
	opts     Options
	coord    *coordinator
	consumer *progress.Consumer

	mu       sync.Mutex
	sections map[types.SectionKey]Controller
	runCtx   context.Context

	unsubscribe    func()
	removeTeardown func()
	done           chan struct{}
	closeOnce      sync.Once
}

// NewWorkspace opens a workspace on an existing resume
func NewWorkspace(ctx context.Context, resumeID uuid.UUID, deps Deps, opts Options) (*Workspace, error) {
	if deps.Store == nil {
		return nil, errors.New("workspace requires a document store")
	}
	if _, err := deps.Store.GetDocument(ctx, resumeID); err != nil {
		return nil, fmt.Errorf("failed to open resume %s: %w", resumeID, err)
	}

	w := &Workspace{
		resumeID: resumeID,
		deps:     deps,
		opts:     opts,
		coord:    &coordinator{},
		sections: make(map[types.SectionKey]Controller),
		done:     make(chan struct{}),
	}

	progressOpts := opts.Progress
	userHook := progressOpts.OnMessage
	progressOpts.OnMessage = func(msg types.ProgressMessage, displayed bool) {
		w.applyUpdate(msg)
		if userHook != nil {
			userHook(msg, displayed)
		}
	}
	w.consumer = progress.NewConsumer(progressOpts)

	if deps.Bus != nil {
		events, cancel, err := deps.Bus.Subscribe(ctx, resumeID)
		if err != nil {
			return nil, fmt.Errorf("failed to subscribe to version events: %w", err)
		}
		w.unsubscribe = cancel
		go w.watch(events)
	} else {
		close(w.done)
	}

	if deps.Session != nil {
		w.removeTeardown = deps.Session.OnTeardown(w.teardown)
	}
	return w, nil
}

// ResumeID returns the resume this workspace edits
func (w *Workspace) ResumeID() uuid.UUID {
	return w.resumeID
}

func (w *Workspace) watch(events <-chan notify.VersionEvent) {
	defer close(w.done)
	for ev := range events {
		w.observe(ev.Section, ev.Version)
	}
}

func (w *Workspace) observe(key types.SectionKey, version int) {
	w.mu.Lock()
	c, ok := w.sections[key]
	w.mu.Unlock()
	if ok {
		c.Observe(version)
	}
}

// variantOf returns the value shape of a section; custom sections are looked up
func (w *Workspace) variantOf(ctx context.Context, key types.SectionKey) (types.Variant, error) {
	if v := types.DefaultVariant(key); v != "" {
		return v, nil
	}
	s, err := w.deps.Store.GetSection(ctx, w.resumeID, key)
	if err != nil {
		return "", fmt.Errorf("failed to load section %s: %w", key, err)
	}
	return s.Variant, nil
}

func editorFor[T any](ctx context.Context, w *Workspace, key types.SectionKey, codec Codec[T]) (*SectionEditor[T], error) {
	variant, err := w.variantOf(ctx, key)
	if err != nil {
		return nil, err
	}
	if variant != codec.Variant() {
		return nil, &VariantError{Section: key, Want: codec.Variant(), Got: variant}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.sections[key]; ok {
		e, ok := c.(*SectionEditor[T])
		if !ok {
			return nil, &VariantError{Section: key, Want: codec.Variant(), Got: c.Variant()}
		}
		return e, nil
	}
	e := newSectionEditor(w.resumeID, key, codec, w.deps.Store, w.coord, w.opts.Strict)
	w.sections[key] = e
	return e, nil
}

// Text returns the editor of a text section
func (w *Workspace) Text(ctx context.Context, key types.SectionKey) (*SectionEditor[string], error) {
	return editorFor[string](ctx, w, key, TextCodec{})
}

// List returns the editor of a list section
func (w *Workspace) List(ctx context.Context, key types.SectionKey) (*SectionEditor[[]types.Item], error) {
	return editorFor[[]types.Item](ctx, w, key, ListCodec{})
}

// SimpleList returns the editor of a simple list section
func (w *Workspace) SimpleList(ctx context.Context, key types.SectionKey) (*SectionEditor[[]string], error) {
	return editorFor[[]string](ctx, w, key, SimpleListCodec{})
}

// Record returns the editor of a structured section
func (w *Workspace) Record(ctx context.Context, key types.SectionKey) (*SectionEditor[map[string]string], error) {
	return editorFor[map[string]string](ctx, w, key, RecordCodec{})
}

// Section returns the editor of any section, dispatching on its variant
func (w *Workspace) Section(ctx context.Context, key types.SectionKey) (Controller, error) {
	variant, err := w.variantOf(ctx, key)
	if err != nil {
		return nil, err
	}
	switch variant {
	case types.VariantText:
		return w.Text(ctx, key)
	case types.VariantList:
		return w.List(ctx, key)
	case types.VariantSimpleList:
		return w.SimpleList(ctx, key)
	case types.VariantStructured:
		return w.Record(ctx, key)
	default:
		return nil, fmt.Errorf("section %s has unknown variant %q", key, variant)
	}
}

// Views renders every section in display order. Sections whose edit buffer
// is not ready yet come back as Deferred models.
func (w *Workspace) Views(ctx context.Context) ([]*DisplayModel, error) {
	doc, err := w.deps.Store.GetDocument(ctx, w.resumeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resume %s: %w", w.resumeID, err)
	}

	models := make([]*DisplayModel, len(doc.SectionOrder))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(viewConcurrency)
	for i, key := range doc.SectionOrder {
		g.Go(func() error {
			c, err := w.Section(gctx, key)
			if err != nil {
				return err
			}
			model, err := c.View(gctx)
			var notReady *BufferNotReadyError
			if errors.As(err, &notReady) {
				models[i] = &DisplayModel{Key: key, Variant: c.Variant(), Mode: ModeEdit, Deferred: true}
				return nil
			}
			if err != nil {
				return err
			}
			models[i] = model
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return models, nil
}

// MoveSection changes the position of one section in the display order
func (w *Workspace) MoveSection(ctx context.Context, from, to int) ([]types.SectionKey, error) {
	if err := w.coord.checkStructural("*", "move"); err != nil {
		return nil, err
	}
	doc, err := w.deps.Store.GetDocument(ctx, w.resumeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resume %s: %w", w.resumeID, err)
	}
	order, err := Move(doc.SectionOrder, from, to)
	if err != nil {
		return nil, err
	}
	if err := w.deps.Store.SetSectionOrder(ctx, w.resumeID, order); err != nil {
		return nil, fmt.Errorf("failed to save section order: %w", err)
	}
	return order, nil
}

// AddCustomSection creates a user-defined section from a template
func (w *Workspace) AddCustomSection(ctx context.Context, name string, tmpl types.CustomTemplate) (types.SectionKey, error) {
	if err := w.coord.checkStructural("*", "add section to"); err != nil {
		return "", err
	}
	if err := schemas.ValidateTemplate(tmpl); err != nil {
		return "", fmt.Errorf("invalid %s template: %w", tmpl.Type, err)
	}
	key, err := w.deps.Store.AddCustomSection(ctx, w.resumeID, name, tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to add section %q: %w", name, err)
	}
	return key, nil
}

// RemoveCustomSection deletes a user-defined section and its history
func (w *Workspace) RemoveCustomSection(ctx context.Context, key types.SectionKey) error {
	if !key.IsCustom() {
		return fmt.Errorf("%w: %s is not a custom section", store.ErrInvalidInput, key)
	}
	w.mu.Lock()
	c, ok := w.sections[key]
	w.mu.Unlock()
	if ok {
		c.Discard()
	}
	if err := w.coord.checkStructural(key, "remove"); err != nil {
		return err
	}
	if err := w.deps.Store.RemoveCustomSection(ctx, w.resumeID, key); err != nil {
		return fmt.Errorf("failed to remove section %s: %w", key, err)
	}
	w.mu.Lock()
	delete(w.sections, key)
	w.mu.Unlock()
	return nil
}

// RunTailoring consumes the progress stream of one tailoring run. Edits and
// view-mode reorders are refused while it runs; db_update messages are
// recorded as new section versions as they arrive.
func (w *Workspace) RunTailoring(ctx context.Context, stream progress.Stream) (progress.State, error) {
	if err := w.coord.beginRun(); err != nil {
		stream.Close() //nolint:errcheck
		return w.consumer.State(), err
	}
	defer w.coord.endRun()

	w.mu.Lock()
	w.runCtx = ctx
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.runCtx = nil
		w.mu.Unlock()
	}()

	return w.consumer.Consume(ctx, stream)
}

// Progress exposes the progress log of the current or last tailoring run
func (w *Workspace) Progress() *progress.Consumer {
	return w.consumer
}

// Editing returns the section currently in edit mode, or ""
func (w *Workspace) Editing() types.SectionKey {
	return w.coord.editingSection()
}

// applyUpdate records a db_update message carrying {"section": key, "content": value}
func (w *Workspace) applyUpdate(msg types.ProgressMessage) {
	if msg.Type != types.MessageDBUpdate {
		return
	}
	key, _ := msg.Data["section"].(string)
	content, ok := msg.Data["content"]
	if key == "" || !ok {
		return
	}

	w.mu.Lock()
	ctx := w.runCtx
	w.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	sectionKey := types.SectionKey(key)
	section, err := w.sectionFromUpdate(ctx, sectionKey, content)
	if err != nil {
		log.Printf("[editor] ignoring update for %s: %v", key, err)
		return
	}
	version, err := w.deps.Store.RecordTailoredVersion(ctx, w.resumeID, sectionKey, section)
	if err != nil {
		log.Printf("[editor] failed to record tailored %s: %v", key, err)
		return
	}
	w.observe(sectionKey, version)
}

// sectionFromUpdate decodes the JSON content of an update into a section value
func (w *Workspace) sectionFromUpdate(ctx context.Context, key types.SectionKey, content any) (types.Section, error) {
	base := types.Section{Key: key, Variant: types.DefaultVariant(key)}
	if key.IsCustom() {
		existing, err := w.deps.Store.GetSection(ctx, w.resumeID, key)
		if err != nil {
			return types.Section{}, err
		}
		base = existing
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return types.Section{}, fmt.Errorf("failed to encode content: %w", err)
	}
	out := base.Clone()
	switch base.Variant {
	case types.VariantText:
		err = json.Unmarshal(raw, &out.Text)
	case types.VariantList:
		out.Items = nil
		err = json.Unmarshal(raw, &out.Items)
	case types.VariantSimpleList:
		out.Strings = nil
		err = json.Unmarshal(raw, &out.Strings)
	case types.VariantStructured:
		out.Fields = nil
		err = json.Unmarshal(raw, &out.Fields)
	default:
		return types.Section{}, fmt.Errorf("unknown variant %q", base.Variant)
	}
	if err != nil {
		return types.Section{}, fmt.Errorf("content does not match a %s section: %w", base.Variant, err)
	}
	if err := schemas.ValidateSection(out); err != nil {
		return types.Section{}, err
	}
	return out, nil
}

// Projects lists the resumes owned by the signed-in user
func (w *Workspace) Projects(ctx context.Context) ([]types.ResumeSummary, error) {
	return ListProjects(ctx, w.deps.Store, w.deps.Session)
}

// ListProjects lists the resumes owned by the session's user
func ListProjects(ctx context.Context, st store.DocumentStore, sess SessionSource) ([]types.ResumeSummary, error) {
	if sess == nil {
		return nil, errors.New("no session provider configured")
	}
	current, ok := sess.Current()
	if !ok {
		return nil, session.ErrNoSession
	}
	return st.ListResumes(ctx, current.UserID)
}

// teardown discards open edits and stops rendering progress
func (w *Workspace) teardown() {
	w.mu.Lock()
	sections := make([]Controller, 0, len(w.sections))
	for _, c := range w.sections {
		sections = append(sections, c)
	}
	w.mu.Unlock()
	for _, c := range sections {
		c.Discard()
	}
	w.consumer.Detach()
}

// Close tears the workspace down and stops watching for version events.
// A tailoring run in progress is not cancelled; its log is detached.
func (w *Workspace) Close() error {
	w.closeOnce.Do(func() {
		w.teardown()
		if w.removeTeardown != nil {
			w.removeTeardown()
		}
		if w.unsubscribe != nil {
			w.unsubscribe()
		}
		<-w.done
	})
	return nil
}
