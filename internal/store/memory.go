package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/notify"
	"github.com/jonathan/resume-editor/internal/types"
)

// Ensure Memory implements the interface.
var _ DocumentStore = (*Memory)(nil)

// entry is one resume and its section histories
type entry struct {
	doc     *types.ResumeDocument
	history map[types.SectionKey]types.VersionHistory
}

// Memory is an in-memory DocumentStore
type Memory struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*entry
	bus  notify.Bus
	now  func() time.Time
}

// NewMemory creates an empty in-memory store. bus may be nil.
func NewMemory(bus notify.Bus) *Memory {
	return &Memory{
		docs: make(map[uuid.UUID]*entry),
		bus:  bus,
		now:  time.Now,
	}
}

func (m *Memory) lookup(resumeID uuid.UUID) (*entry, error) {
	e, ok := m.docs[resumeID]
	if !ok {
		return nil, fmt.Errorf("resume %s: %w", resumeID, ErrNotFound)
	}
	return e, nil
}

// GetDocument returns a deep copy of the resume
func (m *Memory) GetDocument(_ context.Context, resumeID uuid.UUID) (*types.ResumeDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, err := m.lookup(resumeID)
	if err != nil {
		return nil, err
	}
	return e.doc.Clone(), nil
}

// GetSection returns a deep copy of the section's current value
func (m *Memory) GetSection(_ context.Context, resumeID uuid.UUID, key types.SectionKey) (types.Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, err := m.lookup(resumeID)
	if err != nil {
		return types.Section{}, err
	}
	s, ok := e.doc.Sections[key]
	if !ok {
		return types.Section{}, fmt.Errorf("section %s: %w", key, ErrNotFound)
	}
	return s.Clone(), nil
}

// GetHistory returns a deep copy of the section's snapshots; empty when none exist
func (m *Memory) GetHistory(_ context.Context, resumeID uuid.UUID, key types.SectionKey) (types.VersionHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, err := m.lookup(resumeID)
	if err != nil {
		return nil, err
	}
	h := e.history[key].Clone()
	if h == nil {
		h = types.VersionHistory{}
	}
	return h, nil
}

// GetCurrentVersionNumber returns max(history)+1, or 0 without history
func (m *Memory) GetCurrentVersionNumber(_ context.Context, resumeID uuid.UUID, key types.SectionKey) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, err := m.lookup(resumeID)
	if err != nil {
		return 0, err
	}
	return e.history[key].CurrentVersion(), nil
}

// ReplaceCurrent overwrites the section's current value
func (m *Memory) ReplaceCurrent(_ context.Context, resumeID uuid.UUID, key types.SectionKey, value types.Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(resumeID)
	if err != nil {
		return err
	}
	var existing *types.Section
	if s, ok := e.doc.Sections[key]; ok {
		existing = &s
	}
	if err := CheckReplacement(key, value, existing); err != nil {
		return err
	}
	e.doc.Sections[key] = value.Clone()
	e.ensureOrdered(key)
	e.doc.UpdatedAt = m.now()
	return nil
}

// RestoreFromHistory makes a historical snapshot current, advancing the version
func (m *Memory) RestoreFromHistory(ctx context.Context, resumeID uuid.UUID, key types.SectionKey, version int) error {
	m.mu.Lock()
	e, err := m.lookup(resumeID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	snapshot, ok := e.history[key][version]
	if !ok {
		m.mu.Unlock()
		return &VersionNotFoundError{Section: key, Version: version}
	}
	newVersion := e.advance(key, snapshot.Variant, snapshot, m.now())
	m.mu.Unlock()

	m.publish(ctx, resumeID, key, newVersion, notify.ReasonRestore)
	return nil
}

// RecordTailoredVersion installs the result of a tailoring pass as the new current version
func (m *Memory) RecordTailoredVersion(ctx context.Context, resumeID uuid.UUID, key types.SectionKey, value types.Section) (int, error) {
	m.mu.Lock()
	e, err := m.lookup(resumeID)
	if err != nil {
		m.mu.Unlock()
		return 0, err
	}
	var existing *types.Section
	if s, ok := e.doc.Sections[key]; ok {
		existing = &s
	}
	if err := CheckReplacement(key, value, existing); err != nil {
		m.mu.Unlock()
		return 0, err
	}
	newVersion := e.advance(key, value.Variant, value, m.now())
	m.mu.Unlock()

	m.publish(ctx, resumeID, key, newVersion, notify.ReasonTailor)
	return newVersion, nil
}

// advance pushes the current value into history and installs next. Caller holds the lock.
func (e *entry) advance(key types.SectionKey, variant types.Variant, next types.Section, now time.Time) int {
	if e.history[key] == nil {
		e.history[key] = types.VersionHistory{}
	}
	h := e.history[key]
	old, ok := e.doc.Sections[key]
	if !ok {
		old = emptySection(key, variant)
	}
	h[h.CurrentVersion()] = old.Clone()
	e.doc.Sections[key] = next.Clone()
	e.ensureOrdered(key)
	e.doc.UpdatedAt = now
	return h.CurrentVersion()
}

func (e *entry) ensureOrdered(key types.SectionKey) {
	for _, k := range e.doc.SectionOrder {
		if k == key {
			return
		}
	}
	e.doc.SectionOrder = append(e.doc.SectionOrder, key)
}

func (m *Memory) publish(ctx context.Context, resumeID uuid.UUID, key types.SectionKey, version int, reason string) {
	if m.bus == nil {
		return
	}
	event := notify.VersionEvent{
		ResumeID: resumeID,
		Section:  key,
		Version:  version,
		Reason:   reason,
		At:       m.now(),
	}
	if err := m.bus.Publish(ctx, event); err != nil {
		log.Printf("[store] failed to publish version event for %s/%s: %v", resumeID, key, err)
	}
}

// SetSectionOrder replaces the display order; order must be a permutation of the current one
func (m *Memory) SetSectionOrder(_ context.Context, resumeID uuid.UUID, order []types.SectionKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(resumeID)
	if err != nil {
		return err
	}
	if err := CheckOrder(e.doc.SectionOrder, order); err != nil {
		return err
	}
	e.doc.SectionOrder = append([]types.SectionKey(nil), order...)
	e.doc.UpdatedAt = m.now()
	return nil
}

// AddCustomSection creates a section from a template and appends it to the order
func (m *Memory) AddCustomSection(_ context.Context, resumeID uuid.UUID, name string, tmpl types.CustomTemplate) (types.SectionKey, error) {
	if err := tmpl.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(resumeID)
	if err != nil {
		return "", err
	}
	key := types.NewCustomSectionKey()
	e.doc.Sections[key] = tmpl.Section(key, name)
	e.doc.SectionOrder = append(e.doc.SectionOrder, key)
	e.doc.UpdatedAt = m.now()
	return key, nil
}

// RemoveCustomSection deletes a custom section with its history
func (m *Memory) RemoveCustomSection(_ context.Context, resumeID uuid.UUID, key types.SectionKey) error {
	if !key.IsCustom() {
		return fmt.Errorf("%w: %s is not a custom section", ErrInvalidInput, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(resumeID)
	if err != nil {
		return err
	}
	if _, ok := e.doc.Sections[key]; !ok {
		return fmt.Errorf("section %s: %w", key, ErrNotFound)
	}
	delete(e.doc.Sections, key)
	delete(e.history, key)
	order := e.doc.SectionOrder[:0]
	for _, k := range e.doc.SectionOrder {
		if k != key {
			order = append(order, k)
		}
	}
	e.doc.SectionOrder = order
	e.doc.UpdatedAt = m.now()
	return nil
}

// CreateResume creates an empty resume with the default section order
func (m *Memory) CreateResume(_ context.Context, ownerID uuid.UUID, title string) (*types.ResumeDocument, error) {
	now := m.now()
	doc := &types.ResumeDocument{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Title:        title,
		Sections:     make(map[types.SectionKey]types.Section),
		SectionOrder: append([]types.SectionKey(nil), types.DefaultSectionOrder...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = &entry{doc: doc, history: make(map[types.SectionKey]types.VersionHistory)}
	return doc.Clone(), nil
}

// ListResumes returns the owner's resumes, most recently updated first
func (m *Memory) ListResumes(_ context.Context, ownerID uuid.UUID) ([]types.ResumeSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.ResumeSummary
	for _, e := range m.docs {
		if e.doc.OwnerID != ownerID {
			continue
		}
		out = append(out, types.ResumeSummary{
			ID:        e.doc.ID,
			OwnerID:   e.doc.OwnerID,
			Title:     e.doc.Title,
			UpdatedAt: e.doc.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// DeleteResume removes a resume and all of its history
func (m *Memory) DeleteResume(_ context.Context, resumeID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.lookup(resumeID); err != nil {
		return err
	}
	delete(m.docs, resumeID)
	return nil
}
