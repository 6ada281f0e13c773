package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/types"
)

// Snapshot is the on-disk form of one resume and its history, used by the CLI's local mode
type Snapshot struct {
	Document *types.ResumeDocument                    `json:"document"`
	History  map[types.SectionKey]types.VersionHistory `json:"history,omitempty"`
}

// Import loads a snapshot into the store, replacing any resume with the same ID
func (m *Memory) Import(snap *Snapshot) error {
	if snap == nil || snap.Document == nil {
		return fmt.Errorf("%w: snapshot has no document", ErrInvalidInput)
	}
	doc := snap.Document.Clone()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Sections == nil {
		doc.Sections = make(map[types.SectionKey]types.Section)
	}
	for key, s := range doc.Sections {
		if s.Key == "" {
			s.Key = key
		}
		if s.Variant == "" {
			s.Variant = types.DefaultVariant(key)
		}
		doc.Sections[key] = s
	}
	if len(doc.SectionOrder) == 0 {
		doc.SectionOrder = append([]types.SectionKey(nil), types.DefaultSectionOrder...)
	}

	history := make(map[types.SectionKey]types.VersionHistory, len(snap.History))
	for key, h := range snap.History {
		history[key] = h.Clone()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = &entry{doc: doc, history: history}
	return nil
}

// Export returns a deep copy of one resume and its history
func (m *Memory) Export(resumeID uuid.UUID) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, err := m.lookup(resumeID)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Document: e.doc.Clone(),
		History:  make(map[types.SectionKey]types.VersionHistory, len(e.history)),
	}
	for key, h := range e.history {
		if len(h) > 0 {
			snap.History[key] = h.Clone()
		}
	}
	return snap, nil
}

// LoadFile reads a snapshot file into the store and returns the resume ID it holds
func (m *Memory) LoadFile(path string) (uuid.UUID, error) {
	snap, err := readSnapshot(path)
	if err != nil {
		return uuid.Nil, err
	}
	if snap.Document != nil && snap.Document.ID == uuid.Nil {
		snap.Document.ID = uuid.New()
	}
	if err := m.Import(snap); err != nil {
		return uuid.Nil, err
	}
	return snap.Document.ID, nil
}

func readSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file %s: %w", path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse document file %s: %w", path, err)
	}
	return &snap, nil
}

// SaveFile writes one resume to a snapshot file, replacing it atomically
func (m *Memory) SaveFile(path string, resumeID uuid.UUID) error {
	snap, err := m.Export(resumeID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".resume-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
