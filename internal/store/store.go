// Package store defines the document store contract consumed by the section
// editors, and an in-memory implementation of it.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/types"
)

var (
	// ErrNotFound indicates a requested resume, section or version does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a malformed mutation (wrong key, bad order, bad template).
	ErrInvalidInput = errors.New("invalid input")
)

// VersionNotFoundError indicates a history lookup for a version that was never stored
type VersionNotFoundError struct {
	Section types.SectionKey
	Version int
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %d of section %s not found", e.Version, e.Section)
}

// Is lets errors.Is(err, ErrNotFound) match
func (e *VersionNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DocumentStore holds canonical resume documents and per-section version history.
// It is the single writer: every mutation is atomic, and version-advancing
// mutations publish a notify.VersionEvent.
type DocumentStore interface {
	GetDocument(ctx context.Context, resumeID uuid.UUID) (*types.ResumeDocument, error)
	GetSection(ctx context.Context, resumeID uuid.UUID, key types.SectionKey) (types.Section, error)
	GetHistory(ctx context.Context, resumeID uuid.UUID, key types.SectionKey) (types.VersionHistory, error)
	GetCurrentVersionNumber(ctx context.Context, resumeID uuid.UUID, key types.SectionKey) (int, error)

	// ReplaceCurrent overwrites the current value without advancing the version
	ReplaceCurrent(ctx context.Context, resumeID uuid.UUID, key types.SectionKey, value types.Section) error
	// RestoreFromHistory snapshots the current value and makes history[version] current
	RestoreFromHistory(ctx context.Context, resumeID uuid.UUID, key types.SectionKey, version int) error
	// RecordTailoredVersion snapshots the current value and installs the tailoring result
	RecordTailoredVersion(ctx context.Context, resumeID uuid.UUID, key types.SectionKey, value types.Section) (int, error)

	SetSectionOrder(ctx context.Context, resumeID uuid.UUID, order []types.SectionKey) error
	AddCustomSection(ctx context.Context, resumeID uuid.UUID, name string, tmpl types.CustomTemplate) (types.SectionKey, error)
	RemoveCustomSection(ctx context.Context, resumeID uuid.UUID, key types.SectionKey) error

	CreateResume(ctx context.Context, ownerID uuid.UUID, title string) (*types.ResumeDocument, error)
	ListResumes(ctx context.Context, ownerID uuid.UUID) ([]types.ResumeSummary, error)
	DeleteResume(ctx context.Context, resumeID uuid.UUID) error
}

// CheckReplacement validates a value handed to ReplaceCurrent or RecordTailoredVersion
// against the section it replaces. existing is nil when the section is absent.
func CheckReplacement(key types.SectionKey, value types.Section, existing *types.Section) error {
	if value.Key != key {
		return fmt.Errorf("%w: section key %q does not match %q", ErrInvalidInput, value.Key, key)
	}
	if existing != nil {
		if existing.Variant != value.Variant {
			return fmt.Errorf("%w: section %s is %s, got %s", ErrInvalidInput, key, existing.Variant, value.Variant)
		}
		return nil
	}
	if key.IsCustom() {
		return fmt.Errorf("%w: custom section %s", ErrNotFound, key)
	}
	if want := types.DefaultVariant(key); want != value.Variant {
		return fmt.Errorf("%w: section %s must be %s, got %s", ErrInvalidInput, key, want, value.Variant)
	}
	return nil
}

// CheckOrder validates that order is a permutation of current
func CheckOrder(current, order []types.SectionKey) error {
	if len(current) != len(order) {
		return fmt.Errorf("%w: section order has %d keys, expected %d", ErrInvalidInput, len(order), len(current))
	}
	want := make(map[types.SectionKey]int, len(current))
	for _, k := range current {
		want[k]++
	}
	for _, k := range order {
		if want[k] == 0 {
			return fmt.Errorf("%w: unexpected or duplicate section %q in order", ErrInvalidInput, k)
		}
		want[k]--
	}
	return nil
}

// emptySection is the placeholder snapshot for a section that had no value yet
func emptySection(key types.SectionKey, variant types.Variant) types.Section {
	return types.Section{Key: key, Variant: variant}
}
