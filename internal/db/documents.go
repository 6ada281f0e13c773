package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-editor/internal/notify"
	"github.com/jonathan/resume-editor/internal/store"
	"github.com/jonathan/resume-editor/internal/types"
)

func resumeNotFound(resumeID uuid.UUID) error {
	return fmt.Errorf("resume %s: %w", resumeID, store.ErrNotFound)
}

func sectionNotFound(key types.SectionKey) error {
	return fmt.Errorf("section %s: %w", key, store.ErrNotFound)
}

func decodeSection(data []byte) (types.Section, error) {
	var s types.Section
	if err := json.Unmarshal(data, &s); err != nil {
		return types.Section{}, fmt.Errorf("failed to unmarshal section: %w", err)
	}
	return s, nil
}

func decodeOrder(data []byte) ([]types.SectionKey, error) {
	var order []types.SectionKey
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal section order: %w", err)
	}
	return order, nil
}

// lockResume takes the row lock that serializes writers of one resume and returns its section order
func lockResume(ctx context.Context, tx pgx.Tx, resumeID uuid.UUID) ([]types.SectionKey, error) {
	var orderJSON []byte
	err := tx.QueryRow(ctx,
		`SELECT section_order FROM resumes WHERE id = $1 FOR UPDATE`,
		resumeID,
	).Scan(&orderJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, resumeNotFound(resumeID)
		}
		return nil, fmt.Errorf("failed to lock resume: %w", err)
	}
	return decodeOrder(orderJSON)
}

func touchResume(ctx context.Context, tx pgx.Tx, resumeID uuid.UUID, order []types.SectionKey) error {
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal section order: %w", err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE resumes SET section_order = $2, updated_at = NOW() WHERE id = $1`,
		resumeID, orderJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to update resume: %w", err)
	}
	return nil
}

// currentSection reads a section inside a transaction; nil when absent
func currentSection(ctx context.Context, tx pgx.Tx, resumeID uuid.UUID, key types.SectionKey) (*types.Section, error) {
	var content []byte
	err := tx.QueryRow(ctx,
		`SELECT content FROM resume_sections WHERE resume_id = $1 AND section_key = $2`,
		resumeID, string(key),
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get section %s: %w", key, err)
	}
	s, err := decodeSection(content)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func upsertSection(ctx context.Context, tx pgx.Tx, resumeID uuid.UUID, value types.Section) error {
	content, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal section: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO resume_sections (resume_id, section_key, variant, content)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (resume_id, section_key) DO UPDATE SET variant = $3, content = $4, updated_at = NOW()`,
		resumeID, string(value.Key), string(value.Variant), content,
	)
	if err != nil {
		return fmt.Errorf("failed to save section %s: %w", value.Key, err)
	}
	return nil
}

func ensureOrdered(order []types.SectionKey, key types.SectionKey) []types.SectionKey {
	for _, k := range order {
		if k == key {
			return order
		}
	}
	return append(order, key)
}

// GetDocument returns the resume with every current section value
func (db *DB) GetDocument(ctx context.Context, resumeID uuid.UUID) (*types.ResumeDocument, error) {
	doc := &types.ResumeDocument{ID: resumeID, Sections: make(map[types.SectionKey]types.Section)}
	var orderJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT owner_id, title, section_order, created_at, updated_at FROM resumes WHERE id = $1`,
		resumeID,
	).Scan(&doc.OwnerID, &doc.Title, &orderJSON, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, resumeNotFound(resumeID)
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	if doc.SectionOrder, err = decodeOrder(orderJSON); err != nil {
		return nil, err
	}

	rows, err := db.pool.Query(ctx,
		`SELECT content FROM resume_sections WHERE resume_id = $1`,
		resumeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var content []byte
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		s, err := decodeSection(content)
		if err != nil {
			return nil, err
		}
		doc.Sections[s.Key] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sections: %w", err)
	}
	return doc, nil
}

// GetSection returns the section's current value
func (db *DB) GetSection(ctx context.Context, resumeID uuid.UUID, key types.SectionKey) (types.Section, error) {
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM resume_sections WHERE resume_id = $1 AND section_key = $2`,
		resumeID, string(key),
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if exists, existsErr := db.resumeExists(ctx, resumeID); existsErr == nil && !exists {
				return types.Section{}, resumeNotFound(resumeID)
			}
			return types.Section{}, sectionNotFound(key)
		}
		return types.Section{}, fmt.Errorf("failed to get section %s: %w", key, err)
	}
	return decodeSection(content)
}

func (db *DB) resumeExists(ctx context.Context, resumeID uuid.UUID) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM resumes WHERE id = $1)`,
		resumeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check resume: %w", err)
	}
	return exists, nil
}

// GetHistory returns every stored snapshot of the section
func (db *DB) GetHistory(ctx context.Context, resumeID uuid.UUID, key types.SectionKey) (types.VersionHistory, error) {
	exists, err := db.resumeExists(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, resumeNotFound(resumeID)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT version, content FROM section_versions
		 WHERE resume_id = $1 AND section_key = $2
		 ORDER BY version`,
		resumeID, string(key),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions of %s: %w", key, err)
	}
	defer rows.Close()

	history := types.VersionHistory{}
	for rows.Next() {
		var version int
		var content []byte
		if err := rows.Scan(&version, &content); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		s, err := decodeSection(content)
		if err != nil {
			return nil, err
		}
		history[version] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating versions: %w", err)
	}
	return history, nil
}

// GetCurrentVersionNumber returns max(version)+1, or 0 without history
func (db *DB) GetCurrentVersionNumber(ctx context.Context, resumeID uuid.UUID, key types.SectionKey) (int, error) {
	exists, err := db.resumeExists(ctx, resumeID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, resumeNotFound(resumeID)
	}
	var current int
	err = db.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version) + 1, 0) FROM section_versions WHERE resume_id = $1 AND section_key = $2`,
		resumeID, string(key),
	).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version of %s: %w", key, err)
	}
	return current, nil
}

// ReplaceCurrent overwrites the section's current value without advancing its version
func (db *DB) ReplaceCurrent(ctx context.Context, resumeID uuid.UUID, key types.SectionKey, value types.Section) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := lockResume(ctx, tx, resumeID)
	if err != nil {
		return err
	}
	existing, err := currentSection(ctx, tx, resumeID, key)
	if err != nil {
		return err
	}
	if err := store.CheckReplacement(key, value, existing); err != nil {
		return err
	}
	if err := upsertSection(ctx, tx, resumeID, value); err != nil {
		return err
	}
	if err := touchResume(ctx, tx, resumeID, ensureOrdered(order, key)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// advance snapshots the current value at the current version number and installs next,
// all inside the caller's transaction. It returns the new current version number.
func advance(ctx context.Context, tx pgx.Tx, resumeID uuid.UUID, key types.SectionKey, next types.Section, order []types.SectionKey) (int, error) {
	var current int
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version) + 1, 0) FROM section_versions WHERE resume_id = $1 AND section_key = $2`,
		resumeID, string(key),
	).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version of %s: %w", key, err)
	}

	old, err := currentSection(ctx, tx, resumeID, key)
	if err != nil {
		return 0, err
	}
	if old == nil {
		old = &types.Section{Key: key, Variant: next.Variant}
	}
	snapshot, err := json.Marshal(old)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO section_versions (resume_id, section_key, version, content) VALUES ($1, $2, $3, $4)`,
		resumeID, string(key), current, snapshot,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save version %d of %s: %w", current, key, err)
	}

	if err := upsertSection(ctx, tx, resumeID, next); err != nil {
		return 0, err
	}
	if err := touchResume(ctx, tx, resumeID, ensureOrdered(order, key)); err != nil {
		return 0, err
	}
	return current + 1, nil
}

// RestoreFromHistory makes a stored snapshot current, advancing the version
func (db *DB) RestoreFromHistory(ctx context.Context, resumeID uuid.UUID, key types.SectionKey, version int) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := lockResume(ctx, tx, resumeID)
	if err != nil {
		return err
	}
	var content []byte
	err = tx.QueryRow(ctx,
		`SELECT content FROM section_versions WHERE resume_id = $1 AND section_key = $2 AND version = $3`,
		resumeID, string(key), version,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &store.VersionNotFoundError{Section: key, Version: version}
		}
		return fmt.Errorf("failed to get version %d of %s: %w", version, key, err)
	}
	snapshot, err := decodeSection(content)
	if err != nil {
		return err
	}

	newVersion, err := advance(ctx, tx, resumeID, key, snapshot, order)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	db.publish(ctx, resumeID, key, newVersion, notify.ReasonRestore)
	return nil
}

// RecordTailoredVersion installs the result of a tailoring pass as the new current version
func (db *DB) RecordTailoredVersion(ctx context.Context, resumeID uuid.UUID, key types.SectionKey, value types.Section) (int, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := lockResume(ctx, tx, resumeID)
	if err != nil {
		return 0, err
	}
	existing, err := currentSection(ctx, tx, resumeID, key)
	if err != nil {
		return 0, err
	}
	if err := store.CheckReplacement(key, value, existing); err != nil {
		return 0, err
	}

	newVersion, err := advance(ctx, tx, resumeID, key, value, order)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	db.publish(ctx, resumeID, key, newVersion, notify.ReasonTailor)
	return newVersion, nil
}

func (db *DB) publish(ctx context.Context, resumeID uuid.UUID, key types.SectionKey, version int, reason string) {
	if db.bus == nil {
		return
	}
	event := notify.VersionEvent{
		ResumeID: resumeID,
		Section:  key,
		Version:  version,
		Reason:   reason,
		At:       time.Now(),
	}
	if err := db.bus.Publish(ctx, event); err != nil {
		log.Printf("[db] failed to publish version event for %s/%s: %v", resumeID, key, err)
	}
}

// SetSectionOrder replaces the display order; order must be a permutation of the current one
func (db *DB) SetSectionOrder(ctx context.Context, resumeID uuid.UUID, order []types.SectionKey) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := lockResume(ctx, tx, resumeID)
	if err != nil {
		return err
	}
	if err := store.CheckOrder(current, order); err != nil {
		return err
	}
	if err := touchResume(ctx, tx, resumeID, order); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AddCustomSection creates a section from a template and appends it to the order
func (db *DB) AddCustomSection(ctx context.Context, resumeID uuid.UUID, name string, tmpl types.CustomTemplate) (types.SectionKey, error) {
	if err := tmpl.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := lockResume(ctx, tx, resumeID)
	if err != nil {
		return "", err
	}
	key := types.NewCustomSectionKey()
	if err := upsertSection(ctx, tx, resumeID, tmpl.Section(key, name)); err != nil {
		return "", err
	}
	if err := touchResume(ctx, tx, resumeID, append(order, key)); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return key, nil
}

// RemoveCustomSection deletes a custom section with its history
func (db *DB) RemoveCustomSection(ctx context.Context, resumeID uuid.UUID, key types.SectionKey) error {
	if !key.IsCustom() {
		return fmt.Errorf("%w: %s is not a custom section", store.ErrInvalidInput, key)
	}
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := lockResume(ctx, tx, resumeID)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx,
		`DELETE FROM resume_sections WHERE resume_id = $1 AND section_key = $2`,
		resumeID, string(key),
	)
	if err != nil {
		return fmt.Errorf("failed to delete section %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return sectionNotFound(key)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM section_versions WHERE resume_id = $1 AND section_key = $2`,
		resumeID, string(key),
	); err != nil {
		return fmt.Errorf("failed to delete history of %s: %w", key, err)
	}

	kept := make([]types.SectionKey, 0, len(order))
	for _, k := range order {
		if k != key {
			kept = append(kept, k)
		}
	}
	if err := touchResume(ctx, tx, resumeID, kept); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateResume creates an empty resume with the default section order
func (db *DB) CreateResume(ctx context.Context, ownerID uuid.UUID, title string) (*types.ResumeDocument, error) {
	doc := &types.ResumeDocument{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Title:        title,
		Sections:     make(map[types.SectionKey]types.Section),
		SectionOrder: append([]types.SectionKey(nil), types.DefaultSectionOrder...),
	}
	orderJSON, err := json.Marshal(doc.SectionOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal section order: %w", err)
	}
	err = db.pool.QueryRow(ctx,
		`INSERT INTO resumes (id, owner_id, title, section_order)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		doc.ID, ownerID, title, orderJSON,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create resume: %w", err)
	}
	return doc, nil
}

// ListResumes returns the owner's resumes, most recently updated first
func (db *DB) ListResumes(ctx context.Context, ownerID uuid.UUID) ([]types.ResumeSummary, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, owner_id, title, updated_at FROM resumes
		 WHERE owner_id = $1
		 ORDER BY updated_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var resumes []types.ResumeSummary
	for rows.Next() {
		var r types.ResumeSummary
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Title, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resumes: %w", err)
	}
	return resumes, nil
}

// DeleteResume removes a resume; sections and history go with it
func (db *DB) DeleteResume(ctx context.Context, resumeID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM resumes WHERE id = $1`, resumeID)
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return resumeNotFound(resumeID)
	}
	return nil
}
