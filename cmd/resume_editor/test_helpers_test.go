package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/config"
	"github.com/jonathan/resume-editor/internal/store"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/require"
)

// isolateEnv clears the variables FromEnv reads so a developer's .env cannot leak in
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvDatabaseURL,
		config.EnvRedisAddr,
		config.EnvBackendURL,
		config.EnvTransport,
		config.EnvToken,
		config.EnvStreamIdleTimeout,
	} {
		t.Setenv(key, "")
	}
}

// execute runs the CLI in-process and returns everything it printed
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func summarySection(text string) types.Section {
	return types.Section{Key: types.SectionProfessionalSummary, Variant: types.VariantText, Text: text}
}

// writeDocument creates a local document with a summary that has one
// previous version, a skills list and two experience entries
func writeDocument(t *testing.T) string {
	t.Helper()
	isolateEnv(t)
	ctx := context.Background()
	m := store.NewMemory(nil)

	doc, err := m.CreateResume(ctx, uuid.New(), "Backend roles")
	require.NoError(t, err)

	require.NoError(t, m.ReplaceCurrent(ctx, doc.ID, types.SectionProfessionalSummary, summarySection("Go engineer")))
	_, err = m.RecordTailoredVersion(ctx, doc.ID, types.SectionProfessionalSummary, summarySection("Tailored Go engineer"))
	require.NoError(t, err)

	require.NoError(t, m.ReplaceCurrent(ctx, doc.ID, types.SectionSkills, types.Section{
		Key:     types.SectionSkills,
		Variant: types.VariantSimpleList,
		Strings: []string{"Go", "SQL", "Kubernetes"},
	}))

	staff := types.NewItem("title", "Staff Engineer", "company", "Acme Corp")
	staff.Bullets = []string{"Led the storage team"}
	engineer := types.NewItem("title", "Engineer", "company", "Initech")
	engineer.Bullets = []string{"Built the billing service"}
	require.NoError(t, m.ReplaceCurrent(ctx, doc.ID, types.SectionExperience, types.Section{
		Key:     types.SectionExperience,
		Variant: types.VariantList,
		Items:   []types.Item{staff, engineer},
	}))

	path := filepath.Join(t.TempDir(), "resume.json")
	require.NoError(t, m.SaveFile(path, doc.ID))
	return path
}

// loadDocument reads a local document back for assertions
func loadDocument(t *testing.T, path string) (*store.Memory, uuid.UUID) {
	t.Helper()
	m := store.NewMemory(nil)
	id, err := m.LoadFile(path)
	require.NoError(t, err)
	return m, id
}

func section(t *testing.T, path string, key types.SectionKey) types.Section {
	t.Helper()
	m, id := loadDocument(t, path)
	s, err := m.GetSection(context.Background(), id, key)
	require.NoError(t, err)
	return s
}

func history(t *testing.T, path string, key types.SectionKey) types.VersionHistory {
	t.Helper()
	m, id := loadDocument(t, path)
	h, err := m.GetHistory(context.Background(), id, key)
	require.NoError(t, err)
	return h
}
