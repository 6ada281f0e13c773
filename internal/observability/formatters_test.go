package observability

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/progress"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintSection_List(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSection(&editor.DisplayModel{
		Key:          types.SectionExperience,
		Title:        "Experience",
		Variant:      types.VariantList,
		Mode:         editor.ModeView,
		VersionLabel: "Version 1",
		Items: []editor.DisplayItem{{
			Heading:    "Staff Engineer",
			Subheading: "Acme Corp",
			Meta:       "2020 - 2024",
			Bullets:    []string{"Cut p99 latency by 40%"},
		}},
		Versions: []editor.VersionTab{
			{Label: "v0", Version: 0},
			{Label: "v1", Version: 1, Selected: true},
			{Label: "Current (v2)", Version: 2, Current: true},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "EXPERIENCE (Version 1)")
	assert.Contains(t, output, "v0 [v1] Current (v2)")
	assert.Contains(t, output, "0. Staff Engineer")
	assert.Contains(t, output, "Acme Corp")
	assert.Contains(t, output, "2020 - 2024")
	assert.Contains(t, output, "• Cut p99 latency by 40%")
}

func TestPrintSection_EditAndRecord(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSection(&editor.DisplayModel{
		Title:        "Personal Information",
		Variant:      types.VariantStructured,
		Mode:         editor.ModeEdit,
		VersionLabel: "Current",
		Fields:       []editor.DisplayField{{Name: "email", Label: "Email", Value: "a@b.c"}},
	})
	output := buf.String()

	assert.Contains(t, output, "PERSONAL INFORMATION [editing]")
	assert.Contains(t, output, "Email:")
	assert.Contains(t, output, "a@b.c")
}

func TestPrintSection_HiddenAndDeferred(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSection(nil)
	p.PrintSection(&editor.DisplayModel{Title: "Skills", Hidden: true})
	assert.Empty(t, buf.String())

	p.PrintSection(&editor.DisplayModel{Title: "Skills", Mode: editor.ModeEdit, Deferred: true})
	assert.Contains(t, buf.String(), "loading...")
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintHistory(types.SectionProfessionalSummary, types.VersionHistory{
		0: {Key: types.SectionProfessionalSummary, Variant: types.VariantText, Text: "Backend engineer"},
		1: {Key: types.SectionProfessionalSummary, Variant: types.VariantText},
	})
	output := buf.String()

	assert.Contains(t, output, "HISTORY: professional_summary")
	assert.Contains(t, output, "Backend engineer")
	assert.Contains(t, output, "(empty)")
	assert.Contains(t, output, "Current is v2")

	buf.Reset()
	p.PrintHistory(types.SectionSkills, nil)
	assert.Contains(t, buf.String(), "No previous versions")
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	consumer := progress.NewConsumer(progress.Options{})
	consumer.Start()
	consumer.Append(types.ProgressMessage{Type: types.MessageStatus, Step: "init", Message: "starting"})
	consumer.Append(types.ProgressMessage{Type: types.MessageToolResult, Tool: "rewrite", Message: "3 bullets"})
	consumer.Append(types.FinalMessage(true, "done"))

	p.PrintProgress(consumer)
	output := buf.String()

	assert.Contains(t, output, "TAILORING PROGRESS")
	assert.Contains(t, output, "rewrite: 3 bullets")
	assert.NotContains(t, output, "starting", "init status messages are filtered")
	assert.Contains(t, output, "✓ done")
	assert.Contains(t, output, "State: succeeded (3 messages received)")
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  types.ProgressMessage
		want string
	}{
		{name: "status", msg: types.ProgressMessage{Type: types.MessageStatus, Step: "rank", Message: "ranking"}, want: "· rank: ranking"},
		{name: "label only", msg: types.ProgressMessage{Type: types.MessageToolResult, Tool: "fetch"}, want: "• fetch"},
		{name: "success", msg: types.FinalMessage(true, "done"), want: "✓ done"},
		{name: "failure", msg: types.FinalMessage(false, "boom"), want: "✗ boom"},
		{
			name: "timestamped",
			msg:  types.ProgressMessage{Type: types.MessageStatus, Message: "x", ReceivedAt: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)},
			want: "15:04:05 · x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMessage(tt.msg))
		})
	}
}

func TestPrintProjects(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	id := uuid.MustParse("2b1e8a52-8c43-4f7e-9a57-2f0f0e6c1a11")
	p.PrintProjects([]types.ResumeSummary{{ID: id, Title: "Backend roles", UpdatedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)}})
	output := buf.String()

	assert.Contains(t, output, "RESUMES")
	assert.Contains(t, output, "2b1e8a52  Backend roles")
	assert.Contains(t, output, "2024-05-01 09:30")

	buf.Reset()
	p.PrintProjects(nil)
	assert.Contains(t, buf.String(), "No resumes yet")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héllo w...", truncate("héllo world!", 10))
}
