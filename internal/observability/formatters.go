// Package observability provides formatted terminal output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/progress"
	"github.com/jonathan/resume-editor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// previewWidth bounds one-line previews of history snapshots
	previewWidth = 40
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSection outputs one rendered section. Hidden sections print nothing.
func (p *Printer) PrintSection(model *editor.DisplayModel) {
	if model == nil || model.Hidden {
		return
	}

	title := strings.ToUpper(model.Title)
	if model.Mode == editor.ModeEdit {
		title += " [editing]"
	}
	if model.VersionLabel != "" && model.VersionLabel != "Current" {
		title += " (" + model.VersionLabel + ")"
	}

	if model.Deferred {
		p.printBox(title, "loading...")
		return
	}

	var sb strings.Builder
	if len(model.Versions) > 0 {
		tabs := make([]string, 0, len(model.Versions))
		for _, tab := range model.Versions {
			if tab.Selected {
				tabs = append(tabs, "["+tab.Label+"]")
			} else {
				tabs = append(tabs, tab.Label)
			}
		}
		sb.WriteString(strings.Join(tabs, " "))
		sb.WriteString("\n\n")
	}

	switch model.Variant {
	case types.VariantText:
		sb.WriteString(model.Text)
		sb.WriteString("\n")
	case types.VariantList:
		for i, item := range model.Items {
			writeItem(&sb, i, item)
		}
	case types.VariantSimpleList:
		for i, s := range model.Strings {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i, s))
		}
	case types.VariantStructured:
		for _, f := range model.Fields {
			sb.WriteString(fmt.Sprintf("%-10s %s\n", f.Label+":", f.Value))
		}
	}

	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

func writeItem(sb *strings.Builder, index int, item editor.DisplayItem) {
	heading := item.Heading
	if heading == "" {
		heading = "(untitled)"
	}
	sb.WriteString(fmt.Sprintf("%d. %s\n", index, heading))
	if item.Subheading != "" {
		sb.WriteString(fmt.Sprintf("   %s\n", item.Subheading))
	}
	if item.Meta != "" {
		sb.WriteString(fmt.Sprintf("   %s\n", item.Meta))
	}
	if item.Description != "" {
		sb.WriteString(fmt.Sprintf("   %s\n", item.Description))
	}
	for _, f := range item.Fields {
		sb.WriteString(fmt.Sprintf("   %s: %s\n", f.Label, f.Value))
	}
	for _, b := range item.Bullets {
		sb.WriteString(fmt.Sprintf("   • %s\n", b))
	}
}

// PrintHistory outputs the stored versions of a section with a short preview of each
func (p *Printer) PrintHistory(key types.SectionKey, history types.VersionHistory) {
	var sb strings.Builder
	if !history.HasHistory() {
		sb.WriteString("No previous versions")
	}
	for _, v := range history.Keys() {
		sb.WriteString(fmt.Sprintf("v%-3d %s\n", v, truncate(preview(history[v]), previewWidth)))
	}
	if history.HasHistory() {
		sb.WriteString(fmt.Sprintf("Current is v%d", history.CurrentVersion()))
	}
	p.printBox("HISTORY: "+string(key), strings.TrimSuffix(sb.String(), "\n"))
}

// preview summarizes a snapshot in one line
func preview(s types.Section) string {
	if s.IsEmpty() {
		return "(empty)"
	}
	switch s.Variant {
	case types.VariantText:
		return strings.Join(strings.Fields(s.Text), " ")
	case types.VariantList:
		return fmt.Sprintf("%d items", len(s.Items))
	case types.VariantSimpleList:
		return strings.Join(s.Strings, ", ")
	case types.VariantStructured:
		return fmt.Sprintf("%d fields", len(s.Fields))
	}
	return ""
}

// PrintProgress outputs the visible progress log and the run's state
func (p *Printer) PrintProgress(consumer *progress.Consumer) {
	if consumer == nil {
		return
	}

	var sb strings.Builder
	for _, msg := range consumer.Displayed() {
		sb.WriteString(FormatMessage(msg))
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("State: %s (%d messages received)", consumer.State(), consumer.Len()))
	p.printBox("TAILORING PROGRESS", sb.String())
}

// PrintMessage writes one progress message as a log line
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintMessage(msg types.ProgressMessage) {
	fmt.Fprintln(p.out, FormatMessage(msg))
}

// FormatMessage renders a progress message as a single line
func FormatMessage(msg types.ProgressMessage) string {
	var prefix string
	switch {
	case msg.IsFinal() && msg.Succeeded():
		prefix = "✓"
	case msg.IsFinal():
		prefix = "✗"
	case msg.Type == types.MessageToolResult:
		prefix = "•"
	default:
		prefix = "·"
	}

	text := msg.Message
	if label := msg.Label(); label != "" && text != label {
		if text == "" {
			text = label
		} else {
			text = label + ": " + text
		}
	}
	if !msg.ReceivedAt.IsZero() {
		return fmt.Sprintf("%s %s %s", msg.ReceivedAt.Format(time.TimeOnly), prefix, text)
	}
	return fmt.Sprintf("%s %s", prefix, text)
}

// PrintProjects outputs the resumes owned by the session user
func (p *Printer) PrintProjects(resumes []types.ResumeSummary) {
	var sb strings.Builder
	if len(resumes) == 0 {
		sb.WriteString("No resumes yet")
	}
	for _, r := range resumes {
		sb.WriteString(fmt.Sprintf("%s  %s\n", r.ID.String()[:8], r.Title))
		sb.WriteString(fmt.Sprintf("          updated %s\n", r.UpdatedAt.Format("2006-01-02 15:04")))
	}
	p.printBox("RESUMES", strings.TrimSuffix(sb.String(), "\n"))
}
