package editor

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/resume-editor/internal/types"
)

// Mode selects read-only or input rendering
type Mode string

// Render modes
const (
	ModeView Mode = "view"
	ModeEdit Mode = "edit"
)

// RenderInput is everything the renderer may look at
type RenderInput struct {
	Key types.SectionKey
	// Canonical is the current value; nil when the section is absent
	Canonical *types.Section
	History   types.VersionHistory
	// Viewing is the historical version on display; nil means Current
	Viewing *int
	// Buffer is the edit buffer as a section; nil until it is ready
	Buffer  *types.Section
	Editing bool
}

// VersionTab is one entry of the version selector
type VersionTab struct {
	Label    string `json:"label" yaml:"label"`
	Version  int    `json:"version" yaml:"version"`
	Current  bool   `json:"current" yaml:"current"`
	Selected bool   `json:"selected" yaml:"selected"`
}

// DisplayField is a labelled scalar
type DisplayField struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// DisplayItem is one rendered entry of a list section
type DisplayItem struct {
	Heading     string         `json:"heading,omitempty" yaml:"heading,omitempty"`
	Subheading  string         `json:"subheading,omitempty" yaml:"subheading,omitempty"`
	Meta        string         `json:"meta,omitempty" yaml:"meta,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []DisplayField `json:"fields,omitempty" yaml:"fields,omitempty"`
	Bullets     []string       `json:"bullets,omitempty" yaml:"bullets,omitempty"`
}

// DisplayModel is the presentation-independent result of rendering one section
type DisplayModel struct {
	Key          types.SectionKey `json:"key" yaml:"key"`
	Title        string           `json:"title" yaml:"title"`
	Variant      types.Variant    `json:"variant" yaml:"variant"`
	Mode         Mode             `json:"mode" yaml:"mode"`
	VersionLabel string           `json:"version_label" yaml:"version_label"`
	Draggable    bool             `json:"draggable" yaml:"draggable"`
	Hidden       bool             `json:"hidden" yaml:"hidden"`
	// Deferred marks an edit-mode section whose buffer is not ready yet
	Deferred bool           `json:"deferred,omitempty" yaml:"deferred,omitempty"`
	Text     string         `json:"text,omitempty" yaml:"text,omitempty"`
	Items    []DisplayItem  `json:"items,omitempty" yaml:"items,omitempty"`
	Strings  []string       `json:"strings,omitempty" yaml:"strings,omitempty"`
	Fields   []DisplayField `json:"fields,omitempty" yaml:"fields,omitempty"`
	Versions []VersionTab   `json:"versions,omitempty" yaml:"versions,omitempty"`
}

// itemLayout picks which item fields fill the fixed display slots
type itemLayout struct {
	heading     []string // first non-empty wins
	subheading  []string // non-empty values joined with ", "
	meta        []string // non-empty values joined with " - "
	description []string // first non-empty wins
}

var layouts = map[types.SectionKey]itemLayout{
	types.SectionExperience: {
		heading:     []string{"title", "role", "position"},
		subheading:  []string{"company", "location"},
		meta:        []string{"start_date", "end_date"},
		description: []string{"description", "summary"},
	},
	types.SectionEducation: {
		heading:     []string{"degree", "field_of_study"},
		subheading:  []string{"school", "institution", "location"},
		meta:        []string{"start_date", "end_date", "graduation_date", "gpa"},
		description: []string{"description"},
	},
	types.SectionProjects: {
		heading:     []string{"name", "title"},
		subheading:  []string{"role", "technologies"},
		meta:        []string{"start_date", "end_date", "url"},
		description: []string{"description"},
	},
	types.SectionCertifications: {
		heading:     []string{"name", "title"},
		subheading:  []string{"issuer", "organization"},
		meta:        []string{"date", "issue_date", "expiration_date", "credential_id"},
		description: []string{"description", "url"},
	},
}

var customListLayout = itemLayout{
	heading:     []string{"title"},
	subheading:  []string{"subtitle"},
	description: []string{"description"},
}

// personalInfoOrder fixes the display order of known contact fields
var personalInfoOrder = []string{"name", "email", "phone", "location", "linkedin", "github", "website"}

var sectionTitles = map[types.SectionKey]string{
	types.SectionPersonalInfo:        "Personal Information",
	types.SectionProfessionalSummary: "Professional Summary",
	types.SectionExperience:          "Experience",
	types.SectionEducation:           "Education",
	types.SectionSkills:              "Skills",
	types.SectionProjects:            "Projects",
	types.SectionCertifications:      "Certifications",
}

// Render maps a section's state to a display model. It never reads through to
// canonical data while editing: without a buffer it returns BufferNotReadyError.
func Render(in RenderInput) (*DisplayModel, error) {
	model := &DisplayModel{
		Key:          in.Key,
		Title:        titleOf(in),
		Variant:      variantOf(in),
		Mode:         ModeView,
		VersionLabel: "Current",
		Versions:     versionTabs(in.History, in.Viewing),
	}

	var display *types.Section
	switch {
	case in.Viewing != nil:
		snapshot, ok := in.History[*in.Viewing]
		if !ok {
			return nil, &InvalidStateError{
				Section: in.Key,
				Op:      "render",
				Reason:  fmt.Sprintf("version %d does not exist", *in.Viewing),
			}
		}
		display = &snapshot
		model.VersionLabel = fmt.Sprintf("Version %d", *in.Viewing)
	case in.Editing:
		if in.Buffer == nil {
			return nil, &BufferNotReadyError{Section: in.Key}
		}
		display = in.Buffer
		model.Mode = ModeEdit
	default:
		display = in.Canonical
	}

	if display == nil || (model.Mode == ModeView && display.IsEmpty()) {
		model.Hidden = true
		return model, nil
	}

	variant := display.Variant
	if variant == "" {
		variant = model.Variant
	}
	model.Variant = variant
	model.Draggable = in.Viewing == nil && (variant == types.VariantList || variant == types.VariantSimpleList)

	switch variant {
	case types.VariantText:
		model.Text = display.Text
	case types.VariantList:
		model.Items = renderItems(in.Key, display.Items, model.Mode)
	case types.VariantSimpleList:
		model.Strings = renderStrings(display.Strings, model.Mode)
	case types.VariantStructured:
		model.Fields = renderRecord(display.Fields, model.Mode)
	default:
		return nil, &FieldError{Section: in.Key, Message: fmt.Sprintf("unknown content type %q", variant)}
	}
	return model, nil
}

// variantOf resolves the content type; custom sections carry their own
func variantOf(in RenderInput) types.Variant {
	if in.Canonical != nil {
		if in.Canonical.ContentType != "" {
			return in.Canonical.ContentType
		}
		if in.Canonical.Variant != "" {
			return in.Canonical.Variant
		}
	}
	return types.DefaultVariant(in.Key)
}

func titleOf(in RenderInput) string {
	if in.Canonical != nil && in.Canonical.Title != "" {
		return in.Canonical.Title
	}
	if t, ok := sectionTitles[in.Key]; ok {
		return t
	}
	return humanize(string(in.Key))
}

func versionTabs(history types.VersionHistory, viewing *int) []VersionTab {
	if !history.HasHistory() {
		return nil
	}
	tabs := make([]VersionTab, 0, len(history)+1)
	for _, v := range history.Keys() {
		tabs = append(tabs, VersionTab{
			Label:    fmt.Sprintf("v%d", v),
			Version:  v,
			Selected: viewing != nil && *viewing == v,
		})
	}
	current := history.CurrentVersion()
	return append(tabs, VersionTab{
		Label:    fmt.Sprintf("Current (v%d)", current),
		Version:  current,
		Current:  true,
		Selected: viewing == nil,
	})
}

func renderItems(key types.SectionKey, items []types.Item, mode Mode) []DisplayItem {
	layout, ok := layouts[key]
	if !ok {
		layout = customListLayout
	}
	out := make([]DisplayItem, 0, len(items))
	for _, it := range items {
		if mode == ModeView && it.IsEmpty() {
			continue
		}
		out = append(out, renderItem(layout, it, mode))
	}
	return out
}

func renderItem(layout itemLayout, it types.Item, mode Mode) DisplayItem {
	used := make(map[string]bool)
	first := func(names []string) string {
		for _, n := range names {
			if v := strings.TrimSpace(it.Get(n)); v != "" {
				used[n] = true
				return v
			}
		}
		return ""
	}
	join := func(names []string, sep string) string {
		var parts []string
		for _, n := range names {
			if v := strings.TrimSpace(it.Get(n)); v != "" {
				used[n] = true
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, sep)
	}

	d := DisplayItem{
		Heading:     first(layout.heading),
		Subheading:  join(layout.subheading, ", "),
		Meta:        join(layout.meta, " - "),
		Description: first(layout.description),
	}

	// Edit mode exposes every field as an input; view mode only the leftovers
	for _, name := range it.FieldNames() {
		if mode == ModeView && (used[name] || strings.TrimSpace(it.Get(name)) == "") {
			continue
		}
		d.Fields = append(d.Fields, DisplayField{Name: name, Label: humanize(name), Value: it.Get(name)})
	}
	d.Bullets = renderStrings(it.Bullets, mode)
	return d
}

func renderStrings(ss []string, mode Mode) []string {
	if mode == ModeEdit {
		return append([]string(nil), ss...)
	}
	var out []string
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func renderRecord(fields map[string]string, mode Mode) []DisplayField {
	seen := make(map[string]bool, len(fields))
	var names []string
	for _, n := range personalInfoOrder {
		if _, ok := fields[n]; ok {
			names = append(names, n)
			seen[n] = true
		}
	}
	var rest []string
	for n := range fields {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	out := make([]DisplayField, 0, len(names))
	for _, n := range names {
		if mode == ModeView && strings.TrimSpace(fields[n]) == "" {
			continue
		}
		out = append(out, DisplayField{Name: n, Label: humanize(n), Value: fields[n]})
	}
	return out
}

// humanize turns "start_date" into "Start Date"
func humanize(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
