// Package types provides type definitions for structured data used throughout the resume-editor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SectionKey identifies a section within a resume document
type SectionKey string

// Built-in section keys
const (
	SectionPersonalInfo        SectionKey = "personal_info"
	SectionProfessionalSummary SectionKey = "professional_summary"
	SectionExperience          SectionKey = "experience"
	SectionEducation           SectionKey = "education"
	SectionSkills              SectionKey = "skills"
	SectionProjects            SectionKey = "projects"
	SectionCertifications      SectionKey = "certifications"
)

// customPrefix marks user-created section keys
const customPrefix = "custom_"

// DefaultSectionOrder is the display order of a freshly created resume
var DefaultSectionOrder = []SectionKey{
	SectionPersonalInfo,
	SectionProfessionalSummary,
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionProjects,
	SectionCertifications,
}

// NewCustomSectionKey returns a unique key for a user-created section
func NewCustomSectionKey() SectionKey {
	return SectionKey(customPrefix + uuid.New().String())
}

// IsCustom reports whether the key names a user-created section
func (k SectionKey) IsCustom() bool {
	return strings.HasPrefix(string(k), customPrefix)
}

// Variant is the shape of a section's value
type Variant string

// Section variants
const (
	VariantText       Variant = "text"
	VariantList       Variant = "list"
	VariantSimpleList Variant = "simple_list"
	VariantStructured Variant = "structured"
)

// DefaultVariant returns the variant used by a built-in section.
// Custom sections carry their own content type and return "".
func DefaultVariant(key SectionKey) Variant {
	switch key {
	case SectionPersonalInfo:
		return VariantStructured
	case SectionProfessionalSummary:
		return VariantText
	case SectionExperience, SectionEducation, SectionProjects, SectionCertifications:
		return VariantList
	case SectionSkills:
		return VariantSimpleList
	default:
		return ""
	}
}

// Item is one entry of a list section (an experience entry, a degree, a project).
// Scalar fields are kept in insertion order so rendering and serialization are stable.
type Item struct {
	Fields  map[string]string
	Order   []string
	Bullets []string
}

// NewItem builds an item from alternating field name/value pairs
func NewItem(pairs ...string) Item {
	it := Item{}
	for i := 0; i+1 < len(pairs); i += 2 {
		it.Set(pairs[i], pairs[i+1])
	}
	return it
}

// Get returns a field value, or "" when unset
func (it Item) Get(field string) string {
	return it.Fields[field]
}

// Set assigns a scalar field, appending it to the field order if new
func (it *Item) Set(field, value string) {
	if it.Fields == nil {
		it.Fields = make(map[string]string)
	}
	if _, ok := it.Fields[field]; !ok {
		it.Order = append(it.Order, field)
	}
	it.Fields[field] = value
}

// FieldNames returns the scalar field names in display order
func (it Item) FieldNames() []string {
	names := make([]string, 0, len(it.Fields))
	seen := make(map[string]bool, len(it.Order))
	for _, name := range it.Order {
		if _, ok := it.Fields[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	// Fields set without going through Set (e.g. literal maps) are sorted after ordered ones
	var extra []string
	for name := range it.Fields {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Clone returns a deep copy of the item
func (it Item) Clone() Item {
	out := Item{}
	if it.Fields != nil {
		out.Fields = make(map[string]string, len(it.Fields))
		for k, v := range it.Fields {
			out.Fields[k] = v
		}
	}
	if it.Order != nil {
		out.Order = append([]string(nil), it.Order...)
	}
	if it.Bullets != nil {
		out.Bullets = append([]string(nil), it.Bullets...)
	}
	return out
}

// IsEmpty reports whether every field and bullet is blank
func (it Item) IsEmpty() bool {
	for _, v := range it.Fields {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	for _, b := range it.Bullets {
		if strings.TrimSpace(b) != "" {
			return false
		}
	}
	return true
}

// MarshalJSON writes the item as a flat object with bullets last
func (it Item) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, name := range it.FieldNames() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(name)
		v, _ := json.Marshal(it.Fields[name])
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	if it.Bullets != nil {
		if !first {
			buf.WriteByte(',')
		}
		b, err := json.Marshal(it.Bullets)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`"bullets":`)
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat object, preserving the field order of the input
func (it *Item) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("item must be a JSON object")
	}
	*it = Item{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		if key == "bullets" {
			var bullets []string
			if err := dec.Decode(&bullets); err != nil {
				return fmt.Errorf("invalid bullets: %w", err)
			}
			it.Bullets = bullets
			continue
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		switch v := raw.(type) {
		case nil:
			it.Set(key, "")
		case string:
			it.Set(key, v)
		case json.Number:
			it.Set(key, v.String())
		case bool:
			it.Set(key, strconv.FormatBool(v))
		default:
			return fmt.Errorf("field %q must be a scalar", key)
		}
	}
	_, err = dec.Token()
	return err
}

// Section is one named part of a resume. Exactly one of Text, Items, Strings
// or Fields is meaningful, selected by Variant.
type Section struct {
	Key         SectionKey        `json:"key"`
	Variant     Variant           `json:"variant"`
	Title       string            `json:"title,omitempty"`
	ContentType Variant           `json:"content_type,omitempty"`
	Text        string            `json:"text,omitempty"`
	Items       []Item            `json:"items,omitempty"`
	Strings     []string          `json:"strings,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// Clone returns a structural deep copy of the section
func (s Section) Clone() Section {
	out := s
	if s.Items != nil {
		out.Items = make([]Item, len(s.Items))
		for i, it := range s.Items {
			out.Items[i] = it.Clone()
		}
	}
	if s.Strings != nil {
		out.Strings = append([]string(nil), s.Strings...)
	}
	if s.Fields != nil {
		out.Fields = make(map[string]string, len(s.Fields))
		for k, v := range s.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

// IsEmpty reports whether the section has nothing to display
func (s Section) IsEmpty() bool {
	switch s.Variant {
	case VariantText:
		return strings.TrimSpace(s.Text) == ""
	case VariantList:
		for _, it := range s.Items {
			if !it.IsEmpty() {
				return false
			}
		}
		return true
	case VariantSimpleList:
		for _, v := range s.Strings {
			if strings.TrimSpace(v) != "" {
				return false
			}
		}
		return true
	case VariantStructured:
		for _, v := range s.Fields {
			if strings.TrimSpace(v) != "" {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// VersionHistory maps a version number to the immutable snapshot taken at that version
type VersionHistory map[int]Section

// Keys returns the stored version numbers in ascending order
func (h VersionHistory) Keys() []int {
	keys := make([]int, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// HasHistory reports whether any snapshot exists
func (h VersionHistory) HasHistory() bool {
	return len(h) > 0
}

// CurrentVersion returns the number of the live value: one past the highest snapshot.
// Without history it is 0.
func (h VersionHistory) CurrentVersion() int {
	if len(h) == 0 {
		return 0
	}
	highest := -1
	for k := range h {
		if k > highest {
			highest = k
		}
	}
	return highest + 1
}

// Clone returns a deep copy of every snapshot
func (h VersionHistory) Clone() VersionHistory {
	if h == nil {
		return nil
	}
	out := make(VersionHistory, len(h))
	for k, v := range h {
		out[k] = v.Clone()
	}
	return out
}

// ResumeDocument is the canonical, currently active resume content
type ResumeDocument struct {
	ID           uuid.UUID              `json:"id"`
	OwnerID      uuid.UUID              `json:"owner_id"`
	Title        string                 `json:"title"`
	Sections     map[SectionKey]Section `json:"sections"`
	SectionOrder []SectionKey           `json:"section_order"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Clone returns a deep copy of the document
func (d *ResumeDocument) Clone() *ResumeDocument {
	out := *d
	out.Sections = make(map[SectionKey]Section, len(d.Sections))
	for k, s := range d.Sections {
		out.Sections[k] = s.Clone()
	}
	out.SectionOrder = append([]SectionKey(nil), d.SectionOrder...)
	return &out
}

// ResumeSummary is the dashboard view of a resume project
type ResumeSummary struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}
