// Package types provides type definitions for structured data used throughout the resume-editor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// TemplateItem is the starting shape of one entry in a custom list section
type TemplateItem struct {
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Description string   `json:"description"`
	Bullets     []string `json:"bullets" validate:"required,min=1"`
}

// CustomTemplate is the structure handed to the document store when a custom section is created
type CustomTemplate struct {
	Type    Variant `json:"type" validate:"required,oneof=text list simple_list"`
	Content string  `json:"content,omitempty"`

	// Serialized as "items" for both list and simple_list templates
	ListItems   []TemplateItem `json:"-" validate:"required_if=Type list,dive"`
	SimpleItems []string       `json:"-" validate:"required_if=Type simple_list"`
}

// NewCustomTemplate returns the blank template for a content type
func NewCustomTemplate(contentType Variant) (CustomTemplate, error) {
	switch contentType {
	case VariantText:
		return CustomTemplate{Type: VariantText, Content: ""}, nil
	case VariantList:
		return CustomTemplate{
			Type:      VariantList,
			ListItems: []TemplateItem{{Bullets: []string{""}}},
		}, nil
	case VariantSimpleList:
		return CustomTemplate{Type: VariantSimpleList, SimpleItems: []string{""}}, nil
	default:
		return CustomTemplate{}, fmt.Errorf("unsupported custom section type: %q", contentType)
	}
}

// Validate validates the CustomTemplate using the validator.
func (t *CustomTemplate) Validate() error {
	validate := validator.New()
	return validate.Struct(t)
}

// Section builds the initial section value for a custom section with the given key and title
func (t CustomTemplate) Section(key SectionKey, title string) Section {
	s := Section{
		Key:         key,
		Variant:     t.Type,
		ContentType: t.Type,
		Title:       title,
	}
	switch t.Type {
	case VariantText:
		s.Text = t.Content
	case VariantList:
		s.Items = make([]Item, 0, len(t.ListItems))
		for _, ti := range t.ListItems {
			it := NewItem("title", ti.Title, "subtitle", ti.Subtitle, "description", ti.Description)
			it.Bullets = append([]string(nil), ti.Bullets...)
			s.Items = append(s.Items, it)
		}
	case VariantSimpleList:
		s.Strings = append([]string(nil), t.SimpleItems...)
	}
	return s
}

// templateWire is the JSON contract: items is polymorphic on type
type templateWire struct {
	Type    Variant         `json:"type"`
	Content *string         `json:"content,omitempty"`
	Items   json.RawMessage `json:"items,omitempty"`
}

// MarshalJSON writes the template in its wire form
func (t CustomTemplate) MarshalJSON() ([]byte, error) {
	w := templateWire{Type: t.Type}
	var err error
	switch t.Type {
	case VariantText:
		content := t.Content
		w.Content = &content
	case VariantList:
		w.Items, err = json.Marshal(t.ListItems)
	case VariantSimpleList:
		w.Items, err = json.Marshal(t.SimpleItems)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the wire form, dispatching items on type
func (t *CustomTemplate) UnmarshalJSON(data []byte) error {
	var w templateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = CustomTemplate{Type: w.Type}
	if w.Content != nil {
		t.Content = *w.Content
	}
	if len(w.Items) == 0 {
		return nil
	}
	switch w.Type {
	case VariantList:
		return json.Unmarshal(w.Items, &t.ListItems)
	case VariantSimpleList:
		return json.Unmarshal(w.Items, &t.SimpleItems)
	default:
		return fmt.Errorf("items not allowed for template type %q", w.Type)
	}
}
