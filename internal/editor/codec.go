package editor

import (
	"fmt"

	"github.com/jonathan/resume-editor/internal/types"
)

// FieldAddr addresses a mutation inside an edit buffer.
//
//	Item == nil, Field == ""   replace the whole value
//	Item != nil, Field != ""   replace one field of one item ("bullets" takes []string)
//	Item != nil, Field == ""   replace one whole item or list entry
//	Item == nil, Field != ""   replace one field of a non-list section
type FieldAddr struct {
	Item  *int
	Field string
}

// Whole addresses the entire buffer value
func Whole() FieldAddr { return FieldAddr{} }

// ItemField addresses one field of the item at index i
func ItemField(i int, field string) FieldAddr { return FieldAddr{Item: &i, Field: field} }

// ItemAt addresses the whole entry at index i
func ItemAt(i int) FieldAddr { return FieldAddr{Item: &i} }

// Field addresses a field of a text or structured section
func Field(name string) FieldAddr { return FieldAddr{Field: name} }

func (a FieldAddr) String() string {
	switch {
	case a.Item == nil && a.Field == "":
		return "(whole)"
	case a.Item == nil:
		return a.Field
	case a.Field == "":
		return fmt.Sprintf("[%d]", *a.Item)
	default:
		return fmt.Sprintf("[%d].%s", *a.Item, a.Field)
	}
}

// Codec binds one section variant to its Go value type T.
// Implementations never mutate their arguments.
type Codec[T any] interface {
	Variant() types.Variant
	// Extract reads the variant's value out of a section
	Extract(s types.Section) T
	// Inject returns base with its value replaced by v
	Inject(base types.Section, v T) types.Section
	Clone(v T) T
	// SetField returns v with the addressed part replaced
	SetField(v T, addr FieldAddr, value any) (T, error)
	// Reorder moves one entry; variants without entries return a FieldError
	Reorder(v T, from, to int) (T, error)
}

func wrongType(addr FieldAddr, want string, got any) *FieldError {
	return &FieldError{Field: addr.String(), Message: fmt.Sprintf("expected %s, got %T", want, got)}
}

func badAddr(addr FieldAddr, variant types.Variant) *FieldError {
	return &FieldError{Field: addr.String(), Message: fmt.Sprintf("not addressable in a %s section", variant)}
}

// TextCodec handles text sections; the single field is "content"
type TextCodec struct{}

func (TextCodec) Variant() types.Variant { return types.VariantText }

func (TextCodec) Extract(s types.Section) string { return s.Text }

func (TextCodec) Inject(base types.Section, v string) types.Section {
	out := base.Clone()
	out.Text = v
	return out
}

func (TextCodec) Clone(v string) string { return v }

func (TextCodec) SetField(v string, addr FieldAddr, value any) (string, error) {
	if addr.Item != nil || (addr.Field != "" && addr.Field != "content") {
		return v, badAddr(addr, types.VariantText)
	}
	s, ok := value.(string)
	if !ok {
		return v, wrongType(addr, "string", value)
	}
	return s, nil
}

func (TextCodec) Reorder(v string, _, _ int) (string, error) {
	return v, &FieldError{Message: "text sections cannot be reordered"}
}

// ListCodec handles list sections of items with bullets
type ListCodec struct{}

func (ListCodec) Variant() types.Variant { return types.VariantList }

func (c ListCodec) Extract(s types.Section) []types.Item { return c.Clone(s.Items) }

func (c ListCodec) Inject(base types.Section, v []types.Item) types.Section {
	out := base.Clone()
	out.Items = c.Clone(v)
	return out
}

func (ListCodec) Clone(v []types.Item) []types.Item {
	if v == nil {
		return nil
	}
	out := make([]types.Item, len(v))
	for i, it := range v {
		out[i] = it.Clone()
	}
	return out
}

func (c ListCodec) SetField(v []types.Item, addr FieldAddr, value any) ([]types.Item, error) {
	if addr.Item == nil {
		if addr.Field != "" {
			return v, badAddr(addr, types.VariantList)
		}
		items, ok := value.([]types.Item)
		if !ok {
			return v, wrongType(addr, "[]types.Item", value)
		}
		return c.Clone(items), nil
	}

	i := *addr.Item
	if i < 0 || i >= len(v) {
		return v, &FieldError{Field: addr.String(), Message: (&IndexError{Index: i, Length: len(v)}).Error()}
	}
	out := c.Clone(v)
	switch addr.Field {
	case "":
		it, ok := value.(types.Item)
		if !ok {
			return v, wrongType(addr, "types.Item", value)
		}
		out[i] = it.Clone()
	case "bullets":
		bullets, ok := value.([]string)
		if !ok {
			return v, wrongType(addr, "[]string", value)
		}
		out[i].Bullets = append([]string(nil), bullets...)
	default:
		s, ok := value.(string)
		if !ok {
			return v, wrongType(addr, "string", value)
		}
		out[i].Set(addr.Field, s)
	}
	return out, nil
}

func (ListCodec) Reorder(v []types.Item, from, to int) ([]types.Item, error) {
	moved, err := Move(v, from, to)
	if err != nil {
		return v, err
	}
	for i := range moved {
		moved[i] = moved[i].Clone()
	}
	return moved, nil
}

// SimpleListCodec handles flat string lists such as skills
type SimpleListCodec struct{}

func (SimpleListCodec) Variant() types.Variant { return types.VariantSimpleList }

func (c SimpleListCodec) Extract(s types.Section) []string { return c.Clone(s.Strings) }

func (c SimpleListCodec) Inject(base types.Section, v []string) types.Section {
	out := base.Clone()
	out.Strings = c.Clone(v)
	return out
}

func (SimpleListCodec) Clone(v []string) []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v...)
}

func (c SimpleListCodec) SetField(v []string, addr FieldAddr, value any) ([]string, error) {
	if addr.Item == nil {
		if addr.Field != "" {
			return v, badAddr(addr, types.VariantSimpleList)
		}
		ss, ok := value.([]string)
		if !ok {
			return v, wrongType(addr, "[]string", value)
		}
		return c.Clone(ss), nil
	}
	if addr.Field != "" && addr.Field != "value" {
		return v, badAddr(addr, types.VariantSimpleList)
	}
	i := *addr.Item
	if i < 0 || i >= len(v) {
		return v, &FieldError{Field: addr.String(), Message: (&IndexError{Index: i, Length: len(v)}).Error()}
	}
	s, ok := value.(string)
	if !ok {
		return v, wrongType(addr, "string", value)
	}
	out := c.Clone(v)
	out[i] = s
	return out, nil
}

func (SimpleListCodec) Reorder(v []string, from, to int) ([]string, error) {
	moved, err := Move(v, from, to)
	if err != nil {
		return v, err
	}
	return moved, nil
}

// RecordCodec handles structured sections such as personal info
type RecordCodec struct{}

func (RecordCodec) Variant() types.Variant { return types.VariantStructured }

func (c RecordCodec) Extract(s types.Section) map[string]string { return c.Clone(s.Fields) }

func (c RecordCodec) Inject(base types.Section, v map[string]string) types.Section {
	out := base.Clone()
	out.Fields = c.Clone(v)
	return out
}

func (RecordCodec) Clone(v map[string]string) map[string]string {
	if v == nil {
		return nil
	}
	out := make(map[string]string, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

func (c RecordCodec) SetField(v map[string]string, addr FieldAddr, value any) (map[string]string, error) {
	if addr.Item != nil {
		return v, badAddr(addr, types.VariantStructured)
	}
	if addr.Field == "" {
		fields, ok := value.(map[string]string)
		if !ok {
			return v, wrongType(addr, "map[string]string", value)
		}
		return c.Clone(fields), nil
	}
	s, ok := value.(string)
	if !ok {
		return v, wrongType(addr, "string", value)
	}
	out := c.Clone(v)
	if out == nil {
		out = make(map[string]string)
	}
	out[addr.Field] = s
	return out, nil
}

func (RecordCodec) Reorder(v map[string]string, _, _ int) (map[string]string, error) {
	return v, &FieldError{Message: "structured sections cannot be reordered"}
}
