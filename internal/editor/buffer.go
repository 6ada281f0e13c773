package editor

import (
	"errors"

	"github.com/jonathan/resume-editor/internal/types"
)

// EditBuffer is the working copy of one section's value during an edit session.
// It is created from a deep copy of the canonical value and never aliases it.
type EditBuffer[T any] struct {
	key   types.SectionKey
	codec Codec[T]
	base  types.Section
	value T
}

func newEditBuffer[T any](codec Codec[T], canonical types.Section) *EditBuffer[T] {
	return &EditBuffer[T]{
		key:   canonical.Key,
		codec: codec,
		base:  canonical.Clone(),
		value: codec.Extract(canonical),
	}
}

// Value returns a copy of the buffered value
func (b *EditBuffer[T]) Value() T {
	return b.codec.Clone(b.value)
}

// SetField replaces the addressed part of the buffer
func (b *EditBuffer[T]) SetField(addr FieldAddr, value any) error {
	next, err := b.codec.SetField(b.value, addr, value)
	if err != nil {
		return b.withSection(err)
	}
	b.value = next
	return nil
}

// Update applies a whole-value transformation such as AddItem or RemoveBullet.
// fn receives a copy; the buffer is unchanged when fn fails.
func (b *EditBuffer[T]) Update(fn func(T) (T, error)) error {
	next, err := fn(b.codec.Clone(b.value))
	if err != nil {
		return b.withSection(err)
	}
	b.value = b.codec.Clone(next)
	return nil
}

// Reorder moves one entry; later field edits address the new positions
func (b *EditBuffer[T]) Reorder(from, to int) error {
	next, err := b.codec.Reorder(b.value, from, to)
	if err != nil {
		return b.withSection(err)
	}
	b.value = next
	return nil
}

// Section returns the buffered value as a full section
func (b *EditBuffer[T]) Section() types.Section {
	return b.codec.Inject(b.base, b.value)
}

func (b *EditBuffer[T]) withSection(err error) error {
	var fe *FieldError
	if errors.As(err, &fe) && fe.Section == "" {
		fe.Section = b.key
	}
	return err
}

// AddItem appends an item to a list value
func AddItem(items []types.Item, it types.Item) []types.Item {
	out := ListCodec{}.Clone(items)
	return append(out, it.Clone())
}

// RemoveItem deletes the item at i. Removing the last item leaves an empty list.
func RemoveItem(items []types.Item, i int) ([]types.Item, error) {
	if i < 0 || i >= len(items) {
		return items, &IndexError{Index: i, Length: len(items)}
	}
	out := make([]types.Item, 0, len(items)-1)
	for j, it := range items {
		if j != i {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

// AddBullet appends a bullet to the item at i
func AddBullet(items []types.Item, i int, text string) ([]types.Item, error) {
	if i < 0 || i >= len(items) {
		return items, &IndexError{Index: i, Length: len(items)}
	}
	out := ListCodec{}.Clone(items)
	out[i].Bullets = append(out[i].Bullets, text)
	return out, nil
}

// SetBullet replaces bullet b of the item at i
func SetBullet(items []types.Item, i, b int, text string) ([]types.Item, error) {
	if i < 0 || i >= len(items) {
		return items, &IndexError{Index: i, Length: len(items)}
	}
	if b < 0 || b >= len(items[i].Bullets) {
		return items, &IndexError{Index: b, Length: len(items[i].Bullets)}
	}
	out := ListCodec{}.Clone(items)
	out[i].Bullets[b] = text
	return out, nil
}

// RemoveBullet deletes bullet b of the item at i. Removing the last bullet
// leaves a single empty placeholder so the item keeps one input row.
func RemoveBullet(items []types.Item, i, b int) ([]types.Item, error) {
	if i < 0 || i >= len(items) {
		return items, &IndexError{Index: i, Length: len(items)}
	}
	out := ListCodec{}.Clone(items)
	bullets, err := removeString(out[i].Bullets, b)
	if err != nil {
		return items, err
	}
	out[i].Bullets = bullets
	return out, nil
}

// MoveBullet reorders the bullets of the item at i
func MoveBullet(items []types.Item, i, from, to int) ([]types.Item, error) {
	if i < 0 || i >= len(items) {
		return items, &IndexError{Index: i, Length: len(items)}
	}
	bullets, err := Move(items[i].Bullets, from, to)
	if err != nil {
		return items, err
	}
	out := ListCodec{}.Clone(items)
	out[i].Bullets = bullets
	return out, nil
}

// AddString appends an entry to a simple list
func AddString(ss []string, s string) []string {
	out := append([]string(nil), ss...)
	return append(out, s)
}

// RemoveString deletes entry i of a simple list. Removing the last entry
// leaves a single empty placeholder.
func RemoveString(ss []string, i int) ([]string, error) {
	return removeString(ss, i)
}

func removeString(ss []string, i int) ([]string, error) {
	if i < 0 || i >= len(ss) {
		return ss, &IndexError{Index: i, Length: len(ss)}
	}
	out := make([]string, 0, len(ss))
	out = append(out, ss[:i]...)
	out = append(out, ss[i+1:]...)
	if len(out) == 0 {
		out = []string{""}
	}
	return out, nil
}
