package pdfformfiller

import (
	"maps"
	"slices"
)

// TextField is a pending piece of text and the rectangle it must fit in.
// A nil Style or Padding inherits the Filler default.
type TextField struct {
	Text    string
	Rect    Rect
	Style   *Style
	Padding *Padding
}

// clone returns a copy of f that shares no memory with it.
func (f TextField) clone() TextField {
	if f.Style != nil {
		s := *f.Style
		if s.Color != nil {
			c := *s.Color
			s.Color = &c
		}
		f.Style = &s
	}
	if f.Padding != nil {
		p := *f.Padding
		f.Padding = &p
	}
	return f
}

// FieldOption overrides a Filler default for a single field.
type FieldOption func(*TextField)

// WithFieldStyle draws the field with s. Zero-valued fields of s are taken
// from the Filler's default style.
func WithFieldStyle(s Style) FieldOption {
	return func(f *TextField) {
		f.Style = &s
	}
}

// WithFieldPadding replaces the default padding for the field.
func WithFieldPadding(p Padding) FieldOption {
	return func(f *TextField) {
		f.Padding = &p
	}
}

// registry holds the pending fields of a document in insertion order per
// page. Reading a page without fields never creates an entry.
type registry struct {
	fields map[int][]TextField
}

func newRegistry() registry {
	return registry{fields: make(map[int][]TextField)}
}

func (r *registry) add(page int, f TextField) {
	r.fields[page] = append(r.fields[page], f.clone())
}

// remove deletes the index-th field of page and reports whether it existed.
func (r *registry) remove(page, index int) bool {
	fs := r.fields[page]
	if index < 0 || index >= len(fs) {
		return false
	}
	fs = slices.Delete(slices.Clone(fs), index, index+1)
	if len(fs) == 0 {
		delete(r.fields, page)
	} else {
		r.fields[page] = fs
	}
	return true
}

// forPage returns a copy of the fields of page, or nil.
func (r *registry) forPage(page int) []TextField {
	fs, ok := r.fields[page]
	if !ok {
		return nil
	}
	out := make([]TextField, len(fs))
	for i, f := range fs {
		out[i] = f.clone()
	}
	return out
}

// pages returns the pages that have fields, in ascending order.
func (r *registry) pages() []int {
	return slices.Sorted(maps.Keys(r.fields))
}

func (r *registry) len() int {
	n := 0
	for _, fs := range r.fields {
		n += len(fs)
	}
	return n
}
