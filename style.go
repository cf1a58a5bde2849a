package pdfformfiller

import (
	"fmt"
	"math"
	"strings"
)

// Horizontal alignments of text within a field.
const (
	AlignLeft   = "L"
	AlignCenter = "C"
	AlignRight  = "R"
)

// Color is an RGB color with components in [0, 255].
type Color struct {
	R, G, B int
}

func (c Color) valid() bool {
	in := func(v int) bool { return v >= 0 && v <= 255 }
	return in(c.R) && in(c.G) && in(c.B)
}

// Padding is the inner spacing between a field's edges and its text, in
// points.
type Padding struct {
	Left, Bottom, Right, Top float64
}

// Style describes how the text of a field is drawn.
//
// Family names one of the PDF core fonts (Times, Helvetica, Arial,
// Courier, Symbol, ZapfDingbats). FontStyle combines "B", "I" and "U".
// Size is the preferred font size and Leading the distance between
// baselines, both in points. Text that does not fit at Size is shrunk, but
// never below MinSize.
type Style struct {
	Family    string
	FontStyle string
	Size      float64
	Leading   float64
	Color     *Color
	Align     string
	MinSize   float64
}

// DefaultStyle returns the style used when no other style is configured:
// black 20pt Times with 24pt leading, left aligned.
func DefaultStyle() Style {
	return Style{
		Family:  "Times",
		Size:    20,
		Leading: 24,
		Color:   &Color{},
		Align:   AlignLeft,
		MinSize: 1,
	}
}

// over returns s with every zero-valued field taken from base. When s sets
// a size but no leading, the leading keeps base's leading to size ratio.
func (s Style) over(base Style) Style {
	out := base
	if s.Family != "" {
		out.Family = s.Family
	}
	if s.FontStyle != "" {
		out.FontStyle = s.FontStyle
	}
	if s.Size > 0 {
		out.Size = s.Size
		if base.Size > 0 {
			out.Leading = base.Leading * s.Size / base.Size
		}
	}
	if s.Leading > 0 {
		out.Leading = s.Leading
	}
	if s.Color != nil {
		c := *s.Color
		out.Color = &c
	}
	if s.Align != "" {
		out.Align = strings.ToUpper(s.Align)
	}
	if s.MinSize > 0 {
		out.MinSize = s.MinSize
	}
	out.MinSize = min(out.MinSize, out.Size)
	return out
}

var coreFamilies = map[string]bool{
	"times": true, "helvetica": true, "arial": true,
	"courier": true, "symbol": true, "zapfdingbats": true,
}

// validate checks a style as given by a caller, before defaults apply.
func (s Style) validate() error {
	if s.Family != "" && !coreFamilies[strings.ToLower(s.Family)] {
		return fmt.Errorf("%w: unknown font family %q", ErrInvalidStyle, s.Family)
	}
	if strings.Trim(strings.ToUpper(s.FontStyle), "BIU") != "" {
		return fmt.Errorf("%w: font style %q", ErrInvalidStyle, s.FontStyle)
	}
	for _, v := range []float64{s.Size, s.Leading, s.MinSize} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: size %v", ErrInvalidStyle, v)
		}
	}
	switch strings.ToUpper(s.Align) {
	case "", AlignLeft, AlignCenter, AlignRight:
	default:
		return fmt.Errorf("%w: alignment %q", ErrInvalidStyle, s.Align)
	}
	if s.Color != nil && !s.Color.valid() {
		return fmt.Errorf("%w: color %v", ErrInvalidStyle, *s.Color)
	}
	return nil
}

func (p Padding) validate() error {
	for _, v := range []float64{p.Left, p.Bottom, p.Right, p.Top} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: padding %v", ErrInvalidGeometry, v)
		}
	}
	return nil
}
