// Package fillspec describes form filling jobs in JSON.
//
// A job names a source PDF, an output path, document-wide defaults and the
// text fields to place. Coordinates are in points with the origin at the
// top-left corner of the page, and pages are 0-based.
//
// Example JSON:
//
//	{
//	  "source": "form.pdf",
//	  "output": "filled.pdf",
//	  "style": {"family": "Helvetica", "size": 12},
//	  "boxes": true,
//	  "fields": [
//	    {"text": "Joe Smith", "page": 0, "upperLeft": [50, 50], "lowerRight": [500, 100]}
//	  ]
//	}
package fillspec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Job is a complete fill job.
type Job struct {
	Source  string   `json:"source"`
	Output  string   `json:"output,omitempty"`
	Style   *Style   `json:"style,omitempty"`   // defaults for every field
	Padding *Padding `json:"padding,omitempty"` // default inset of every field
	Boxes   Boxes    `json:"boxes,omitempty"`
	Fields  []Field  `json:"fields"`
}

// Field is one block of text placed on a page.
type Field struct {
	Text       string     `json:"text"`
	Page       int        `json:"page"`
	UpperLeft  [2]float64 `json:"upperLeft"`
	LowerRight [2]float64 `json:"lowerRight"`
	Style      *Style     `json:"style,omitempty"`
	Padding    *Padding   `json:"padding,omitempty"`
}

// Style overrides text appearance. Zero values inherit.
type Style struct {
	Family    string  `json:"family,omitempty"` // Helvetica, Courier, Times
	FontStyle string  `json:"fontStyle,omitempty"`
	Size      float64 `json:"size,omitempty"`
	Leading   float64 `json:"leading,omitempty"`
	MinSize   float64 `json:"minSize,omitempty"`
	Color     *Color  `json:"color,omitempty"`
	Align     string  `json:"align,omitempty"` // L, C, R
}

// Padding insets the text frame inside a field box.
type Padding struct {
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
}

// Color is an RGB color.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Boxes controls debug outlines. In JSON it is either a boolean or a
// color object, which enables outlines in that color.
type Boxes struct {
	Enabled bool
	Color   *Color
}

// UnmarshalJSON accepts true, false, null or a color object.
func (b *Boxes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*b = Boxes{}
		return nil
	case len(data) > 0 && data[0] == '{':
		var c Color
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("boxes: %w", err)
		}
		*b = Boxes{Enabled: true, Color: &c}
		return nil
	}
	var on bool
	if err := json.Unmarshal(data, &on); err != nil {
		return fmt.Errorf("boxes: want a boolean or a color object, got %s", data)
	}
	*b = Boxes{Enabled: on}
	return nil
}

// MarshalJSON writes the color object when one is set and a boolean
// otherwise.
func (b Boxes) MarshalJSON() ([]byte, error) {
	if b.Enabled && b.Color != nil {
		return json.Marshal(b.Color)
	}
	return json.Marshal(b.Enabled)
}
