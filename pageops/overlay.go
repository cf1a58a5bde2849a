package pageops

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
)

// Overlay is a single transparent page drawn with fpdf and later stacked
// over an imported page of the same size.
type Overlay struct {
	*fpdf.Fpdf
	Width, Height float64
}

// NewOverlay returns an overlay whose only page measures w x h points.
// Drawing uses fpdf's top-left origin.
func NewOverlay(w, h float64) *Overlay {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPage()
	return &Overlay{Fpdf: pdf, Width: w, Height: h}
}

// Bytes serializes the overlay. The overlay must not be drawn on
// afterwards.
func (o *Overlay) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := o.Output(&buf); err != nil {
		return nil, fmt.Errorf("pageops: rendering overlay: %w", err)
	}
	return buf.Bytes(), nil
}

// StackOverlay serializes o, imports it and draws it over the current
// page.
func (c *Composer) StackOverlay(o *Overlay) error {
	data, err := o.Bytes()
	if err != nil {
		return err
	}
	src, err := c.Import(data)
	if err != nil {
		return fmt.Errorf("pageops: reading overlay: %w", err)
	}
	tpl, err := c.ImportPage(src, 1)
	if err != nil {
		return err
	}
	return c.Stack(tpl)
}
