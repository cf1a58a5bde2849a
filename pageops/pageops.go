// Package pageops composes output documents out of pages imported from
// existing PDF files and from overlay pages drawn with fpdf.
//
// It uses the reader package to learn page counts, media boxes, rotation
// and annotations, and the gofpdi contrib package to import pages as form
// XObject templates into a new fpdf document. Every imported page is drawn
// 1:1 and upright: a page with a /Rotate entry becomes an unrotated output
// page of its displayed size, with its origin at the lower-left corner of
// what a viewer shows.
package pageops

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/lvillar/pdfformfiller/reader"
)

const importBox = "/MediaBox"

// Composer builds an output document one page at a time.
// A Composer is not safe for concurrent use.
type Composer struct {
	pdf *fpdf.Fpdf
	imp *gofpdi.Importer

	// The importer identifies sources by the address of their stream, so
	// every stream handed to it must stay reachable until Output returns.
	streams []*io.ReadSeeker
}

// Source is a PDF document registered with a Composer. All of its pages
// are imported when it is registered.
type Source struct {
	doc  *reader.Document
	tpls []Template
}

// NumPages returns the number of pages of the source.
func (s *Source) NumPages() int { return s.doc.NumPages() }

// MediaBox returns the media box of the 1-based page n.
func (s *Source) MediaBox(n int) (reader.Rectangle, error) {
	p, err := s.doc.Page(n)
	if err != nil {
		return reader.Rectangle{}, err
	}
	return p.MediaBox, nil
}

// Template is an imported page ready to be drawn. Width and Height are
// the displayed size of the page.
type Template struct {
	id            int
	Width, Height float64

	links []link

	// Dropped counts the annotations of the source page that are not
	// carried over to the output.
	Dropped int
}

// link is a URI link annotation in fpdf coordinates of the output page.
type link struct {
	x, y, w, h float64
	uri        string
}

// DisplaySize returns the size of a page with the given media box as a
// viewer shows it once rotate is applied.
func DisplaySize(box reader.Rectangle, rotate int) (w, h float64) {
	if rotate == 90 || rotate == 270 {
		return box.Height(), box.Width()
	}
	return box.Width(), box.Height()
}

// displayRect maps r, given in the user space of a page with the given
// media box and rotation, to a top-left-origin rectangle on the upright
// page.
func displayRect(box reader.Rectangle, rotate int, r reader.Rectangle) (x, y, w, h float64) {
	bw, bh := box.Width(), box.Height()
	x1, x2 := r.LLX-box.LLX, r.URX-box.LLX
	y1, y2 := r.LLY-box.LLY, r.URY-box.LLY

	var minX, maxX, minY, maxY float64
	switch rotate {
	case 90:
		minX, maxX, minY, maxY = y1, y2, bw-x2, bw-x1
	case 180:
		minX, maxX, minY, maxY = bw-x2, bw-x1, bh-y2, bh-y1
	case 270:
		minX, maxX, minY, maxY = bh-y2, bh-y1, x1, x2
	default:
		minX, maxX, minY, maxY = x1, x2, y1, y2
	}
	_, dh := DisplaySize(box, rotate)
	return minX, dh - maxY, maxX - minX, maxY - minY
}

// NewComposer returns a Composer producing an empty document.
func NewComposer() *Composer {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	return &Composer{pdf: pdf, imp: gofpdi.NewImporter()}
}

// Import registers PDF data as a source and imports every one of its
// pages. The data must not be modified until Output has returned.
//
// The importer keeps a single current source, so pages of a source can
// only be imported while it is the latest one; importing them all here
// keeps the order of Import, ImportPage and StackOverlay calls free.
func (c *Composer) Import(data []byte) (*Source, error) {
	doc, err := reader.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("pageops: %w", err)
	}
	rs := io.ReadSeeker(bytes.NewReader(data))
	c.streams = append(c.streams, &rs)

	src := &Source{doc: doc, tpls: make([]Template, doc.NumPages())}
	for i := range src.tpls {
		p, err := doc.Page(i + 1)
		if err != nil {
			return nil, fmt.Errorf("pageops: %w", err)
		}
		if src.tpls[i], err = c.importPage(&rs, p); err != nil {
			return nil, err
		}
	}
	return src, nil
}

// importPage imports p from the stream rs it was parsed from.
func (c *Composer) importPage(rs *io.ReadSeeker, p *reader.Page) (tpl Template, err error) {
	defer recoverImport(&err, p.Number)

	tpl.id = c.imp.ImportPageFromStream(c.pdf, rs, p.Number, importBox)
	box := p.MediaBox

	// Prefer the importer's view of the page so the template is drawn
	// unscaled even when it disagrees with the reader. The importer
	// reports the unrotated size.
	if dims, ok := c.imp.GetPageSizes()[p.Number][importBox]; ok && dims["w"] > 0 && dims["h"] > 0 {
		box.URX, box.URY = box.LLX+dims["w"], box.LLY+dims["h"]
	}
	tpl.Width, tpl.Height = DisplaySize(box, p.Rotate)
	if c.pdf.Err() {
		return Template{}, fmt.Errorf("pageops: importing page %d: %w", p.Number, c.pdf.Error())
	}

	annots, err := p.Annotations()
	if err != nil {
		return Template{}, fmt.Errorf("pageops: %w", err)
	}
	for _, a := range annots {
		if a.Subtype != "Link" || a.URI == "" {
			tpl.Dropped++
			continue
		}
		x, y, w, h := displayRect(box, p.Rotate, a.Rect)
		tpl.links = append(tpl.links, link{x: x, y: y, w: w, h: h, uri: a.URI})
	}
	return tpl, nil
}

// ImportPage returns the template of the 1-based page n of src.
func (c *Composer) ImportPage(src *Source, n int) (Template, error) {
	if n < 1 || n > len(src.tpls) {
		return Template{}, fmt.Errorf("pageops: page %d out of range [1, %d]", n, len(src.tpls))
	}
	return src.tpls[n-1], nil
}

// recoverImport turns a panic raised inside gofpdi into an error.
func recoverImport(err *error, page int) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = fmt.Errorf("pageops: importing page %d: %w", page, e)
			return
		}
		*err = fmt.Errorf("pageops: importing page %d: %v", page, r)
	}
}

// AddPage starts a new output page sized to tpl, draws tpl on it and
// recreates the URI links of the source page.
func (c *Composer) AddPage(tpl Template) error {
	if tpl.Width <= 0 || tpl.Height <= 0 {
		return fmt.Errorf("pageops: template has empty size %gx%g", tpl.Width, tpl.Height)
	}
	c.pdf.AddPageFormat("P", fpdf.SizeType{Wd: tpl.Width, Ht: tpl.Height})
	if err := c.Stack(tpl); err != nil {
		return err
	}
	for _, l := range tpl.links {
		c.pdf.LinkString(l.x, l.y, l.w, l.h, l.uri)
	}
	return nil
}

// Stack draws tpl over everything already drawn on the current page.
func (c *Composer) Stack(tpl Template) error {
	if c.pdf.PageCount() == 0 {
		return fmt.Errorf("pageops: no page to stack on")
	}
	c.imp.UseImportedTemplate(c.pdf, tpl.id, 0, 0, tpl.Width, tpl.Height)
	if c.pdf.Err() {
		return fmt.Errorf("pageops: drawing template: %w", c.pdf.Error())
	}
	return nil
}

// PageCount returns the number of pages added so far.
func (c *Composer) PageCount() int {
	return c.pdf.PageCount()
}

// Output writes the composed document to w. The Composer must not be used
// afterwards.
func (c *Composer) Output(w io.Writer) error {
	if c.pdf.PageCount() == 0 {
		return fmt.Errorf("pageops: document has no pages")
	}
	if err := c.pdf.Output(w); err != nil {
		return fmt.Errorf("pageops: writing document: %w", err)
	}
	c.streams = nil
	return nil
}
