package pdfformfiller

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/lvillar/pdfformfiller/pageops"
	"github.com/lvillar/pdfformfiller/reader"
)

// source yields the bytes of the document being filled.
type source interface {
	load() ([]byte, error)
}

// fileSource re-opens its file on every load.
type fileSource struct {
	path string
}

func (s fileSource) load() ([]byte, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// streamSource reads a caller-owned stream from the offset it had when
// the Filler was created. It never closes the stream.
type streamSource struct {
	r     io.ReadSeeker
	start int64
}

func (s streamSource) load() ([]byte, error) {
	if _, err := s.r.Seek(s.start, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(s.r)
}

// Filler overlays text fields onto the pages of an existing PDF.
// A Filler is not safe for concurrent use.
type Filler struct {
	src   source
	cfg   config
	pages []pageInfo
	reg   registry
}

// pageInfo is what a Filler remembers about a source page.
type pageInfo struct {
	media  reader.Rectangle
	rotate int
}

// height is the height of the page as displayed, after rotation.
func (p pageInfo) height() float64 {
	_, h := pageops.DisplaySize(p.media, p.rotate)
	return h
}

// Open returns a Filler for the PDF file at path. The file is opened and
// closed again by every operation that reads it.
func Open(path string, opts ...Option) (*Filler, error) {
	return newFiller(fileSource{path: path}, opts)
}

// New returns a Filler reading the PDF from r, starting at r's current
// offset. r is never closed; it must stay usable, with unchanged content,
// for as long as the Filler is written.
func New(r io.ReadSeeker, opts ...Option) (*Filler, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	return newFiller(streamSource{r: r, start: start}, opts)
}

func newFiller(src source, opts []Option) (*Filler, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.style.validate(); err != nil {
		return nil, newFillError("Open", -1, err)
	}
	if err := cfg.padding.validate(); err != nil {
		return nil, newFillError("Open", -1, err)
	}
	if !cfg.boxColor.valid() {
		return nil, newFillError("Open", -1, fmt.Errorf("%w: box color %v", ErrInvalidStyle, cfg.boxColor))
	}

	data, err := src.load()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, newFillError("Open", -1, ErrEmptySource)
	}
	doc, err := reader.Parse(data)
	if err != nil {
		return nil, newFillError("Open", -1, err)
	}

	f := &Filler{src: src, cfg: cfg, reg: newRegistry()}
	for _, p := range doc.Pages() {
		f.pages = append(f.pages, pageInfo{media: p.MediaBox, rotate: p.Rotate})
	}
	cfg.logger.Debug("opened source", slog.Int("pages", len(f.pages)), slog.String("version", doc.Version))
	return f, nil
}

// NumPages returns the number of pages of the source document.
func (f *Filler) NumPages() int {
	return len(f.pages)
}

// MediaBox returns the media box of the 0-based page.
func (f *Filler) MediaBox(page int) (reader.Rectangle, error) {
	if page < 0 || page >= len(f.pages) {
		return reader.Rectangle{}, newFillError("MediaBox", page, ErrPageNotFound)
	}
	return f.pages[page].media, nil
}

// AddText registers text to be drawn on the 0-based page inside the box
// spanned by upperLeft and lowerRight. Coordinates are in points from the
// top-left corner of the page as a viewer displays it, so a page with a
// /Rotate entry is addressed in its rotated orientation. On error nothing
// is registered.
func (f *Filler) AddText(text string, page int, upperLeft, lowerRight Point, opts ...FieldOption) error {
	if page < 0 || page >= len(f.pages) {
		return newFillError("AddText", page, ErrPageNotFound)
	}
	for _, v := range []float64{upperLeft.X, upperLeft.Y, lowerRight.X, lowerRight.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return newFillError("AddText", page, fmt.Errorf("%w: coordinate %v", ErrInvalidGeometry, v))
		}
	}

	field := TextField{
		Text: text,
		Rect: Normalize(f.pages[page].height(), upperLeft, lowerRight),
	}
	if !field.Rect.Valid() {
		return newFillError("AddText", page, fmt.Errorf("%w: %gx%g box", ErrInvalidGeometry, field.Rect.Width, field.Rect.Height))
	}
	for _, opt := range opts {
		opt(&field)
	}
	if field.Style != nil {
		if err := field.Style.validate(); err != nil {
			return newFillError("AddText", page, err)
		}
	}
	if field.Padding != nil {
		if err := field.Padding.validate(); err != nil {
			return newFillError("AddText", page, err)
		}
	}

	f.reg.add(page, field)
	f.cfg.logger.Debug("field added",
		slog.Int("page", page),
		slog.Float64("x", field.Rect.X), slog.Float64("y", field.Rect.Y),
		slog.Float64("width", field.Rect.Width), slog.Float64("height", field.Rect.Height))
	return nil
}

// RemoveField removes the index-th field of the 0-based page.
func (f *Filler) RemoveField(page, index int) error {
	if !f.reg.remove(page, index) {
		return newFillError("RemoveField", page, fmt.Errorf("%w: index %d", ErrFieldNotFound, index))
	}
	f.cfg.logger.Debug("field removed", slog.Int("page", page), slog.Int("index", index))
	return nil
}

// FieldsForPage returns a copy of the fields registered for the 0-based
// page, in insertion order. It returns nil when there are none.
func (f *Filler) FieldsForPage(page int) []TextField {
	return f.reg.forPage(page)
}

// Pages returns the 0-based pages that have at least one field.
func (f *Filler) Pages() []int {
	return f.reg.pages()
}

// NumFields returns the number of registered fields.
func (f *Filler) NumFields() int {
	return f.reg.len()
}

// Write composes the filled document and writes it to w. Pages without
// fields are copied unchanged. Rotated pages are written upright at their
// displayed size. URI links are carried over; other annotations, form
// widgets included, are not. The whole document is built before the
// first byte is written; w is not closed.
func (f *Filler) Write(w io.Writer) error {
	out, err := f.compose()
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	f.cfg.logger.Info("document written",
		slog.Int("pages", len(f.pages)),
		slog.Int("fields", f.reg.len()),
		slog.Int("bytes", len(out)))
	return nil
}

// WriteFile writes the filled document to path. The file is replaced
// atomically; on failure no partial output is left behind.
func (f *Filler) WriteFile(path string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = f.Write(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// compose builds the output document in memory.
func (f *Filler) compose() ([]byte, error) {
	data, err := f.src.load()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, newFillError("Write", -1, ErrEmptySource)
	}

	c := pageops.NewComposer()
	src, err := c.Import(data)
	if err != nil {
		return nil, newFillError("Write", -1, err)
	}
	n := src.NumPages()
	for _, p := range f.reg.pages() {
		if p >= n {
			return nil, newFillError("Write", p, ErrPageNotFound)
		}
	}

	for i := range n {
		tpl, err := c.ImportPage(src, i+1)
		if err != nil {
			return nil, newFillError("Write", i, err)
		}
		if tpl.Dropped > 0 {
			f.cfg.logger.Debug("annotations dropped", slog.Int("page", i), slog.Int("count", tpl.Dropped))
		}
		if err := c.AddPage(tpl); err != nil {
			return nil, newFillError("Write", i, err)
		}
		fields := f.reg.fields[i]
		if len(fields) == 0 {
			f.cfg.logger.Debug("page passed through", slog.Int("page", i))
			continue
		}
		ov := pageops.NewOverlay(tpl.Width, tpl.Height)
		f.drawFields(ov, i, fields)
		if err := c.StackOverlay(ov); err != nil {
			return nil, newFillError("Write", i, err)
		}
		f.cfg.logger.Debug("page composited", slog.Int("page", i), slog.Int("fields", len(fields)))
	}

	var buf bytes.Buffer
	if err := c.Output(&buf); err != nil {
		return nil, newFillError("Write", -1, err)
	}
	return buf.Bytes(), nil
}
