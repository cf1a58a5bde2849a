package reader

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"
)

// ErrEncrypted is returned for documents carrying an /Encrypt dictionary.
var ErrEncrypted = errors.New("reader: document is encrypted")

// Document represents a parsed PDF document.
type Document struct {
	Version string // PDF version from file header (e.g., "1.7")
	xref    xrefTable
	trailer Dict
	data    []byte
	pages   []*Page
	objStms map[int]*objectStream
}

// Open reads and parses a PDF file from disk. The file is closed before
// Open returns.
func Open(filename string) (*Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadFrom(f)
}

// ReadFrom parses a PDF document from r, which is read to EOF.
func ReadFrom(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reader: reading input: %w", err)
	}
	return Parse(data)
}

// Parse builds a Document from raw PDF bytes. The slice is retained and
// must not be modified afterwards.
func Parse(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("reader: empty input")
	}
	doc := &Document{
		data:    data,
		Version: parseVersion(data),
		objStms: make(map[int]*objectStream),
	}

	start, err := findStartXRef(data)
	if err == nil {
		doc.xref, doc.trailer, err = readXRef(data, start)
	}
	if err == nil {
		if _, ok := doc.trailer["Encrypt"]; ok {
			return nil, ErrEncrypted
		}
		err = doc.buildPageList()
	}
	if err == nil {
		return doc, nil
	}

	// Offsets are often stale in hand-edited files; fall back to a scan.
	xref, trailer, rerr := rebuildXRef(data)
	if rerr != nil {
		return nil, err
	}
	doc.xref, doc.trailer = xref, trailer
	if err := doc.buildPageList(); err != nil {
		return nil, err
	}
	return doc, nil
}

// parseVersion extracts the version from the "%PDF-x.y" header.
func parseVersion(data []byte) string {
	header := string(data[:min(1024, len(data))])
	idx := strings.Index(header, "%PDF-")
	if idx < 0 {
		return ""
	}
	rest := header[idx+5:]
	end := strings.IndexAny(rest, " \t\r\n%")
	if end < 0 {
		end = len(rest)
	}
	return rest[:end]
}

// NumPages returns the total number of pages in the document.
func (d *Document) NumPages() int {
	return len(d.pages)
}

// Page returns the page at the given 1-based index.
func (d *Document) Page(n int) (*Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("reader: page %d out of range [1, %d]", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// Pages returns an iterator over all pages. Index is 1-based.
func (d *Document) Pages() iter.Seq2[int, *Page] {
	return func(yield func(int, *Page) bool) {
		for i, page := range d.pages {
			if !yield(i+1, page) {
				return
			}
		}
	}
}

// Metadata returns the text entries of the /Info dictionary.
func (d *Document) Metadata() map[string]string {
	meta := make(map[string]string)
	info, _ := d.resolveIfRef(d.trailer["Info"])
	infoDict, ok := info.(Dict)
	if !ok {
		return meta
	}
	for _, key := range []Name{"Title", "Author", "Subject", "Keywords", "Creator", "Producer"} {
		v, _ := d.resolveIfRef(infoDict[key])
		if s, ok := v.(String); ok {
			meta[string(key)] = decodePDFString(s.Value)
		}
	}
	return meta
}

// ResolveReference resolves an indirect reference to the object it names.
// Missing or free objects resolve to Null, as the PDF format prescribes.
func (d *Document) ResolveReference(ref Reference) (Object, error) {
	return d.resolve(ref)
}

func (d *Document) resolve(ref Reference) (Object, error) {
	entry, ok := d.xref[ref.Number]
	if !ok || !entry.InUse {
		return Null{}, nil
	}
	if entry.compressed() {
		return d.resolveCompressed(ref.Number, entry)
	}
	if entry.Offset < 0 || entry.Offset >= int64(len(d.data)) {
		return nil, fmt.Errorf("reader: object %d offset %d out of bounds", ref.Number, entry.Offset)
	}

	p := newParser(d.data[entry.Offset:])
	p.streamLength = d.lengthOf
	obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("reader: parsing object %d: %w", ref.Number, err)
	}
	return obj.Value, nil
}

// lengthOf resolves an indirect /Length for the parser.
func (d *Document) lengthOf(ref Reference) (int, bool) {
	entry, ok := d.xref[ref.Number]
	if !ok || entry.compressed() || entry.Offset < 0 || entry.Offset >= int64(len(d.data)) {
		return 0, false
	}
	p := newParser(d.data[entry.Offset:])
	obj, err := p.ParseIndirectObject()
	if err != nil {
		return 0, false
	}
	n, ok := obj.Value.(Integer)
	return int(n), ok && n >= 0
}

// resolveIfRef resolves obj when it is a Reference and returns it otherwise.
func (d *Document) resolveIfRef(obj Object) (Object, error) {
	if ref, ok := obj.(Reference); ok {
		return d.resolve(ref)
	}
	return obj, nil
}

// objectStream is a decoded /Type /ObjStm stream.
type objectStream struct {
	data    []byte
	offsets []int // offset of the i-th object, relative to data
}

func (d *Document) resolveCompressed(num int, entry xrefEntry) (Object, error) {
	stm, err := d.objectStream(entry.Stream)
	if err != nil {
		return nil, fmt.Errorf("reader: object %d: %w", num, err)
	}
	if entry.Index < 0 || entry.Index >= len(stm.offsets) {
		return nil, fmt.Errorf("reader: object %d: index %d outside object stream %d", num, entry.Index, entry.Stream)
	}
	p := newParser(stm.data[stm.offsets[entry.Index]:])
	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("reader: object %d in stream %d: %w", num, entry.Stream, err)
	}
	return obj, nil
}

func (d *Document) objectStream(num int) (*objectStream, error) {
	if stm, ok := d.objStms[num]; ok {
		return stm, nil
	}
	entry, ok := d.xref[num]
	if !ok || entry.compressed() {
		return nil, fmt.Errorf("object stream %d not found", num)
	}
	obj, err := d.resolve(Reference{Number: num})
	if err != nil {
		return nil, err
	}
	s, ok := obj.(Stream)
	if !ok {
		return nil, fmt.Errorf("object %d is not an object stream", num)
	}
	data, err := decodeStream(s)
	if err != nil {
		return nil, err
	}

	n, _ := s.Dict.GetInt("N")
	first, _ := s.Dict.GetInt("First")
	if first < 0 || first > int64(len(data)) {
		return nil, fmt.Errorf("object stream %d has invalid /First", num)
	}
	header := newParser(data[:first])
	stm := &objectStream{data: data[first:]}
	for i := int64(0); i < n; i++ {
		if _, err := strconv.Atoi(header.readToken()); err != nil {
			return nil, fmt.Errorf("object stream %d header: %w", num, err)
		}
		off, err := strconv.Atoi(header.readToken())
		if err != nil || off < 0 || off > len(stm.data) {
			return nil, fmt.Errorf("object stream %d header: bad offset", num)
		}
		stm.offsets = append(stm.offsets, off)
	}
	d.objStms[num] = stm
	return stm, nil
}
