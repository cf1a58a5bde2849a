// Package reader parses existing PDF files far enough to answer the
// questions a form filler asks before and after it stamps text onto a
// document: how many pages there are, what each page's media box is, and
// what text a page shows.
//
// Classic cross-reference tables, cross-reference streams (PDF 1.5),
// compressed object streams and the Flate, ASCIIHex and ASCII85 filters
// (with PNG and TIFF predictors) are supported. Encrypted documents are
// rejected with ErrEncrypted.
package reader

import (
	"fmt"
	"strconv"
)

// Object is the interface satisfied by all PDF object types.
// The unexported method prevents external types from implementing it.
type Object interface {
	pdfObject()
	String() string
}

// Null represents the PDF null object.
type Null struct{}

func (Null) pdfObject()     {}
func (Null) String() string { return "null" }

// Boolean represents a PDF boolean value.
type Boolean bool

func (Boolean) pdfObject()       {}
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }

// Integer represents a PDF integer value.
type Integer int64

func (Integer) pdfObject()       {}
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF real (floating-point) value.
type Real float64

func (Real) pdfObject()       {}
func (r Real) String() string { return strconv.FormatFloat(float64(r), 'g', -1, 64) }

// Name represents a PDF name object (e.g., /Type, /Pages).
type Name string

func (Name) pdfObject()       {}
func (n Name) String() string { return "/" + string(n) }

// String represents a PDF string (literal or hexadecimal).
type String struct {
	Value []byte
	IsHex bool
}

func (String) pdfObject() {}
func (s String) String() string {
	if s.IsHex {
		return fmt.Sprintf("<%x>", s.Value)
	}
	return fmt.Sprintf("(%s)", s.Value)
}

// Array represents a PDF array of objects.
type Array []Object

func (Array) pdfObject()       {}
func (a Array) String() string { return fmt.Sprintf("[array len=%d]", len(a)) }

// Dict represents a PDF dictionary mapping names to objects.
type Dict map[Name]Object

func (Dict) pdfObject()       {}
func (d Dict) String() string { return fmt.Sprintf("<<dict len=%d>>", len(d)) }

// GetName returns the value of a name entry, or "" if absent.
func (d Dict) GetName(key Name) Name {
	n, _ := d[key].(Name)
	return n
}

// GetInt returns the value of a numeric entry truncated to an integer.
func (d Dict) GetInt(key Name) (int64, bool) {
	v, ok := number(d[key])
	return int64(v), ok
}

// GetDict returns a direct sub-dictionary, or nil.
func (d Dict) GetDict(key Name) Dict {
	sub, _ := d[key].(Dict)
	return sub
}

// GetArray returns a direct array entry, or nil.
func (d Dict) GetArray(key Name) Array {
	arr, _ := d[key].(Array)
	return arr
}

// number converts Integer and Real objects to float64.
func number(obj Object) (float64, bool) {
	switch n := obj.(type) {
	case Integer:
		return float64(n), true
	case Real:
		return float64(n), true
	}
	return 0, false
}

// Stream represents a PDF stream object (dictionary + encoded data).
type Stream struct {
	Dict Dict
	Data []byte // raw data, still encoded
}

func (Stream) pdfObject()       {}
func (s Stream) String() string { return fmt.Sprintf("<<stream len=%d>>", len(s.Data)) }

// Decode applies the stream's filter chain and returns the plain data.
func (s Stream) Decode() ([]byte, error) { return decodeStream(s) }

// Reference represents an indirect object reference (e.g., "10 0 R").
type Reference struct {
	Number     int
	Generation int
}

func (Reference) pdfObject() {}
func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// IndirectObject represents a PDF indirect object definition (e.g., "10 0 obj ... endobj").
type IndirectObject struct {
	Reference
	Value Object
}

func (IndirectObject) pdfObject() {}
func (o IndirectObject) String() string {
	return fmt.Sprintf("%d %d obj %s", o.Number, o.Generation, o.Value)
}
